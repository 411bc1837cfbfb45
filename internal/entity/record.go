package entity

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosimple/slug"
)

// Record is one entry of the ledger's audit trail. Which fields are
// meaningful depends on Kind; Args gives the positional view indexers consume.
type Record struct {
	Seq      uint64     `json:"seq"`
	CallId   string     `json:"callId"`
	Kind     RecordKind `json:"kind"`
	Time     time.Time  `json:"time"`
	Contract string     `json:"contract"`

	TokenId uint64         `json:"tokenId"`
	From    common.Address `json:"from"`
	To      common.Address `json:"to"`
	Uri     string         `json:"uri,omitempty"`
	Flag    bool           `json:"flag,omitempty"`

	Amount   *big.Int `json:"amount,omitempty"`
	OldValue *big.Int `json:"oldValue,omitempty"`
	NewValue *big.Int `json:"newValue,omitempty"`
	Fee      *big.Int `json:"fee,omitempty"`
	Royalty  *big.Int `json:"royalty,omitempty"`
	Proceeds *big.Int `json:"proceeds,omitempty"`
}

type RecordKind string

const (
	MintedRecord                    RecordKind = "Minted"
	TransferRecord                  RecordKind = "Transfer"
	ApprovalRecord                  RecordKind = "Approval"
	ApprovalForAllRecord            RecordKind = "ApprovalForAll"
	ListedRecord                    RecordKind = "Listed"
	ListingPriceUpdatedRecord       RecordKind = "ListingPriceUpdated"
	ListingCancelledRecord          RecordKind = "ListingCancelled"
	SoldRecord                      RecordKind = "Sold"
	RoyaltyAccruedRecord            RecordKind = "RoyaltyAccrued"
	ListenRecordedRecord            RecordKind = "ListenRecorded"
	ExcessRefundedRecord            RecordKind = "ExcessRefunded"
	RoyaltiesWithdrawnRecord        RecordKind = "RoyaltiesWithdrawn"
	FeesWithdrawnRecord             RecordKind = "FeesWithdrawn"
	MarketplaceFeeUpdatedRecord     RecordKind = "MarketplaceFeeUpdated"
	MintFeeUpdatedRecord            RecordKind = "MintFeeUpdated"
	AdministrationTransferredRecord RecordKind = "AdministrationTransferred"
)

func (r Record) Slug() string {
	return CreateRecordSlug(r.Seq, r.Kind)
}

func CreateRecordSlug(seq uint64, kind RecordKind) string {
	return slug.Make(fmt.Sprintf("record-%d-%s", seq, kind))
}

// Args returns the record's fields in their fixed emission order. The order
// is part of the indexer contract and must not change.
func (r Record) Args() []interface{} {
	switch r.Kind {
	case MintedRecord:
		return []interface{}{r.TokenId, r.To, r.Uri}
	case TransferRecord:
		return []interface{}{r.From, r.To, r.TokenId}
	case ApprovalRecord:
		return []interface{}{r.From, r.To, r.TokenId}
	case ApprovalForAllRecord:
		return []interface{}{r.From, r.To, r.Flag}
	case ListedRecord:
		return []interface{}{r.TokenId, r.From, r.Amount}
	case ListingPriceUpdatedRecord:
		return []interface{}{r.TokenId, r.OldValue, r.NewValue}
	case ListingCancelledRecord:
		return []interface{}{r.TokenId, r.From}
	case SoldRecord:
		return []interface{}{r.TokenId, r.From, r.To, r.Amount}
	case RoyaltyAccruedRecord:
		return []interface{}{r.TokenId, r.To, r.Amount}
	case ListenRecordedRecord:
		return []interface{}{r.TokenId, r.From, r.Amount, r.Proceeds, r.Royalty}
	case ExcessRefundedRecord, RoyaltiesWithdrawnRecord, FeesWithdrawnRecord:
		return []interface{}{r.To, r.Amount}
	case MarketplaceFeeUpdatedRecord, MintFeeUpdatedRecord:
		return []interface{}{r.OldValue, r.NewValue}
	case AdministrationTransferredRecord:
		return []interface{}{r.From, r.To}
	}
	return nil
}
