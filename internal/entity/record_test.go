package entity

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestRecord_ArgsOrder(t *testing.T) {
	seller := common.HexToAddress("0x01")
	buyer := common.HexToAddress("0x02")
	price := big.NewInt(1000)

	tests := []struct {
		name   string
		record Record
		want   []interface{}
	}{
		{"sold", Record{Kind: SoldRecord, TokenId: 7, From: seller, To: buyer, Amount: price, Fee: big.NewInt(25)},
			[]interface{}{uint64(7), seller, buyer, price}},
		{"listed", Record{Kind: ListedRecord, TokenId: 3, From: seller, Amount: price},
			[]interface{}{uint64(3), seller, price}},
		{"cancelled", Record{Kind: ListingCancelledRecord, TokenId: 3, From: seller},
			[]interface{}{uint64(3), seller}},
		{"fee updated", Record{Kind: MarketplaceFeeUpdatedRecord, OldValue: big.NewInt(250), NewValue: big.NewInt(300)},
			[]interface{}{big.NewInt(250), big.NewInt(300)}},
		{"minted", Record{Kind: MintedRecord, TokenId: 0, To: seller, Uri: "ipfs://x"},
			[]interface{}{uint64(0), seller, "ipfs://x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.Args())
		})
	}
}

func TestRecord_Slug(t *testing.T) {
	r := Record{Seq: 12, Kind: SoldRecord}
	assert.Equal(t, "record-12-sold", r.Slug())
}
