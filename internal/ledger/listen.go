package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
)

// RecordListen pays for one listen of tokenId with the attached value,
// split between the current owner and the artist.
func (l *Ledger) RecordListen(ctx context.Context, call Call, tokenId uint64) error {
	return l.execute(ctx, call, "recordListen", func(t *txn) error {
		if t.value.Sign() == 0 {
			return fmt.Errorf("%w: listen payment must be positive", ErrInsufficientFunds)
		}
		if _, err := l.requireToken(tokenId); err != nil {
			return err
		}
		l.creditListen(t, tokenId, t.value)
		return nil
	})
}

// RecordBatchListens pays amounts[i] for a listen of tokenIds[i]. The
// attached value must cover the sum; any excess is refunded once.
func (l *Ledger) RecordBatchListens(ctx context.Context, call Call, tokenIds []uint64, amounts []*big.Int) error {
	return l.execute(ctx, call, "recordBatchListens", func(t *txn) error {
		if len(tokenIds) != len(amounts) {
			return fmt.Errorf("%w: %d tokens, %d amounts", ErrArrayLengthMismatch, len(tokenIds), len(amounts))
		}
		if len(tokenIds) == 0 {
			return ErrEmptyTokenArray
		}

		total := new(big.Int)
		for i, amount := range amounts {
			if amount == nil || amount.Sign() <= 0 {
				return fmt.Errorf("%w: entry %d has no payment", ErrInsufficientFunds, i)
			}
			if _, err := l.requireToken(tokenIds[i]); err != nil {
				return err
			}
			total.Add(total, amount)
		}
		if t.value.Cmp(total) < 0 {
			return fmt.Errorf("%w: sent %s, need %s", ErrInsufficientBatchPayment, t.value, total)
		}

		for i, tokenId := range tokenIds {
			l.creditListen(t, tokenId, amounts[i])
		}
		return t.refundExcess(total)
	})
}

// creditListen splits amount by the token's listen share: the owner gets
// ListenBps, the artist the rest. Without royalty info the owner gets all.
func (l *Ledger) creditListen(t *txn, tokenId uint64, amount *big.Int) {
	owner := l.tokens[tokenId].owner
	ownerShare := new(big.Int).Set(amount)
	artistShare := new(big.Int)

	if info, ok := l.royalties[tokenId]; ok {
		ownerShare = entity.BpsOf(amount, info.ListenBps)
		artistShare = new(big.Int).Sub(amount, ownerShare)
		l.pending.credit(t, info.Artist, artistShare)
	}
	l.pending.credit(t, owner, ownerShare)

	t.emit(entity.Record{
		Kind:     entity.ListenRecordedRecord,
		TokenId:  tokenId,
		From:     t.caller,
		To:       owner,
		Amount:   new(big.Int).Set(amount),
		Proceeds: ownerShare,
		Royalty:  artistShare,
	})
}
