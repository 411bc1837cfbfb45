package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
)

// ListNFT offers the caller's token at price and approves the ledger to
// move it on purchase.
func (l *Ledger) ListNFT(ctx context.Context, call Call, tokenId uint64, price *big.Int) error {
	return l.execute(ctx, call, "listNFT", func(t *txn) error {
		if err := nonPayable(t); err != nil {
			return err
		}
		tok, err := l.requireOwnership(t, tokenId)
		if err != nil {
			return err
		}
		if price == nil || price.Sign() <= 0 {
			return fmt.Errorf("%w: %v", ErrInvalidPrice, price)
		}
		if l.listings[tokenId].IsActive {
			return fmt.Errorf("%w: %d", ErrAlreadyListed, tokenId)
		}

		setKey(t, l.listings, tokenId, entity.Listing{Seller: t.caller, Price: new(big.Int).Set(price), IsActive: true})
		t.indexAdd(tokenId)
		l.approve(t, tok.owner, l.self, tokenId)

		t.emit(entity.Record{Kind: entity.ListedRecord, TokenId: tokenId, From: t.caller, Amount: new(big.Int).Set(price)})
		return nil
	})
}

func (l *Ledger) UpdateListingPrice(ctx context.Context, call Call, tokenId uint64, price *big.Int) error {
	return l.execute(ctx, call, "updateListingPrice", func(t *txn) error {
		if err := nonPayable(t); err != nil {
			return err
		}
		if _, err := l.requireOwnership(t, tokenId); err != nil {
			return err
		}
		listing := l.listings[tokenId]
		if !listing.IsActive {
			return fmt.Errorf("%w: %d", ErrNotListed, tokenId)
		}
		if price == nil || price.Sign() <= 0 {
			return fmt.Errorf("%w: %v", ErrInvalidPrice, price)
		}

		old := listing.Price
		listing.Price = new(big.Int).Set(price)
		setKey(t, l.listings, tokenId, listing)

		t.emit(entity.Record{
			Kind:     entity.ListingPriceUpdatedRecord,
			TokenId:  tokenId,
			From:     t.caller,
			OldValue: new(big.Int).Set(old),
			NewValue: new(big.Int).Set(price),
		})
		return nil
	})
}

func (l *Ledger) CancelListing(ctx context.Context, call Call, tokenId uint64) error {
	return l.execute(ctx, call, "cancelListing", func(t *txn) error {
		if err := nonPayable(t); err != nil {
			return err
		}
		if _, err := l.requireOwnership(t, tokenId); err != nil {
			return err
		}
		listing := l.listings[tokenId]
		if !listing.IsActive {
			return fmt.Errorf("%w: %d", ErrNotListed, tokenId)
		}

		l.deactivate(t, tokenId)
		t.emit(entity.Record{Kind: entity.ListingCancelledRecord, TokenId: tokenId, From: listing.Seller})
		return nil
	})
}

// deactivate flags the listing inactive and drops it from the active index.
// The listing itself is kept for history.
func (l *Ledger) deactivate(t *txn, tokenId uint64) {
	listing := l.listings[tokenId]
	listing.IsActive = false
	setKey(t, l.listings, tokenId, listing)
	t.indexRemove(tokenId)
}

func (l *Ledger) requireOwnership(t *txn, tokenId uint64) (token, error) {
	tok, err := l.requireToken(tokenId)
	if err != nil {
		return token{}, err
	}
	if tok.owner != t.caller {
		return token{}, fmt.Errorf("%w: %s on %d", ErrNotTokenOwner, t.caller.Hex(), tokenId)
	}
	return tok, nil
}
