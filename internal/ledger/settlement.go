package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ethereum/go-ethereum/common"
)

// Split is the division of a sale price. Fee + Royalty + Proceeds == Price.
type Split struct {
	Price    *big.Int       `json:"price"`
	Fee      *big.Int       `json:"fee"`
	Royalty  *big.Int       `json:"royalty"`
	Proceeds *big.Int       `json:"proceeds"`
	Artist   common.Address `json:"artist"`
}

// splitSale computes the marketplace fee and artist royalty with truncating
// division; the seller absorbs the remainder. The royalty is clamped so
// proceeds never go negative.
func splitSale(price *big.Int, feeBps uint64, royalty entity.RoyaltyInfo, hasRoyalty bool) Split {
	s := Split{Price: new(big.Int).Set(price), Fee: entity.BpsOf(price, feeBps), Royalty: new(big.Int)}
	if hasRoyalty {
		s.Artist = royalty.Artist
		s.Royalty = entity.BpsOf(price, royalty.SaleBps)
		if room := new(big.Int).Sub(price, s.Fee); s.Royalty.Cmp(room) > 0 {
			s.Royalty = room
		}
	}
	s.Proceeds = new(big.Int).Sub(price, s.Fee)
	s.Proceeds.Sub(s.Proceeds, s.Royalty)
	return s
}

// QuoteSale returns how a sale of tokenId at price would be divided under
// the current fee.
func (l *Ledger) QuoteSale(ctx context.Context, tokenId uint64, price *big.Int) (Split, error) {
	if price == nil || price.Sign() <= 0 {
		return Split{}, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	var s Split
	err := l.view(ctx, func() {
		info, ok := l.royalties[tokenId]
		s = splitSale(price, l.marketplaceFeeBps, info, ok)
	})
	return s, err
}

// BuyNFT settles an active listing. All shares are credited as pending
// balances; only the buyer's overpayment leaves the ledger immediately.
func (l *Ledger) BuyNFT(ctx context.Context, call Call, tokenId uint64) error {
	return l.execute(ctx, call, "buyNFT", func(t *txn) error {
		listing := l.listings[tokenId].Copy()
		if !listing.IsActive {
			return fmt.Errorf("%w: %d", ErrNotListed, tokenId)
		}
		if t.value.Cmp(listing.Price) < 0 {
			return fmt.Errorf("%w: sent %s, price %s", ErrInsufficientFunds, t.value, listing.Price)
		}
		if owner := l.tokens[tokenId].owner; owner != listing.Seller {
			return fmt.Errorf("%w: listed by %s, owned by %s", ErrNoLongerOwnedBySeller, listing.Seller.Hex(), owner.Hex())
		}

		l.deactivate(t, tokenId)
		l.move(t, listing.Seller, t.caller, tokenId)

		info, hasRoyalty := l.royalties[tokenId]
		split := splitSale(listing.Price, l.marketplaceFeeBps, info, hasRoyalty)

		setField(t, &l.accumulatedFees, new(big.Int).Add(l.accumulatedFees, split.Fee))
		if split.Royalty.Sign() > 0 {
			l.pending.credit(t, split.Artist, split.Royalty)
			t.emit(entity.Record{Kind: entity.RoyaltyAccruedRecord, TokenId: tokenId, To: split.Artist, Amount: new(big.Int).Set(split.Royalty)})
		}
		l.pending.credit(t, listing.Seller, split.Proceeds)

		t.emit(entity.Record{
			Kind:     entity.SoldRecord,
			TokenId:  tokenId,
			From:     listing.Seller,
			To:       t.caller,
			Amount:   new(big.Int).Set(listing.Price),
			Fee:      split.Fee,
			Royalty:  split.Royalty,
			Proceeds: split.Proceeds,
		})

		return t.refundExcess(listing.Price)
	})
}
