package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ethereum/go-ethereum/common"
)

// validateRoyalty rejects a zero artist whenever any share would reach it.
// ListenBps is the owner's cut, so the artist takes the rest of every listen
// even at zero bps.
func (l *Ledger) validateRoyalty(r entity.RoyaltyInfo) error {
	if r.Artist == (common.Address{}) {
		return fmt.Errorf("%w: royalty artist", ErrZeroAddress)
	}
	if r.SaleBps > l.maxSaleRoyaltyBps {
		return fmt.Errorf("%w: sale royalty %d bps exceeds %d", ErrRoyaltyTooHigh, r.SaleBps, l.maxSaleRoyaltyBps)
	}
	if r.ListenBps > MaxListenBps {
		return fmt.Errorf("%w: listen share %d bps exceeds %d", ErrRoyaltyTooHigh, r.ListenBps, MaxListenBps)
	}
	return nil
}

// setTokenRoyalty is only reachable from mint; royalty info is immutable
// afterwards.
func (l *Ledger) setTokenRoyalty(t *txn, tokenId uint64, r entity.RoyaltyInfo) {
	setKey(t, l.royalties, tokenId, r)
}

// RoyaltyInfo returns the artist and the royalty owed on a sale at
// salePrice. Tokens without royalty information yield the zero address and
// a zero amount.
func (l *Ledger) RoyaltyInfo(ctx context.Context, tokenId uint64, salePrice *big.Int) (common.Address, *big.Int, error) {
	if salePrice == nil || salePrice.Sign() < 0 {
		return common.Address{}, nil, fmt.Errorf("%w: sale price", ErrInvalidValue)
	}

	var (
		receiver common.Address
		amount   = new(big.Int)
	)
	err := l.view(ctx, func() {
		if info, ok := l.royalties[tokenId]; ok {
			receiver = info.Artist
			amount = entity.BpsOf(salePrice, info.SaleBps)
		}
	})
	return receiver, amount, err
}

// TokenRoyalty returns the royalty information recorded at mint.
func (l *Ledger) TokenRoyalty(ctx context.Context, tokenId uint64) (entity.RoyaltyInfo, bool, error) {
	var (
		info entity.RoyaltyInfo
		ok   bool
	)
	err := l.view(ctx, func() {
		info, ok = l.royalties[tokenId]
	})
	return info, ok, err
}
