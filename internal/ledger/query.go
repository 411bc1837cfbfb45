package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ethereum/go-ethereum/common"
)

// Fees is the current fee schedule.
type Fees struct {
	MarketplaceFeeBps uint64   `json:"marketplaceFeeBps"`
	MintFee           *big.Int `json:"mintFee"`
	AccumulatedFees   *big.Int `json:"accumulatedFees"`
}

// GetAllListings pages over the active index. Order follows the index and is
// not chronological once anything has been removed.
func (l *Ledger) GetAllListings(ctx context.Context, skip, take int) ([]entity.ListingView, error) {
	var views []entity.ListingView
	err := l.view(ctx, func() {
		ids := l.active.Page(skip, take)
		views = make([]entity.ListingView, 0, len(ids))
		for _, id := range ids {
			views = append(views, entity.ListingView{TokenId: id, Listing: l.listings[id].Copy()})
		}
	})
	return views, err
}

func (l *Ledger) ActiveListingCount(ctx context.Context) (int, error) {
	var n int
	err := l.view(ctx, func() { n = l.active.Len() })
	return n, err
}

// GetListingsBySeller scans the active index for listings created by seller.
func (l *Ledger) GetListingsBySeller(ctx context.Context, seller common.Address) ([]entity.ListingView, error) {
	views := make([]entity.ListingView, 0)
	err := l.view(ctx, func() {
		for _, id := range l.active.ids {
			if listing := l.listings[id]; listing.Seller == seller {
				views = append(views, entity.ListingView{TokenId: id, Listing: listing.Copy()})
			}
		}
	})
	return views, err
}

// GetNFTsByOwner scans every minted id, in ascending order.
func (l *Ledger) GetNFTsByOwner(ctx context.Context, owner common.Address) ([]uint64, error) {
	ids := make([]uint64, 0)
	err := l.view(ctx, func() {
		if l.holdings[owner] == 0 {
			return
		}
		for id := uint64(0); id < l.nextTokenId; id++ {
			if l.tokens[id].owner == owner {
				ids = append(ids, id)
			}
		}
	})
	return ids, err
}

// Listing returns the stored listing for tokenId, active or not.
func (l *Ledger) Listing(ctx context.Context, tokenId uint64) (entity.Listing, bool, error) {
	var (
		listing entity.Listing
		ok      bool
	)
	err := l.view(ctx, func() {
		listing, ok = l.listings[tokenId]
		listing = listing.Copy()
	})
	return listing, ok, err
}

func (l *Ledger) PendingBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	var amount *big.Int
	err := l.view(ctx, func() { amount = l.pending.Of(addr) })
	return amount, err
}

func (l *Ledger) AccumulatedFees(ctx context.Context) (*big.Int, error) {
	var amount *big.Int
	err := l.view(ctx, func() { amount = new(big.Int).Set(l.accumulatedFees) })
	return amount, err
}

func (l *Ledger) Fees(ctx context.Context) (Fees, error) {
	var fees Fees
	err := l.view(ctx, func() {
		fees = Fees{
			MarketplaceFeeBps: l.marketplaceFeeBps,
			MintFee:           new(big.Int).Set(l.mintFee),
			AccumulatedFees:   new(big.Int).Set(l.accumulatedFees),
		}
	})
	return fees, err
}

// HeldValue is the total value the ledger currently holds.
func (l *Ledger) HeldValue(ctx context.Context) (*big.Int, error) {
	var amount *big.Int
	err := l.view(ctx, func() { amount = new(big.Int).Set(l.held) })
	return amount, err
}

func (l *Ledger) Administrator(ctx context.Context) (common.Address, error) {
	var admin common.Address
	err := l.view(ctx, func() { admin = l.admin })
	return admin, err
}

func (l *Ledger) OwnerOf(ctx context.Context, tokenId uint64) (common.Address, error) {
	var tok token
	err := l.lookup(ctx, tokenId, &tok)
	return tok.owner, err
}

func (l *Ledger) TokenURI(ctx context.Context, tokenId uint64) (string, error) {
	var tok token
	err := l.lookup(ctx, tokenId, &tok)
	return tok.uri, err
}

func (l *Ledger) BalanceOf(ctx context.Context, owner common.Address) (uint64, error) {
	if owner == (common.Address{}) {
		return 0, fmt.Errorf("%w: owner", ErrZeroAddress)
	}
	var n uint64
	err := l.view(ctx, func() { n = l.holdings[owner] })
	return n, err
}

// TotalSupply is the number of minted tokens; there is no burn.
func (l *Ledger) TotalSupply(ctx context.Context) (uint64, error) {
	var n uint64
	err := l.view(ctx, func() { n = l.nextTokenId })
	return n, err
}

func (l *Ledger) GetApproved(ctx context.Context, tokenId uint64) (common.Address, error) {
	var (
		approved common.Address
		found    bool
	)
	err := l.view(ctx, func() {
		_, found = l.tokens[tokenId]
		approved = l.approvals[tokenId]
	})
	if err == nil && !found {
		err = fmt.Errorf("%w: %d", ErrTokenNotFound, tokenId)
	}
	return approved, err
}

func (l *Ledger) IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error) {
	var ok bool
	err := l.view(ctx, func() { ok = l.operators[owner][operator] })
	return ok, err
}

// Token assembles the read model of tokenId.
func (l *Ledger) Token(ctx context.Context, tokenId uint64) (entity.Nft, error) {
	var (
		nft   entity.Nft
		found bool
	)
	err := l.view(ctx, func() {
		tok, ok := l.tokens[tokenId]
		if !ok {
			return
		}
		found = true
		nft = entity.Nft{TokenId: tokenId, TokenUri: tok.uri, Owner: tok.owner, Approved: l.approvals[tokenId]}
		if info, ok := l.royalties[tokenId]; ok {
			nft.Royalty = &info
		}
		if listing, ok := l.listings[tokenId]; ok {
			listing = listing.Copy()
			nft.Listing = &listing
		}
	})
	if err != nil {
		return entity.Nft{}, err
	}
	if !found {
		return entity.Nft{}, fmt.Errorf("%w: %d", ErrTokenNotFound, tokenId)
	}
	return nft, nil
}

// VerifyIndex checks the active index against the listing table.
func (l *Ledger) VerifyIndex(ctx context.Context) error {
	var err error
	viewErr := l.view(ctx, func() { err = l.verifyIndex() })
	if viewErr != nil {
		return viewErr
	}
	return err
}

func (l *Ledger) verifyIndex() error {
	if err := l.active.Verify(); err != nil {
		return err
	}
	for id, listing := range l.listings {
		if listing.IsActive != l.active.Contains(id) {
			return fmt.Errorf("%w: listing %d active=%t, indexed=%t", ErrInvalidState, id, listing.IsActive, l.active.Contains(id))
		}
	}
	for _, id := range l.active.ids {
		if !l.listings[id].IsActive {
			return fmt.Errorf("%w: index holds inactive id %d", ErrInvalidState, id)
		}
	}
	return nil
}

func (l *Ledger) lookup(ctx context.Context, tokenId uint64, dst *token) error {
	var ok bool
	err := l.view(ctx, func() {
		var tok token
		tok, ok = l.tokens[tokenId]
		if dst != nil {
			*dst = tok
		}
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrTokenNotFound, tokenId)
	}
	return nil
}
