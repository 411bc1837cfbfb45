package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Listing is a fixed price offer for a token. Listings are never deleted,
// only flagged inactive.
type Listing struct {
	Seller   common.Address `json:"seller"`
	Price    *big.Int       `json:"price"`
	IsActive bool           `json:"isActive"`
}

func (l Listing) Copy() Listing {
	l.Price = CopyAmount(l.Price)
	return l
}

type ListingView struct {
	TokenId uint64 `json:"tokenId"`
	Listing
}
