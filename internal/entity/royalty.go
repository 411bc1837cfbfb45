package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const BpsDenominator uint64 = 10000

// RoyaltyInfo is fixed at mint time. SaleBps goes to Artist on every sale,
// ListenBps is the current owner's share of a listen payment.
type RoyaltyInfo struct {
	Artist    common.Address `json:"artist"`
	SaleBps   uint64         `json:"saleBps"`
	ListenBps uint64         `json:"listenBps"`
}

// IsZero reports whether r carries no artist and no shares, which mint
// treats the same as no royalty at all.
func (r RoyaltyInfo) IsZero() bool {
	return r == RoyaltyInfo{}
}

// BpsOf returns amount * bps / 10000, truncated.
func BpsOf(amount *big.Int, bps uint64) *big.Int {
	v := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return v.Quo(v, new(big.Int).SetUint64(BpsDenominator))
}
