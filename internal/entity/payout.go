package entity

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosimple/slug"
)

// Payout is value that left the ledger: a refund, a royalty withdrawal or a
// fee withdrawal. Payouts are queued for the payment agent to execute.
type Payout struct {
	Seq    uint64         `json:"seq"`
	CallId string         `json:"callId"`
	To     common.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
	Time   time.Time      `json:"time"`
}

func (p Payout) Slug() string {
	return slug.Make(fmt.Sprintf("payout-%d", p.Seq))
}
