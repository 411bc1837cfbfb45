package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PendingBalances holds funds owed to addresses until they pull them.
// Funds leave only through take, which zeroes the entry before the caller
// moves any value.
type PendingBalances struct {
	amounts map[common.Address]*big.Int
}

func newPendingBalances() *PendingBalances {
	return &PendingBalances{amounts: make(map[common.Address]*big.Int)}
}

func (p *PendingBalances) Of(addr common.Address) *big.Int {
	if v, ok := p.amounts[addr]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

func (p *PendingBalances) Total() *big.Int {
	total := new(big.Int)
	for _, v := range p.amounts {
		total.Add(total, v)
	}
	return total
}

func (p *PendingBalances) credit(t *txn, to common.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	setKey(t, p.amounts, to, new(big.Int).Add(p.Of(to), amount))
}

// take zeroes and returns addr's whole balance.
func (p *PendingBalances) take(t *txn, addr common.Address) *big.Int {
	amount := p.Of(addr)
	deleteKey(t, p.amounts, addr)
	return amount
}
