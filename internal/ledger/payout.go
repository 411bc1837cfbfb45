package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
)

// WithdrawRoyalties pays out the caller's whole pending balance. The balance
// is zeroed before the transfer is attempted.
func (l *Ledger) WithdrawRoyalties(ctx context.Context, call Call) (*big.Int, error) {
	var amount *big.Int
	err := l.execute(ctx, call, "withdrawRoyalties", func(t *txn) error {
		if err := nonPayable(t); err != nil {
			return err
		}
		amount = l.pending.take(t, t.caller)
		if amount.Sign() == 0 {
			return fmt.Errorf("%w: %s", ErrNoRoyaltiesToWithdraw, t.caller.Hex())
		}

		t.emit(entity.Record{Kind: entity.RoyaltiesWithdrawnRecord, To: t.caller, Amount: new(big.Int).Set(amount)})
		return t.send(t.caller, amount)
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// WithdrawFees pays the accumulated platform fees to the administrator.
func (l *Ledger) WithdrawFees(ctx context.Context, call Call) (*big.Int, error) {
	var amount *big.Int
	err := l.execute(ctx, call, "withdrawFees", func(t *txn) error {
		if err := nonPayable(t); err != nil {
			return err
		}
		if err := l.requireAdmin(t.caller); err != nil {
			return err
		}
		amount = new(big.Int).Set(l.accumulatedFees)
		if amount.Sign() == 0 {
			return ErrNoFeesToWithdraw
		}
		setField(t, &l.accumulatedFees, new(big.Int))

		t.emit(entity.Record{Kind: entity.FeesWithdrawnRecord, To: t.caller, Amount: new(big.Int).Set(amount)})
		return t.send(t.caller, amount)
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}
