package ledger

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ethereum/go-ethereum/common"
	uuid "github.com/nu7hatch/gouuid"
)

// txn is the unit of work of one entry point. Every mutation goes through it
// so that rollback can restore the exact prior state.
type txn struct {
	ctx    context.Context
	l      *Ledger
	caller common.Address
	value  *big.Int
	callId string

	undo    []func()
	records []entity.Record
}

func newTxn(ctx context.Context, l *Ledger, caller common.Address, value *big.Int) *txn {
	callId := ""
	if u, err := uuid.NewV4(); err == nil {
		callId = u.String()
	}
	return &txn{ctx: ctx, l: l, caller: caller, value: value, callId: callId}
}

func (t *txn) onUndo(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *txn) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.records = nil
}

func setField[T any](t *txn, field *T, v T) {
	old := *field
	*field = v
	t.onUndo(func() { *field = old })
}

func setKey[K comparable, V any](t *txn, m map[K]V, k K, v V) {
	old, had := m[k]
	m[k] = v
	t.onUndo(func() {
		if had {
			m[k] = old
		} else {
			delete(m, k)
		}
	})
}

func deleteKey[K comparable, V any](t *txn, m map[K]V, k K) {
	old, had := m[k]
	if !had {
		return
	}
	delete(m, k)
	t.onUndo(func() { m[k] = old })
}

func (t *txn) emit(r entity.Record) {
	r.Seq = t.l.nextSeq
	r.CallId = t.callId
	r.Time = time.Now().UTC()
	r.Contract = t.l.self.Hex()
	setField(t, &t.l.nextSeq, t.l.nextSeq+1)
	t.records = append(t.records, r)
}

// send moves amount out of the ledger. It must be the last step of a call:
// all internal state is final before value leaves.
func (t *txn) send(to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	setField(t, &t.l.held, new(big.Int).Sub(t.l.held, amount))

	if err := t.transfer(to, new(big.Int).Set(amount)); err != nil {
		return fmt.Errorf("%w: %s to %s: %w", ErrTransferFailed, amount, to.Hex(), err)
	}
	return nil
}

// transfer hands value to the Transferer. While it runs, every ledger call
// not carrying t.ctx is refused, whatever context it was made with.
func (t *txn) transfer(to common.Address, amount *big.Int) error {
	t.l.transferring.Store(true)
	defer t.l.transferring.Store(false)
	return t.l.transferer.Transfer(t.ctx, to, amount)
}

// refundExcess pushes whatever the caller attached beyond owed back to them.
func (t *txn) refundExcess(owed *big.Int) error {
	excess := new(big.Int).Sub(t.value, owed)
	if excess.Sign() <= 0 {
		return nil
	}
	t.emit(entity.Record{Kind: entity.ExcessRefundedRecord, To: t.caller, Amount: new(big.Int).Set(excess)})
	return t.send(t.caller, excess)
}
