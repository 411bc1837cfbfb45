package ledger

import (
	"context"
	"fmt"
)

type guardKey struct{}

// inFlight reports whether ctx was handed out by an in-flight call of l.
func (l *Ledger) inFlight(ctx context.Context) bool {
	owner, _ := ctx.Value(guardKey{}).(*Ledger)
	return owner == l
}

// enter serializes calls on the ledger. The returned context marks the call
// as in flight; release must be deferred by the caller. A call made while an
// outbound transfer is running fails at once instead of waiting for the
// transfer's own call to release the ledger.
func (l *Ledger) enter(ctx context.Context) (context.Context, func(), error) {
	if l.inFlight(ctx) {
		return nil, nil, ErrReentrantCall
	}
	if l.transferring.Load() {
		return nil, nil, fmt.Errorf("%w: outbound transfer in progress", ErrReentrantCall)
	}

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	return context.WithValue(ctx, guardKey{}, l), func() { <-l.sem }, nil
}

// view runs a read against the ledger state. Reads issued from inside an
// in-flight call observe that call's state instead of waiting on it.
func (l *Ledger) view(ctx context.Context, fn func()) error {
	if l.inFlight(ctx) {
		fn()
		return nil
	}
	if l.transferring.Load() {
		return fmt.Errorf("%w: outbound transfer in progress", ErrReentrantCall)
	}

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.sem }()

	fn()
	return nil
}
