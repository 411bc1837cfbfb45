package daemon

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/ledger"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/repository"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var ErrPersist = errors.New("daemon: failed to persist committed call")

// Publisher receives what a call committed once it is durable.
type Publisher interface {
	Emit(records []entity.Record)
	EmitPayouts(payouts []entity.Payout)
}

type noopPublisher struct{}

func (noopPublisher) Emit([]entity.Record) {}
func (noopPublisher) EmitPayouts([]entity.Payout) {}

// Daemon owns the live ledger. Mutating calls go through Execute, which
// persists the resulting snapshot, records and payouts in one bbolt
// transaction before the records are published.
type Daemon struct {
	mu     sync.Mutex
	ledger atomic.Pointer[ledger.Ledger]
	opts   ledger.Options
	store  *repository.Store
	events Publisher

	stageMu sync.Mutex
	records []entity.Record
	payouts []stagedPayout
}

// stagedPayout remembers where the records of the paying call will start;
// a call's records are emitted after its transfer.
type stagedPayout struct {
	payout entity.Payout
	at     int
}

type Op func(ctx context.Context, l *ledger.Ledger) error

// Load restores the ledger from the store, or creates a fresh one from opts
// when nothing has been stored yet.
func Load(store *repository.Store, opts ledger.Options, events Publisher) (*Daemon, error) {
	if events == nil {
		events = noopPublisher{}
	}
	d := &Daemon{store: store, events: events, opts: opts}

	state, err := store.States().GetState()
	switch {
	case errors.Is(err, repository.ErrStateNotFound):
		l, err := ledger.New(opts, d, d)
		if err != nil {
			return nil, err
		}
		genesis, err := l.Snapshot(context.Background())
		if err != nil {
			return nil, err
		}
		if err := store.States().SaveState(genesis); err != nil {
			return nil, err
		}
		d.ledger.Store(l)
		zap.L().With(zap.String("admin", opts.Administrator.Hex())).Info("Daemon: created new ledger")
	case err != nil:
		return nil, err
	default:
		l, err := ledger.Restore(state, opts, d, d)
		if err != nil {
			return nil, err
		}
		d.ledger.Store(l)
		zap.L().With(
			zap.Uint64("tokens", state.NextTokenId),
			zap.Int("listings", len(state.Active)),
			zap.Uint64("nextSeq", state.NextSeq),
		).Info("Daemon: restored ledger")
	}

	return d, nil
}

func (d *Daemon) Ledger() *ledger.Ledger {
	return d.ledger.Load()
}

// Execute runs op against the ledger and persists whatever it committed.
// When op makes several ledger calls and a later one fails, the earlier
// calls are still persisted and op's error is returned. When persisting
// fails the ledger is put back to where it was before op ran and nothing
// is published.
func (d *Daemon) Execute(ctx context.Context, op Op) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	l := d.ledger.Load()
	before, err := l.Snapshot(ctx)
	if err != nil {
		return err
	}

	opErr := op(ctx, l)

	records, payouts := d.take()
	if len(records) == 0 && len(payouts) == 0 {
		return opErr
	}

	state, err := l.Snapshot(context.WithoutCancel(ctx))
	if err == nil {
		err = d.store.Commit(repository.Commit{State: state, Records: records, Payouts: payouts})
	}
	if err != nil {
		zap.L().With(zap.Int("records", len(records)), zap.Int("payouts", len(payouts)), zap.Error(err)).
			Error("Daemon: failed to persist, rolling back")
		if rerr := d.rollback(before); rerr != nil {
			return fmt.Errorf("%w: %v (rollback: %v)", ErrPersist, err, rerr)
		}
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if len(records) != 0 {
		d.events.Emit(records)
	}
	if len(payouts) != 0 {
		d.events.EmitPayouts(payouts)
	}
	return opErr
}

// rollback swaps in a ledger rebuilt from state. Callers hold d.mu.
func (d *Daemon) rollback(state ledger.State) error {
	l, err := ledger.Restore(state, d.opts, d, d)
	if err != nil {
		return err
	}
	d.ledger.Store(l)
	return nil
}

// Emit stages the records of a committed ledger call.
func (d *Daemon) Emit(records []entity.Record) {
	d.stageMu.Lock()
	defer d.stageMu.Unlock()
	d.records = append(d.records, records...)
}

// Transfer queues an outbound payment. Payouts are persisted with the call
// that produced them and executed by the payment agent.
func (d *Daemon) Transfer(_ context.Context, to common.Address, amount *big.Int) error {
	d.stageMu.Lock()
	defer d.stageMu.Unlock()
	d.payouts = append(d.payouts, stagedPayout{
		payout: entity.Payout{To: to, Amount: new(big.Int).Set(amount), Time: time.Now().UTC()},
		at:     len(d.records),
	})
	return nil
}

func (d *Daemon) take() ([]entity.Record, []entity.Payout) {
	d.stageMu.Lock()
	defer d.stageMu.Unlock()

	payouts := make([]entity.Payout, 0, len(d.payouts))
	for _, sp := range d.payouts {
		if sp.at < len(d.records) {
			sp.payout.CallId = d.records[sp.at].CallId
		}
		payouts = append(payouts, sp.payout)
	}

	records := d.records
	d.records, d.payouts = nil, nil
	return records, payouts
}
