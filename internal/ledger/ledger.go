// Package ledger is the marketplace's single consistency domain: token
// ownership, royalties, the active listing index, settlement and the pending
// balance ledger. Every entry point either commits completely or leaves no
// trace.
package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const (
	// MaxMarketplaceFeeBps is exclusive: the fee must stay below 10%.
	MaxMarketplaceFeeBps uint64 = 1000

	// MaxListenBps caps the owner's share of a listen payment.
	MaxListenBps uint64 = 5000

	DefaultMaxSaleRoyaltyBps uint64 = 1000
)

// Call carries the authorized caller and the value attached to an entry point.
type Call struct {
	From  common.Address
	Value *big.Int
}

func (c Call) value() (*big.Int, error) {
	if c.Value == nil {
		return new(big.Int), nil
	}
	if c.Value.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidValue, c.Value)
	}
	return new(big.Int).Set(c.Value), nil
}

// Transferer moves value held by the ledger to an external account. The ctx
// passed in marks the originating call as in flight; ledger calls made with
// it fail with ErrReentrantCall.
type Transferer interface {
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
}

type TransferFunc func(ctx context.Context, to common.Address, amount *big.Int) error

func (f TransferFunc) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	return f(ctx, to, amount)
}

// Emitter receives the records of every committed call, in order.
type Emitter interface {
	Emit(records []entity.Record)
}

type EmitterFunc func(records []entity.Record)

func (f EmitterFunc) Emit(records []entity.Record) { f(records) }

type Options struct {
	// Address is the ledger's own account; listings approve it to move tokens.
	Address           common.Address
	Administrator     common.Address
	MarketplaceFeeBps uint64
	MintFee           *big.Int
	MaxSaleRoyaltyBps uint64
}

func (o Options) validate() error {
	if o.Administrator == (common.Address{}) {
		return fmt.Errorf("%w: administrator: %v", ErrInvalidOptions, ErrZeroAddress)
	}
	if o.MarketplaceFeeBps >= MaxMarketplaceFeeBps {
		return fmt.Errorf("%w: %v: %d bps", ErrInvalidOptions, ErrFeeTooHigh, o.MarketplaceFeeBps)
	}
	if o.MintFee != nil && o.MintFee.Sign() < 0 {
		return fmt.Errorf("%w: %v: mint fee", ErrInvalidOptions, ErrInvalidValue)
	}
	if o.MaxSaleRoyaltyBps > entity.BpsDenominator {
		return fmt.Errorf("%w: max sale royalty %d bps", ErrInvalidOptions, o.MaxSaleRoyaltyBps)
	}
	return nil
}

type token struct {
	owner common.Address
	uri   string
}

type Ledger struct {
	self              common.Address
	maxSaleRoyaltyBps uint64
	transferer        Transferer
	emitter           Emitter
	sem               chan struct{}
	transferring      atomic.Bool

	admin       common.Address
	nextTokenId uint64
	nextSeq     uint64

	tokens    map[uint64]token
	holdings  map[common.Address]uint64
	approvals map[uint64]common.Address
	operators map[common.Address]map[common.Address]bool
	royalties map[uint64]entity.RoyaltyInfo
	listings  map[uint64]entity.Listing
	active    *ActiveIndex
	pending   *PendingBalances

	marketplaceFeeBps uint64
	mintFee           *big.Int
	accumulatedFees   *big.Int
	held              *big.Int
}

func New(opts Options, transferer Transferer, emitter Emitter) (*Ledger, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if transferer == nil {
		return nil, fmt.Errorf("%w: transferer is required", ErrInvalidOptions)
	}
	if emitter == nil {
		emitter = EmitterFunc(func([]entity.Record) {})
	}
	if opts.MaxSaleRoyaltyBps == 0 {
		opts.MaxSaleRoyaltyBps = DefaultMaxSaleRoyaltyBps
	}

	return &Ledger{
		self:              opts.Address,
		maxSaleRoyaltyBps: opts.MaxSaleRoyaltyBps,
		transferer:        transferer,
		emitter:           emitter,
		sem:               make(chan struct{}, 1),
		admin:             opts.Administrator,
		tokens:            make(map[uint64]token),
		holdings:          make(map[common.Address]uint64),
		approvals:         make(map[uint64]common.Address),
		operators:         make(map[common.Address]map[common.Address]bool),
		royalties:         make(map[uint64]entity.RoyaltyInfo),
		listings:          make(map[uint64]entity.Listing),
		active:            newActiveIndex(),
		pending:           newPendingBalances(),
		marketplaceFeeBps: opts.MarketplaceFeeBps,
		mintFee:           entity.CopyAmount(opts.MintFee),
		accumulatedFees:   new(big.Int),
		held:              new(big.Int),
	}, nil
}

// execute runs fn as one atomic unit: the attached value is taken into the
// ledger, and any error rolls back every mutation fn made.
func (l *Ledger) execute(ctx context.Context, call Call, op string, fn func(t *txn) error) error {
	value, err := call.value()
	if err != nil {
		return err
	}

	ctx, release, err := l.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	t := newTxn(ctx, l, call.From, value)
	defer func() {
		if r := recover(); r != nil {
			t.rollback()
			panic(r)
		}
	}()
	setField(t, &l.held, new(big.Int).Add(l.held, value))

	if err := fn(t); err != nil {
		t.rollback()
		zap.L().With(zap.String("op", op), zap.String("from", call.From.Hex()), zap.Error(err)).Debug("Ledger: call reverted")
		return err
	}
	zap.L().With(
		zap.String("op", op),
		zap.String("callId", t.callId),
		zap.String("from", call.From.Hex()),
		zap.Int("records", len(t.records)),
	).Debug("Ledger: call committed")

	if len(t.records) != 0 {
		l.emitter.Emit(t.records)
	}
	return nil
}

func nonPayable(t *txn) error {
	if t.value.Sign() != 0 {
		return fmt.Errorf("%w: %s attached", ErrNonPayable, t.value)
	}
	return nil
}

func (l *Ledger) requireAdmin(caller common.Address) error {
	if caller != l.admin {
		return fmt.Errorf("%w: %s", ErrNotAdministrator, caller.Hex())
	}
	return nil
}

func (l *Ledger) requireToken(tokenId uint64) (token, error) {
	tok, ok := l.tokens[tokenId]
	if !ok {
		return token{}, fmt.Errorf("%w: %d", ErrTokenNotFound, tokenId)
	}
	return tok, nil
}

// Address returns the ledger's own account.
func (l *Ledger) Address() common.Address {
	return l.self
}
