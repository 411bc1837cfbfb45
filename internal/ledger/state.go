package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ethereum/go-ethereum/common"
)

// State is a complete, serializable copy of a ledger. Active preserves the
// index order so paging is stable across a restart.
type State struct {
	Administrator     common.Address `json:"administrator"`
	MarketplaceFeeBps uint64         `json:"marketplaceFeeBps"`
	MintFee           *big.Int       `json:"mintFee"`
	AccumulatedFees   *big.Int       `json:"accumulatedFees"`
	Held              *big.Int       `json:"held"`
	NextTokenId       uint64         `json:"nextTokenId"`
	NextSeq           uint64         `json:"nextSeq"`

	Tokens    []TokenState    `json:"tokens"`
	Active    []uint64        `json:"active"`
	Operators []OperatorState `json:"operators"`
	Pending   []BalanceState  `json:"pending"`
}

type TokenState struct {
	Id       uint64              `json:"id"`
	Owner    common.Address      `json:"owner"`
	Uri      string              `json:"uri"`
	Approved common.Address      `json:"approved"`
	Royalty  *entity.RoyaltyInfo `json:"royalty,omitempty"`
	Listing  *entity.Listing     `json:"listing,omitempty"`
}

type OperatorState struct {
	Owner    common.Address `json:"owner"`
	Operator common.Address `json:"operator"`
}

type BalanceState struct {
	Address common.Address `json:"address"`
	Amount  *big.Int       `json:"amount"`
}

func (l *Ledger) Snapshot(ctx context.Context) (State, error) {
	var s State
	err := l.view(ctx, func() { s = l.snapshot() })
	return s, err
}

func (l *Ledger) snapshot() State {
	s := State{
		Administrator:     l.admin,
		MarketplaceFeeBps: l.marketplaceFeeBps,
		MintFee:           new(big.Int).Set(l.mintFee),
		AccumulatedFees:   new(big.Int).Set(l.accumulatedFees),
		Held:              new(big.Int).Set(l.held),
		NextTokenId:       l.nextTokenId,
		NextSeq:           l.nextSeq,
		Tokens:            make([]TokenState, 0, len(l.tokens)),
		Active:            l.active.IDs(),
		Operators:         make([]OperatorState, 0),
		Pending:           make([]BalanceState, 0, len(l.pending.amounts)),
	}

	for id := uint64(0); id < l.nextTokenId; id++ {
		tok := l.tokens[id]
		ts := TokenState{Id: id, Owner: tok.owner, Uri: tok.uri, Approved: l.approvals[id]}
		if info, ok := l.royalties[id]; ok {
			ts.Royalty = &info
		}
		if listing, ok := l.listings[id]; ok {
			listing = listing.Copy()
			ts.Listing = &listing
		}
		s.Tokens = append(s.Tokens, ts)
	}
	for owner, ops := range l.operators {
		for operator, ok := range ops {
			if ok {
				s.Operators = append(s.Operators, OperatorState{Owner: owner, Operator: operator})
			}
		}
	}
	for addr, amount := range l.pending.amounts {
		s.Pending = append(s.Pending, BalanceState{Address: addr, Amount: new(big.Int).Set(amount)})
	}
	return s
}

// Restore rebuilds a ledger from a snapshot. Administrator and fees come from
// the snapshot; opts only supplies the ledger address and royalty cap.
// Holdings are recomputed from token ownership.
func Restore(s State, opts Options, transferer Transferer, emitter Emitter) (*Ledger, error) {
	opts.Administrator = s.Administrator
	opts.MarketplaceFeeBps = s.MarketplaceFeeBps
	opts.MintFee = s.MintFee

	l, err := New(opts, transferer, emitter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if uint64(len(s.Tokens)) != s.NextTokenId {
		return nil, fmt.Errorf("%w: %d tokens, next id %d", ErrInvalidState, len(s.Tokens), s.NextTokenId)
	}
	l.nextTokenId = s.NextTokenId
	l.nextSeq = s.NextSeq

	for _, ts := range s.Tokens {
		if ts.Id >= s.NextTokenId {
			return nil, fmt.Errorf("%w: token %d beyond next id", ErrInvalidState, ts.Id)
		}
		if _, dup := l.tokens[ts.Id]; dup {
			return nil, fmt.Errorf("%w: duplicate token %d", ErrInvalidState, ts.Id)
		}
		if ts.Owner == (common.Address{}) {
			return nil, fmt.Errorf("%w: token %d has no owner", ErrInvalidState, ts.Id)
		}
		l.tokens[ts.Id] = token{owner: ts.Owner, uri: ts.Uri}
		l.holdings[ts.Owner]++
		if ts.Approved != (common.Address{}) {
			l.approvals[ts.Id] = ts.Approved
		}
		if ts.Royalty != nil {
			l.royalties[ts.Id] = *ts.Royalty
		}
		if ts.Listing != nil {
			if ts.Listing.IsActive && entity.CopyAmount(ts.Listing.Price).Sign() <= 0 {
				return nil, fmt.Errorf("%w: token %d listed without a price", ErrInvalidState, ts.Id)
			}
			l.listings[ts.Id] = ts.Listing.Copy()
		}
	}

	for _, id := range s.Active {
		if l.active.Contains(id) {
			return nil, fmt.Errorf("%w: token %d indexed twice", ErrInvalidState, id)
		}
		l.active.add(id)
	}
	if err := l.verifyIndex(); err != nil {
		return nil, err
	}

	for _, op := range s.Operators {
		if l.operators[op.Owner] == nil {
			l.operators[op.Owner] = make(map[common.Address]bool)
		}
		l.operators[op.Owner][op.Operator] = true
	}

	for _, b := range s.Pending {
		amount := entity.CopyAmount(b.Amount)
		if amount.Sign() < 0 {
			return nil, fmt.Errorf("%w: negative balance for %s", ErrInvalidState, b.Address.Hex())
		}
		if amount.Sign() > 0 {
			l.pending.amounts[b.Address] = new(big.Int).Add(l.pending.Of(b.Address), amount)
		}
	}

	l.accumulatedFees = entity.CopyAmount(s.AccumulatedFees)
	l.held = entity.CopyAmount(s.Held)
	owed := new(big.Int).Add(l.pending.Total(), l.accumulatedFees)
	if l.accumulatedFees.Sign() < 0 || owed.Cmp(l.held) > 0 {
		return nil, fmt.Errorf("%w: owes %s but holds %s", ErrInvalidState, owed, l.held)
	}

	return l, nil
}
