package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ethereum/go-ethereum/common"
)

// Mint creates the next token for the caller. The attached value must cover
// the mint fee; any excess is refunded within the same call. A nil royalty
// mints without royalty information.
func (l *Ledger) Mint(ctx context.Context, call Call, uri string, royalty *entity.RoyaltyInfo) (uint64, error) {
	var tokenId uint64
	err := l.execute(ctx, call, "mint", func(t *txn) error {
		fee := new(big.Int).Set(l.mintFee)
		if t.value.Cmp(fee) < 0 {
			return fmt.Errorf("%w: sent %s, fee %s", ErrInsufficientMintFee, t.value, fee)
		}
		if royalty != nil && royalty.IsZero() {
			royalty = nil
		}
		if royalty != nil {
			if err := l.validateRoyalty(*royalty); err != nil {
				return err
			}
		}

		tokenId = l.mintTo(t, t.caller, uri)
		if royalty != nil {
			l.setTokenRoyalty(t, tokenId, *royalty)
		}
		setField(t, &l.accumulatedFees, new(big.Int).Add(l.accumulatedFees, fee))

		return t.refundExcess(fee)
	})
	return tokenId, err
}

// SafeMint is the administrator's fee-free issuance to an arbitrary recipient.
func (l *Ledger) SafeMint(ctx context.Context, call Call, to common.Address, uri string) (uint64, error) {
	var tokenId uint64
	err := l.execute(ctx, call, "safeMint", func(t *txn) error {
		if err := nonPayable(t); err != nil {
			return err
		}
		if err := l.requireAdmin(t.caller); err != nil {
			return err
		}
		if to == (common.Address{}) {
			return fmt.Errorf("%w: recipient", ErrZeroAddress)
		}
		tokenId = l.mintTo(t, to, uri)
		return nil
	})
	return tokenId, err
}

func (l *Ledger) mintTo(t *txn, to common.Address, uri string) uint64 {
	id := l.nextTokenId
	setField(t, &l.nextTokenId, id+1)
	setKey(t, l.tokens, id, token{owner: to, uri: uri})
	setKey(t, l.holdings, to, l.holdings[to]+1)

	t.emit(entity.Record{Kind: entity.TransferRecord, From: common.Address{}, To: to, TokenId: id})
	t.emit(entity.Record{Kind: entity.MintedRecord, TokenId: id, To: to, Uri: uri})
	return id
}

// move reassigns ownership and clears the single-token approval. Listings
// are deliberately left alone.
func (l *Ledger) move(t *txn, from, to common.Address, tokenId uint64) {
	tok := l.tokens[tokenId]
	tok.owner = to
	setKey(t, l.tokens, tokenId, tok)
	deleteKey(t, l.approvals, tokenId)

	if n := l.holdings[from]; n <= 1 {
		deleteKey(t, l.holdings, from)
	} else {
		setKey(t, l.holdings, from, n-1)
	}
	setKey(t, l.holdings, to, l.holdings[to]+1)

	t.emit(entity.Record{Kind: entity.TransferRecord, From: from, To: to, TokenId: tokenId})
}

func (l *Ledger) isApprovedOrOwner(spender common.Address, tokenId uint64) bool {
	owner := l.tokens[tokenId].owner
	return spender == owner || l.approvals[tokenId] == spender || l.operators[owner][spender]
}

// TransferFrom moves a token outside the marketplace. An active listing for
// the token survives and is caught at purchase time as NoLongerOwnedBySeller.
func (l *Ledger) TransferFrom(ctx context.Context, call Call, from, to common.Address, tokenId uint64) error {
	return l.execute(ctx, call, "transferFrom", func(t *txn) error {
		if err := nonPayable(t); err != nil {
			return err
		}
		tok, err := l.requireToken(tokenId)
		if err != nil {
			return err
		}
		if to == (common.Address{}) {
			return fmt.Errorf("%w: recipient", ErrZeroAddress)
		}
		if tok.owner != from {
			return fmt.Errorf("%w: %s does not own %d", ErrNotTokenOwner, from.Hex(), tokenId)
		}
		if !l.isApprovedOrOwner(t.caller, tokenId) {
			return fmt.Errorf("%w: %s on %d", ErrNotAuthorized, t.caller.Hex(), tokenId)
		}
		l.move(t, from, to, tokenId)
		return nil
	})
}

func (l *Ledger) Approve(ctx context.Context, call Call, to common.Address, tokenId uint64) error {
	return l.execute(ctx, call, "approve", func(t *txn) error {
		if err := nonPayable(t); err != nil {
			return err
		}
		tok, err := l.requireToken(tokenId)
		if err != nil {
			return err
		}
		if t.caller != tok.owner && !l.operators[tok.owner][t.caller] {
			return fmt.Errorf("%w: %s on %d", ErrNotAuthorized, t.caller.Hex(), tokenId)
		}
		l.approve(t, tok.owner, to, tokenId)
		return nil
	})
}

func (l *Ledger) approve(t *txn, owner, to common.Address, tokenId uint64) {
	setKey(t, l.approvals, tokenId, to)
	t.emit(entity.Record{Kind: entity.ApprovalRecord, From: owner, To: to, TokenId: tokenId})
}

func (l *Ledger) SetApprovalForAll(ctx context.Context, call Call, operator common.Address, approved bool) error {
	return l.execute(ctx, call, "setApprovalForAll", func(t *txn) error {
		if err := nonPayable(t); err != nil {
			return err
		}
		if operator == (common.Address{}) {
			return fmt.Errorf("%w: operator", ErrZeroAddress)
		}

		ops, ok := l.operators[t.caller]
		if !ok {
			ops = make(map[common.Address]bool)
			setKey(t, l.operators, t.caller, ops)
		}
		if approved {
			setKey(t, ops, operator, true)
		} else {
			deleteKey(t, ops, operator)
		}

		t.emit(entity.Record{Kind: entity.ApprovalForAllRecord, From: t.caller, To: operator, Flag: approved})
		return nil
	})
}
