package ledger

import "errors"

var (
	// ErrNotAdministrator indicates an administrator-only entry point was called by someone else.
	ErrNotAdministrator = errors.New("ledger: caller is not the administrator")

	// ErrNotTokenOwner indicates the caller (or named owner) does not own the token.
	ErrNotTokenOwner = errors.New("ledger: not token owner")

	// ErrNotAuthorized indicates the caller is neither owner, approved, nor operator.
	ErrNotAuthorized = errors.New("ledger: caller not authorized for token")

	// ErrTokenNotFound indicates the token id was never minted.
	ErrTokenNotFound = errors.New("ledger: token not found")

	// ErrZeroAddress indicates a required address was the zero address.
	ErrZeroAddress = errors.New("ledger: zero address")

	// ErrInvalidValue indicates a negative payment or amount.
	ErrInvalidValue = errors.New("ledger: invalid value")

	// ErrNonPayable indicates value was attached to an entry point that accepts none.
	ErrNonPayable = errors.New("ledger: entry point is not payable")

	ErrInsufficientMintFee      = errors.New("ledger: insufficient mint fee")
	ErrRoyaltyTooHigh           = errors.New("ledger: royalty too high")
	ErrInvalidPrice             = errors.New("ledger: invalid price")
	ErrAlreadyListed            = errors.New("ledger: already listed")
	ErrNotListed                = errors.New("ledger: not listed")
	ErrInsufficientFunds        = errors.New("ledger: insufficient funds")
	ErrArrayLengthMismatch      = errors.New("ledger: array length mismatch")
	ErrEmptyTokenArray          = errors.New("ledger: empty token array")
	ErrInsufficientBatchPayment = errors.New("ledger: insufficient batch payment")
	ErrFeeTooHigh               = errors.New("ledger: fee too high")

	// ErrNoLongerOwnedBySeller indicates the listing's seller no longer owns the token.
	ErrNoLongerOwnedBySeller = errors.New("ledger: no longer owned by seller")

	ErrNoRoyaltiesToWithdraw = errors.New("ledger: no royalties to withdraw")
	ErrNoFeesToWithdraw      = errors.New("ledger: no fees to withdraw")

	// ErrReentrantCall indicates a mutating call was made from inside an in-flight call.
	ErrReentrantCall = errors.New("ledger: reentrant call")

	// ErrTransferFailed indicates the outbound value transfer was rejected.
	ErrTransferFailed = errors.New("ledger: value transfer failed")

	// ErrInvalidState indicates a snapshot that violates ledger invariants.
	ErrInvalidState = errors.New("ledger: invalid state")

	// ErrInvalidOptions indicates the ledger was configured with out of range values.
	ErrInvalidOptions = errors.New("ledger: invalid options")
)

// IsAuthorization reports whether err was caused by the wrong caller.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrNotAdministrator) ||
		errors.Is(err, ErrNotTokenOwner) ||
		errors.Is(err, ErrNotAuthorized)
}

// IsStateDesync reports whether err is a listing invalidated by an out-of-band transfer.
func IsStateDesync(err error) bool {
	return errors.Is(err, ErrNoLongerOwnedBySeller)
}

// IsNothingToDo reports whether err means there was nothing to withdraw.
func IsNothingToDo(err error) bool {
	return errors.Is(err, ErrNoRoyaltiesToWithdraw) || errors.Is(err, ErrNoFeesToWithdraw)
}

// IsNotFound reports whether err refers to an unknown token.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTokenNotFound)
}

// IsPrecondition reports whether err is a rejected input or state precondition.
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrZeroAddress, ErrInvalidValue, ErrNonPayable, ErrInsufficientMintFee, ErrRoyaltyTooHigh,
		ErrInvalidPrice, ErrAlreadyListed, ErrNotListed, ErrInsufficientFunds, ErrArrayLengthMismatch,
		ErrEmptyTokenArray, ErrInsufficientBatchPayment, ErrFeeTooHigh,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
