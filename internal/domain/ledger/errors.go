package ledger

import "errors"

// Domain errors.
var (
	ErrCertificateNotFound     = errors.New("gift certificate not found")
	ErrInsufficientBalance     = errors.New("not enough balance on this gift certificate")
	ErrNoMatchingAuthorization = errors.New("associated authorization transaction could not be found")
	ErrAlreadyReversed         = errors.New("authorization has already been reversed")
	ErrAlreadyCaptured         = errors.New("authorization has already been captured")
	ErrReservedAmountExceeded  = errors.New("reserved amount can't cover this payment")
	ErrReversalAmountMismatch  = errors.New("reversed amount should equal the authorized amount")
	ErrNotCaptured             = errors.New("authorization has not been captured")
	ErrRefundExceedsCaptured   = errors.New("refund exceeds the captured amount")
	ErrCurrencyMismatch        = errors.New("currency does not match the gift certificate")
	ErrNonPositiveAmount       = errors.New("amount must be positive")

	// ErrLedgerCorrupt indicates the append-only log violates its own
	// invariants, e.g. two capture entries for one authorization code.
	ErrLedgerCorrupt = errors.New("gift certificate ledger corrupt")

	// ErrLockNotHeld indicates a mutation was attempted without holding
	// the certificate's lock.
	ErrLockNotHeld = errors.New("certificate lock not held")
)
