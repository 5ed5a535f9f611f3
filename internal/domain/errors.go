/**
 * @description
 * Business-rule errors for the ledger core. These are expected,
 * frequently-checked conditions, so they are plain sentinel values the
 * callers branch on with errors.Is rather than exceptional panics.
 * KindOf buckets any error into the four propagation classes the API
 * layer maps onto HTTP status codes.
 *
 * @dependencies
 * - errors: Standard Go library.
 */

package domain

import "errors"

var (
	// ErrInvalidPeriod is returned when a period label is malformed or
	// out of range (month outside 1-12, year outside the supported window).
	ErrInvalidPeriod = errors.New("invalid fiscal period")

	// ErrInvalidAmount is returned when a monetary amount is blank,
	// malformed, zero, or negative.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrPeriodClosed is returned when a transaction is posted into a
	// fiscal period that has already been closed.
	ErrPeriodClosed = errors.New("fiscal period is closed")

	// ErrPeriodNotFound is returned when a trial balance is requested
	// for a period the ledger has never seen.
	ErrPeriodNotFound = errors.New("fiscal period not found")

	// ErrNegativePrincipal signals corrupted upstream data: the
	// cumulative principal paid on a loan would exceed its original
	// principal. Processing of that loan must halt.
	ErrNegativePrincipal = errors.New("cumulative principal paid exceeds original principal")

	// ErrDuplicateReceipt is returned when a transaction reuses a
	// receipt number already recorded for the same account or loan.
	// The receipt number doubles as the idempotency key for retries.
	ErrDuplicateReceipt = errors.New("duplicate receipt number")

	// ErrInvalidTransition is returned for a loan status change the
	// state machine does not permit. Setting an already-set status is a
	// no-op, not an error.
	ErrInvalidTransition = errors.New("invalid loan status transition")

	// ErrMemberNotFound and ErrLoanNotFound are the not-found sentinels
	// shared with the store layer.
	ErrMemberNotFound = errors.New("member not found")
	ErrLoanNotFound   = errors.New("loan not found")
)

// ErrorKind classifies an error for the delivery layer.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindStateConflict ErrorKind = "state_conflict"
	KindDataIntegrity ErrorKind = "data_integrity"
	KindNotFound      ErrorKind = "not_found"
	KindDependency    ErrorKind = "dependency"
)

// KindOf maps a ledger error to its propagation class. Unknown errors
// are dependency failures: something a collaborator did, retryable by
// the caller with the same idempotency key.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidPeriod), errors.Is(err, ErrInvalidAmount):
		return KindValidation
	case errors.Is(err, ErrPeriodClosed), errors.Is(err, ErrDuplicateReceipt), errors.Is(err, ErrInvalidTransition):
		return KindStateConflict
	case errors.Is(err, ErrNegativePrincipal):
		return KindDataIntegrity
	case errors.Is(err, ErrPeriodNotFound), errors.Is(err, ErrMemberNotFound), errors.Is(err, ErrLoanNotFound):
		return KindNotFound
	default:
		return KindDependency
	}
}
