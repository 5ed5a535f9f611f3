/**
 * @description
 * This file defines the `Repository` interface, the contract for all
 * data access the ledger core needs. Defining an interface decouples
 * the business logic from the PostgreSQL implementation and lets the
 * app-layer tests substitute in-memory stubs.
 *
 * The transaction log is append-only: there is an Append method and
 * ordered List methods, but no update or delete of recorded
 * transactions. Corrections are new offsetting records.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: Identifiers.
 * - github.com/shopspring/decimal: Monetary amounts.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coopstack/ledger-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Member and share account methods
	CreateMember(ctx context.Context, m *domain.Member) error
	FindMemberByID(ctx context.Context, memberID uuid.UUID) (*domain.Member, error)
	CreateShareAccount(ctx context.Context, a *domain.ShareAccount) error
	FindShareAccountByMemberID(ctx context.Context, memberID uuid.UUID) (*domain.ShareAccount, error)
	// TotalAccumulatedShares folds all share-account flows into the
	// cooperative-wide share total (SHARE inflows minus withdrawals).
	TotalAccumulatedShares(ctx context.Context) (decimal.Decimal, error)

	// Loan methods
	CreateLoan(ctx context.Context, l *domain.Loan) error
	FindLoanByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)
	FindLoansByMemberID(ctx context.Context, memberID uuid.UUID) ([]domain.Loan, error)
	FindActiveLoans(ctx context.Context) ([]domain.Loan, error)
	// UpdateLoanStatus persists a status change. Atomic per loan.
	UpdateLoanStatus(ctx context.Context, loanID uuid.UUID, status domain.LoanStatus) error
	// UpdateLoanDerivedState writes the recomputed outstanding balance
	// and overdue state after an amortization pass.
	UpdateLoanDerivedState(ctx context.Context, loanID uuid.UUID, outstanding decimal.Decimal, overdue bool, daysPastDue int) error
	// FlagLoanOverdue sets the overdue flag with a compare-and-swap on
	// the current flag value: it only fires for ACTIVE loans that are
	// not already flagged, and reports whether this call was the one
	// that flipped the flag. Concurrent batch runs therefore cannot
	// double-flag a loan.
	FlagLoanOverdue(ctx context.Context, loanID uuid.UUID, daysPastDue int, checkedAt time.Time) (bool, error)
	// TouchOverdueCheck refreshes the days-past-due counter and check
	// date on an already-flagged loan.
	TouchOverdueCheck(ctx context.Context, loanID uuid.UUID, daysPastDue int, checkedAt time.Time) error

	// Transaction methods (append-only ledger)
	AppendTransaction(ctx context.Context, tx *domain.Transaction) error
	ListLoanTransactions(ctx context.Context, loanID uuid.UUID) ([]domain.Transaction, error)
	ListShareTransactions(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error)
	ListTransactionsInPeriod(ctx context.Context, p domain.Period) ([]domain.Transaction, error)

	// Fiscal period methods
	FindFiscalPeriod(ctx context.Context, p domain.Period) (*domain.FiscalPeriod, error)
	EnsureFiscalPeriod(ctx context.Context, p domain.Period) (*domain.FiscalPeriod, error)
	CloseFiscalPeriod(ctx context.Context, p domain.Period, at time.Time) (*domain.FiscalPeriod, error)
}
