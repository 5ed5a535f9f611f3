/**
 * @description
 * The append-only payment record. Transactions are immutable once
 * recorded; corrections are modeled as new offsetting transactions,
 * never as edits. Every balance in the system is a fold over a closed
 * set of these records, which is what keeps derived state trustworthy.
 *
 * @notes
 * - Amounts are shopspring decimals, not floats, so no binary-float
 *   rounding can leak into the ledger.
 * - ReceiptNumber is the idempotency key: retried writes with the same
 *   receipt number for the same parent must be rejected by the store.
 *
 * @dependencies
 * - time: Standard Go library.
 * - github.com/google/uuid: Record identifiers.
 * - github.com/shopspring/decimal: Monetary amounts.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType enumerates the ledger flows.
type TransactionType string

const (
	TxShare         TransactionType = "SHARE"
	TxLoanPrincipal TransactionType = "LOAN_PRINCIPAL"
	TxLoanInterest  TransactionType = "LOAN_INTEREST"
	TxFee           TransactionType = "FEE"
	TxDisbursement  TransactionType = "DISBURSEMENT"
	TxWithdrawal    TransactionType = "WITHDRAWAL"
)

// IsInflow reports whether the type represents cash coming into the
// cooperative (a credit in the trial balance).
func (t TransactionType) IsInflow() bool {
	switch t {
	case TxShare, TxLoanPrincipal, TxLoanInterest, TxFee:
		return true
	default:
		return false
	}
}

// IsOutflow reports whether the type represents cash leaving the
// cooperative (a debit in the trial balance).
func (t TransactionType) IsOutflow() bool {
	switch t {
	case TxDisbursement, TxWithdrawal:
		return true
	default:
		return false
	}
}

// Transaction is one immutable ledger record. Exactly one of
// ShareAccountID / LoanID is set; no transaction spans two parents.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	ShareAccountID *uuid.UUID      `json:"share_account_id,omitempty"`
	LoanID         *uuid.UUID      `json:"loan_id,omitempty"`
	Date           time.Time       `json:"date"`
	PeriodLabel    string          `json:"period"`
	Amount         decimal.Decimal `json:"amount"`
	ReceiptNumber  string          `json:"receipt_number"`
	Type           TransactionType `json:"type"`
	Installment    *int            `json:"installment,omitempty"` // loans only
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	Description    string          `json:"description"`
	CreatedAt      time.Time       `json:"created_at"`
}
