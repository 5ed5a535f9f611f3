/**
 * @description
 * Member and share-account entities. A member exclusively owns zero or
 * one share account and zero or many loans; deleting a member's
 * financial identity cascades to its accounts, never the reverse.
 *
 * The share account is an append-only ledger: the accumulated-shares
 * total is always a fold over its SHARE transaction amounts rather
 * than an independently stored counter, which prevents drift.
 *
 * @dependencies
 * - time: Standard Go library.
 * - github.com/google/uuid: Identifiers.
 * - github.com/shopspring/decimal: Monetary amounts.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Member is a cooperative member's financial identity.
type Member struct {
	ID           uuid.UUID `json:"id"`
	MemberNumber string    `json:"member_number"`
	FullName     string    `json:"full_name"`
	RegisteredAt time.Time `json:"registered_at"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ShareAccount holds a member's cumulative cooperative-share
// contributions. Created at enrollment and mutated only by appending
// transactions.
type ShareAccount struct {
	ID        uuid.UUID `json:"id"`
	MemberID  uuid.UUID `json:"member_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AccumulatedShares folds the SHARE transaction amounts into the
// account total. Withdrawals subtract. Non-share records are ignored.
func AccumulatedShares(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case TxShare:
			total = total.Add(tx.Amount)
		case TxWithdrawal:
			total = total.Sub(tx.Amount)
		}
	}
	return total
}

// MonthlyContributionSatisfied reports whether the account received at
// least one SHARE transaction dated inside the given period.
func MonthlyContributionSatisfied(txs []Transaction, p Period) bool {
	for _, tx := range txs {
		if tx.Type == TxShare && tx.PeriodLabel == p.Label() {
			return true
		}
	}
	return false
}
