package rabbitmq

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MemberNotifier publishes member-facing loan events through a
// Publisher. It satisfies the ledger core's Notifier interface; the
// core treats delivery as fire-and-forget.
type MemberNotifier struct {
	publisher Publisher
}

// NewMemberNotifier wraps a publisher. A nil publisher is replaced with
// the no-op fallback so callers never need a nil check.
func NewMemberNotifier(p Publisher) *MemberNotifier {
	if p == nil {
		p = &EventProducerFallback{}
	}
	return &MemberNotifier{publisher: p}
}

// NotifyLoanOverdue publishes the overdue-flagged event for a loan.
func (n *MemberNotifier) NotifyLoanOverdue(ctx context.Context, memberID uuid.UUID, loanNumber string, daysPastDue int) error {
	return n.publisher.Publish(ctx, LedgerExchange, RouteLoanOverdue, LoanEvent{
		MemberID:    memberID,
		LoanNumber:  loanNumber,
		DaysPastDue: daysPastDue,
		Timestamp:   time.Now().UTC(),
	})
}

// NotifyLoanCompleted publishes the fully-repaid event for a loan.
func (n *MemberNotifier) NotifyLoanCompleted(ctx context.Context, memberID uuid.UUID, loanNumber string) error {
	return n.publisher.Publish(ctx, LedgerExchange, RouteLoanCompleted, LoanEvent{
		MemberID:   memberID,
		LoanNumber: loanNumber,
		Timestamp:  time.Now().UTC(),
	})
}
