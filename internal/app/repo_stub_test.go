package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coopstack/ledger-service/internal/domain"
	"github.com/coopstack/ledger-service/internal/store"
)

// memRepo wraps the in-memory repository with failure injection and
// call counters for the batch tests.
type memRepo struct {
	*store.MemoryRepository

	mu            sync.Mutex
	listLoanTxErr map[uuid.UUID]error
	appendTxErr   error
	flagCalls     int
	touchCalls    int
}

func newMemRepo() *memRepo {
	return &memRepo{
		MemoryRepository: store.NewMemoryRepository(),
		listLoanTxErr:    map[uuid.UUID]error{},
	}
}

func (r *memRepo) ListLoanTransactions(ctx context.Context, loanID uuid.UUID) ([]domain.Transaction, error) {
	r.mu.Lock()
	err := r.listLoanTxErr[loanID]
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.MemoryRepository.ListLoanTransactions(ctx, loanID)
}

func (r *memRepo) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	err := r.appendTxErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.MemoryRepository.AppendTransaction(ctx, tx)
}

func (r *memRepo) FlagLoanOverdue(ctx context.Context, loanID uuid.UUID, daysPastDue int, checkedAt time.Time) (bool, error) {
	r.mu.Lock()
	r.flagCalls++
	r.mu.Unlock()
	return r.MemoryRepository.FlagLoanOverdue(ctx, loanID, daysPastDue, checkedAt)
}

func (r *memRepo) TouchOverdueCheck(ctx context.Context, loanID uuid.UUID, daysPastDue int, checkedAt time.Time) error {
	r.mu.Lock()
	r.touchCalls++
	r.mu.Unlock()
	return r.MemoryRepository.TouchOverdueCheck(ctx, loanID, daysPastDue, checkedAt)
}

// stubNotifier records notification calls and optionally fails them.
type stubNotifier struct {
	mu             sync.Mutex
	overdueCalls   []string
	completedCalls []string
	overdueDays    []int
	notifyErr      error
}

func (n *stubNotifier) NotifyLoanOverdue(ctx context.Context, memberID uuid.UUID, loanNumber string, daysPastDue int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.overdueCalls = append(n.overdueCalls, loanNumber)
	n.overdueDays = append(n.overdueDays, daysPastDue)
	return n.notifyErr
}

func (n *stubNotifier) NotifyLoanCompleted(ctx context.Context, memberID uuid.UUID, loanNumber string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completedCalls = append(n.completedCalls, loanNumber)
	return n.notifyErr
}

// stubMarker is an in-memory day-marker mimicking the Redis one.
type stubMarker struct {
	mu        sync.Mutex
	completed map[string]bool
	checkErr  error
	markCalls int
}

func newStubMarker() *stubMarker {
	return &stubMarker{completed: map[string]bool{}}
}

func (m *stubMarker) Completed(ctx context.Context, job string, date string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.checkErr != nil {
		return false, m.checkErr
	}
	return m.completed[job+":"+date], nil
}

func (m *stubMarker) MarkCompleted(ctx context.Context, job string, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed[job+":"+date] = true
	m.markCalls++
	return nil
}
