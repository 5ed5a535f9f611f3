/**
 * @description
 * In-memory implementation of the `Repository` interface. Used by
 * handler and service tests that need a full repository without a
 * PostgreSQL instance. Mirrors the database guards that matter to the
 * business logic: receipt-number uniqueness per parent and record type,
 * and the compare-and-swap on the loan overdue flag.
 *
 * @dependencies
 * - context, sort, sync, time: Standard Go libraries.
 * - github.com/google/uuid: Identifiers.
 * - github.com/shopspring/decimal: Monetary amounts.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coopstack/ledger-service/internal/domain"
)

// MemoryRepository is a thread-safe in-memory Repository.
type MemoryRepository struct {
	mu       sync.Mutex
	members  map[uuid.UUID]*domain.Member
	accounts map[uuid.UUID]*domain.ShareAccount
	loans    map[uuid.UUID]*domain.Loan
	txs      []domain.Transaction
	periods  map[string]*domain.FiscalPeriod
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		members:  map[uuid.UUID]*domain.Member{},
		accounts: map[uuid.UUID]*domain.ShareAccount{},
		loans:    map[uuid.UUID]*domain.Loan{},
		periods:  map[string]*domain.FiscalPeriod{},
	}
}

func (r *MemoryRepository) CreateMember(ctx context.Context, m *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *m
	r.members[m.ID] = &clone
	return nil
}

func (r *MemoryRepository) FindMemberByID(ctx context.Context, memberID uuid.UUID) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberID]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *MemoryRepository) CreateShareAccount(ctx context.Context, a *domain.ShareAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *a
	r.accounts[a.ID] = &clone
	return nil
}

func (r *MemoryRepository) FindShareAccountByMemberID(ctx context.Context, memberID uuid.UUID) (*domain.ShareAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.MemberID == memberID {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

func (r *MemoryRepository) TotalAccumulatedShares(ctx context.Context) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, tx := range r.txs {
		if tx.ShareAccountID == nil {
			continue
		}
		switch tx.Type {
		case domain.TxShare:
			total = total.Add(tx.Amount)
		case domain.TxWithdrawal:
			total = total.Sub(tx.Amount)
		}
	}
	return total, nil
}

func (r *MemoryRepository) CreateLoan(ctx context.Context, l *domain.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *l
	r.loans[l.ID] = &clone
	return nil
}

func (r *MemoryRepository) FindLoanByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[loanID]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	clone := *l
	return &clone, nil
}

func (r *MemoryRepository) FindLoansByMemberID(ctx context.Context, memberID uuid.UUID) ([]domain.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Loan
	for _, l := range r.loans {
		if l.MemberID == memberID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) FindActiveLoans(ctx context.Context) ([]domain.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Loan
	for _, l := range r.loans {
		if l.Status == domain.LoanActive {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) UpdateLoanStatus(ctx context.Context, loanID uuid.UUID, status domain.LoanStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[loanID]
	if !ok {
		return domain.ErrLoanNotFound
	}
	l.Status = status
	return nil
}

func (r *MemoryRepository) UpdateLoanDerivedState(ctx context.Context, loanID uuid.UUID, outstanding decimal.Decimal, overdue bool, daysPastDue int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[loanID]
	if !ok {
		return domain.ErrLoanNotFound
	}
	l.Outstanding = outstanding
	l.Overdue = overdue
	l.DaysPastDue = daysPastDue
	return nil
}

func (r *MemoryRepository) FlagLoanOverdue(ctx context.Context, loanID uuid.UUID, daysPastDue int, checkedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[loanID]
	if !ok {
		return false, domain.ErrLoanNotFound
	}
	if l.Status != domain.LoanActive || l.Overdue {
		return false, nil
	}
	l.Overdue = true
	l.DaysPastDue = daysPastDue
	l.LastOverdueCheck = &checkedAt
	return true, nil
}

func (r *MemoryRepository) TouchOverdueCheck(ctx context.Context, loanID uuid.UUID, daysPastDue int, checkedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[loanID]
	if !ok {
		return domain.ErrLoanNotFound
	}
	l.DaysPastDue = daysPastDue
	l.LastOverdueCheck = &checkedAt
	return nil
}

func (r *MemoryRepository) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.txs {
		if existing.ReceiptNumber != tx.ReceiptNumber || existing.Type != tx.Type {
			continue
		}
		sameLoan := existing.LoanID != nil && tx.LoanID != nil && *existing.LoanID == *tx.LoanID
		sameAccount := existing.ShareAccountID != nil && tx.ShareAccountID != nil && *existing.ShareAccountID == *tx.ShareAccountID
		if sameLoan || sameAccount {
			return fmt.Errorf("receipt %s: %w", tx.ReceiptNumber, domain.ErrDuplicateReceipt)
		}
	}
	r.txs = append(r.txs, *tx)
	return nil
}

func (r *MemoryRepository) ListLoanTransactions(ctx context.Context, loanID uuid.UUID) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range r.txs {
		if tx.LoanID != nil && *tx.LoanID == loanID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *MemoryRepository) ListShareTransactions(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range r.txs {
		if tx.ShareAccountID != nil && *tx.ShareAccountID == accountID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *MemoryRepository) ListTransactionsInPeriod(ctx context.Context, p domain.Period) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range r.txs {
		if p.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *MemoryRepository) FindFiscalPeriod(ctx context.Context, p domain.Period) (*domain.FiscalPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fp, ok := r.periods[p.Label()]
	if !ok {
		return nil, domain.ErrPeriodNotFound
	}
	clone := *fp
	return &clone, nil
}

func (r *MemoryRepository) EnsureFiscalPeriod(ctx context.Context, p domain.Period) (*domain.FiscalPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fp, ok := r.periods[p.Label()]
	if !ok {
		fp = &domain.FiscalPeriod{Period: p, Status: domain.PeriodOpen}
		r.periods[p.Label()] = fp
	}
	clone := *fp
	return &clone, nil
}

func (r *MemoryRepository) CloseFiscalPeriod(ctx context.Context, p domain.Period, at time.Time) (*domain.FiscalPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fp, ok := r.periods[p.Label()]
	if !ok {
		return nil, domain.ErrPeriodNotFound
	}
	fp.Close(at)
	clone := *fp
	return &clone, nil
}
