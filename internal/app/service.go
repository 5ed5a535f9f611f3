/**
 * @description
 * This file contains the core business logic for the ledger service.
 * The `Service` struct orchestrates member enrollment, loan lifecycle,
 * payment posting, and the read-path reports (member financials, PAR
 * analysis, trial balance, dividend estimate), coordinating between the
 * database repository, the amortization engine, and the message broker.
 *
 * Key invariants enforced here:
 * - Transactions are only appended, never edited; balances are always
 *   recomputed from the log.
 * - A transaction dated inside a CLOSED fiscal period is rejected with
 *   ErrPeriodClosed before any mutation.
 * - Receipt numbers are idempotency keys: a reused receipt on the same
 *   loan or account is rejected with ErrDuplicateReceipt.
 * - Notification delivery is fire-and-forget; its failures are logged,
 *   never propagated, and never roll back ledger state.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: Identifiers.
 * - github.com/shopspring/decimal: Monetary arithmetic.
 * - internal/domain, internal/store: Domain models and data access.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coopstack/ledger-service/internal/domain"
	"github.com/coopstack/ledger-service/internal/store"
)

// Notifier is the fire-and-forget member notification collaborator.
// Implementations must not block the ledger path; failures are logged
// by the caller and never propagated.
type Notifier interface {
	NotifyLoanOverdue(ctx context.Context, memberID uuid.UUID, loanNumber string, daysPastDue int) error
	NotifyLoanCompleted(ctx context.Context, memberID uuid.UUID, loanNumber string) error
}

// Service provides the core business logic for the cooperative ledger.
type Service struct {
	repo     store.Repository
	notifier Notifier
	marker   JobMarker
}

// NewService creates a new ledger service instance. The notifier may be
// nil, in which case notification is skipped entirely.
func NewService(repo store.Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// SetJobMarker installs the distributed day-marker used by the overdue
// detection batch. Without one, idempotency falls back to the per-loan
// compare-and-swap in the store.
func (s *Service) SetJobMarker(marker JobMarker) {
	s.marker = marker
}

// EnrollMember registers a member and opens their share account. The
// account exists for the member's whole life; it is only ever mutated
// by appending transactions.
func (s *Service) EnrollMember(ctx context.Context, memberNumber, fullName string, registeredAt time.Time) (*domain.Member, error) {
	m := &domain.Member{
		ID:           uuid.New(),
		MemberNumber: memberNumber,
		FullName:     fullName,
		RegisteredAt: registeredAt,
		Active:       true,
	}
	if err := s.repo.CreateMember(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to store member: %w", err)
	}
	account := &domain.ShareAccount{ID: uuid.New(), MemberID: m.ID}
	if err := s.repo.CreateShareAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to open share account: %w", err)
	}
	return m, nil
}

// OpenLoan registers a PENDING loan for a member. Disbursement is a
// separate step that activates it.
func (s *Service) OpenLoan(ctx context.Context, memberID uuid.UUID, loanNumber string, loanType domain.LoanType, principal decimal.Decimal, annualRate decimal.Decimal, termMonths int, startDate time.Time) (*domain.Loan, error) {
	if principal.LessThanOrEqual(decimal.Zero) || annualRate.IsNegative() || termMonths <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if _, err := s.repo.FindMemberByID(ctx, memberID); err != nil {
		return nil, err
	}
	l := &domain.Loan{
		ID:          uuid.New(),
		MemberID:    memberID,
		LoanNumber:  loanNumber,
		Type:        loanType,
		Principal:   domain.RoundMoney(principal),
		AnnualRate:  annualRate,
		TermMonths:  termMonths,
		StartDate:   startDate,
		EndDate:     startDate.AddDate(0, termMonths, 0),
		Status:      domain.LoanPending,
		Outstanding: domain.RoundMoney(principal),
	}
	if err := s.repo.CreateLoan(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}
	return l, nil
}

// DisburseLoan activates a PENDING loan and records the disbursement
// outflow. Re-invoking with the same receipt number is rejected by the
// duplicate-receipt guard, so retries cannot double-post.
func (s *Service) DisburseLoan(ctx context.Context, loanID uuid.UUID, receiptNumber string, date time.Time) (*domain.Loan, error) {
	loan, err := s.repo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if err := s.guardPeriodOpen(ctx, date); err != nil {
		return nil, err
	}
	txs, err := s.repo.ListLoanTransactions(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if receiptUsed(txs, receiptNumber) {
		return nil, fmt.Errorf("receipt %s: %w", receiptNumber, domain.ErrDuplicateReceipt)
	}
	if err := loan.ApplyStatus(domain.LoanActive); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLoanStatus(ctx, loanID, loan.Status); err != nil {
		return nil, fmt.Errorf("failed to activate loan: %w", err)
	}
	tx := &domain.Transaction{
		ID:            uuid.New(),
		LoanID:        &loan.ID,
		Date:          date,
		PeriodLabel:   domain.PeriodOf(date).Label(),
		Amount:        loan.Principal,
		ReceiptNumber: receiptNumber,
		Type:          domain.TxDisbursement,
		BalanceAfter:  loan.Principal,
		Description:   fmt.Sprintf("Disbursement of loan %s", loan.LoanNumber),
	}
	if err := s.repo.AppendTransaction(ctx, tx); err != nil {
		// An ACTIVE loan without its disbursement record would be
		// invisible to the trial balance; put it back to PENDING so
		// a retry runs the full sequence.
		if revertErr := s.repo.UpdateLoanStatus(ctx, loanID, domain.LoanPending); revertErr != nil {
			log.Printf("level=error component=service msg=\"failed to revert loan activation\" loan=%s err=%v", loan.LoanNumber, revertErr)
		}
		return nil, fmt.Errorf("failed to store disbursement: %w", err)
	}
	return loan, nil
}

// SetLoanStatus applies an administrative status change (DEFAULTED,
// WRITTEN_OFF, ...). Setting the already-current status is a no-op, not
// an error, so the operation can be retried safely.
func (s *Service) SetLoanStatus(ctx context.Context, loanID uuid.UUID, status domain.LoanStatus) (*domain.Loan, error) {
	loan, err := s.repo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	previous := loan.Status
	if err := loan.ApplyStatus(status); err != nil {
		return nil, err
	}
	if loan.Status == previous {
		return loan, nil
	}
	if err := s.repo.UpdateLoanStatus(ctx, loanID, loan.Status); err != nil {
		return nil, fmt.Errorf("failed to update loan status: %w", err)
	}
	return loan, nil
}

// RecordShareContribution appends a SHARE inflow to the member's
// account and returns the recorded transaction.
func (s *Service) RecordShareContribution(ctx context.Context, memberID uuid.UUID, amount decimal.Decimal, receiptNumber string, date time.Time, description string) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	account, err := s.repo.FindShareAccountByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if err := s.guardPeriodOpen(ctx, date); err != nil {
		return nil, err
	}
	txs, err := s.repo.ListShareTransactions(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if receiptUsed(txs, receiptNumber) {
		return nil, fmt.Errorf("receipt %s: %w", receiptNumber, domain.ErrDuplicateReceipt)
	}

	balanceAfter := domain.AccumulatedShares(txs).Add(domain.RoundMoney(amount))
	tx := &domain.Transaction{
		ID:             uuid.New(),
		ShareAccountID: &account.ID,
		Date:           date,
		PeriodLabel:    domain.PeriodOf(date).Label(),
		Amount:         domain.RoundMoney(amount),
		ReceiptNumber:  receiptNumber,
		Type:           domain.TxShare,
		BalanceAfter:   balanceAfter,
		Description:    description,
	}
	if err := s.repo.AppendTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// RecordLoanPayment allocates a payment against a loan in fixed
// precedence (fees, the period's unpaid interest, principal), appends
// the resulting split transactions, recomputes the derived state, and
// advances the loan to COMPLETED if the balance reaches exactly zero.
// Interest is charged once per period on the period's opening balance;
// further payments inside the same period go to principal.
func (s *Service) RecordLoanPayment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, receiptNumber string, date time.Time, description string) (*domain.LoanView, error) {
	loan, err := s.repo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanActive {
		return nil, fmt.Errorf("loan %s is %s: %w", loan.LoanNumber, loan.Status, domain.ErrInvalidTransition)
	}
	if err := s.guardPeriodOpen(ctx, date); err != nil {
		return nil, err
	}

	txs, err := s.repo.ListLoanTransactions(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if receiptUsed(txs, receiptNumber) {
		return nil, fmt.Errorf("receipt %s: %w", receiptNumber, domain.ErrDuplicateReceipt)
	}

	state, err := Amortize(loan, txs)
	if err != nil {
		return nil, err
	}
	interestDue := InterestDueIn(loan, txs, domain.PeriodOf(date))
	split, err := AllocatePayment(domain.RoundMoney(amount), state.Outstanding, interestDue, decimal.Zero)
	if err != nil {
		return nil, err
	}

	installment := installmentFor(loan, state.PrincipalPaid)
	balanceAfter := state.Outstanding.Sub(split.Principal)
	parts := []struct {
		amount decimal.Decimal
		txType domain.TransactionType
	}{
		{split.Fees, domain.TxFee},
		{split.Interest, domain.TxLoanInterest},
		{split.Principal, domain.TxLoanPrincipal},
	}
	for _, part := range parts {
		if !part.amount.IsPositive() {
			continue
		}
		tx := &domain.Transaction{
			ID:            uuid.New(),
			LoanID:        &loan.ID,
			Date:          date,
			PeriodLabel:   domain.PeriodOf(date).Label(),
			Amount:        part.amount,
			ReceiptNumber: receiptNumber,
			Type:          part.txType,
			Installment:   &installment,
			BalanceAfter:  balanceAfter,
			Description:   description,
		}
		if err := s.repo.AppendTransaction(ctx, tx); err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}

	// Recompute derived state from the full log and persist it; the
	// balance column is a cache of this fold, never a counter.
	result, err := Amortize(loan, txs)
	if err != nil {
		return nil, err
	}
	daysPastDue := result.DaysPastDue(date)
	overdue := daysPastDue > 0
	if err := s.repo.UpdateLoanDerivedState(ctx, loanID, result.Outstanding, overdue, daysPastDue); err != nil {
		return nil, fmt.Errorf("failed to update loan state: %w", err)
	}
	if result.Completed {
		if err := s.repo.UpdateLoanStatus(ctx, loanID, domain.LoanCompleted); err != nil {
			return nil, fmt.Errorf("failed to complete loan: %w", err)
		}
		loan.Status = domain.LoanCompleted
		s.notifyCompleted(ctx, loan)
	}

	loan.Outstanding = result.Outstanding
	loan.Overdue = overdue
	loan.DaysPastDue = daysPastDue
	view := buildLoanView(loan, result)
	return &view, nil
}

// GetMemberFinancials assembles the read-only per-member snapshot from
// the share ledger and each loan's amortized state.
func (s *Service) GetMemberFinancials(ctx context.Context, memberID uuid.UUID) (*domain.MemberFinancials, error) {
	member, err := s.repo.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	fin := &domain.MemberFinancials{
		MemberID:     member.ID,
		MemberNumber: member.MemberNumber,
		FullName:     member.FullName,
	}

	account, err := s.repo.FindShareAccountByMemberID(ctx, memberID)
	if err != nil && !errors.Is(err, domain.ErrMemberNotFound) {
		return nil, err
	}
	if account != nil {
		shareTxs, err := s.repo.ListShareTransactions(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		fin.ShareAccount = &domain.ShareAccountView{
			AccountID:         account.ID,
			AccumulatedShares: domain.AccumulatedShares(shareTxs),
			CurrentPeriodPaid: domain.MonthlyContributionSatisfied(shareTxs, domain.PeriodOf(time.Now())),
			Transactions:      shareTxs,
		}
	}

	loans, err := s.repo.FindLoansByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	for i := range loans {
		loan := loans[i]
		txs, err := s.repo.ListLoanTransactions(ctx, loan.ID)
		if err != nil {
			return nil, err
		}
		result, err := Amortize(&loan, txs)
		if err != nil {
			return nil, err
		}
		fin.Loans = append(fin.Loans, buildLoanView(&loan, result))
	}
	return fin, nil
}

// GetPARAnalysis classifies the active portfolio as of the given date.
// Read-only: overdue flags on the loans themselves are maintained by
// the daily job, not by this query.
func (s *Service) GetPARAnalysis(ctx context.Context, asOf time.Time) (*domain.PARAnalysisSummary, error) {
	loans, err := s.repo.FindActiveLoans(ctx)
	if err != nil {
		return nil, err
	}
	exposures := make([]LoanExposure, 0, len(loans))
	for i := range loans {
		loan := loans[i]
		txs, err := s.repo.ListLoanTransactions(ctx, loan.ID)
		if err != nil {
			return nil, err
		}
		result, err := Amortize(&loan, txs)
		if err != nil {
			return nil, fmt.Errorf("loan %s: %w", loan.LoanNumber, err)
		}
		exposures = append(exposures, LoanExposure{
			Outstanding: result.Outstanding,
			DaysPastDue: result.DaysPastDue(asOf),
		})
	}
	summary := ClassifyPortfolio(asOf, exposures)
	return &summary, nil
}

// GetTrialBalance reconciles all flows dated inside the period. Unknown
// periods fail with ErrPeriodNotFound.
func (s *Service) GetTrialBalance(ctx context.Context, periodLabel string) (*domain.TrialBalanceSummary, error) {
	p, err := domain.ParsePeriod(periodLabel)
	if err != nil {
		return nil, err
	}
	fp, err := s.repo.FindFiscalPeriod(ctx, p)
	if err != nil {
		return nil, err
	}
	txs, err := s.repo.ListTransactionsInPeriod(ctx, p)
	if err != nil {
		return nil, err
	}
	summary := Reconcile(*fp, txs)
	return &summary, nil
}

// EstimateDividend projects the payout at a board-approved rate, with
// an optional per-member breakdown.
func (s *Service) EstimateDividend(ctx context.Context, projectedRate decimal.Decimal, memberID *uuid.UUID) (*domain.DividendEstimate, error) {
	total, err := s.repo.TotalAccumulatedShares(ctx)
	if err != nil {
		return nil, err
	}
	var memberShares *decimal.Decimal
	if memberID != nil {
		account, err := s.repo.FindShareAccountByMemberID(ctx, *memberID)
		if err != nil {
			return nil, err
		}
		txs, err := s.repo.ListShareTransactions(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		shares := domain.AccumulatedShares(txs)
		memberShares = &shares
	}
	est, err := ProjectDividend(total, projectedRate, memberShares)
	if err != nil {
		return nil, err
	}
	return &est, nil
}

// ClosePeriod freezes a fiscal period. One-way: a closed period stays
// closed, and re-closing is a no-op.
func (s *Service) ClosePeriod(ctx context.Context, periodLabel string) (*domain.FiscalPeriod, error) {
	p, err := domain.ParsePeriod(periodLabel)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.EnsureFiscalPeriod(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.CloseFiscalPeriod(ctx, p, time.Now())
}

// guardPeriodOpen rejects a posting dated inside a CLOSED fiscal
// period before any mutation happens. Unknown periods are created OPEN.
func (s *Service) guardPeriodOpen(ctx context.Context, date time.Time) error {
	p := domain.PeriodOf(date)
	fp, err := s.repo.FindFiscalPeriod(ctx, p)
	if errors.Is(err, domain.ErrPeriodNotFound) {
		fp, err = s.repo.EnsureFiscalPeriod(ctx, p)
	}
	if err != nil {
		return err
	}
	if !fp.AcceptsPostings() {
		return fmt.Errorf("period %s: %w", p.Label(), domain.ErrPeriodClosed)
	}
	return nil
}

func (s *Service) notifyCompleted(ctx context.Context, loan *domain.Loan) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyLoanCompleted(ctx, loan.MemberID, loan.LoanNumber); err != nil {
		log.Printf("level=warn component=service msg=\"loan completed notification failed\" loan=%s err=%v", loan.LoanNumber, err)
	}
}

// receiptUsed reports whether the receipt number already appears in the
// parent's transaction log.
func receiptUsed(txs []domain.Transaction, receiptNumber string) bool {
	for _, tx := range txs {
		if tx.ReceiptNumber == receiptNumber {
			return true
		}
	}
	return false
}

// installmentFor numbers the installment a payment is applied to: the
// first one whose scheduled principal is not yet fully covered.
func installmentFor(loan *domain.Loan, principalPaid decimal.Decimal) int {
	schedule := BuildSchedule(loan.Principal, loan.AnnualRate, loan.TermMonths, loan.StartDate)
	covered := decimal.Zero
	for _, entry := range schedule {
		covered = covered.Add(entry.Principal)
		if principalPaid.LessThan(covered) {
			return entry.Installment
		}
	}
	return loan.TermMonths
}

func buildLoanView(loan *domain.Loan, result *AmortizationResult) domain.LoanView {
	view := domain.LoanView{
		LoanID:             loan.ID,
		LoanNumber:         loan.LoanNumber,
		Type:               loan.Type,
		Status:             loan.Status,
		Principal:          loan.Principal,
		AnnualRate:         loan.AnnualRate,
		TermMonths:         loan.TermMonths,
		Outstanding:        result.Outstanding,
		TotalPrincipalPaid: result.PrincipalPaid,
		TotalInterestPaid:  result.InterestPaid,
		TotalFeesPaid:      result.FeesPaid,
		Overdue:            loan.Overdue,
		DaysPastDue:        loan.DaysPastDue,
		NextDueDate:        result.NextDueDate,
		Payments:           result.Payments,
	}
	return view
}
