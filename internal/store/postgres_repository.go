/**
 * @description
 * PostgreSQL implementation of the `Repository` interface. Contains all
 * SQL for members, share accounts, loans, the append-only transaction
 * log, and fiscal periods.
 *
 * @notes
 * - Monetary columns are NUMERIC(14,2); pgx scans them into
 *   shopspring decimals via their string form.
 * - The unique index on (share_account_id, receipt_number) and
 *   (loan_id, receipt_number) enforces receipt-number idempotency;
 *   violations surface as domain.ErrDuplicateReceipt.
 * - Loan flag updates are single guarded UPDATE statements, which makes
 *   them atomic per loan without explicit row locks.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/coopstack/ledger-service/internal/domain"
)

const pgUniqueViolation = "23505"

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateMember inserts a member record.
func (r *PostgresRepository) CreateMember(ctx context.Context, m *domain.Member) error {
	query := `
		INSERT INTO members (id, member_number, full_name, registered_at, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, m.ID, m.MemberNumber, m.FullName, m.RegisteredAt, m.Active)
	return err
}

// FindMemberByID retrieves a member by their ID.
func (r *PostgresRepository) FindMemberByID(ctx context.Context, memberID uuid.UUID) (*domain.Member, error) {
	var m domain.Member
	query := `
		SELECT id, member_number, full_name, registered_at, active, created_at, updated_at
		FROM members WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, memberID).Scan(
		&m.ID, &m.MemberNumber, &m.FullName, &m.RegisteredAt, &m.Active, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

// CreateShareAccount inserts the member's share account, created once
// at enrollment.
func (r *PostgresRepository) CreateShareAccount(ctx context.Context, a *domain.ShareAccount) error {
	query := `INSERT INTO share_accounts (id, member_id, created_at) VALUES ($1, $2, NOW())`
	_, err := r.db.Exec(ctx, query, a.ID, a.MemberID)
	return err
}

// FindShareAccountByMemberID retrieves the member's share account.
func (r *PostgresRepository) FindShareAccountByMemberID(ctx context.Context, memberID uuid.UUID) (*domain.ShareAccount, error) {
	var a domain.ShareAccount
	query := `SELECT id, member_id, created_at FROM share_accounts WHERE member_id = $1`
	err := r.db.QueryRow(ctx, query, memberID).Scan(&a.ID, &a.MemberID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return &a, nil
}

// TotalAccumulatedShares folds all share flows into the cooperative
// total. The total is always computed from the transaction log, never
// read from a stored counter.
func (r *PostgresRepository) TotalAccumulatedShares(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'SHARE' THEN amount
		                         WHEN type = 'WITHDRAWAL' THEN -amount
		                         ELSE 0 END), 0)
		FROM transactions
		WHERE share_account_id IS NOT NULL
	`
	if err := r.db.QueryRow(ctx, query).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// CreateLoan inserts a loan record.
func (r *PostgresRepository) CreateLoan(ctx context.Context, l *domain.Loan) error {
	query := `
		INSERT INTO loans (id, member_id, loan_number, type, principal, annual_rate, term_months,
		                   start_date, end_date, status, outstanding, is_overdue, days_past_due,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		l.ID, l.MemberID, l.LoanNumber, l.Type, l.Principal, l.AnnualRate, l.TermMonths,
		l.StartDate, l.EndDate, l.Status, l.Outstanding, l.Overdue, l.DaysPastDue,
	)
	return err
}

const loanColumns = `id, member_id, loan_number, type, principal, annual_rate, term_months,
	start_date, end_date, status, outstanding, is_overdue, days_past_due, last_overdue_check,
	created_at, updated_at`

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var l domain.Loan
	err := row.Scan(
		&l.ID, &l.MemberID, &l.LoanNumber, &l.Type, &l.Principal, &l.AnnualRate, &l.TermMonths,
		&l.StartDate, &l.EndDate, &l.Status, &l.Outstanding, &l.Overdue, &l.DaysPastDue,
		&l.LastOverdueCheck, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindLoanByID retrieves a loan by its ID.
func (r *PostgresRepository) FindLoanByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	row := r.db.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, loanID)
	l, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return l, nil
}

// FindLoansByMemberID lists a member's loans, oldest first.
func (r *PostgresRepository) FindLoansByMemberID(ctx context.Context, memberID uuid.UUID) ([]domain.Loan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+loanColumns+` FROM loans WHERE member_id = $1 ORDER BY created_at`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLoans(rows)
}

// FindActiveLoans lists every ACTIVE loan for batch processing.
func (r *PostgresRepository) FindActiveLoans(ctx context.Context) ([]domain.Loan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+loanColumns+` FROM loans WHERE status = 'ACTIVE' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLoans(rows)
}

func collectLoans(rows pgx.Rows) ([]domain.Loan, error) {
	var loans []domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *l)
	}
	return loans, rows.Err()
}

// UpdateLoanStatus persists a status change in a single statement,
// which keeps the write atomic per loan.
func (r *PostgresRepository) UpdateLoanStatus(ctx context.Context, loanID uuid.UUID, status domain.LoanStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE loans SET status = $2, updated_at = NOW() WHERE id = $1`, loanID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// UpdateLoanDerivedState writes recomputed balances and overdue state
// after an amortization pass.
func (r *PostgresRepository) UpdateLoanDerivedState(ctx context.Context, loanID uuid.UUID, outstanding decimal.Decimal, overdue bool, daysPastDue int) error {
	query := `
		UPDATE loans
		SET outstanding = $2, is_overdue = $3, days_past_due = $4, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, loanID, outstanding, overdue, daysPastDue)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// FlagLoanOverdue flips the overdue flag with a compare-and-swap on the
// current value: only an ACTIVE, not-yet-flagged loan matches the WHERE
// clause, so exactly one of any set of concurrent calls wins.
func (r *PostgresRepository) FlagLoanOverdue(ctx context.Context, loanID uuid.UUID, daysPastDue int, checkedAt time.Time) (bool, error) {
	query := `
		UPDATE loans
		SET is_overdue = TRUE, days_past_due = $2, last_overdue_check = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'ACTIVE' AND is_overdue = FALSE
	`
	tag, err := r.db.Exec(ctx, query, loanID, daysPastDue, checkedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// TouchOverdueCheck refreshes the counter on an already-flagged loan.
func (r *PostgresRepository) TouchOverdueCheck(ctx context.Context, loanID uuid.UUID, daysPastDue int, checkedAt time.Time) error {
	query := `
		UPDATE loans
		SET days_past_due = $2, last_overdue_check = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, loanID, daysPastDue, checkedAt)
	return err
}

// AppendTransaction records one immutable ledger entry. A reused
// receipt number for the same parent violates the unique index and is
// reported as domain.ErrDuplicateReceipt so retries stay idempotent.
func (r *PostgresRepository) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, share_account_id, loan_id, date, period, amount,
		                          receipt_number, type, installment, balance_after, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	`
	_, err := r.db.Exec(ctx, query,
		tx.ID, tx.ShareAccountID, tx.LoanID, tx.Date, tx.PeriodLabel, tx.Amount,
		tx.ReceiptNumber, tx.Type, tx.Installment, tx.BalanceAfter, tx.Description,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("receipt %s: %w", tx.ReceiptNumber, domain.ErrDuplicateReceipt)
		}
		return err
	}
	return nil
}

const txColumns = `id, share_account_id, loan_id, date, period, amount, receipt_number,
	type, installment, balance_after, description, created_at`

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		err := rows.Scan(
			&tx.ID, &tx.ShareAccountID, &tx.LoanID, &tx.Date, &tx.PeriodLabel, &tx.Amount,
			&tx.ReceiptNumber, &tx.Type, &tx.Installment, &tx.BalanceAfter, &tx.Description, &tx.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// ListLoanTransactions returns a loan's records in chronological order
// (insertion order breaks date ties).
func (r *PostgresRepository) ListLoanTransactions(ctx context.Context, loanID uuid.UUID) ([]domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE loan_id = $1 ORDER BY date, created_at`
	rows, err := r.db.Query(ctx, query, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListShareTransactions returns a share account's records in
// chronological order.
func (r *PostgresRepository) ListShareTransactions(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE share_account_id = $1 ORDER BY date, created_at`
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListTransactionsInPeriod returns every record dated inside the
// period, across all accounts and loans, for trial balancing.
func (r *PostgresRepository) ListTransactionsInPeriod(ctx context.Context, p domain.Period) ([]domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE date >= $1 AND date < $2 ORDER BY date, created_at`
	rows, err := r.db.Query(ctx, query, p.Start(), p.End())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// FindFiscalPeriod retrieves a period's lifecycle record.
func (r *PostgresRepository) FindFiscalPeriod(ctx context.Context, p domain.Period) (*domain.FiscalPeriod, error) {
	var fp domain.FiscalPeriod
	var label string
	query := `SELECT period, status, closed_at FROM fiscal_periods WHERE period = $1`
	err := r.db.QueryRow(ctx, query, p.Label()).Scan(&label, &fp.Status, &fp.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPeriodNotFound
		}
		return nil, err
	}
	fp.Period = p
	return &fp, nil
}

// EnsureFiscalPeriod creates the period's record as OPEN if it does not
// exist yet, then returns the current state.
func (r *PostgresRepository) EnsureFiscalPeriod(ctx context.Context, p domain.Period) (*domain.FiscalPeriod, error) {
	query := `
		INSERT INTO fiscal_periods (period, status)
		VALUES ($1, 'OPEN')
		ON CONFLICT (period) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, p.Label()); err != nil {
		return nil, err
	}
	return r.FindFiscalPeriod(ctx, p)
}

// CloseFiscalPeriod marks the period CLOSED. Closing an already-closed
// period leaves it untouched; there is no reopen path.
func (r *PostgresRepository) CloseFiscalPeriod(ctx context.Context, p domain.Period, at time.Time) (*domain.FiscalPeriod, error) {
	query := `
		UPDATE fiscal_periods
		SET status = 'CLOSED', closed_at = COALESCE(closed_at, $2)
		WHERE period = $1
	`
	tag, err := r.db.Exec(ctx, query, p.Label(), at.UTC())
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrPeriodNotFound
	}
	return r.FindFiscalPeriod(ctx, p)
}
