package app

import (
	"testing"
	"time"

	"github.com/coopstack/ledger-service/internal/domain"
)

func trialPeriod() domain.FiscalPeriod {
	return domain.FiscalPeriod{
		Period: domain.Period{Year: 2024, Month: time.March},
		Status: domain.PeriodOpen,
	}
}

func periodTx(t *testing.T, txType domain.TransactionType, amount string, date time.Time) domain.Transaction {
	t.Helper()
	return domain.Transaction{
		Date:        date,
		PeriodLabel: domain.PeriodOf(date).Label(),
		Amount:      dec(t, amount),
		Type:        txType,
	}
}

func TestReconcileBalancedPeriod(t *testing.T) {
	fp := trialPeriod()
	mid := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	// A disbursement fully repaid inside the same period balances to
	// exactly zero once interest on the other side is matched by fees.
	txs := []domain.Transaction{
		periodTx(t, domain.TxDisbursement, "1000.00", mid),
		periodTx(t, domain.TxLoanPrincipal, "900.00", mid.AddDate(0, 0, 5)),
		periodTx(t, domain.TxLoanInterest, "80.00", mid.AddDate(0, 0, 5)),
		periodTx(t, domain.TxFee, "20.00", mid.AddDate(0, 0, 5)),
	}

	summary := Reconcile(fp, txs)

	if summary.Period != "2024-03" {
		t.Fatalf("expected period 2024-03, got %s", summary.Period)
	}
	if !summary.TotalDebits.Equal(dec(t, "1000.00")) {
		t.Fatalf("expected debits 1000.00, got %s", summary.TotalDebits)
	}
	if !summary.TotalCredits.Equal(dec(t, "1000.00")) {
		t.Fatalf("expected credits 1000.00, got %s", summary.TotalCredits)
	}
	if !summary.Variance.IsZero() {
		t.Fatalf("expected exactly zero variance, got %s", summary.Variance)
	}
	if !summary.Balanced {
		t.Fatal("expected balanced period")
	}
}

func TestReconcileReportsVariance(t *testing.T) {
	fp := trialPeriod()
	mid := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	txs := []domain.Transaction{
		periodTx(t, domain.TxDisbursement, "1000.00", mid),
		periodTx(t, domain.TxShare, "250.00", mid),
	}

	summary := Reconcile(fp, txs)

	if !summary.Variance.Equal(dec(t, "750.00")) {
		t.Fatalf("expected variance 750.00, got %s", summary.Variance)
	}
	if summary.Balanced {
		t.Fatal("expected unbalanced period")
	}
}

func TestReconcileIgnoresOtherPeriods(t *testing.T) {
	fp := trialPeriod()

	txs := []domain.Transaction{
		periodTx(t, domain.TxShare, "100.00", time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)),
		periodTx(t, domain.TxShare, "200.00", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
		periodTx(t, domain.TxShare, "400.00", time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)),
	}

	summary := Reconcile(fp, txs)

	if !summary.TotalCredits.Equal(dec(t, "200.00")) {
		t.Fatalf("expected only in-period credits 200.00, got %s", summary.TotalCredits)
	}
	if !summary.TotalDebits.IsZero() {
		t.Fatalf("expected zero debits, got %s", summary.TotalDebits)
	}
}

func TestReconcileEmptyPeriodIsBalanced(t *testing.T) {
	summary := Reconcile(trialPeriod(), nil)

	if !summary.Balanced {
		t.Fatal("a period with no transactions is trivially balanced")
	}
	if !summary.Variance.IsZero() {
		t.Fatalf("expected zero variance, got %s", summary.Variance)
	}
}

func TestReconcileCarriesPeriodStatus(t *testing.T) {
	fp := trialPeriod()
	closedAt := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	fp.Close(closedAt)

	summary := Reconcile(fp, nil)
	if summary.PeriodStatus != domain.PeriodClosed {
		t.Fatalf("expected CLOSED status, got %s", summary.PeriodStatus)
	}
}
