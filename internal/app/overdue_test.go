package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coopstack/ledger-service/internal/domain"
)

func TestRunOverdueDetectionFlagsLateLoan(t *testing.T) {
	svc, repo, notifier := newTestService(t)
	ctx := context.Background()
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	loan := enrollWithLoan(t, svc, "10000.00", "0.10", 12, start)

	// First installment due 2024-02-15; thirty days late on 2024-03-16.
	asOf := time.Date(2024, time.March, 16, 3, 0, 0, 0, time.UTC)
	result, err := svc.RunOverdueDetection(ctx, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Processed != 1 || result.FlaggedNew != 1 || result.Failures != 0 {
		t.Fatalf("unexpected batch result: %+v", result)
	}
	stored, _ := repo.FindLoanByID(ctx, loan.ID)
	if !stored.Overdue || stored.DaysPastDue != 30 {
		t.Fatalf("expected overdue loan at 30 days, got overdue=%t days=%d", stored.Overdue, stored.DaysPastDue)
	}
	if len(notifier.overdueCalls) != 1 || notifier.overdueDays[0] != 30 {
		t.Fatalf("expected one overdue notification at 30 days, got %v / %v", notifier.overdueCalls, notifier.overdueDays)
	}
}

func TestRunOverdueDetectionIsIdempotent(t *testing.T) {
	svc, repo, notifier := newTestService(t)
	ctx := context.Background()
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	enrollWithLoan(t, svc, "10000.00", "0.10", 12, start)

	asOf := time.Date(2024, time.March, 16, 3, 0, 0, 0, time.UTC)
	if _, err := svc.RunOverdueDetection(ctx, asOf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Second run for the same date: already-flagged loans are only
	// touched, never re-flagged or re-notified.
	second, err := svc.RunOverdueDetection(ctx, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.FlaggedNew != 0 {
		t.Fatalf("expected FlaggedNew=0 on repeat run, got %d", second.FlaggedNew)
	}
	if len(notifier.overdueCalls) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notifier.overdueCalls))
	}
	if repo.touchCalls == 0 {
		t.Fatal("expected the repeat run to refresh the overdue check")
	}
}

func TestRunOverdueDetectionDayMarkerSkipsRepeat(t *testing.T) {
	svc, _, notifier := newTestService(t)
	svc.SetJobMarker(newStubMarker())
	ctx := context.Background()
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	enrollWithLoan(t, svc, "10000.00", "0.10", 12, start)

	asOf := time.Date(2024, time.March, 16, 3, 0, 0, 0, time.UTC)
	first, err := svc.RunOverdueDetection(ctx, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Skipped || first.FlaggedNew != 1 {
		t.Fatalf("unexpected first run result: %+v", first)
	}

	second, err := svc.RunOverdueDetection(ctx, asOf.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Skipped || second.Processed != 0 {
		t.Fatalf("expected skipped second run, got %+v", second)
	}
	if len(notifier.overdueCalls) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.overdueCalls))
	}
}

func TestRunOverdueDetectionMarkerFailureStillRuns(t *testing.T) {
	svc, _, _ := newTestService(t)
	marker := newStubMarker()
	marker.checkErr = errors.New("redis down")
	svc.SetJobMarker(marker)
	ctx := context.Background()
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	enrollWithLoan(t, svc, "10000.00", "0.10", 12, start)

	asOf := time.Date(2024, time.March, 16, 3, 0, 0, 0, time.UTC)
	result, err := svc.RunOverdueDetection(ctx, asOf)
	if err != nil {
		t.Fatalf("a marker outage must not abort the batch: %v", err)
	}
	if result.Skipped || result.FlaggedNew != 1 {
		t.Fatalf("expected the batch to run on marker failure, got %+v", result)
	}
}

func TestRunOverdueDetectionRetriesSameDayAfterPartialFailure(t *testing.T) {
	svc, repo, _ := newTestService(t)
	marker := newStubMarker()
	svc.SetJobMarker(marker)
	ctx := context.Background()
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	member, err := svc.EnrollMember(ctx, "M-0001", "Ada Bello", start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	healthy, err := svc.OpenLoan(ctx, member.ID, "LN-0001", domain.LoanProvident, dec(t, "10000.00"), dec(t, "0.10"), 12, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.DisburseLoan(ctx, healthy.ID, "RCPT-D1", start); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	broken, err := svc.OpenLoan(ctx, member.ID, "LN-0002", domain.LoanEmergency, dec(t, "5000.00"), dec(t, "0.10"), 6, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.DisburseLoan(ctx, broken.ID, "RCPT-D2", start); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.listLoanTxErr[broken.ID] = errors.New("storage corruption")

	asOf := time.Date(2024, time.March, 16, 3, 0, 0, 0, time.UTC)
	first, err := svc.RunOverdueDetection(ctx, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Failures != 1 || first.FlaggedNew != 1 {
		t.Fatalf("unexpected first run result: %+v", first)
	}
	if marker.markCalls != 0 {
		t.Fatal("a run with failures must not record the day marker")
	}

	// Once the storage fault clears, the same-day retry must reach the
	// loan that failed instead of being skipped wholesale.
	delete(repo.listLoanTxErr, broken.ID)
	second, err := svc.RunOverdueDetection(ctx, asOf.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Skipped {
		t.Fatal("expected the retry to run, not skip")
	}
	if second.Processed != 2 || second.Failures != 0 || second.FlaggedNew != 1 {
		t.Fatalf("unexpected retry result: %+v", second)
	}
	stored, _ := repo.FindLoanByID(ctx, broken.ID)
	if !stored.Overdue {
		t.Fatal("expected the previously failed loan to be flagged on retry")
	}

	// The clean retry records the marker; a third run skips.
	third, err := svc.RunOverdueDetection(ctx, asOf.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !third.Skipped {
		t.Fatalf("expected the third run to skip, got %+v", third)
	}
}

func TestRunOverdueDetectionIsolatesLoanFailures(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	member, err := svc.EnrollMember(ctx, "M-0001", "Ada Bello", start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	healthy, err := svc.OpenLoan(ctx, member.ID, "LN-0001", domain.LoanProvident, dec(t, "10000.00"), dec(t, "0.10"), 12, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.DisburseLoan(ctx, healthy.ID, "RCPT-D1", start); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	broken, err := svc.OpenLoan(ctx, member.ID, "LN-0002", domain.LoanEmergency, dec(t, "5000.00"), dec(t, "0.10"), 6, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.DisburseLoan(ctx, broken.ID, "RCPT-D2", start); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.listLoanTxErr[broken.ID] = errors.New("storage corruption")

	asOf := time.Date(2024, time.March, 16, 3, 0, 0, 0, time.UTC)
	result, err := svc.RunOverdueDetection(ctx, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Processed != 2 || result.Failures != 1 || result.FlaggedNew != 1 {
		t.Fatalf("expected the healthy loan flagged despite one failure, got %+v", result)
	}
	stored, _ := repo.FindLoanByID(ctx, healthy.ID)
	if !stored.Overdue {
		t.Fatal("expected the healthy loan to be flagged")
	}
}

func TestRunOverdueDetectionNotificationFailureIsSwallowed(t *testing.T) {
	svc, repo, notifier := newTestService(t)
	notifier.notifyErr = errors.New("broker unreachable")
	ctx := context.Background()
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	loan := enrollWithLoan(t, svc, "10000.00", "0.10", 12, start)

	asOf := time.Date(2024, time.March, 16, 3, 0, 0, 0, time.UTC)
	result, err := svc.RunOverdueDetection(ctx, asOf)
	if err != nil {
		t.Fatalf("notification failure must not fail the batch: %v", err)
	}
	if result.FlaggedNew != 1 || result.Failures != 0 {
		t.Fatalf("expected flag to stick despite notification failure, got %+v", result)
	}
	stored, _ := repo.FindLoanByID(ctx, loan.ID)
	if !stored.Overdue {
		t.Fatal("expected the overdue flag to survive a failed notification")
	}
}

func TestRunOverdueDetectionLeavesCurrentLoansAlone(t *testing.T) {
	svc, repo, notifier := newTestService(t)
	ctx := context.Background()
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	loan := enrollWithLoan(t, svc, "10000.00", "0.10", 12, start)

	// Before the first due date nothing is late.
	asOf := time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)
	result, err := svc.RunOverdueDetection(ctx, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FlaggedNew != 0 || result.Failures != 0 {
		t.Fatalf("unexpected batch result: %+v", result)
	}
	stored, _ := repo.FindLoanByID(ctx, loan.ID)
	if stored.Overdue {
		t.Fatal("current loan must not be flagged")
	}
	if len(notifier.overdueCalls) != 0 {
		t.Fatalf("expected no notifications, got %v", notifier.overdueCalls)
	}
}
