package domain

import (
	"errors"
	"testing"
)

func TestBucketForDays(t *testing.T) {
	tests := []struct {
		name string
		days int
		want PARBucket
	}{
		{name: "negative days is current", days: -5, want: BucketCurrent},
		{name: "zero days is current", days: 0, want: BucketCurrent},
		{name: "first day past due", days: 1, want: BucketDays1_30},
		{name: "day thirty stays in first bucket", days: 30, want: BucketDays1_30},
		{name: "day thirty-one moves up", days: 31, want: BucketDays31_60},
		{name: "mid second bucket", days: 45, want: BucketDays31_60},
		{name: "day sixty boundary", days: 60, want: BucketDays31_60},
		{name: "day sixty-one moves up", days: 61, want: BucketDays61_90},
		{name: "day ninety boundary", days: 90, want: BucketDays61_90},
		{name: "day ninety-one is over ninety", days: 91, want: BucketOver90},
		{name: "extreme delinquency", days: 1000, want: BucketOver90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BucketForDays(tt.days)
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestPARBucketIsPastDue(t *testing.T) {
	if BucketCurrent.IsPastDue() {
		t.Fatal("CURRENT must not count toward PAR")
	}
	for _, b := range PARBuckets[1:] {
		if !b.IsPastDue() {
			t.Fatalf("bucket %s must count toward PAR", b)
		}
	}
}

func TestLoanStatusCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from LoanStatus
		to   LoanStatus
		want bool
	}{
		{name: "pending activates", from: LoanPending, to: LoanActive, want: true},
		{name: "pending cannot complete", from: LoanPending, to: LoanCompleted, want: false},
		{name: "active completes", from: LoanActive, to: LoanCompleted, want: true},
		{name: "active defaults", from: LoanActive, to: LoanDefaulted, want: true},
		{name: "active writes off", from: LoanActive, to: LoanWrittenOff, want: true},
		{name: "active cannot regress to pending", from: LoanActive, to: LoanPending, want: false},
		{name: "completed is terminal", from: LoanCompleted, to: LoanActive, want: false},
		{name: "defaulted is terminal", from: LoanDefaulted, to: LoanActive, want: false},
		{name: "written off is terminal", from: LoanWrittenOff, to: LoanActive, want: false},
		{name: "same status is a permitted no-op", from: LoanActive, to: LoanActive, want: true},
		{name: "same terminal status is a permitted no-op", from: LoanCompleted, to: LoanCompleted, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.from.CanTransition(tt.to)
			if got != tt.want {
				t.Fatalf("expected %t, got %t", tt.want, got)
			}
		})
	}
}

func TestLoanApplyStatus(t *testing.T) {
	l := &Loan{Status: LoanPending}

	if err := l.ApplyStatus(LoanActive); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Status != LoanActive {
		t.Fatalf("expected ACTIVE, got %s", l.Status)
	}

	// Repeating the same status is a no-op, not an error.
	if err := l.ApplyStatus(LoanActive); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := l.ApplyStatus(LoanPending); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if l.Status != LoanActive {
		t.Fatalf("failed transition must not mutate status, got %s", l.Status)
	}
}
