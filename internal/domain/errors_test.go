package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "invalid period is validation", err: ErrInvalidPeriod, want: KindValidation},
		{name: "invalid amount is validation", err: ErrInvalidAmount, want: KindValidation},
		{name: "closed period is a state conflict", err: ErrPeriodClosed, want: KindStateConflict},
		{name: "duplicate receipt is a state conflict", err: ErrDuplicateReceipt, want: KindStateConflict},
		{name: "invalid transition is a state conflict", err: ErrInvalidTransition, want: KindStateConflict},
		{name: "negative principal is data integrity", err: ErrNegativePrincipal, want: KindDataIntegrity},
		{name: "unknown period is not found", err: ErrPeriodNotFound, want: KindNotFound},
		{name: "unknown member is not found", err: ErrMemberNotFound, want: KindNotFound},
		{name: "unknown loan is not found", err: ErrLoanNotFound, want: KindNotFound},
		{name: "wrapped sentinel keeps its kind", err: fmt.Errorf("receipt R-1: %w", ErrDuplicateReceipt), want: KindStateConflict},
		{name: "anything else is a dependency failure", err: errors.New("connection reset"), want: KindDependency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KindOf(tt.err)
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
