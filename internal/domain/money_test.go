package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestRoundMoneyHalfUp(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "exact half rounds up", in: "83.335", want: "83.34"},
		{name: "below half rounds down", in: "83.334", want: "83.33"},
		{name: "already two places unchanged", in: "100.00", want: "100"},
		{name: "negative half rounds away from zero", in: "-0.005", want: "-0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundMoney(dec(t, tt.in))
			if !got.Equal(dec(t, tt.want)) {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestMonthlyInterest(t *testing.T) {
	// 10,000 at 10% p.a. owes 83.33 for one month.
	got := MonthlyInterest(dec(t, "10000"), dec(t, "0.10"))
	if !got.Equal(dec(t, "83.33")) {
		t.Fatalf("expected 83.33, got %s", got)
	}

	if !MonthlyInterest(dec(t, "10000"), decimal.Zero).IsZero() {
		t.Fatal("zero rate must owe zero interest")
	}
}

func TestApplyRate(t *testing.T) {
	got := ApplyRate(dec(t, "1200.00"), dec(t, "0.05"))
	if !got.Equal(dec(t, "60.00")) {
		t.Fatalf("expected 60.00, got %s", got)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain amount", in: "150.50", want: "150.50"},
		{name: "surrounding whitespace trimmed", in: "  42  ", want: "42"},
		{name: "over-precise input rounds", in: "10.999", want: "11.00"},
		{name: "zero rejected", in: "0", wantErr: true},
		{name: "negative rejected", in: "-5.00", wantErr: true},
		{name: "blank rejected", in: "   ", wantErr: true},
		{name: "garbage rejected", in: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(dec(t, tt.want)) {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAccumulatedShares(t *testing.T) {
	txs := []Transaction{
		{Type: TxShare, Amount: dec(t, "500.00")},
		{Type: TxShare, Amount: dec(t, "700.00")},
		{Type: TxWithdrawal, Amount: dec(t, "200.00")},
		{Type: TxLoanPrincipal, Amount: dec(t, "999.00")}, // ignored
	}
	got := AccumulatedShares(txs)
	if !got.Equal(dec(t, "1000.00")) {
		t.Fatalf("expected 1000.00, got %s", got)
	}
}
