package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coopstack/ledger-service/internal/domain"
)

func TestClassifyPortfolio(t *testing.T) {
	asOf := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
	exposures := []LoanExposure{
		{Outstanding: dec(t, "1000.00"), DaysPastDue: 0},
		{Outstanding: dec(t, "500.00"), DaysPastDue: 30},
		{Outstanding: dec(t, "300.00"), DaysPastDue: 31},
		{Outstanding: dec(t, "200.00"), DaysPastDue: 45},
		{Outstanding: dec(t, "400.00"), DaysPastDue: 90},
		{Outstanding: dec(t, "100.00"), DaysPastDue: 91},
	}

	summary := ClassifyPortfolio(asOf, exposures)

	if !summary.AsOf.Equal(asOf) {
		t.Fatalf("expected as-of %v, got %v", asOf, summary.AsOf)
	}
	if !summary.TotalOutstanding.Equal(dec(t, "2500.00")) {
		t.Fatalf("expected total outstanding 2500.00, got %s", summary.TotalOutstanding)
	}
	if !summary.PastDueBalance.Equal(dec(t, "1500.00")) {
		t.Fatalf("expected past due balance 1500.00, got %s", summary.PastDueBalance)
	}
	if !summary.PARRatio.Equal(dec(t, "0.6")) {
		t.Fatalf("expected PAR ratio 0.6, got %s", summary.PARRatio)
	}

	// Every bucket appears exactly once, in ascending risk order, even
	// when empty.
	if len(summary.Buckets) != len(domain.PARBuckets) {
		t.Fatalf("expected %d buckets, got %d", len(domain.PARBuckets), len(summary.Buckets))
	}
	wantBuckets := map[domain.PARBucket]struct {
		count       int
		outstanding string
	}{
		domain.BucketCurrent:   {count: 1, outstanding: "1000.00"},
		domain.BucketDays1_30:  {count: 1, outstanding: "500.00"},
		domain.BucketDays31_60: {count: 2, outstanding: "500.00"},
		domain.BucketDays61_90: {count: 1, outstanding: "400.00"},
		domain.BucketOver90:    {count: 1, outstanding: "100.00"},
	}
	for i, got := range summary.Buckets {
		if got.Bucket != domain.PARBuckets[i] {
			t.Fatalf("bucket %d: expected %s, got %s", i, domain.PARBuckets[i], got.Bucket)
		}
		want := wantBuckets[got.Bucket]
		if got.LoanCount != want.count {
			t.Fatalf("bucket %s: expected %d loans, got %d", got.Bucket, want.count, got.LoanCount)
		}
		if !got.Outstanding.Equal(dec(t, want.outstanding)) {
			t.Fatalf("bucket %s: expected outstanding %s, got %s", got.Bucket, want.outstanding, got.Outstanding)
		}
	}
}

func TestClassifyPortfolioEmpty(t *testing.T) {
	asOf := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
	summary := ClassifyPortfolio(asOf, nil)

	if !summary.TotalOutstanding.IsZero() || !summary.PastDueBalance.IsZero() {
		t.Fatalf("expected zero totals, got %+v", summary)
	}
	if !summary.PARRatio.IsZero() {
		t.Fatalf("empty portfolio must have zero ratio, got %s", summary.PARRatio)
	}
	if len(summary.Buckets) != len(domain.PARBuckets) {
		t.Fatalf("expected all %d buckets present, got %d", len(domain.PARBuckets), len(summary.Buckets))
	}
	for _, b := range summary.Buckets {
		if b.LoanCount != 0 || !b.Outstanding.IsZero() {
			t.Fatalf("expected empty bucket, got %+v", b)
		}
	}
}

func TestClassifyPortfolioRatioRounding(t *testing.T) {
	asOf := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
	exposures := []LoanExposure{
		{Outstanding: dec(t, "1000.00"), DaysPastDue: 0},
		{Outstanding: dec(t, "1000.00"), DaysPastDue: 0},
		{Outstanding: dec(t, "1000.00"), DaysPastDue: 10},
	}
	summary := ClassifyPortfolio(asOf, exposures)

	// 1000/3000 reported at four decimal places.
	if !summary.PARRatio.Equal(dec(t, "0.3333")) {
		t.Fatalf("expected PAR ratio 0.3333, got %s", summary.PARRatio)
	}
}

func TestClassifyPortfolioAllDecimalsZero(t *testing.T) {
	asOf := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
	exposures := []LoanExposure{
		{Outstanding: decimal.Zero, DaysPastDue: 40},
	}
	summary := ClassifyPortfolio(asOf, exposures)
	if !summary.PARRatio.IsZero() {
		t.Fatalf("zero outstanding portfolio must not divide, got %s", summary.PARRatio)
	}
}
