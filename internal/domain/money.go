/**
 * @description
 * Monetary arithmetic policy for the ledger. All amounts are
 * shopspring/decimal values; this file pins down the single rounding
 * rule used whenever a rate is converted into money: round half-up to
 * two decimal places, applied at the point of conversion and never
 * earlier. Day-count convention is flat annual/12 per calendar month.
 *
 * @dependencies
 * - github.com/shopspring/decimal: Exact fixed-point decimal arithmetic.
 */

package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits carried by every
// monetary amount in the system.
const MoneyPlaces = 2

var (
	monthsPerYear = decimal.NewFromInt(12)

	// ZeroMoney is the canonical zero amount.
	ZeroMoney = decimal.Zero
)

// RoundMoney applies the ledger-wide rounding policy (round half-up to
// two decimals). Every rate-to-amount conversion must pass through here.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// MonthlyInterest converts an annual rate into the interest amount owed
// for one month on the given outstanding balance. The quotient is kept
// exact; rounding happens once, on the resulting amount.
func MonthlyInterest(outstanding decimal.Decimal, annualRate decimal.Decimal) decimal.Decimal {
	return RoundMoney(outstanding.Mul(annualRate.Div(monthsPerYear)))
}

// ApplyRate multiplies an amount by a rate and rounds per policy.
// Used by the dividend estimator.
func ApplyRate(amount decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(rate))
}

// ParseAmount parses a positive monetary amount from its string form.
// Blank, malformed, negative, or zero inputs fail with ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidAmount
	}
	return RoundMoney(d), nil
}
