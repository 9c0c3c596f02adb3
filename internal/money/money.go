package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits stored for every amount.
const Scale = 2

var (
	ErrInvalidMoney = errors.New("invalid money amount")

	// MaxAmount caps a single movement well inside numeric(18,2).
	MaxAmount = decimal.New(1, 12)
)

// ParseAmount parses a user-entered decimal string like "12.34".
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidMoney
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}
	if err := Validate(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// Validate checks that d is a positive amount with at most two decimals.
func Validate(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidMoney)
	}
	if !d.Equal(d.Truncate(Scale)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidMoney, Scale)
	}
	if d.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: too large", ErrInvalidMoney)
	}
	return nil
}

// Format renders d with exactly two decimals, e.g. "-12.30".
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}

// NormalizeCurrency upper-cases a 3-letter ISO code, defaulting to USD.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "USD", nil
	}
	if len(code) != 3 {
		return "", fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidMoney)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidMoney)
		}
	}
	return code, nil
}
