package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ishantswami13-crypto/minibank-backend/internal/domain"
	"github.com/ishantswami13-crypto/minibank-backend/internal/ledger"
)

// Statement is one account's activity over [From, To] (both dates inclusive).
type Statement struct {
	Account domain.Account
	From    time.Time
	To      time.Time
	Items   []domain.Transaction

	Count   int
	Opening decimal.Decimal
	Closing decimal.Decimal
	Credits decimal.Decimal
	Debits  decimal.Decimal
}

// HasActivity is false when no transaction falls in the period; the
// opening and closing balances are unknown then.
func (s Statement) HasActivity() bool {
	return s.Count > 0
}

// Truncated reports whether Items lists only part of the period.
func (s Statement) Truncated() bool {
	return s.Count > len(s.Items)
}

// Summarize takes the totals from the whole period and the listed rows as given.
func Summarize(d ledger.StatementData, from, to time.Time) Statement {
	s := Statement{
		Account: d.Account,
		From:    from,
		To:      to,
		Items:   d.Items,
		Count:   d.Totals.Count,
		Credits: decimal.Zero,
		Debits:  decimal.Zero,
	}
	if d.Totals.Count == 0 {
		return s
	}
	s.Opening = d.Totals.Opening
	s.Closing = d.Totals.Closing
	s.Credits = d.Totals.Credits
	s.Debits = d.Totals.Debits
	return s
}

func signed(t domain.Transaction) decimal.Decimal {
	if t.Credit() {
		return t.Amount
	}
	return t.Amount.Neg()
}
