package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ishantswami13-crypto/minibank-backend/internal/domain"
)

// Store is the ledger's view of the database. Everything a single
// operation writes goes through one InTx call.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	GetAccount(ctx context.Context, userID, accountID uuid.UUID) (domain.Account, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, f Filter) ([]domain.Transaction, error)
	// PeriodTotals aggregates all of an account's transactions in [from, until).
	PeriodTotals(ctx context.Context, accountID uuid.UUID, from, until time.Time) (domain.PeriodTotals, error)
}

// Tx is a unit of work holding row locks until it returns.
type Tx interface {
	// LockAccount loads an account and holds it until the end of the unit of work.
	LockAccount(ctx context.Context, accountID uuid.UUID) (domain.Account, error)
	AccountIDByNumber(ctx context.Context, number string) (uuid.UUID, error)
	SetBalance(ctx context.Context, accountID uuid.UUID, balance decimal.Decimal, at time.Time) error
	InsertTransaction(ctx context.Context, t domain.Transaction) error
	InsertTransfer(ctx context.Context, t domain.Transfer) error
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
	StatementLimit  = 500
)

// Filter narrows ListTransactions. From is inclusive, Until exclusive.
type Filter struct {
	AccountID *uuid.UUID
	Type      string
	From      *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
	Ascending bool
}

func (f Filter) normalized() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
