package accounts

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ishantswami13-crypto/minibank-backend/internal/domain"
)

var ErrNotFound = errors.New("account not found")

const (
	numberDigits   = 10
	createAttempts = 3
)

// Columns is the select list matching ScanAccount.
const Columns = `id, user_id, account_number, account_type, balance::text, currency, created_at, updated_at`

// ScanAccount reads one row selected with Columns.
func ScanAccount(row pgx.Row) (domain.Account, error) {
	var (
		a       domain.Account
		balance string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.AccountNumber, &a.AccountType, &balance, &a.Currency, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, ErrNotFound
		}
		return domain.Account{}, err
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return domain.Account{}, err
	}
	a.Balance = b
	return a, nil
}

type Repository struct {
	Pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{Pool: pool}
}

// Create opens a zero-balance account, retrying when the random number collides.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, accountType, currency string) (domain.Account, error) {
	var lastErr error
	for i := 0; i < createAttempts; i++ {
		number, err := NewAccountNumber()
		if err != nil {
			return domain.Account{}, err
		}

		a, err := ScanAccount(r.Pool.QueryRow(ctx,
			`INSERT INTO accounts (user_id, account_number, account_type, currency)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+Columns,
			userID, number, accountType, currency,
		))
		if err == nil {
			return a, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "accounts_account_number_key" {
			lastErr = err
			continue
		}
		return domain.Account{}, err
	}
	return domain.Account{}, lastErr
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT `+Columns+`
		 FROM accounts
		 WHERE user_id = $1
		 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Account, 0)
	for rows.Next() {
		a, err := ScanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get returns the account only when userID owns it; anything else is ErrNotFound.
func (r *Repository) Get(ctx context.Context, userID, accountID uuid.UUID) (domain.Account, error) {
	return ScanAccount(r.Pool.QueryRow(ctx,
		`SELECT `+Columns+` FROM accounts WHERE id = $1 AND user_id = $2`,
		accountID, userID,
	))
}

// NewAccountNumber returns a random 10-digit number without a leading zero.
func NewAccountNumber() (string, error) {
	buf := make([]byte, numberDigits)
	for i := range buf {
		max := int64(10)
		if i == 0 {
			max = 9
		}
		n, err := rand.Int(rand.Reader, big.NewInt(max))
		if err != nil {
			return "", err
		}
		d := byte(n.Int64())
		if i == 0 {
			d++
		}
		buf[i] = '0' + d
	}
	return string(buf), nil
}
