package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ishantswami13-crypto/minibank-backend/internal/accounts"
	"github.com/ishantswami13-crypto/minibank-backend/internal/domain"
	"github.com/ishantswami13-crypto/minibank-backend/internal/money"
)

// PGStore implements Store on Postgres. Row locks come from SELECT ... FOR UPDATE.
type PGStore struct {
	Pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

func (s *PGStore) InTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) GetAccount(ctx context.Context, userID, accountID uuid.UUID) (domain.Account, error) {
	return accounts.ScanAccount(s.Pool.QueryRow(ctx,
		`SELECT `+accounts.Columns+` FROM accounts WHERE id = $1 AND user_id = $2`,
		accountID, userID,
	))
}

func (s *PGStore) ListTransactions(ctx context.Context, userID uuid.UUID, f Filter) ([]domain.Transaction, error) {
	order := "DESC"
	if f.Ascending {
		order = "ASC"
	}

	rows, err := s.Pool.Query(ctx, `
SELECT t.id, t.account_id, t.type, t.amount::text, t.balance_after::text,
       COALESCE(t.description, ''), t.transfer_id, t.created_at
FROM transactions t
JOIN accounts a ON a.id = t.account_id
WHERE a.user_id = $1
  AND ($2::uuid IS NULL OR t.account_id = $2)
  AND ($3::text = '' OR t.type = $3)
  AND ($4::timestamptz IS NULL OR t.created_at >= $4)
  AND ($5::timestamptz IS NULL OR t.created_at < $5)
ORDER BY t.created_at `+order+`, t.id `+order+`
LIMIT $6 OFFSET $7
`, userID, f.AccountID, f.Type, f.From, f.Until, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		var (
			t             domain.Transaction
			amount, after string
		)
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &amount, &after, &t.Description, &t.TransferID, &t.CreatedAt); err != nil {
			return nil, err
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if t.BalanceAfter, err = decimal.NewFromString(after); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PGStore) PeriodTotals(ctx context.Context, accountID uuid.UUID, from, until time.Time) (domain.PeriodTotals, error) {
	var (
		t                                 domain.PeriodTotals
		credits, debits, opening, closing string
	)
	err := s.Pool.QueryRow(ctx, `
WITH p AS (
    SELECT id, type, amount, balance_after, created_at,
           type IN ('deposit', 'transfer_in') AS credit
    FROM transactions
    WHERE account_id = $1 AND created_at >= $2 AND created_at < $3
)
SELECT
    (SELECT COUNT(*) FROM p),
    (SELECT COALESCE(SUM(amount) FILTER (WHERE credit), 0) FROM p)::text,
    (SELECT COALESCE(SUM(amount) FILTER (WHERE NOT credit), 0) FROM p)::text,
    COALESCE((SELECT CASE WHEN credit THEN balance_after - amount ELSE balance_after + amount END
              FROM p ORDER BY created_at ASC, id ASC LIMIT 1), 0)::text,
    COALESCE((SELECT balance_after FROM p ORDER BY created_at DESC, id DESC LIMIT 1), 0)::text
`, accountID, from, until).Scan(&t.Count, &credits, &debits, &opening, &closing)
	if err != nil {
		return domain.PeriodTotals{}, err
	}

	for _, f := range []struct {
		dst *decimal.Decimal
		raw string
	}{{&t.Credits, credits}, {&t.Debits, debits}, {&t.Opening, opening}, {&t.Closing, closing}} {
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			return domain.PeriodTotals{}, err
		}
	}
	return t, nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockAccount(ctx context.Context, accountID uuid.UUID) (domain.Account, error) {
	return accounts.ScanAccount(t.tx.QueryRow(ctx,
		`SELECT `+accounts.Columns+` FROM accounts WHERE id = $1 FOR UPDATE`,
		accountID,
	))
}

func (t *pgTx) AccountIDByNumber(ctx context.Context, number string) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, `SELECT id FROM accounts WHERE account_number = $1`, number).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrAccountNotFound
	}
	return id, err
}

func (t *pgTx) SetBalance(ctx context.Context, accountID uuid.UUID, balance decimal.Decimal, at time.Time) error {
	ct, err := t.tx.Exec(ctx,
		`UPDATE accounts SET balance = $2::numeric, updated_at = $3 WHERE id = $1`,
		accountID, money.Format(balance), at,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (t *pgTx) InsertTransaction(ctx context.Context, tr domain.Transaction) error {
	_, err := t.tx.Exec(ctx, `
INSERT INTO transactions (id, account_id, type, amount, balance_after, description, transfer_id, created_at)
VALUES ($1, $2, $3, $4::numeric, $5::numeric, NULLIF($6, ''), $7, $8)
`, tr.ID, tr.AccountID, tr.Type, money.Format(tr.Amount), money.Format(tr.BalanceAfter), tr.Description, tr.TransferID, tr.CreatedAt)
	return err
}

func (t *pgTx) InsertTransfer(ctx context.Context, tr domain.Transfer) error {
	_, err := t.tx.Exec(ctx, `
INSERT INTO transfers (id, from_account_id, to_account_id, amount, description, status, created_at)
VALUES ($1, $2, $3, $4::numeric, NULLIF($5, ''), $6, $7)
`, tr.ID, tr.FromAccountID, tr.ToAccountID, money.Format(tr.Amount), tr.Description, tr.Status, tr.CreatedAt)
	return err
}
