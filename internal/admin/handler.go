package admin

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ishantswami13-crypto/minibank-backend/internal/httperr"
)

type latestUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type currencyTotal struct {
	Currency string `json:"currency"`
	Accounts int64  `json:"accounts"`
	Balance  string `json:"balance"`
}

type Overview struct {
	UsersTotal        int64           `json:"users_total"`
	AccountsTotal     int64           `json:"accounts_total"`
	TransactionsTotal int64           `json:"transactions_total"`
	TransfersTotal    int64           `json:"transfers_total"`
	Balances          []currencyTotal `json:"balances"`
	LatestUsers       []latestUser    `json:"latest_users"`
}

type Store interface {
	Overview(ctx context.Context) (Overview, error)
}

type Handler struct {
	Store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) Overview(c *fiber.Ctx) error {
	o, err := h.Store.Overview(c.UserContext())
	if err != nil {
		return httperr.Internal("failed to load overview", err)
	}
	return c.JSON(o)
}

type PGStore struct {
	Pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

func (s *PGStore) Overview(ctx context.Context) (Overview, error) {
	var o Overview

	// totals
	if err := s.Pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM users),
		       (SELECT COUNT(*) FROM accounts),
		       (SELECT COUNT(*) FROM transactions),
		       (SELECT COUNT(*) FROM transfers)`,
	).Scan(&o.UsersTotal, &o.AccountsTotal, &o.TransactionsTotal, &o.TransfersTotal); err != nil {
		return Overview{}, err
	}

	// balances per currency
	{
		rows, err := s.Pool.Query(ctx, `
			SELECT currency, COUNT(*), COALESCE(SUM(balance), 0)::numeric(18,2)::text
			FROM accounts
			GROUP BY currency
			ORDER BY currency`)
		if err != nil {
			return Overview{}, err
		}
		defer rows.Close()

		o.Balances = make([]currencyTotal, 0)
		for rows.Next() {
			var t currencyTotal
			if err := rows.Scan(&t.Currency, &t.Accounts, &t.Balance); err != nil {
				return Overview{}, err
			}
			o.Balances = append(o.Balances, t)
		}
		if err := rows.Err(); err != nil {
			return Overview{}, err
		}
	}

	// latest users
	{
		rows, err := s.Pool.Query(ctx, `
			SELECT id::text, email, created_at::text
			FROM users
			ORDER BY created_at DESC
			LIMIT 20`)
		if err != nil {
			return Overview{}, err
		}
		defer rows.Close()

		o.LatestUsers = make([]latestUser, 0)
		for rows.Next() {
			var u latestUser
			if err := rows.Scan(&u.ID, &u.Email, &u.CreatedAt); err != nil {
				return Overview{}, err
			}
			o.LatestUsers = append(o.LatestUsers, u)
		}
		if err := rows.Err(); err != nil {
			return Overview{}, err
		}
	}

	return o, nil
}
