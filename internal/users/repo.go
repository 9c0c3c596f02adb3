package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ishantswami13-crypto/minibank-backend/internal/domain"
)

var (
	ErrEmailTaken = errors.New("email already registered")
	ErrNotFound   = errors.New("user not found")
)

const uniqueViolation = "23505"

type Repository struct {
	Pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{Pool: pool}
}

// Create inserts the user and its profile in one transaction.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string, phone *string) (uuid.UUID, error) {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	var id uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO users (email, password_hash)
		 VALUES ($1, $2)
		 RETURNING id`,
		email, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return uuid.Nil, ErrEmailTaken
		}
		return uuid.Nil, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO profiles (user_id, full_name, phone)
		 VALUES ($1, $2, $3)`,
		id, fullName, phone,
	); err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := r.Pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	return u, err
}

func (r *Repository) GetProfile(ctx context.Context, userID uuid.UUID) (domain.Profile, error) {
	var p domain.Profile
	err := r.Pool.QueryRow(ctx,
		`SELECT p.user_id, u.email, p.full_name, p.phone, p.created_at, p.updated_at
		 FROM profiles p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.Email, &p.FullName, &p.Phone, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, ErrNotFound
	}
	return p, err
}

// UpdateProfile changes only the non-nil fields.
func (r *Repository) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, phone *string) (domain.Profile, error) {
	ct, err := r.Pool.Exec(ctx,
		`UPDATE profiles
		 SET full_name = COALESCE($2, full_name),
		     phone = COALESCE($3, phone),
		     updated_at = $4
		 WHERE user_id = $1`,
		userID, fullName, phone, time.Now().UTC(),
	)
	if err != nil {
		return domain.Profile{}, err
	}
	if ct.RowsAffected() == 0 {
		return domain.Profile{}, ErrNotFound
	}
	return r.GetProfile(ctx, userID)
}
