package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ishantswami13-crypto/minibank-backend/internal/auth"
	"github.com/ishantswami13-crypto/minibank-backend/internal/httperr"
	"github.com/ishantswami13-crypto/minibank-backend/internal/logger"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"
	maxKeyLength   = 255
)

// Record is a stored response for one (owner, key) pair.
type Record struct {
	RequestHash string
	Status      int
	Body        []byte
}

type Store interface {
	Lookup(ctx context.Context, ownerID uuid.UUID, key string) (Record, bool, error)
	Save(ctx context.Context, ownerID uuid.UUID, endpoint, key string, rec Record) error
}

// Middleware replays the stored response when a caller retries with the same
// Idempotency-Key. It must run after auth.Middleware.
func Middleware(store Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := strings.TrimSpace(c.Get(HeaderKey))
		if key == "" {
			return c.Next()
		}
		if len(key) > maxKeyLength {
			return fiber.NewError(fiber.StatusBadRequest, "idempotency key too long")
		}

		ownerID, ok := auth.UserID(c)
		if !ok {
			return c.Next()
		}

		log := logger.FromCtx(c)
		ctx := c.UserContext()
		requestHash := hashRequest(c.Method(), c.Path(), c.Body())

		// Without the lookup a retry could move money twice.
		rec, found, err := store.Lookup(ctx, ownerID, key)
		if err != nil {
			return httperr.Wrap(fiber.StatusServiceUnavailable, "idempotency check unavailable, retry later", err)
		}
		if found {
			if rec.RequestHash != requestHash {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "idempotency key reused with a different request")
			}
			c.Set(HeaderReplayed, "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(rec.Status).Send(rec.Body)
		}

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status < 200 || status >= 300 {
			return nil
		}

		body := append([]byte(nil), c.Response().Body()...)
		if err := store.Save(ctx, ownerID, c.Path(), key, Record{RequestHash: requestHash, Status: status, Body: body}); err != nil {
			log.Warn().Err(err).Msg("idempotency save failed")
		}
		return nil
	}
}

func hashRequest(method, path string, body []byte) string {
	sum := sha256.Sum256(append([]byte(method+" "+path+" "), body...))
	return hex.EncodeToString(sum[:])
}

type PGStore struct {
	Pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

func (s *PGStore) Lookup(ctx context.Context, ownerID uuid.UUID, key string) (Record, bool, error) {
	var (
		rec  Record
		body string
	)
	err := s.Pool.QueryRow(ctx,
		`SELECT request_hash, response_status, response_body
		 FROM idempotency_keys
		 WHERE owner_id = $1 AND idempotency_key = $2`,
		ownerID, key,
	).Scan(&rec.RequestHash, &rec.Status, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	rec.Body = []byte(body)
	return rec, true, nil
}

func (s *PGStore) Save(ctx context.Context, ownerID uuid.UUID, endpoint, key string, rec Record) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO idempotency_keys (owner_id, endpoint, idempotency_key, request_hash, response_status, response_body)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (owner_id, idempotency_key) DO NOTHING`,
		ownerID, endpoint, key, rec.RequestHash, rec.Status, string(rec.Body),
	)
	return err
}
