package audit

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ishantswami13-crypto/minibank-backend/internal/logger"
)

type Entry struct {
	UserID     *uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	IP         *string
	UserAgent  *string
	Metadata   map[string]any
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

type PGRecorder struct {
	Pool *pgxpool.Pool
}

func (r *PGRecorder) Record(ctx context.Context, e Entry) error {
	if r == nil || r.Pool == nil {
		return nil
	}

	var metadata interface{}
	if len(e.Metadata) > 0 {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		metadata = json.RawMessage(raw)
	}

	_, err := r.Pool.Exec(ctx, `
INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip, user_agent, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, e.UserID, e.Action, e.EntityType, e.EntityID, e.IP, e.UserAgent, metadata)

	return err
}

// FromRequest fills the caller and client fields of an entry from the request.
func FromRequest(c *fiber.Ctx, userID uuid.UUID, action, entityType string, entityID uuid.UUID, meta map[string]any) Entry {
	ip := c.IP()
	ua := c.Get(fiber.HeaderUserAgent)
	e := Entry{
		UserID:     &userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   &entityID,
		IP:         &ip,
		Metadata:   meta,
	}
	if ua != "" {
		e.UserAgent = &ua
	}
	return e
}

// Best records e and only logs a failure; audit writes never fail the request.
func Best(c *fiber.Ctx, rec Recorder, e Entry) {
	if rec == nil {
		return
	}
	if err := rec.Record(c.UserContext(), e); err != nil {
		log := logger.FromCtx(c)
		log.Warn().Err(err).Str("action", e.Action).Msg("audit write failed")
	}
}
