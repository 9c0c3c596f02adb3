package reports

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ishantswami13-crypto/minibank-backend/internal/accounts"
	"github.com/ishantswami13-crypto/minibank-backend/internal/auth"
	"github.com/ishantswami13-crypto/minibank-backend/internal/httperr"
	"github.com/ishantswami13-crypto/minibank-backend/internal/ledger"
)

const (
	dateLayout    = "2006-01-02"
	defaultWindow = 30
	maxWindowDays = 366
)

// Source loads an owned account with its activity in [from, until).
type Source interface {
	Statement(ctx context.Context, userID, accountID uuid.UUID, from, until time.Time) (ledger.StatementData, error)
}

type Handler struct {
	Source Source
	Now    func() time.Time
}

func NewHandler(src Source) *Handler {
	return &Handler{Source: src, Now: time.Now}
}

func (h *Handler) StatementPDF(c *fiber.Ctx) error {
	userID, err := auth.MustUserID(c)
	if err != nil {
		return err
	}

	accountID, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid account id")
	}

	from, to, err := h.period(c.Query("from"), c.Query("to"))
	if err != nil {
		return err
	}

	data, err := h.Source.Statement(c.UserContext(), userID, accountID, from, to.AddDate(0, 0, 1))
	if errors.Is(err, accounts.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "account not found")
	}
	if err != nil {
		return httperr.Internal("failed to load statement", err)
	}

	pdf, err := RenderPDF(Summarize(data, from, to), h.Now().UTC())
	if err != nil {
		return httperr.Internal("failed to build statement", err)
	}

	filename := "statement-" + lastFour(data.Account.AccountNumber) + "-" + from.Format(dateLayout) + "-to-" + to.Format(dateLayout) + ".pdf"
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// period parses from/to (inclusive dates), defaulting to the last 30 days.
func (h *Handler) period(rawFrom, rawTo string) (time.Time, time.Time, error) {
	rawFrom, rawTo = strings.TrimSpace(rawFrom), strings.TrimSpace(rawTo)
	if (rawFrom == "") != (rawTo == "") {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "from and to must be given together")
	}
	if rawFrom == "" {
		now := h.Now().UTC()
		end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return end.AddDate(0, 0, -(defaultWindow - 1)), end, nil
	}

	from, err := time.Parse(dateLayout, rawFrom)
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "from must be YYYY-MM-DD")
	}
	to, err := time.Parse(dateLayout, rawTo)
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "to must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "to must not be before from")
	}
	if to.Sub(from) > maxWindowDays*24*time.Hour {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "period longer than one year")
	}
	return from, to, nil
}

func lastFour(n string) string {
	if len(n) <= 4 {
		return n
	}
	return n[len(n)-4:]
}
