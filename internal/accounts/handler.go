package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ishantswami13-crypto/minibank-backend/internal/audit"
	"github.com/ishantswami13-crypto/minibank-backend/internal/auth"
	"github.com/ishantswami13-crypto/minibank-backend/internal/domain"
	"github.com/ishantswami13-crypto/minibank-backend/internal/httperr"
	"github.com/ishantswami13-crypto/minibank-backend/internal/money"
)

type Store interface {
	Create(ctx context.Context, userID uuid.UUID, accountType, currency string) (domain.Account, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	Get(ctx context.Context, userID, accountID uuid.UUID) (domain.Account, error)
}

type Handler struct {
	Store Store
	Audit audit.Recorder
}

func NewHandler(store Store, rec audit.Recorder) *Handler {
	return &Handler{Store: store, Audit: rec}
}

type createAccountRequest struct {
	AccountType string `json:"account_type"`
	Currency    string `json:"currency"`
}

type balanceResponse struct {
	AccountID     uuid.UUID `json:"account_id"`
	AccountNumber string    `json:"account_number"`
	Balance       string    `json:"balance"`
	Currency      string    `json:"currency"`
}

func (h *Handler) Create(c *fiber.Ctx) error {
	userID, err := auth.MustUserID(c)
	if err != nil {
		return err
	}

	var body createAccountRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	accountType := strings.ToLower(strings.TrimSpace(body.AccountType))
	if accountType == "" {
		accountType = domain.AccountChecking
	}
	if !domain.ValidAccountType(accountType) {
		return fiber.NewError(fiber.StatusBadRequest, "account_type must be checking or savings")
	}
	currency, err := money.NormalizeCurrency(body.Currency)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "currency must be a 3-letter code")
	}

	a, err := h.Store.Create(c.UserContext(), userID, accountType, currency)
	if err != nil {
		return httperr.Internal("could not create account", err)
	}

	audit.Best(c, h.Audit, audit.FromRequest(c, userID, "account.create", "account", a.ID, map[string]any{
		"account_type": a.AccountType,
		"currency":     a.Currency,
	}))

	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *Handler) List(c *fiber.Ctx) error {
	userID, err := auth.MustUserID(c)
	if err != nil {
		return err
	}

	items, err := h.Store.ListByUser(c.UserContext(), userID)
	if err != nil {
		return httperr.Internal("failed to load accounts", err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *Handler) Balance(c *fiber.Ctx) error {
	userID, err := auth.MustUserID(c)
	if err != nil {
		return err
	}

	a, err := h.Lookup(c, userID)
	if err != nil {
		return err
	}

	return c.JSON(balanceResponse{
		AccountID:     a.ID,
		AccountNumber: a.AccountNumber,
		Balance:       money.Format(a.Balance),
		Currency:      a.Currency,
	})
}

// Lookup resolves the :id route param to an account owned by userID.
func (h *Handler) Lookup(c *fiber.Ctx, userID uuid.UUID) (domain.Account, error) {
	accountID, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return domain.Account{}, fiber.NewError(fiber.StatusBadRequest, "invalid account id")
	}

	a, err := h.Store.Get(c.UserContext(), userID, accountID)
	if errors.Is(err, ErrNotFound) {
		return domain.Account{}, fiber.NewError(fiber.StatusNotFound, "account not found")
	}
	if err != nil {
		return domain.Account{}, httperr.Internal("failed to load account", err)
	}
	return a, nil
}
