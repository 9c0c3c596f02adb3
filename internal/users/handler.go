package users

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
)

// Store is the persistence the handlers need.
type Store interface {
	Create(ctx context.Context, email, passwordHash, fullName string, phone *string) (uuid.UUID, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (domain.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, phone *string) (domain.Profile, error)
}

type Handler struct {
	Store  Store
	Tokens *auth.Issuer
	Audit  audit.Recorder
}

func NewHandler(store Store, tokens *auth.Issuer, rec audit.Recorder) *Handler {
	return &Handler{Store: store, Tokens: tokens, Audit: rec}
}

type signupRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Token  string    `json:"token"`
}

type authResponse struct {
	Token string `json:"token"`
}

type updateProfileRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (h *Handler) Signup(c *fiber.Ctx) error {
	var body signupRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	email := normalizeEmail(body.Email)
	if email == "" || body.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password required")
	}
	if !strings.Contains(email, "@") {
		return fiber.NewError(fiber.StatusBadRequest, "invalid email")
	}
	fullName := strings.TrimSpace(body.FullName)
	if fullName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "full_name required")
	}

	hashed, err := auth.HashPassword(body.Password)
	if errors.Is(err, auth.ErrWeakPassword) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return httperr.Internal("internal error", err)
	}

	userID, err := h.Store.Create(c.UserContext(), email, hashed, fullName, trimmed(body.Phone))
	if errors.Is(err, ErrEmailTaken) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	if err != nil {
		return httperr.Internal("could not create user", err)
	}

	token, err := h.Tokens.Issue(userID)
	if err != nil {
		return httperr.Internal("could not create token", err)
	}

	audit.Best(c, h.Audit, audit.FromRequest(c, userID, "user.signup", "user", userID, nil))

	return c.Status(fiber.StatusCreated).JSON(signupResponse{UserID: userID, Token: token})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var body loginRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	u, err := h.Store.FindByEmail(c.UserContext(), normalizeEmail(body.Email))
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return httperr.Internal("internal error", err)
	}

	if !auth.CheckPassword(u.PasswordHash, body.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := h.Tokens.Issue(u.ID)
	if err != nil {
		return httperr.Internal("could not create token", err)
	}

	return c.JSON(authResponse{Token: token})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	userID, err := auth.MustUserID(c)
	if err != nil {
		return err
	}

	p, err := h.Store.GetProfile(c.UserContext(), userID)
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "profile not found")
	}
	if err != nil {
		return httperr.Internal("failed to load profile", err)
	}
	return c.JSON(p)
}

func (h *Handler) UpdateMe(c *fiber.Ctx) error {
	userID, err := auth.MustUserID(c)
	if err != nil {
		return err
	}

	var body updateProfileRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	body.FullName = trimmed(body.FullName)
	body.Phone = trimmed(body.Phone)
	if body.FullName != nil && *body.FullName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "full_name cannot be empty")
	}

	p, err := h.Store.UpdateProfile(c.UserContext(), userID, body.FullName, body.Phone)
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "profile not found")
	}
	if err != nil {
		return httperr.Internal("failed to update profile", err)
	}
	return c.JSON(p)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
