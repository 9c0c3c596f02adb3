package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ishantswami13-crypto/minibank-backend/internal/accounts"
	"github.com/ishantswami13-crypto/minibank-backend/internal/admin"
	"github.com/ishantswami13-crypto/minibank-backend/internal/ledger"
	"github.com/ishantswami13-crypto/minibank-backend/internal/reports"
	"github.com/ishantswami13-crypto/minibank-backend/internal/users"
)

type Router struct {
	UsersHandler    *users.Handler
	AccountsHandler *accounts.Handler
	LedgerHandler   *ledger.Handler
	ReportsHandler  *reports.Handler
	AdminHandler    *admin.Handler

	AuthMW        fiber.Handler
	AdminMW       fiber.Handler
	IdempotencyMW fiber.Handler

	WriteLimitMax    int
	WriteLimitWindow time.Duration
}

func (r *Router) RegisterRoutes(app *fiber.App) {
	health := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	}
	app.Get("/health", health)
	app.Get("/healthz", health)
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("API Working")
	})

	api := app.Group("/api")

	if r.UsersHandler != nil {
		api.Post("/auth/signup", RateLimitAuth(), r.UsersHandler.Signup)
		api.Post("/auth/login", RateLimitAuth(), r.UsersHandler.Login)
		api.Get("/me", r.AuthMW, r.UsersHandler.Me)
		api.Put("/me", r.AuthMW, r.UsersHandler.UpdateMe)
	}

	if r.AccountsHandler != nil {
		api.Post("/accounts", r.AuthMW, r.writeLimit(), r.AccountsHandler.Create)
		api.Get("/accounts", r.AuthMW, r.AccountsHandler.List)
		api.Get("/accounts/:id/balance", r.AuthMW, r.AccountsHandler.Balance)
	}

	if r.LedgerHandler != nil {
		create := []fiber.Handler{r.AuthMW, r.writeLimit()}
		if r.IdempotencyMW != nil {
			create = append(create, r.IdempotencyMW)
		}
		create = append(create, r.LedgerHandler.Create)

		api.Post("/transactions", create...)
		api.Get("/transactions", r.AuthMW, r.LedgerHandler.List)
		api.Get("/accounts/:id/transactions", r.AuthMW, r.LedgerHandler.List)
	}

	if r.ReportsHandler != nil {
		api.Get("/accounts/:id/statement.pdf", r.AuthMW, r.ReportsHandler.StatementPDF)
	}

	if r.AdminHandler != nil && r.AdminMW != nil {
		api.Get("/admin/overview", r.AdminMW, r.AdminHandler.Overview)
	}
}

func (r *Router) writeLimit() fiber.Handler {
	max, window := r.WriteLimitMax, r.WriteLimitWindow
	if max <= 0 {
		max = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return RateLimitWrite(max, window)
}
