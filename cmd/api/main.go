package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ishantswami13-crypto/minibank-backend/internal/accounts"
	"github.com/ishantswami13-crypto/minibank-backend/internal/admin"
	"github.com/ishantswami13-crypto/minibank-backend/internal/audit"
	"github.com/ishantswami13-crypto/minibank-backend/internal/auth"
	"github.com/ishantswami13-crypto/minibank-backend/internal/config"
	"github.com/ishantswami13-crypto/minibank-backend/internal/idempotency"
	"github.com/ishantswami13-crypto/minibank-backend/internal/ledger"
	"github.com/ishantswami13-crypto/minibank-backend/internal/logger"
	"github.com/ishantswami13-crypto/minibank-backend/internal/reports"
	"github.com/ishantswami13-crypto/minibank-backend/internal/router"
	"github.com/ishantswami13-crypto/minibank-backend/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("dev", "info")
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating pgx pool")
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := pool.Ping(pingCtx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("error pinging database")
	}
	cancel()

	app := fiber.New(fiber.Config{
		ErrorHandler: router.ErrorHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.Middleware(log))
	app.Use(router.CorsMiddleware(cfg.CORSOrigin))
	app.Use(router.APIKeyMiddleware(cfg.APIKey, cfg.IsProduction()))

	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	recorder := &audit.PGRecorder{Pool: pool}
	ledgerSvc := ledger.NewService(ledger.NewPGStore(pool))

	// Dev token endpoint
	if cfg.IsDev() {
		app.Get("/dev/token", func(c *fiber.Ctx) error {
			uid, err := uuid.Parse(c.Query("user_id", "11111111-1111-1111-1111-111111111111"))
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
			}
			signed, err := tokens.Issue(uid)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			return c.JSON(fiber.Map{"token": signed})
		})
	}

	r := &router.Router{
		UsersHandler:     users.NewHandler(users.NewRepository(pool), tokens, recorder),
		AccountsHandler:  accounts.NewHandler(accounts.NewRepository(pool), recorder),
		LedgerHandler:    ledger.NewHandler(ledgerSvc, recorder),
		ReportsHandler:   reports.NewHandler(ledgerSvc),
		AdminHandler:     admin.NewHandler(admin.NewPGStore(pool)),
		AuthMW:           auth.Middleware(tokens),
		AdminMW:          admin.RequireAdminAPIKey(cfg.AdminAPIKey),
		IdempotencyMW:    idempotency.Middleware(idempotency.NewPGStore(pool)),
		WriteLimitMax:    cfg.RateLimitTxMax,
		WriteLimitWindow: cfg.RateLimitTxWindow,
	}
	r.RegisterRoutes(app)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
