package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-auth-signup"
	"github.com/goliatone/go-auth-signup/config"
	"github.com/goliatone/go-auth-signup/mailer"
	"github.com/goliatone/go-auth-signup/middleware/jwtware"
	"github.com/goliatone/go-print"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type App struct {
	config config.App
	bunDB  *bun.DB
	repo   auth.RepositoryManager
	mailer auth.VerificationMailer
	srv    *fiber.App
	logger *slog.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	app := &App{
		config: cfg,
		logger: newLogger(cfg),
	}

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(redacted(cfg)))
	fmt.Println("============")

	if err := run(context.Background(), app); err != nil {
		app.logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// run owns every resource opened after config load so deferred teardown
// happens before main exits.
func run(ctx context.Context, app *App) error {
	err := WithPersistence(ctx, app)
	if app.bunDB != nil {
		defer app.bunDB.Close()
	}
	if err != nil {
		return fmt.Errorf("persistence setup: %w", err)
	}

	if err := WithMailer(app); err != nil {
		return fmt.Errorf("mailer setup: %w", err)
	}

	WithHTTPServer(app)

	go func() {
		if err := app.srv.Listen(app.config.HTTPAddr); err != nil {
			app.logger.Error("http server stopped", "error", err)
		}
	}()

	sig := WaitExitSignal()
	app.logger.Info("shutting down", "signal", sig.String())

	if err := app.srv.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	return nil
}

func newLogger(cfg config.App) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if !cfg.IsProduction() {
		opts.Level = slog.LevelDebug
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func redacted(cfg config.App) config.App {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "****"
	}
	cfg.JWTSecret = mask(cfg.JWTSecret)
	cfg.SMTPPassword = mask(cfg.SMTPPassword)
	cfg.SendGridAPIKey = mask(cfg.SendGridAPIKey)
	return cfg
}

func WithPersistence(ctx context.Context, app *App) error {
	dsn := app.config.DatabaseDSN

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		app.bunDB = bun.NewDB(sqldb, pgdialect.New())
	} else {
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return err
		}
		// sqlite allows a single writer
		sqldb.SetMaxOpenConns(1)
		app.bunDB = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if app.config.DebugSQL {
		app.bunDB.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	auth.RegisterModels(app.bunDB)

	if err := auth.CreateSchema(ctx, app.bunDB); err != nil {
		return err
	}

	app.repo = auth.NewRepositoryManager(app.bunDB, auth.WithRepositoryLogger(app.logger))
	if err := app.repo.Validate(); err != nil {
		return err
	}

	res, err := auth.NewSeeder(app.repo, auth.WithSeederLogger(app.logger)).Seed(ctx)
	if err != nil {
		return err
	}

	app.logger.Info("seeded codes", "roles", len(res.Roles), "permissions", len(res.Permissions))

	return nil
}

func WithMailer(app *App) error {
	cfg := app.config
	logger := app.logger.With("component", "mailer")

	var sender mailer.Sender
	switch cfg.MailDriver {
	case config.MailDriverSMTP:
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		})
	case config.MailDriverSendGrid:
		sender = mailer.NewSendGridSender(cfg.SendGridAPIKey)
	default:
		sender = mailer.NewLogSender(logger)
	}

	m, err := mailer.NewVerificationMailer(sender,
		mailer.WithAppName(cfg.GetAppName()),
		mailer.WithAppEmail(cfg.GetAppEmail()),
		mailer.WithEnvironment(cfg.GetEnvironment()),
		mailer.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	app.mailer = m
	return nil
}

func WithHTTPServer(app *App) {
	cfg := app.config
	logger := app.logger.With("component", "auth")

	app.srv = fiber.New(fiber.Config{
		AppName:               cfg.GetAppName(),
		DisableStartupMessage: cfg.IsProduction(),
	})

	tokens := auth.NewTokenService(cfg, logger)

	auth.RegisterAuthRoutes(app.srv,
		auth.WithControllerLogger(logger),
		auth.WithControllerDebug(!cfg.IsProduction()),
		auth.WithRegisterHandler(auth.NewRegisterUserHandler(app.repo, tokens, app.mailer, cfg, auth.WithRegisterLogger(logger))),
		auth.WithVerifyHandler(auth.NewVerifyAccountHandler(app.repo, tokens, logger)),
		auth.WithAuther(auth.NewAuthenticator(app.repo, cfg).WithLogger(logger).WithTokenService(tokens)),
		auth.WithCodeServices(
			auth.NewRoleService(app.repo, auth.WithRoleServiceLogger(logger)),
			auth.NewPermissionService(app.repo, auth.WithPermissionServiceLogger(logger)),
		),
		auth.WithProtectedRoutes(jwtware.New(jwtware.Config{
			TokenValidator:     tokens,
			TokenLookup:        "header:Authorization,cookie:jwt",
			RequiredPermission: auth.PermissionSignIn,
		}), "user"),
	)
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
