package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/smtp"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-router"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/social"
	"github.com/goliatone/go-accounts/social/providers/facebook"
	"github.com/goliatone/go-accounts/social/providers/google"
	"github.com/goliatone/go-accounts/upload"
	"github.com/goliatone/go-accounts/upload/cloudinary"
)

// Config is the env backed runtime configuration.
type Config struct {
	Port      string
	DSN       string
	ClientURL string

	ActivationSecret string
	AccessSecret     string
	RefreshSecret    string
	Issuer           string
	Audience         []string

	GoogleClientID string
	GoogleSecret   string
	FacebookSecret string

	CloudinaryName   string
	CloudinaryKey    string
	CloudinarySecret string

	SMTPAddr     string
	SMTPFrom     string
	SMTPUser     string
	SMTPPassword string
}

func (c Config) GetActivationSigningKey() string { return c.ActivationSecret }
func (c Config) GetAccessSigningKey() string     { return c.AccessSecret }
func (c Config) GetRefreshSigningKey() string    { return c.RefreshSecret }
func (c Config) GetIssuer() string               { return c.Issuer }
func (c Config) GetAudience() []string           { return c.Audience }
func (c Config) GetClientURL() string            { return c.ClientURL }

func loadConfig() Config {
	godotenv.Load()

	cfg := Config{
		Port:             env("PORT", "5000"),
		DSN:              env("DATABASE_URL", "file:accounts.db?cache=shared&_pragma=foreign_keys(1)"),
		ClientURL:        env("CLIENT_URL", "http://localhost:3000"),
		ActivationSecret: mustEnv("ACTIVATION_TOKEN_SECRET"),
		AccessSecret:     mustEnv("ACCESS_TOKEN_SECRET"),
		RefreshSecret:    mustEnv("REFRESH_TOKEN_SECRET"),
		Issuer:           env("TOKEN_ISSUER", ""),
		GoogleClientID:   env("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:     env("GOOGLE_SECRET", ""),
		FacebookSecret:   env("FACEBOOK_SECRET", ""),
		CloudinaryName:   env("CLOUDINARY_NAME", ""),
		CloudinaryKey:    env("CLOUDINARY_API_KEY", ""),
		CloudinarySecret: env("CLOUDINARY_API_SECRET", ""),
		SMTPAddr:         env("SMTP_ADDR", ""),
		SMTPFrom:         env("SMTP_FROM", ""),
		SMTPUser:         env("SMTP_USER", ""),
		SMTPPassword:     env("SMTP_PASSWORD", ""),
	}

	if audience := env("TOKEN_AUDIENCE", ""); audience != "" {
		cfg.Audience = strings.Split(audience, ",")
	}

	return cfg
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic("missing required environment variable: " + key)
	}
	return v
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := loadConfig()
	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.DSN)
	if err != nil {
		lgr.GetLogger("db").Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := accounts.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := accounts.NewTokenService(cfg,
		accounts.WithTokenLogger(logAdapter{lgr.GetLogger("tokens")}),
	)

	auth := accounts.NewAuthenticator(repo, tokens).
		WithLogger(logAdapter{lgr.GetLogger("auth")})

	auther := accounts.NewHTTPAuthenticator(auth).
		WithLogger(logAdapter{lgr.GetLogger("http")})

	mailer := buildMailer(cfg, lgr)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(lgr.GetLogger("router"))

	accounts.RegisterAccountRoutes(srv.Router(), cfg,
		accounts.WithRepositoryManager(repo),
		accounts.WithTokenService(tokens),
		accounts.WithHTTPAuthenticator(auther),
		accounts.WithMailer(mailer),
		accounts.WithClientURL(cfg.ClientURL),
		accounts.WithControllerLogger(logAdapter{lgr.GetLogger("users")}),
	)

	registerSocialRoutes(srv.Router(), cfg, repo, tokens, auther, lgr)
	registerUploadRoutes(srv.Router(), cfg, repo, tokens, lgr)

	lgr.GetLogger("server").Info("listening", "port", cfg.Port)
	srv.Serve(":" + cfg.Port)

	waitExitSignal()
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model((*accounts.User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	return db, nil
}

func buildMailer(cfg Config, lgr *glog.BaseLogger) accounts.Mailer {
	if cfg.SMTPAddr == "" {
		return &accounts.LogMailer{Logger: logAdapter{lgr.GetLogger("mail")}}
	}

	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		host := cfg.SMTPAddr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, host)
	}

	return &accounts.SMTPMailer{
		Addr: cfg.SMTPAddr,
		From: cfg.SMTPFrom,
		Auth: auth,
	}
}

func registerSocialRoutes(
	r router.Router[*fiber.App],
	cfg Config,
	repo accounts.RepositoryManager,
	tokens accounts.TokenService,
	auther *accounts.RouteAuthenticator,
	lgr *glog.BaseLogger,
) {
	authenticator := social.NewSocialAuthenticator(repo, tokens,
		social.WithProvider(google.New(google.Config{ClientID: cfg.GoogleClientID}), cfg.GoogleSecret),
		social.WithProvider(facebook.New(facebook.Config{}), cfg.FacebookSecret),
		social.WithLogger(logAdapter{lgr.GetLogger("social")}),
	)

	controller := social.NewHTTPController(authenticator, auther, social.HTTPConfig{
		Logger: logAdapter{lgr.GetLogger("social")},
	})
	controller.RegisterRoutes(r)
}

func registerUploadRoutes(
	r router.Router[*fiber.App],
	cfg Config,
	repo accounts.RepositoryManager,
	tokens accounts.TokenService,
	lgr *glog.BaseLogger,
) {
	if cfg.CloudinaryName == "" {
		lgr.GetLogger("upload").Warn("cloudinary not configured, avatar uploads disabled")
		return
	}

	uploader := cloudinary.New(cloudinary.Config{
		CloudName: cfg.CloudinaryName,
		APIKey:    cfg.CloudinaryKey,
		APISecret: cfg.CloudinarySecret,
	})

	controller := upload.NewHTTPController(uploader, repo, upload.HTTPConfig{
		Logger: logAdapter{lgr.GetLogger("upload")},
	})

	protect := accounts.ProtectedRoute(tokens, cfg, func(ctx router.Context, err error) error {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{"msg": err.Error()})
	})

	controller.RegisterRoutes(r, protect)
}

// logAdapter bridges glog loggers into the accounts.Logger interface. Both
// sides are message plus key/value pairs, so the calls pass straight through.
type logAdapter struct {
	logger glog.Logger
}

func (l logAdapter) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l logAdapter) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l logAdapter) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l logAdapter) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func waitExitSignal() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
}
