package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"booking-intake/internal/app"
	"booking-intake/internal/config"
	"booking-intake/internal/logger"
	"booking-intake/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logr.Sync()

	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		logr.Fatal("invalid event timezone", zap.Error(err))
	}

	oauthConf := app.NewOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)

	var cal app.CalendarProvider
	if gc, err := app.NewGoogleCalendarFromToken(ctx, oauthConf, cfg.GoogleRefreshToken, cfg.GoogleCalendarID); err != nil {
		logr.Warn("calendar provider disabled", zap.Error(err))
	} else {
		cal = gc
	}

	var mailer app.MailSender
	if m, err := app.NewSMTPMailer(app.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailAppPassword,
		From:     cfg.EmailUser,
		Timeout:  cfg.ProviderTimeout,
	}); err != nil {
		logr.Warn("mail sender disabled", zap.Error(err))
	} else {
		mailer = m
	}
	if cfg.OwnerEmail == "" {
		logr.Warn("OWNER_EMAIL not set, owner notifications will fail")
	}

	appInstance := app.New(app.Options{
		Store:           app.NewMemoryStore(),
		Calendar:        cal,
		Mailer:          mailer,
		OAuth:           oauthConf,
		OwnerEmail:      cfg.OwnerEmail,
		Location:        loc,
		Logger:          logr,
		ProviderTimeout: cfg.ProviderTimeout,
	})

	router := app.NewRouter(appInstance, app.RouterOptions{RateLimitPerMin: cfg.RateLimitPerMin})

	if err := server.Run(ctx, router, cfg.Addr(), cfg.ShutdownTimeout, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
	logr.Info("server exited")
}
