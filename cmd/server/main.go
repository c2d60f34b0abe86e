package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"f1fantasy/internal/config"
	"f1fantasy/internal/database"
	"f1fantasy/internal/handlers"
	"f1fantasy/internal/invite"
	"f1fantasy/internal/logging"
	"f1fantasy/internal/security"
	"f1fantasy/internal/service"
	"f1fantasy/internal/templates"
	"f1fantasy/migrations"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	sessionCleanupInterval = time.Hour
	limiterCleanupInterval = 5 * time.Minute
	shutdownTimeout        = 10 * time.Second
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Str("app_base_url", cfg.AppBaseURL).Msg("Invalid configuration")
	}
	if cfg.UsesDefaultSecret() {
		log.Warn().Msg("SECRET_KEY is not set; invite and CSRF tokens use the development key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The listener comes up first so health checks see progress while the
	// database and templates are prepared.
	status := handlers.NewStartupStatus(handlers.StepDatabase, handlers.StepMigrations, handlers.StepTemplates, handlers.StepServices)
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      status,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Str("version", version).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	status.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()
	log.Info().Str("type", cfg.DatabaseType).Msg("Database connection established")
	status.CompleteStep(handlers.StepDatabase)

	status.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Migrations completed successfully")
	status.CompleteStep(handlers.StepMigrations)

	status.SetCurrentStep(handlers.StepTemplates)
	tmpl, err := templates.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load templates")
	}
	status.CompleteStep(handlers.StepTemplates)

	status.SetCurrentStep(handlers.StepServices)
	clock := clockwork.NewRealClock()
	tokens := invite.NewTokenIssuer(cfg.SecretKey, cfg.InviteTTL, clock)

	emailService, err := service.NewEmailService(ctx, service.EmailConfig{
		AWSRegion:  cfg.AWSRegion,
		FromEmail:  cfg.SESFromEmail,
		FromName:   cfg.SESFromName,
		AppBaseURL: cfg.AppBaseURL,
		AppName:    cfg.SESFromName,
		Debug:      cfg.EmailDebug,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize email service")
	}
	var notifier service.Notifier
	var welcome handlers.WelcomeSender
	if emailService.IsEnabled() {
		notifier = emailService
		welcome = emailService
	}

	settingsService := service.NewSettingsService(db, nil)
	authService := service.NewAuthService(db, settingsService, tokens, cfg.SessionDuration, clock)
	leagueService := service.NewLeagueService(db, settingsService)
	inviteService := service.NewInviteService(db, tokens, notifier, cfg.AppBaseURL)
	teamService := service.NewTeamService(db)
	seasonService := service.NewSeasonService(db)
	adminService := service.NewAdminService(db)
	backupService := service.NewBackupService(db)

	csrf := security.NewCSRFGenerator(cfg.SecretKey)
	limiter := security.NewRateLimiter(10, time.Minute, clock)
	renderer := handlers.NewRenderer(tmpl, settingsService, inviteService, csrf)
	middleware := handlers.NewMiddleware(authService, settingsService, csrf, limiter, renderer, cfg.TrustProxy)

	oauthRedirectBaseURL := cfg.OAuthRedirectBaseURL
	if oauthRedirectBaseURL == "" {
		oauthRedirectBaseURL = cfg.AppBaseURL
	}
	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
	}

	router := &handlers.Router{
		Middleware:     middleware,
		Auth:           handlers.NewAuthHandler(authService, settingsService, welcome, renderer, oauthProviders, oauthRedirectBaseURL),
		Dashboard:      handlers.NewDashboardHandler(leagueService, inviteService, settingsService, renderer),
		Leagues:        handlers.NewLeagueHandler(leagueService, settingsService, renderer),
		Teams:          handlers.NewTeamHandler(teamService, renderer),
		Invites:        handlers.NewInviteHandler(inviteService, authService, renderer),
		Account:        handlers.NewAccountHandler(authService, leagueService, renderer),
		Seasons:        handlers.NewSeasonHandler(seasonService, renderer),
		Admin:          handlers.NewAdminHandler(adminService, settingsService, backupService, emailService, renderer, version),
		MetricsEnabled: cfg.MetricsEnabled,
	}
	status.CompleteStep(handlers.StepServices)

	go authService.RunSessionCleanup(ctx, sessionCleanupInterval)
	go limiter.Run(ctx, limiterCleanupInterval)

	status.Serve(router.Handler())
	log.Info().Msg("Server ready")

	<-ctx.Done()
	log.Info().Msg("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}
