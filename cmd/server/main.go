package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"azadi/internal/admin"
	"azadi/internal/automation"
	"azadi/internal/automation/broadcast"
	automationmetrics "azadi/internal/automation/metrics"
	"azadi/internal/content/models"
	"azadi/internal/content/service"
	"azadi/internal/content/settings"
	"azadi/internal/content/store"
	"azadi/internal/docstore"
	jwttoken "azadi/internal/jwt_token"
	"azadi/internal/platform/config"
	"azadi/internal/platform/httpserver"
	"azadi/internal/platform/logger"
	"azadi/internal/textservice"
	"azadi/pkg/platform/secrets"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, closeStore, err := openDocstore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	client = docstore.Instrument(client, docstore.NewMetrics())

	repos := store.NewRepositories(client, store.WithLogger(log))
	defaults, err := defaultSettings(cfg)
	if err != nil {
		return err
	}
	settingsSvc := settings.New(client, defaults, settings.WithLogger(log))

	if cfg.SeedOnStart {
		seed(ctx, log, repos, settingsSvc)
	}

	tokens := jwttoken.NewJWTService(cfg.Admin.JWTSigningKey, cfg.Admin.JWTIssuer)
	if cfg.UsesDevSigningKey() {
		log.Warn("JWT_SIGNING_KEY is not set, admin tokens use the development key")
	}
	limits, err := newRateLimiting(cfg.RateLimit, prometheus.DefaultRegisterer, log)
	if err != nil {
		return fmt.Errorf("rate limiting: %w", err)
	}
	adminSvc, err := admin.New(settingsSvc, tokens,
		limits.adminOptions(admin.WithLogger(log), admin.WithTokenTTL(cfg.Admin.TokenTTL))...)
	if err != nil {
		return err
	}

	translator := textservice.New(textservice.Config{
		BaseURL: cfg.Text.URL,
		APIKey:  cfg.Text.APIKey,
		Model:   cfg.Text.Model,
		Timeout: cfg.Text.Timeout,
		Delay:   cfg.Text.Delay,
	}, log, textservice.NewMetrics())
	if !translator.Enabled() {
		log.Info("TEXT_SERVICE_API_KEY is not set, translation backfill copies text unchanged")
	}

	engine, err := automation.New(
		automation.SourcesFrom(repos, settingsSvc),
		broadcast.New(),
		automation.WithTranslator(translator),
		automation.WithLogger(log),
		automation.WithMetrics(automationmetrics.New()),
		automation.WithConfig(automation.Config{
			ProbeTimeout:     cfg.Automation.ProbeTimeout,
			SettleDelay:      cfg.Automation.SettleDelay,
			ProbeConcurrency: cfg.Automation.ProbeConcurrency,
			QuotaBytes:       cfg.Automation.QuotaBytes,
			WarnPercent:      cfg.Automation.WarnPercent,
		}),
	)
	if err != nil {
		return err
	}

	if cfg.Automation.Schedule != "" {
		scheduler, err := automation.NewScheduler(engine, cfg.Automation.Schedule, log)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
		log.Info("scheduled maintenance enabled", "schedule", cfg.Automation.Schedule)
	}

	router := newRouter(routerDeps{
		cfg:       cfg,
		log:       log,
		repos:     repos,
		settings:  settingsSvc,
		donations: service.NewDonationService(repos.Donations, service.WithLogger(log)),
		dashboard: service.NewDashboardService(service.DashboardSources{
			Donations: repos.Donations,
			Expenses:  repos.Expenses,
			Leaders:   repos.Leaders,
			Members:   repos.Members,
			Events:    repos.Events,
		}, nil),
		admin:  adminSvc,
		limits: limits.middleware,
		tokens: tokens,
		engine: engine,
		store:  client,
	})

	// Streams end when base is cancelled, which Shutdown triggers.
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	srv := httpserver.New(base, cfg.Server.Addr, router)
	srv.RegisterOnShutdown(cancelBase)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.Server.Addr, "docstore", string(client.Driver()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// defaultSettings backfills settings the store does not hold yet.
func defaultSettings(cfg config.Config) (models.AppSettings, error) {
	hash, err := secrets.Hash(cfg.Admin.DefaultPassword)
	if err != nil {
		return models.AppSettings{}, fmt.Errorf("hash default admin password: %w", err)
	}
	return models.AppSettings{
		ContactPhone:  cfg.Admin.ContactPhone,
		AdminUser:     cfg.Admin.DefaultUser,
		AdminPassHash: hash,
		SocialLinks: models.SocialLinks{
			models.SocialFacebook: "",
			models.SocialYouTube:  "",
			models.SocialTwitter:  "",
		},
	}, nil
}

// seed fills absent collections. Failures are logged and never stop startup.
func seed(ctx context.Context, log *slog.Logger, repos *store.Repositories, s *settings.Service) {
	if err := repos.EnsureSeeded(ctx); err != nil {
		log.WarnContext(ctx, "seeding collections failed", "error", err)
	}
	if _, err := s.EnsureSeeded(ctx); err != nil {
		log.WarnContext(ctx, "seeding settings failed", "error", err)
	}
}
