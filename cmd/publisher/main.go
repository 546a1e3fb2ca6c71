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
	"time"

	"github.com/google/uuid"

	"github.com/example/event-publisher/internal/application"
	"github.com/example/event-publisher/internal/config"
	httptransport "github.com/example/event-publisher/internal/http"
	"github.com/example/event-publisher/internal/logging"
	"github.com/example/event-publisher/internal/notify"
	"github.com/example/event-publisher/internal/persistence/sqlite"
	"github.com/example/event-publisher/internal/providers/advocacy"
	"github.com/example/event-publisher/internal/providers/caldav"
	"github.com/example/event-publisher/internal/providers/zoom"
	"github.com/example/event-publisher/internal/secrets"
)

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	creds, err := secrets.Load(cfg.SecretsPath)
	if err != nil {
		logger.Error("failed to load credentials", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now
	providerClient := &http.Client{Timeout: cfg.CollaboratorTimeout}

	video := zoom.NewClient(zoom.Config{
		BaseURL:      cfg.ZoomBaseURL,
		TokenURL:     cfg.ZoomTokenURL,
		AccountID:    creds.Zoom.AccountID,
		ClientID:     creds.Zoom.ClientID,
		ClientSecret: creds.Zoom.ClientSecret,
		HTTPClient:   providerClient,
	})
	calendar := caldav.NewClient(caldav.Config{
		FeedURL:       cfg.CalendarFeedURL,
		CollectionURL: cfg.CalendarCollectionURL,
		Username:      creds.Calendar.Username,
		Password:      creds.Calendar.Password,
		HTTPClient:    providerClient,
		IDGenerator:   idGenerator,
	})
	platform := advocacy.NewClient(advocacy.Config{
		BaseURL:  cfg.AdvocacyBaseURL,
		Email:    creds.Advocacy.Email,
		Password: creds.Advocacy.Password,
	})
	notifier := notify.NewSMTPNotifier(notify.Config{
		Addr:     cfg.SMTPAddr,
		From:     cfg.SMTPFrom,
		Username: creds.SMTP.Username,
		Password: creds.SMTP.Password,
	})

	ownerRepo := sqlite.NewEventOwnerRepository(pool)
	requestRepo := sqlite.NewDelegatedEventRequestRepository(pool)
	postedRepo := sqlite.NewPostedEventRepository(pool)

	publishService := application.NewPublishServiceWithLogger(video, calendar, platform, logger)
	delegationService := application.NewDelegationServiceWithLogger(publishService, ownerRepo, requestRepo, postedRepo, notifier, idGenerator, now, logger)
	ownerService := application.NewOwnerServiceWithLogger(ownerRepo, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Publish:    httptransport.NewPublishHandler(publishService, logger),
		Delegation: httptransport.NewDelegationHandler(delegationService, logger),
		Owners:     httptransport.NewOwnerHandler(ownerService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Publish calls drive a headless browser; writes must outlast it.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("event publisher API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
