package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zenith-events/zenith/internal/approval"
	"github.com/zenith-events/zenith/internal/config"
	"github.com/zenith-events/zenith/internal/infrastructure/postgres"
	"github.com/zenith-events/zenith/internal/infrastructure/rabbitmq"
	"github.com/zenith-events/zenith/internal/infrastructure/redis"
	"github.com/zenith-events/zenith/internal/notify"
	"github.com/zenith-events/zenith/internal/pkg/logger"
	"github.com/zenith-events/zenith/internal/security"
	"github.com/zenith-events/zenith/internal/service"
	"github.com/zenith-events/zenith/internal/transport/rest"
	"github.com/zenith-events/zenith/internal/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		_ = os.Setenv("LOG_LEVEL", cfg.LogLevel)
	}

	logger.Init()
	log := logger.Logger.With().
		Str("service", "zenith").
		Str("env", cfg.AppEnv).
		Logger()

	// Root ctx with signal cancellation
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	dbPool, err := postgres.NewPool(rootCtx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer dbPool.Close()

	if err := postgres.EnsureSchema(rootCtx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}
	log.Info().Msg("postgres connected")

	events := postgres.NewEventRepo(dbPool)
	requests := postgres.NewRequestRepo(dbPool)
	users := postgres.NewUserRepo(dbPool)
	outbox := postgres.NewOutbox(dbPool)

	// ---- Redis ----
	cache := redis.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	{
		pingCtx, cancel := context.WithTimeout(rootCtx, 2*time.Second)
		defer cancel()

		// Best-effort ping; the cache layer fails open anyway
		if err := cache.Client.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed (continuing)")
		} else {
			log.Info().Msg("redis connected")
		}
	}

	// ---- Approval gate (optional) ----
	var gate service.ApprovalGate
	if cfg.GateURL != "" {
		gate = approval.NewClient(cfg.GateURL, cfg.GateAPIKey, log)
		log.Info().Str("url", cfg.GateURL).Msg("approval gate configured")
	}

	// ---- Application services ----
	eventSvc := service.NewEventService(events, cache, gate, nil)
	lifecycle := service.NewRequestLifecycle(events, requests, users, cache, outbox, nil)
	checkin := service.NewCheckInVerifier(requests)
	userSvc := service.NewUserService(users, nil)

	// ---- JWT verifier ----
	verifier := security.NewHS256Verifier(cfg.JWTSecret, cfg.JWTIssuer)

	// ---- Router ----
	httpHandler := rest.NewRouter(rest.RouterDeps{
		Cache:      cache,
		Handler:    rest.NewHandler(eventSvc, lifecycle, checkin, userSvc),
		Verifier:   verifier,
		RateLimit:  cfg.RLLimit,
		RateWindow: cfg.RLWindow,
	})

	// ---- Notification pipeline ----
	var sender notify.Sender
	if cfg.EmailSender == "smtp" {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.SMTPTimeout,
			Insecure: cfg.SMTPInsecure,
		}, log)
	} else {
		sender = notify.NewFakeSender(log)
	}

	var passes notify.PassIssuer
	if cfg.WalletEnabled() {
		gen, err := wallet.NewGenerator(cfg.WalletIssuerID, cfg.WalletServiceAccount, cfg.WalletPrivateKeyPEM, cfg.WalletOrigins)
		if err != nil {
			log.Fatal().Err(err).Msg("wallet generator init failed")
		}
		passes = gen
		log.Info().Msg("wallet passes enabled")
	}

	notifyHandler := notify.NewHandler(sender, passes, cache, log)

	if cfg.ConsumerEnabled {
		consumer := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, cfg.RabbitQueue, notifyHandler)
		if err := consumer.Start(rootCtx); err != nil {
			log.Fatal().Err(err).Msg("rabbitmq consumer start failed")
		}
		log.Info().Msg("approval consumer started")
	}

	if cfg.OutboxEnabled {
		postgres.NewOutboxWorker(dbPool).Start(rootCtx, cfg.RabbitURL, cfg.RabbitExchange)
		log.Info().Msg("outbox worker started")
	}

	if cfg.ReconcilerEnabled {
		postgres.NewReconciler(dbPool, cfg.ReconcileInterval).Start(rootCtx)
		log.Info().Msg("attendee reconciler started")
	}

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server crashed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	log.Info().Msg("bye")
}
