package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"identity-service/internal/audit"
	auditrepo "identity-service/internal/audit/repository"
	authhandler "identity-service/internal/auth/handler"
	authservice "identity-service/internal/auth/service"
	"identity-service/internal/config"
	"identity-service/internal/db"
	"identity-service/internal/dbx"
	"identity-service/internal/event"
	"identity-service/internal/security"
	"identity-service/internal/server"
	"identity-service/internal/server/middleware"
	"identity-service/internal/telemetry"
	telemetryotel "identity-service/internal/telemetry/otel"
	"identity-service/internal/telemetry/producer"
	tokenrepo "identity-service/internal/token/repository"
	userhandler "identity-service/internal/user/handler"
	userrepo "identity-service/internal/user/repository"
	userservice "identity-service/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env)
	slog.SetDefault(logger)

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	// Weak or shared signing keys must stop the process before it serves a
	// single request.
	codec, err := security.NewTokenCodec(
		[]byte(cfg.JWTAccessSecret),
		[]byte(cfg.JWTRefreshSecret),
		cfg.JWTIssuer,
		cfg.AccessTTL(),
		cfg.RefreshTTL(),
	)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}
	hasher := security.NewHasher(cfg.BcryptCost)

	ctx := context.Background()
	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, "identity-service", false)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.SecurityKafkaTopic)
	if err != nil {
		log.Fatalf("kafka producer: %v", err)
	}
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
	}

	bus := event.NewBus()
	event.NewNotificationListener(logger).Register(bus)
	if kafkaProducer != nil {
		telemetry.NewSecurityListener(kafkaProducer, logger).Register(bus)
	}

	auditRepo := auditrepo.NewPostgresRepository(conn)
	auditor := audit.NewLogger(auditRepo, middleware.ClientIPFrom, logger)
	metrics := telemetry.MustAuthMetrics(providers.MeterProvider.Meter("identity-service/auth"))

	authSvc := authservice.NewAuthService(
		conn,
		dbx.NewTxRunner(conn),
		func(h dbx.DBTX) authservice.UserRepo { return userrepo.NewPostgresRepository(h) },
		func(h dbx.DBTX) authservice.TokenRepo { return tokenrepo.NewPostgresRepository(h) },
		hasher,
		codec,
		bus,
		auditor,
		metrics,
		logger,
	)
	userSvc := userservice.NewUserService(
		userrepo.NewPostgresRepository(conn),
		tokenrepo.NewPostgresRepository(conn),
		hasher,
		auditor,
	)

	router := server.NewRouter(server.Deps{
		Auth:   authhandler.New(authSvc, logger),
		Users:  userhandler.New(userSvc, auditRepo, logger),
		Codec:  codec,
		DB:     conn,
		Tracer: providers.TracerProvider.Tracer("identity-service/http"),
		Log:    logger,
	})
	srv := server.NewHTTPServer(cfg.HTTPAddr, router)

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("http server stopped")
}

func newLogger(env string) *slog.Logger {
	if env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
