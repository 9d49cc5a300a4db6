package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marimovDEV/v0-crm-pos-system/internal/config"
	"github.com/marimovDEV/v0-crm-pos-system/internal/infra"
	"github.com/marimovDEV/v0-crm-pos-system/internal/middleware"
	"github.com/marimovDEV/v0-crm-pos-system/internal/repository"
	"github.com/marimovDEV/v0-crm-pos-system/internal/router"
	"github.com/marimovDEV/v0-crm-pos-system/internal/service"
	"github.com/marimovDEV/v0-crm-pos-system/internal/worker"

	"github.com/bsm/redislock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in development, JSON in production
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}
	policy, err := service.ParseCreditPolicy(cfg.CreditPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid CREDIT_POLICY")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := router.Deps{
		DB:           db,
		CreditPolicy: policy,
		RateLimiter:  middleware.NewRateLimiter(600, time.Minute),
	}
	go deps.RateLimiter.Purge(ctx, 5*time.Minute)

	// Background jobs need Redis; without it sales still work, receipts and
	// stock alerts are simply not produced.
	var pool *worker.Pool
	if cfg.RedisURL != "" {
		rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()

		dispatcher := worker.NewDispatcher(rdb)
		deps.Redis = rdb
		deps.Dispatcher = dispatcher

		products := repository.NewProductRepository(db)
		mailer := infra.NewMailer(cfg)
		smtpBreaker := infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))

		pool = worker.NewPool(rdb)
		pool.Register(worker.JobSaleReceipt, worker.NewReceiptWorker(
			repository.NewSaleRepository(db),
			infra.ReceiptHeader{StoreName: cfg.StoreName, Footer: cfg.ReceiptFooter},
			cfg.ReceiptStoragePath,
		))
		pool.Register(worker.JobStockAlert, worker.NewStockAlertWorker(
			products,
			worker.NewRedisThrottle(redislock.New(rdb)),
			cfg.StockAlertThrottle,
			mailer,
			smtpBreaker,
			cfg.AlertEmail,
		))
		pool.Start(ctx, cfg.WorkerPoolSize)
		worker.StartStockSweep(ctx, products, dispatcher, cfg.StockAlertThrottle)
	} else {
		log.Warn().Msg("REDIS_URL empty: receipts and stock alerts are disabled")
	}

	r := router.New(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("credit_policy", string(policy)).Msgf("POS backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	if pool != nil {
		pool.Wait()
	}
	log.Info().Msg("server exited")
}
