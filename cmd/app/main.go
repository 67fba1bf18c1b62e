package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillbridge-billing/internal/config"
	"skillbridge-billing/internal/domain/ports/adapter"
	payAdapters "skillbridge-billing/internal/infra/adapters/payment"
	pg "skillbridge-billing/internal/infra/db/postgres"
	"skillbridge-billing/internal/infra/logging"
	"skillbridge-billing/internal/infra/metrics"
	red "skillbridge-billing/internal/infra/redis"
	"skillbridge-billing/internal/infra/sched"
	"skillbridge-billing/internal/infra/web"
	"skillbridge-billing/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// Collectors are only enqueued by their init funcs; they reach the
	// registry behind /metrics here.
	metrics.MustRegister()

	// ---- Postgres ----
	if err := pg.Migrate(cfg.Database.URL); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient, cfg.Redis.TTL)
	settingsRepo := pg.NewSettingsRepo(pool)
	messageRepo := pg.NewMessageRepo(pool)

	// ---- Use cases ----
	settingsUC := usecase.NewSettingsUseCase(settingsRepo, logger)
	if err := settingsUC.Reload(ctx); err != nil {
		// Not fatal: the admin can configure the merchant later; STK pushes
		// fail with a clear error until then.
		logger.Warn().Err(err).Msg("merchant settings not loaded at startup")
	}

	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev {
		gateway = payAdapters.NewNoopGateway()
		logger.Warn().Msg("using noop payment gateway")
	} else {
		gateway, err = payAdapters.NewDarajaGateway(cfg.Mpesa.ConsumerKey, cfg.Mpesa.ConsumerSecret, settingsUC, cfg.Mpesa.Timeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("daraja gateway init failed")
		}
	}

	planUC := usecase.NewPlanUseCase(planRepo)
	subUC := usecase.NewSubscriptionUseCase(subRepo)
	paymentUC := usecase.NewPaymentUseCase(paymentRepo, planRepo, gateway, logger)
	reconcileUC := usecase.NewReconcileUseCase(paymentRepo, subUC, planRepo, messageRepo, txManager, locker, logger)
	statsUC := usecase.NewStatsUseCase(paymentRepo, subRepo)

	// ---- HTTP server ----
	srv := web.NewServer(cfg, paymentUC, reconcileUC, subUC, planUC, settingsUC, statsUC, rateLimiter, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// ---- Background sweepers ----
	expiryWorker := sched.NewExpiryWorker(cfg.Sweep.ExpiryInterval, subUC, logger)
	go func() { _ = expiryWorker.Run(ctx) }()
	sweeper := sched.NewPaymentSweeper(cfg.Sweep.PaymentInterval, cfg.Sweep.PaymentStaleAfter, paymentUC, logger)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
