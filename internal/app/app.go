package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aicrypto/predictor/internal/config"
	"github.com/aicrypto/predictor/internal/db"
	"github.com/aicrypto/predictor/internal/jobs"
	"github.com/aicrypto/predictor/internal/market"
	"github.com/aicrypto/predictor/internal/metrics"
	"github.com/aicrypto/predictor/internal/repository"
	"github.com/aicrypto/predictor/internal/service"
	"github.com/aicrypto/predictor/internal/service/payment"
	"github.com/aicrypto/predictor/internal/storage"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB
	Redis          *redis.Client
	Metrics        *metrics.Metrics
	AccountService *service.AccountService
	AuthService    *service.AuthService
	EmailService   *service.EmailService
	BillingService *service.BillingService
	MarketService  *market.Service
	Scheduler      *jobs.Scheduler
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	m := metrics.New(prometheus.NewRegistry())

	// Repositories
	accountRepository := repository.NewAccountRepository(database)
	pendingUpgradeRepository := repository.NewPendingUpgradeRepository(database)
	webhookEventRepository := repository.NewWebhookEventRepository(database)

	// Webhook archive (no-op unless S3_BUCKET is set)
	archive, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// OTP store
	var redisClient *redis.Client
	var otpStore service.OTPStore
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		err = redisClient.Ping(context.Background()).Err()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %v", err)
		}
		otpStore = service.NewRedisOTPStore(redisClient, cfg.OTPExpiry, cfg.OTPResendWindow)
		slog.Info("otp store initialized", "backend", "redis")
	} else {
		otpStore = service.NewMemoryOTPStore(cfg.OTPExpiry, cfg.OTPResendWindow)
		slog.Info("otp store initialized", "backend", "memory")
	}

	// Services
	mailer, err := service.NewMailer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %v", err)
	}
	emailService := service.NewEmailService(mailer, cfg.AppName)
	accountService := service.NewAccountService(accountRepository, pendingUpgradeRepository)

	// Initialize payment provider based on config
	paymentProvider, err := payment.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment provider: %v", err)
	}

	billingService := service.NewBillingService(
		paymentProvider,
		accountService,
		emailService,
		webhookEventRepository,
		archive,
		m,
		cfg.BillingTimeout,
	)
	authService := service.NewAuthService(
		otpStore,
		emailService,
		accountService,
		m,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.OTPExpiry,
	)
	marketService := market.NewService(
		market.NewCoinGeckoClient(cfg.CoinGeckoURL, cfg.MarketTimeout),
		cfg.MarketCacheTTL,
		m,
	)

	scheduler, err := jobs.NewScheduler(cfg.CleanupSchedule, webhookEventRepository, cfg.EventRetention)
	if err != nil {
		return nil, err
	}

	return &App{
		Cfg:            cfg,
		DB:             database,
		Redis:          redisClient,
		Metrics:        m,
		AccountService: accountService,
		AuthService:    authService,
		EmailService:   emailService,
		BillingService: billingService,
		MarketService:  marketService,
		Scheduler:      scheduler,
	}, nil
}

func (a *App) Ping(ctx context.Context) error {
	return db.Ping(ctx, a.DB)
}

func (a *App) Close() error {
	if a.Redis != nil {
		err := a.Redis.Close()
		if err != nil {
			slog.Error("failed to close redis", "error", err)
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
