package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/amellin794/delish/internal/config"
	"github.com/amellin794/delish/internal/db"
	"github.com/amellin794/delish/internal/repository"
	"github.com/amellin794/delish/internal/service"
	"github.com/amellin794/delish/internal/service/payment"
	"github.com/amellin794/delish/internal/storage"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	Users           repository.UserRepository
	SessionTokens   repository.SessionTokenRepository
	EmailService    *service.EmailService
	TokenService    *service.TokenService
	ListService     *service.ListService
	CheckoutService *service.CheckoutService
	UnlockService   *service.UnlockService
	AccessService   *service.AccessService
	PaymentService  payment.Provider
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

	// Repositories
	userRepository := repository.NewUserRepository(database)
	listRepository := repository.NewListRepository(database)
	orderRepository := repository.NewOrderRepository(database)
	accessGrantRepository := repository.NewAccessGrantRepository(database)
	sessionTokenRepository := repository.NewSessionTokenRepository(database)

	// Storage
	coverStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.UnlockTokenExpiry, cfg.AccessLinkExpiry)
	listService := service.NewListService(listRepository, userRepository, orderRepository, coverStorage)
	checkoutService := service.NewCheckoutService(
		listRepository,
		orderRepository,
		accessGrantRepository,
		sessionTokenRepository,
		tokenService,
		emailService,
	)
	unlockService := service.NewUnlockService(
		listRepository,
		orderRepository,
		accessGrantRepository,
		sessionTokenRepository,
		tokenService,
	)
	accessService := service.NewAccessService(
		listRepository,
		orderRepository,
		accessGrantRepository,
		tokenService,
		emailService,
	)

	// Initialize payment provider based on config
	paymentProvider, err := payment.NewProvider(cfg, checkoutService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment provider: %v", err)
	}

	app := &App{
		Cfg:             cfg,
		DB:              database,
		Users:           userRepository,
		SessionTokens:   sessionTokenRepository,
		EmailService:    emailService,
		TokenService:    tokenService,
		ListService:     listService,
		CheckoutService: checkoutService,
		UnlockService:   unlockService,
		AccessService:   accessService,
		PaymentService:  paymentProvider,
	}

	go app.tokenCleanupLoop()

	return app, nil
}

// tokenCleanupLoop periodically deletes unredeemed session tokens that
// expired over a day ago. Expired rows are kept for a grace period so a
// replayed link still reports expired rather than unknown.
func (a *App) tokenCleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		deleted, err := a.SessionTokens.DeleteExpired(24 * time.Hour)
		if err != nil {
			slog.Error("failed to clean up session tokens", "error", err)
			continue
		}
		if deleted > 0 {
			slog.Info("cleaned up expired session tokens", "deleted", deleted)
		}
	}
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
