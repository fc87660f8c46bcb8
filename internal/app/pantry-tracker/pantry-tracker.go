// Package pantrytracker собирает основное HTTP-приложение: хранилище,
// кеш, канал событий, сервисы и маршруты.
package pantrytracker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/pantrypilot/pantry-tracker/internal/cache"
	"github.com/pantrypilot/pantry-tracker/internal/config"
	"github.com/pantrypilot/pantry-tracker/internal/lib/jwt"
	"github.com/pantrypilot/pantry-tracker/internal/migrations"
	"github.com/pantrypilot/pantry-tracker/internal/paymentprovider"
	"github.com/pantrypilot/pantry-tracker/internal/realtime"
	authservice "github.com/pantrypilot/pantry-tracker/internal/services/auth"
	billingservice "github.com/pantrypilot/pantry-tracker/internal/services/billing"
	notificationservice "github.com/pantrypilot/pantry-tracker/internal/services/notification"
	pantryservice "github.com/pantrypilot/pantry-tracker/internal/services/pantry"
	receiptservice "github.com/pantrypilot/pantry-tracker/internal/services/receipt"
	userservice "github.com/pantrypilot/pantry-tracker/internal/services/user"
	"github.com/pantrypilot/pantry-tracker/internal/storage/repository"
)

// App представляет основное HTTP-приложение.
type App struct {
	server *http.Server
	hub    *realtime.Hub
	logger *slog.Logger
	db     *repository.Storage
}

// New создает приложение: подключает базу, прогоняет миграции,
// инициализирует кеш, сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	providerClient := paymentprovider.NewClient(cfg.PaymentProvider)
	hub := realtime.NewHub(logger)

	userService := userservice.NewUserService(db, cacheRedis, logger)
	notificationService := notificationservice.NewNotificationService(db, hub, cacheRedis, logger)
	receiptService := receiptservice.NewReceiptService(db, db, hub, cacheRedis, logger)
	pantryService := pantryservice.NewPantryService(db, db, logger)
	billingService := billingservice.NewBillingService(
		providerClient, db, db, notificationService, cacheRedis, cfg.PaymentProvider, logger)
	authService := authservice.NewAuthService(db, jwtMaker)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:          authService,
		User:          userService,
		Receipt:       receiptService,
		Pantry:        pantryService,
		Notification:  notificationService,
		Billing:       billingService,
		Realtime:      realtime.NewHandler(hub, logger),
		TokenParser:   jwtMaker,
		WebhookSecret: cfg.PaymentProvider.WebhookSecret,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		hub:    hub,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает хаб канала событий и HTTP-сервер, останавливая их
// по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		return err
	}
}
