package pantrytracker

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/pantrypilot/pantry-tracker/internal/http/handlers/auth/login"
	"github.com/pantrypilot/pantry-tracker/internal/http/handlers/auth/register"
	billingcancel "github.com/pantrypilot/pantry-tracker/internal/http/handlers/billing/cancel"
	billingcheckout "github.com/pantrypilot/pantry-tracker/internal/http/handlers/billing/checkout"
	billingprices "github.com/pantrypilot/pantry-tracker/internal/http/handlers/billing/prices"
	billingreactivate "github.com/pantrypilot/pantry-tracker/internal/http/handlers/billing/reactivate"
	billingread "github.com/pantrypilot/pantry-tracker/internal/http/handlers/billing/subscriptionread"
	billingwebhook "github.com/pantrypilot/pantry-tracker/internal/http/handlers/billing/webhook"
	"github.com/pantrypilot/pantry-tracker/internal/http/handlers/health"
	locationcreate "github.com/pantrypilot/pantry-tracker/internal/http/handlers/locations/create"
	locationlist "github.com/pantrypilot/pantry-tracker/internal/http/handlers/locations/list"
	locationremove "github.com/pantrypilot/pantry-tracker/internal/http/handlers/locations/remove"
	notificationlist "github.com/pantrypilot/pantry-tracker/internal/http/handlers/notifications/list"
	"github.com/pantrypilot/pantry-tracker/internal/http/handlers/notifications/markallread"
	"github.com/pantrypilot/pantry-tracker/internal/http/handlers/notifications/markread"
	profileget "github.com/pantrypilot/pantry-tracker/internal/http/handlers/profile/get"
	receiptitems "github.com/pantrypilot/pantry-tracker/internal/http/handlers/receipts/items"
	receiptlist "github.com/pantrypilot/pantry-tracker/internal/http/handlers/receipts/list"
	receiptscan "github.com/pantrypilot/pantry-tracker/internal/http/handlers/receipts/scan"
	tagcreate "github.com/pantrypilot/pantry-tracker/internal/http/handlers/tags/create"
	taglist "github.com/pantrypilot/pantry-tracker/internal/http/handlers/tags/list"
	tagremove "github.com/pantrypilot/pantry-tracker/internal/http/handlers/tags/remove"
	"github.com/pantrypilot/pantry-tracker/internal/http/middlewarectx"
	"github.com/pantrypilot/pantry-tracker/internal/realtime"
	authservice "github.com/pantrypilot/pantry-tracker/internal/services/auth"
	billingservice "github.com/pantrypilot/pantry-tracker/internal/services/billing"
	notificationservice "github.com/pantrypilot/pantry-tracker/internal/services/notification"
	pantryservice "github.com/pantrypilot/pantry-tracker/internal/services/pantry"
	receiptservice "github.com/pantrypilot/pantry-tracker/internal/services/receipt"
	userservice "github.com/pantrypilot/pantry-tracker/internal/services/user"
)

// Services собирает зависимости маршрутов приложения.
type Services struct {
	Auth          *authservice.AuthService
	User          *userservice.UserService
	Receipt       *receiptservice.ReceiptService
	Pantry        *pantryservice.PantryService
	Notification  *notificationservice.NotificationService
	Billing       *billingservice.BillingService
	Realtime      *realtime.Handler
	TokenParser   middlewarectx.TokenParser
	WebhookSecret string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
		r.Get("/billing/prices", billingprices.New(logger, s.Billing).ServeHTTP)

		// Группа с проверкой сессии
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.SessionMiddleware(s.TokenParser, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Get("/profile", profileget.New(logger, s.User).ServeHTTP)

			r.Post("/receipts/scan", receiptscan.New(logger, s.Receipt).ServeHTTP)
			r.Get("/receipts", receiptlist.New(logger, s.Receipt).ServeHTTP)
			r.Get("/receipts/{id}/items", receiptitems.New(logger, s.Receipt).ServeHTTP)

			r.Post("/tags", tagcreate.New(logger, s.Pantry).ServeHTTP)
			r.Get("/tags", taglist.New(logger, s.Pantry).ServeHTTP)
			r.Delete("/tags/{id}", tagremove.New(logger, s.Pantry).ServeHTTP)

			r.Post("/locations", locationcreate.New(logger, s.Pantry).ServeHTTP)
			r.Get("/locations", locationlist.New(logger, s.Pantry).ServeHTTP)
			r.Delete("/locations/{id}", locationremove.New(logger, s.Pantry).ServeHTTP)

			r.Get("/notifications", notificationlist.New(logger, s.Notification).ServeHTTP)
			r.Post("/notifications/{id}/read", markread.New(logger, s.Notification).ServeHTTP)
			r.Post("/notifications/read-all", markallread.New(logger, s.Notification).ServeHTTP)

			r.Get("/billing/subscription", billingread.New(logger, s.Billing).ServeHTTP)
			r.Post("/billing/checkout", billingcheckout.New(logger, s.Billing).ServeHTTP)
			r.Post("/billing/subscription/cancel", billingcancel.New(logger, s.Billing).ServeHTTP)
			r.Post("/billing/subscription/reactivate", billingreactivate.New(logger, s.Billing).ServeHTTP)
		})

		// Вебхук провайдера аутентифицируется подписью, не сессией
		r.Post("/billing/webhook", billingwebhook.New(logger, s.Billing, s.WebhookSecret).ServeHTTP)
	})

	// Канал событий живёт на фиксированном пути вне версии API: клиент
	// выводит адрес из origin страницы. Cookie сессии достаточно для апгрейда.
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.SessionMiddleware(s.TokenParser, logger))
		r.Get(realtime.ChannelPath, s.Realtime.ServeHTTP)
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
