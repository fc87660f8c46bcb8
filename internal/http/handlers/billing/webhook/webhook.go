// Package webhook реализует HTTP-обработчик вебхуков платежного провайдера:
// проверку подписи и применение событий подписки.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pantrypilot/pantry-tracker/internal/http/response"
	"github.com/pantrypilot/pantry-tracker/internal/lib/sl"
	"github.com/pantrypilot/pantry-tracker/internal/paymentprovider"
)

// Тело вебхука читается целиком для проверки подписи, лимит защищает
// от слишком больших запросов.
const maxBodySize = 1 << 20

// Handler управляет HTTP-запросами вебхуков платежного провайдера.
type Handler struct {
	log     *slog.Logger
	service Service
	secret  string
}

// Service описывает интерфейс применения событий провайдера.
type Service interface {
	ApplyProviderEvent(ctx context.Context, event *paymentprovider.WebhookEvent) error
}

// New создает новый Handler с переданными логгером, сервисом и секретом подписи.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:     log,
		service: service,
		secret:  secret,
	}
}

// ServeHTTP godoc
// @Summary Вебхук платежного провайдера
// @Description Проверяет подпись запроса и применяет событие подписки.
// @Tags Billing
// @Accept json
// @Produce json
// @Success 200 {object} response.Response "Событие применено"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело запроса"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /billing/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read request body"))
		return
	}

	event, err := paymentprovider.ConstructEvent(
		payload, r.Header.Get(paymentprovider.SignatureHeader), h.secret, time.Now())
	if err != nil {
		if errors.Is(err, paymentprovider.ErrInvalidSignature) {
			log.Warn("webhook signature mismatch")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid signature"))
			return
		}
		log.Error("failed to parse webhook event", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid webhook payload"))
		return
	}

	if err := h.service.ApplyProviderEvent(r.Context(), event); err != nil {
		log.Error("failed to apply provider event",
			slog.String("event_type", event.Type), sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not apply event"))
		return
	}

	log.Info("webhook event applied",
		slog.String("event_id", event.ID), slog.String("event_type", event.Type))
	render.JSON(w, r, response.OK())
}
