// Package checkout реализует HTTP-обработчик создания сессии оплаты
// у платежного провайдера.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/pantrypilot/pantry-tracker/internal/http/middlewarectx"
	"github.com/pantrypilot/pantry-tracker/internal/http/response"
	"github.com/pantrypilot/pantry-tracker/internal/lib/sl"
)

// Handler управляет HTTP-запросами на создание сессии оплаты.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики биллинга.
type Service interface {
	Checkout(ctx context.Context, userUID, priceID, tierID string) (string, error)
}

// Request — тело запроса на создание сессии оплаты.
type Request struct {
	PriceID string `json:"price_id" validate:"required"`
	TierID  string `json:"tier_id" validate:"required,oneof=smart pro"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать сессию оплаты
// @Description Создает сессию оплаты у платежного провайдера и возвращает URL
// @Description для перенаправления пользователя.
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body Request true "Цена и тариф"
// @Success 200 {object} map[string]any "URL сессии оплаты"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /billing/checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.checkout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validateErrs))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	url, err := h.service.Checkout(r.Context(), userUID, req.PriceID, req.TierID)
	if err != nil {
		log.Error("failed to create checkout session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create checkout session"))
		return
	}

	log.Info("checkout session created", slog.String("user_uid", userUID), slog.String("tier_id", req.TierID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"url": url,
	}))
}
