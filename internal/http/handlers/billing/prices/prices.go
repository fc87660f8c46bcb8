// Package prices реализует HTTP-обработчик получения каталога тарифов.
package prices

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pantrypilot/pantry-tracker/internal/billing"
	"github.com/pantrypilot/pantry-tracker/internal/http/response"
	"github.com/pantrypilot/pantry-tracker/internal/lib/sl"
)

// Handler управляет HTTP-запросами на чтение каталога тарифов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики биллинга.
type Service interface {
	Prices(ctx context.Context) (billing.PriceList, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Каталог тарифов
// @Description Возвращает список тарифов с ценами. При недоступности платежного
// @Description провайдера отдает резервный каталог с флагом fallback.
// @Tags Billing
// @Produce json
// @Success 200 {object} map[string]any "Каталог тарифов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /billing/prices [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.prices"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	prices, err := h.service.Prices(r.Context())
	if err != nil {
		log.Error("failed to load prices", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load prices"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"prices":   prices.Prices,
		"fallback": prices.Fallback,
	}))
}
