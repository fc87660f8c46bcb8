// Package items реализует HTTP-обработчик получения позиций чека.
package items

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pantrypilot/pantry-tracker/internal/http/middlewarectx"
	"github.com/pantrypilot/pantry-tracker/internal/http/response"
	"github.com/pantrypilot/pantry-tracker/internal/lib/sl"
	"github.com/pantrypilot/pantry-tracker/internal/models"
)

// Handler управляет HTTP-запросами на чтение позиций чека.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения позиций чека.
type Service interface {
	ListItems(ctx context.Context, receiptID string) ([]models.ReceiptItem, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.receipts.items"
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

	receiptID := chi.URLParam(r, "id")
	if receiptID == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("receipt id is required"))
		return
	}

	items, err := h.service.ListItems(r.Context(), receiptID)
	if err != nil {
		log.Error("failed to list receipt items", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list receipt items"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"items": items,
	}))
}
