// Package scan реализует HTTP-обработчик сканирования чека: разбор позиций,
// проверку лимита тарифа и сохранение продуктов в кладовую.
package scan

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
	"github.com/pantrypilot/pantry-tracker/internal/models"
	receiptservice "github.com/pantrypilot/pantry-tracker/internal/services/receipt"
)

// Handler управляет HTTP-запросами на сканирование чеков.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики сканирования чеков.
type Service interface {
	Scan(ctx context.Context, userUID string, req models.DummyReceipt) (string, error)
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
// @Summary Сканировать чек
// @Description Сохраняет чек с позициями, увеличивает счетчик сканирований
// @Description и публикует обновление использования лимита в реальном времени.
// @Tags Receipts
// @Accept json
// @Produce json
// @Param request body models.DummyReceipt true "Данные чека"
// @Success 200 {object} map[string]any "Идентификатор созданного чека"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.ErrorResponse "Лимит сканирований исчерпан"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /receipts/scan [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.receipts.scan"
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

	var req models.DummyReceipt
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			log.Error("invalid request", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validateErrs))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	id, err := h.service.Scan(r.Context(), userUID, req)
	switch {
	case errors.Is(err, receiptservice.ErrScanLimitReached):
		log.Info("scan limit reached", slog.String("user_uid", userUID))
		w.WriteHeader(http.StatusPaymentRequired)
		render.JSON(w, r, response.Error("receipt scan limit reached for current tier"))
		return
	case errors.Is(err, receiptservice.ErrTooManyItems):
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("too many items in receipt for current tier"))
		return
	case err != nil:
		log.Error("failed to scan receipt", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not scan receipt"))
		return
	}

	log.Info("receipt scanned", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id": id,
	}))
}
