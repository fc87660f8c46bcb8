// Package create реализует HTTP-обработчик создания локации хранения
// с проверкой лимита тарифа на количество локаций.
package create

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
	pantryservice "github.com/pantrypilot/pantry-tracker/internal/services/pantry"
)

// Handler управляет HTTP-запросами на создание локаций.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики локаций.
type Service interface {
	CreateLocation(ctx context.Context, userUID string, req models.DummyLocation) (string, error)
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
// @Summary Создать локацию хранения
// @Description Создает локацию, если лимит тарифа на количество локаций не исчерпан.
// @Tags Pantry
// @Accept json
// @Produce json
// @Param request body models.DummyLocation true "Данные локации"
// @Success 200 {object} map[string]any "Идентификатор созданной локации"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.ErrorResponse "Лимит локаций исчерпан"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /locations [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.locations.create"
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

	var req models.DummyLocation
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

	id, err := h.service.CreateLocation(r.Context(), userUID, req)
	switch {
	case errors.Is(err, pantryservice.ErrLocationLimitReached):
		log.Info("location limit reached", slog.String("user_uid", userUID))
		w.WriteHeader(http.StatusPaymentRequired)
		render.JSON(w, r, response.Error("location limit reached for current tier"))
		return
	case err != nil:
		log.Error("failed to create location", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create location"))
		return
	}

	log.Info("location created", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id": id,
	}))
}
