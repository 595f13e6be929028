// Package onboarding реализует HTTP-обработчик мастера онбординга:
// сохранение параметров тела, расчёт норм КБЖУ и старт пробного периода.
package onboarding

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/habit-progression/internal/http/middlewarectx"
	"github.com/magabrotheeeer/habit-progression/internal/http/response"
	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
	"github.com/magabrotheeeer/habit-progression/internal/models"
	"github.com/magabrotheeeer/habit-progression/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики онбординга.
type Service interface {
	Onboarding(ctx context.Context, userUID string, in models.DummyOnboarding) (*auth.OnboardingResult, error)
}

// Handler обрабатывает завершение онбординга.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Завершить онбординг
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.DummyOnboarding true "Параметры тела"
// @Success 200 {object} auth.OnboardingResult
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/onboarding [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.onboarding"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		log.Error("user uid not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req models.DummyOnboarding
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.Onboarding(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to complete onboarding", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	log.Info("onboarding completed", sl.UserUID(userUID))
	render.JSON(w, r, res)
}
