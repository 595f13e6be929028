// Package profile реализует HTTP-обработчик изменения параметров тела
// с пересчётом суточных норм.
package profile

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
	"github.com/magabrotheeeer/habit-progression/internal/lib/norms"
	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
	"github.com/magabrotheeeer/habit-progression/internal/models"
)

// Service описывает интерфейс обновления профиля.
type Service interface {
	UpdateProfile(ctx context.Context, userUID string, in models.DummyOnboarding) (*norms.Norms, error)
}

// Handler обрабатывает PUT /auth/profile.
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
// @Summary Обновить параметры тела
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.DummyOnboarding true "Параметры тела"
// @Success 200 {object} map[string]norms.Norms
// @Router /auth/profile [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.profile"
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

	n, err := h.service.UpdateProfile(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to update profile", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, map[string]any{"norms": n})
}
