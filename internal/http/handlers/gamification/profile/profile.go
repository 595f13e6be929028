// Package profile реализует HTTP-обработчик профиля геймификации.
package profile

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/habit-progression/internal/http/middlewarectx"
	"github.com/magabrotheeeer/habit-progression/internal/http/response"
	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
	"github.com/magabrotheeeer/habit-progression/internal/services/activity"
)

// Service описывает чтение профиля.
type Service interface {
	Profile(ctx context.Context, userUID string) (*activity.Profile, error)
}

// Handler обрабатывает GET /gamification/profile.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Профиль геймификации
// @Description Уровень, опыт, стрики и каталог достижений с отметкой о получении.
// @Tags Gamification
// @Produce  json
// @Success 200 {object} activity.Profile
// @Router /gamification/profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.gamification.profile"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	p, err := h.service.Profile(r.Context(), userUID)
	if err != nil {
		log.Error("failed to build profile", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, p)
}
