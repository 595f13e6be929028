// Package achievements реализует HTTP-обработчик списка достижений.
package achievements

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

// Service описывает чтение достижений.
type Service interface {
	Achievements(ctx context.Context, userUID string) (*activity.AchievementsList, error)
}

// Handler обрабатывает GET /gamification/achievements.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Полученные и доступные достижения
// @Tags Gamification
// @Produce  json
// @Success 200 {object} activity.AchievementsList
// @Router /gamification/achievements [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.gamification.achievements"
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

	list, err := h.service.Achievements(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list achievements", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, list)
}
