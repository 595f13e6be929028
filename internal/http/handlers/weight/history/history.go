// Package history реализует HTTP-обработчик истории веса.
// Периоды длиннее 30 дней закрыты PremiumMiddleware на уровне маршрута.
package history

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/habit-progression/internal/http/middlewarectx"
	"github.com/magabrotheeeer/habit-progression/internal/http/response"
	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
	"github.com/magabrotheeeer/habit-progression/internal/models"
)

// Service описывает чтение истории веса.
type Service interface {
	WeightHistory(ctx context.Context, userUID, period string) ([]models.WeightLog, error)
}

// Handler обрабатывает GET /weight/history?period=30d|90d|all.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary История веса
// @Tags Weight
// @Produce  json
// @Param period query string false "30d, 90d или all"
// @Success 200 {object} map[string][]models.WeightLog
// @Failure 403 {object} response.ErrorResponse "Нужен премиум"
// @Router /weight/history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.weight.history"
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

	entries, err := h.service.WeightHistory(r.Context(), userUID, r.URL.Query().Get("period"))
	if err != nil {
		log.Error("failed to read weight history", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, map[string]any{"entries": entries})
}
