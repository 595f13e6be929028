// Package loglist реализует HTTP-обработчик дневника питания за день.
package loglist

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

// Service описывает чтение дневника питания.
type Service interface {
	FoodLog(ctx context.Context, userUID, day string) (*activity.FoodDay, error)
}

// Handler обрабатывает GET /food/log?date=YYYY-MM-DD.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Дневник питания за день
// @Tags Food
// @Produce  json
// @Param date query string false "Дата в формате YYYY-MM-DD, по умолчанию сегодня"
// @Success 200 {object} activity.FoodDay
// @Failure 400 {object} response.ErrorResponse
// @Router /food/log [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.food.loglist"
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

	day, err := h.service.FoodLog(r.Context(), userUID, r.URL.Query().Get("date"))
	if err != nil {
		log.Error("failed to read food log", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, day)
}
