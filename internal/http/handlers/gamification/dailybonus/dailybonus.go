// Package dailybonus реализует HTTP-обработчик ежедневного бонуса.
package dailybonus

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

// Service описывает выдачу ежедневного бонуса.
type Service interface {
	ClaimDailyBonus(ctx context.Context, userUID string) (*activity.DailyBonusResult, error)
}

// Handler обрабатывает POST /gamification/daily-bonus.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Забрать ежедневный бонус
// @Description +10 опыта не чаще раза в календарный день.
// @Tags Gamification
// @Produce  json
// @Success 200 {object} activity.DailyBonusResult
// @Router /gamification/daily-bonus [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.gamification.dailybonus"
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

	res, err := h.service.ClaimDailyBonus(r.Context(), userUID)
	if err != nil {
		log.Error("failed to claim daily bonus", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}
	if res.AlreadyClaimed {
		log.Debug("daily bonus already claimed", sl.UserUID(userUID))
	}
	render.JSON(w, r, res)
}
