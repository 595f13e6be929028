// Package me реализует HTTP-обработчик получения профиля текущего пользователя.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/habit-progression/internal/http/middlewarectx"
	"github.com/magabrotheeeer/habit-progression/internal/http/response"
	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
	"github.com/magabrotheeeer/habit-progression/internal/services/auth"
)

// Service описывает получение профиля.
type Service interface {
	Me(ctx context.Context, userUID string) (*auth.UserView, error)
}

// Handler обрабатывает GET /auth/me.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Tags Auth
// @Produce  json
// @Success 200 {object} auth.UserView
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"
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

	user, err := h.service.Me(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get user", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, user)
}
