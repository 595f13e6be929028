// Package login реализует HTTP-обработчик входа через Telegram Mini App.
//
// Handler принимает строку initData, передаёт её сервису аутентификации
// и возвращает сессионный токен вместе с профилем пользователя.
package login

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/habit-progression/internal/http/response"
	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
	"github.com/magabrotheeeer/habit-progression/internal/services/auth"
)

// Service описывает интерфейс сервиса аутентификации.
type Service interface {
	Login(ctx context.Context, initData string) (*auth.LoginResult, error)
}

// Request — тело запроса входа.
type Request struct {
	InitData string `json:"initData" validate:"required"`
}

// Handler обрабатывает вход пользователя.
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
// @Summary Вход через Telegram
// @Description Проверяет подпись initData, создаёт пользователя при первом входе и выдаёт JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "initData из Telegram WebApp"
// @Success 200 {object} auth.LoginResult
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись или устаревший auth_date"
// @Router /auth/telegram [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
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

	res, err := h.service.Login(r.Context(), req.InitData)
	if err != nil {
		log.Warn("login failed", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	log.Info("user logged in", sl.UserUID(res.User.UID))
	render.JSON(w, r, res)
}
