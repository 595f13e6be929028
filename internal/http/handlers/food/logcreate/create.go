// Package logcreate реализует HTTP-обработчик добавления записи в дневник питания.
//
// За запись начисляется опыт по типу приёма пищи, продлевается стрик
// и проверяются достижения за питание.
package logcreate

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
	"github.com/magabrotheeeer/habit-progression/internal/services/activity"
)

// Service описывает интерфейс бизнес-логики.
type Service interface {
	LogFood(ctx context.Context, userUID string, in models.DummyFoodLog) (*activity.FoodResult, error)
}

// Handler управляет HTTP-запросами на добавление записи о еде.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики
	validate *validator.Validate // Валидатор структуры входящих данных
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
// @Summary Добавить запись о еде
// @Tags Food
// @Accept  json
// @Produce  json
// @Param request body models.DummyFoodLog true "Данные запроса"
// @Success 200 {object} activity.FoodResult
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /food/log [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.food.logcreate"
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

	var req models.DummyFoodLog
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

	res, err := h.service.LogFood(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to log food", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	log.Info("food logged", slog.String("meal_type", res.Entry.MealType), sl.UserUID(userUID), slog.Int("xp_awarded", res.XPAwarded), slog.Bool("level_up", res.LeveledUp))
	render.JSON(w, r, res)
}
