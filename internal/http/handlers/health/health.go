// Package health реализует проверку готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/habit-progression/internal/http/response"
	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
)

// Pinger проверяет доступность зависимости.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler отвечает на GET /health.
type Handler struct {
	log *slog.Logger
	db  Pinger
}

// New создает Handler. db может быть nil.
func New(log *slog.Logger, db Pinger) *Handler {
	return &Handler{
		log: log,
		db:  db,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.log.Error("database is not reachable", slog.String("op", op), sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("database unavailable"))
			return
		}
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": "ok",
	}))
}
