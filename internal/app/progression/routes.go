// Package progression собирает HTTP-приложение трекера привычек.
package progression

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/habit-progression/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/habit-progression/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/habit-progression/internal/http/handlers/auth/onboarding"
	"github.com/magabrotheeeer/habit-progression/internal/http/handlers/auth/profile"
	"github.com/magabrotheeeer/habit-progression/internal/http/handlers/food/logcreate"
	"github.com/magabrotheeeer/habit-progression/internal/http/handlers/food/loglist"
	"github.com/magabrotheeeer/habit-progression/internal/http/handlers/gamification/achievements"
	"github.com/magabrotheeeer/habit-progression/internal/http/handlers/gamification/dailybonus"
	gamificationprofile "github.com/magabrotheeeer/habit-progression/internal/http/handlers/gamification/profile"
	"github.com/magabrotheeeer/habit-progression/internal/http/handlers/health"
	"github.com/magabrotheeeer/habit-progression/internal/http/handlers/subscription/status"
	"github.com/magabrotheeeer/habit-progression/internal/http/handlers/subscription/webhook"
	"github.com/magabrotheeeer/habit-progression/internal/http/handlers/weight/history"
	weightlog "github.com/magabrotheeeer/habit-progression/internal/http/handlers/weight/logcreate"
	"github.com/magabrotheeeer/habit-progression/internal/http/handlers/workout/create"
	"github.com/magabrotheeeer/habit-progression/internal/http/middlewarectx"
	"github.com/magabrotheeeer/habit-progression/internal/lib/metrics"
	"github.com/magabrotheeeer/habit-progression/internal/services/activity"
	"github.com/magabrotheeeer/habit-progression/internal/services/auth"
)

// Deps — зависимости маршрутов.
type Deps struct {
	Auth          *auth.Service
	Activity      *activity.Service
	Tokens        middlewarectx.TokenParser
	Limiter       *middlewarectx.Limiter
	WebhookSecret string
	DB            health.Pinger // может быть nil
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/telegram", login.New(logger, d.Auth).ServeHTTP)
		r.Post("/subscription/webhook", webhook.New(logger, d.Activity, d.WebhookSecret).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Tokens, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, d.Limiter))

			r.Post("/auth/onboarding", onboarding.New(logger, d.Auth).ServeHTTP)
			r.Put("/auth/profile", profile.New(logger, d.Auth).ServeHTTP)
			r.Get("/auth/me", me.New(logger, d.Auth).ServeHTTP)

			r.Post("/food/log", logcreate.New(logger, d.Activity).ServeHTTP)
			r.Get("/food/log", loglist.New(logger, d.Activity).ServeHTTP)
			r.Post("/workouts", create.New(logger, d.Activity).ServeHTTP)
			r.Post("/weight/log", weightlog.New(logger, d.Activity).ServeHTTP)
			r.With(middlewarectx.PremiumMiddleware(logger, d.Activity, middlewarectx.PeriodBeyond30d)).
				Get("/weight/history", history.New(logger, d.Activity).ServeHTTP)

			r.Get("/gamification/profile", gamificationprofile.New(logger, d.Activity).ServeHTTP)
			r.Get("/gamification/achievements", achievements.New(logger, d.Activity).ServeHTTP)
			r.Post("/gamification/daily-bonus", dailybonus.New(logger, d.Activity).ServeHTTP)

			r.Get("/subscription/status", status.New(logger, d.Activity).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, d.DB).ServeHTTP)
	r.Handle("/metrics", metrics.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
