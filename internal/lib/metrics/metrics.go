// Package metrics содержит Prometheus-метрики сервиса и middleware для HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "habit_progression"

var (
	// Registry хранит коллекторы сервиса.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	xpAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "progression",
			Name:      "xp_awarded_total",
			Help:      "Total experience awarded to users.",
		},
	)

	levelUps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "progression",
			Name:      "level_ups_total",
			Help:      "Total number of level-up transitions.",
		},
	)

	achievementsUnlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "progression",
			Name:      "achievements_unlocked_total",
			Help:      "Achievements unlocked, by code.",
		},
		[]string{"code"},
	)

	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Progression events handed to the broker, by type and result.",
		},
		[]string{"type", "result"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		xpAwarded,
		levelUps,
		achievementsUnlocked,
		eventsPublished,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler отдаёт метрики из Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// XPAwarded учитывает начисленный опыт.
func XPAwarded(amount int) {
	if amount > 0 {
		xpAwarded.Add(float64(amount))
	}
}

// LevelUp учитывает повышение уровня.
func LevelUp() { levelUps.Inc() }

// AchievementUnlocked учитывает выданное достижение.
func AchievementUnlocked(code string) { achievementsUnlocked.WithLabelValues(code).Inc() }

// EventPublished учитывает попытку публикации события.
func EventPublished(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	eventsPublished.WithLabelValues(eventType, result).Inc()
}

// Middleware собирает метрики запросов по шаблону маршрута chi.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
