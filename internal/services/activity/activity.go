// Package activity связывает действия пользователя (еда, тренировки, вес,
// ежедневный бонус, оплата) с движком прогресса. Каждое действие выполняется
// в одной транзакции пользователя, события публикуются после её фиксации.
package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/habit-progression/internal/lib/metrics"
	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
	"github.com/magabrotheeeer/habit-progression/internal/models"
	"github.com/magabrotheeeer/habit-progression/internal/services/achievements"
	"github.com/magabrotheeeer/habit-progression/internal/services/notifier"
	"github.com/magabrotheeeer/habit-progression/internal/services/progression"
	"github.com/magabrotheeeer/habit-progression/internal/storage"
)

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// Notifier публикует зафиксированные события.
type Notifier interface {
	Flush(ctx context.Context, events []models.Event)
}

// Service выполняет действия пользователя.
type Service struct {
	store      storage.Storage
	cache      Cache
	notifier   Notifier
	log        *slog.Logger
	profileTTL time.Duration
	now        func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithCache включает кэш профиля геймификации.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.profileTTL = ttl
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService создает Service.
func NewService(store storage.Storage, n Notifier, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		notifier:   n,
		log:        log,
		profileTTL: 5 * time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// session — движок, реестр и трекер, собранные поверх одной транзакции.
type session struct {
	tx       storage.Tx
	engine   *progression.Engine
	registry *achievements.Registry
	streak   *progression.StreakTracker
	events   *notifier.Buffer
	// awarded — опыт, начисленный за действие вместе с бонусами достижений.
	awarded int
}

func (s *Service) newSession(tx storage.Tx) *session {
	buf := notifier.NewBuffer(s.now)
	engine := progression.NewEngine(s.log, buf)
	registry := achievements.NewRegistry(tx, engine, buf, s.log, s.now)
	engine.OnLevel(registry.CheckLevel)
	return &session{
		tx:       tx,
		engine:   engine,
		registry: registry,
		streak:   progression.NewStreakTracker(registry, buf),
		events:   buf,
	}
}

// inTx выполняет fn в транзакции пользователя и после фиксации
// сбрасывает кэш профиля и публикует события.
func (s *Service) inTx(ctx context.Context, userUID string, fn func(ctx context.Context, sess *session, user *models.User) error) error {
	var sess *session
	err := s.store.InUserTx(ctx, userUID, func(ctx context.Context, tx storage.Tx, user *models.User) error {
		sess = s.newSession(tx)
		return fn(ctx, sess, user)
	})
	if err != nil {
		return err
	}

	s.invalidateProfile(ctx, userUID)
	metrics.XPAwarded(sess.awarded)
	events := sess.events.Events()
	for _, e := range events {
		switch e.Type {
		case models.EventLevelUp:
			metrics.LevelUp()
		case models.EventAchievementUnlocked:
			if code, ok := e.Payload["code"].(string); ok {
				metrics.AchievementUnlocked(code)
			}
		}
	}
	if s.notifier != nil && len(events) > 0 {
		s.notifier.Flush(ctx, events)
	}
	return nil
}

func (s *Service) invalidateProfile(ctx context.Context, userUID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, profileKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate profile cache", sl.UserUID(userUID), sl.Err(err))
	}
}

func (s *Service) today() time.Time {
	return progression.Date(s.now().UTC())
}

func profileKey(userUID string) string {
	return "profile:" + userUID
}
