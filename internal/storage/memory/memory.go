// Package memory — хранилище в памяти с той же семантикой транзакций,
// что и PostgreSQL-реализация: транзакции сериализуются, при ошибке
// состояние откатывается целиком.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/habit-progression/internal/models"
	"github.com/magabrotheeeer/habit-progression/internal/storage"
)

type state struct {
	users        map[string]models.User
	achievements map[string]map[string]models.Achievement // user -> code
	foodLogs     []models.FoodLog
	workouts     []models.Workout
	weights      []models.WeightLog
	payments     map[string]models.Payment // telegram payment id
}

// Storage хранит данные в памяти процесса.
type Storage struct {
	mu sync.Mutex
	st state
}

var _ storage.Storage = (*Storage)(nil)

// New создает пустое хранилище.
func New() *Storage {
	return &Storage{st: state{
		users:        map[string]models.User{},
		achievements: map[string]map[string]models.Achievement{},
		payments:     map[string]models.Payment{},
	}}
}

func (s state) clone() state {
	c := state{
		users:        make(map[string]models.User, len(s.users)),
		achievements: make(map[string]map[string]models.Achievement, len(s.achievements)),
		foodLogs:     append([]models.FoodLog(nil), s.foodLogs...),
		workouts:     append([]models.Workout(nil), s.workouts...),
		weights:      append([]models.WeightLog(nil), s.weights...),
		payments:     make(map[string]models.Payment, len(s.payments)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for u, codes := range s.achievements {
		m := make(map[string]models.Achievement, len(codes))
		for code, a := range codes {
			m[code] = a
		}
		c.achievements[u] = m
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	return c
}

// InUserTx выполняет fn под общей блокировкой хранилища.
func (s *Storage) InUserTx(ctx context.Context, userUID string, fn storage.TxFunc) error {
	const op = "storage.memory.InUserTx"
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	u, ok := s.st.users[userUID]
	if !ok {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}

	snapshot := s.st.clone()
	user := u
	if err := fn(ctx, &tx{st: &s.st}, &user); err != nil {
		s.st = snapshot
		return err
	}
	s.st.users[userUID] = user
	return nil
}

// CreateUser добавляет пользователя или возвращает uid существующего с тем же tg_id.
func (s *Storage) CreateUser(_ context.Context, user *models.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for uid, u := range s.st.users {
		if u.TgID == user.TgID {
			return uid, nil
		}
	}
	u := *user
	if u.UUID == "" {
		u.UUID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.st.users[u.UUID] = u
	return u.UUID, nil
}

// GetUser возвращает копию пользователя.
func (s *Storage) GetUser(_ context.Context, userUID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.st.users[userUID]
	if !ok {
		return nil, fmt.Errorf("storage.memory.GetUser: %w", models.ErrUserNotFound)
	}
	return &u, nil
}

// GetUserByTgID ищет пользователя по Telegram id.
func (s *Storage) GetUserByTgID(_ context.Context, tgID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.st.users {
		if u.TgID == tgID {
			found := u
			return &found, nil
		}
	}
	return nil, fmt.Errorf("storage.memory.GetUserByTgID: %w", models.ErrUserNotFound)
}

// ListAchievements возвращает достижения пользователя по времени получения.
func (s *Storage) ListAchievements(_ context.Context, userUID string) ([]models.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Achievement
	for _, a := range s.st.achievements[userUID] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AchievedAt.Before(out[j].AchievedAt) })
	return out, nil
}

// ListFoodLogs возвращает записи о еде за день по времени добавления.
func (s *Storage) ListFoodLogs(_ context.Context, userUID string, day time.Time) ([]models.FoodLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.FoodLog
	for _, f := range s.st.foodLogs {
		if f.UserUID == userUID && sameDay(f.LoggedAt, day) {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LoggedAt.Before(out[j].LoggedAt) })
	return out, nil
}

// WeightHistory возвращает замеры начиная с since по возрастанию даты.
func (s *Storage) WeightHistory(_ context.Context, userUID string, since time.Time) ([]models.WeightLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.WeightLog
	for _, w := range s.st.weights {
		if w.UserUID == userUID && !w.LoggedDate.Before(since) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoggedDate.Before(out[j].LoggedDate) })
	return out, nil
}

// Payments возвращает записанные платежи пользователя.
func (s *Storage) Payments(userUID string) []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Payment
	for _, p := range s.st.payments {
		if p.UserUID == userUID {
			out = append(out, p)
		}
	}
	return out
}
