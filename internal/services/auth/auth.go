// Package auth содержит вход через Telegram Mini App, онбординг
// и редактирование параметров тела пользователя.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/habit-progression/internal/lib/initdata"
	"github.com/magabrotheeeer/habit-progression/internal/lib/jwt"
	"github.com/magabrotheeeer/habit-progression/internal/lib/norms"
	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
	"github.com/magabrotheeeer/habit-progression/internal/models"
	"github.com/magabrotheeeer/habit-progression/internal/services/entitlement"
	"github.com/magabrotheeeer/habit-progression/internal/storage"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser создаёт пользователя или возвращает uid существующего с тем же tg_id.
	CreateUser(ctx context.Context, user *models.User) (string, error)
	// GetUser возвращает пользователя или models.ErrUserNotFound.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// InUserTx изменяет пользователя под блокировкой строки.
	InUserTx(ctx context.Context, userUID string, fn storage.TxFunc) error
}

// HandshakeValidator проверяет initData из Telegram.
type HandshakeValidator interface {
	Validate(initData string) (*initdata.Result, error)
}

// Service отвечает за вход, онбординг и профиль.
type Service struct {
	users     UserRepository
	handshake HandshakeValidator
	jwtMaker  jwt.Maker
	log       *slog.Logger
	now       func() time.Time
}

// NewService создает новый экземпляр Service.
func NewService(users UserRepository, handshake HandshakeValidator, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		users:     users,
		handshake: handshake,
		jwtMaker:  jwtMaker,
		log:       log,
		now:       time.Now,
	}
}

// WithClock подменяет источник времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// UserView — пользователь в ответах API.
type UserView struct {
	UID                   string     `json:"id"`
	TgID                  int64      `json:"tg_id"`
	Username              string     `json:"username"`
	FirstName             string     `json:"first_name"`
	Goal                  string     `json:"goal"`
	Gender                string     `json:"gender,omitempty"`
	Age                   int        `json:"age,omitempty"`
	WeightKg              float64    `json:"weight_kg,omitempty"`
	HeightCm              float64    `json:"height_cm,omitempty"`
	TargetWeightKg        *float64   `json:"target_weight_kg"`
	ActivityLevel         string     `json:"activity_level,omitempty"`
	DailyCalories         int        `json:"daily_calories"`
	DailyProteinG         int        `json:"daily_protein_g"`
	DailyFatG             int        `json:"daily_fat_g"`
	DailyCarbsG           int        `json:"daily_carbs_g"`
	Level                 int        `json:"level"`
	XP                    int        `json:"xp"`
	XPToNextLevel         int        `json:"xp_to_next_level"`
	StreakDays            int        `json:"streak_days"`
	MaxStreakDays         int        `json:"max_streak_days"`
	SubscriptionStatus    string     `json:"subscription_status"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
	OnboardingCompleted   bool       `json:"onboarding_completed"`
}

// NewUserView строит представление пользователя.
func NewUserView(u *models.User) *UserView {
	return &UserView{
		UID:                   u.UUID,
		TgID:                  u.TgID,
		Username:              u.Username,
		FirstName:             u.FirstName,
		Goal:                  u.Goal,
		Gender:                u.Gender,
		Age:                   u.Age,
		WeightKg:              u.WeightKg,
		HeightCm:              u.HeightCm,
		TargetWeightKg:        u.TargetWeightKg,
		ActivityLevel:         u.ActivityLevel,
		DailyCalories:         u.DailyCalories,
		DailyProteinG:         u.DailyProteinG,
		DailyFatG:             u.DailyFatG,
		DailyCarbsG:           u.DailyCarbsG,
		Level:                 u.Level,
		XP:                    u.XP,
		XPToNextLevel:         u.XPToNextLevel,
		StreakDays:            u.StreakDays,
		MaxStreakDays:         u.MaxStreakDays,
		SubscriptionStatus:    u.SubscriptionStatus,
		SubscriptionExpiresAt: u.SubscriptionExpiresAt,
		OnboardingCompleted:   u.OnboardingCompleted,
	}
}

// LoginResult — выпущенный токен и профиль.
type LoginResult struct {
	Token string    `json:"access_token"`
	User  *UserView `json:"user"`
}

// OnboardingResult — рассчитанные нормы и открытый пробный период.
type OnboardingResult struct {
	Norms norms.Norms        `json:"norms"`
	Trial entitlement.Status `json:"trial"`
}

// Login проверяет initData, находит или создаёт пользователя по tg_id
// и выпускает сессионный токен.
func (s *Service) Login(ctx context.Context, rawInitData string) (*LoginResult, error) {
	const op = "services.auth.Login"

	res, err := s.handshake.Validate(rawInitData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if res.User == nil || res.User.ID == 0 {
		return nil, fmt.Errorf("%s: %w: missing telegram user id", op, models.ErrValidation)
	}

	uid, err := s.users.CreateUser(ctx, models.NewUser(res.User.ID, res.User.Username, res.User.FirstName))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.UUID, user.TgID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user logged in", slog.String("op", op), sl.UserUID(user.UUID), slog.Int64("tg_id", user.TgID))
	return &LoginResult{Token: token, User: NewUserView(user)}, nil
}

// Onboarding сохраняет параметры тела, рассчитывает нормы и открывает
// пробный период, если он ещё не выдавался. Повторный онбординг статус
// подписки не меняет.
func (s *Service) Onboarding(ctx context.Context, userUID string, in models.DummyOnboarding) (*OnboardingResult, error) {
	const op = "services.auth.Onboarding"

	res := &OnboardingResult{}
	err := s.users.InUserTx(ctx, userUID, func(_ context.Context, _ storage.Tx, user *models.User) error {
		res.Norms = applyBody(user, in)
		user.OnboardingCompleted = true

		now := s.now()
		if entitlement.TrialAvailable(user) {
			entitlement.StartTrial(user, now)
		}
		res.Trial = entitlement.DeriveStatus(user, now)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// UpdateProfile обновляет параметры тела и пересчитывает нормы.
func (s *Service) UpdateProfile(ctx context.Context, userUID string, in models.DummyOnboarding) (*norms.Norms, error) {
	const op = "services.auth.UpdateProfile"

	var n norms.Norms
	err := s.users.InUserTx(ctx, userUID, func(_ context.Context, _ storage.Tx, user *models.User) error {
		n = applyBody(user, in)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &n, nil
}

// Me возвращает профиль пользователя.
func (s *Service) Me(ctx context.Context, userUID string) (*UserView, error) {
	const op = "services.auth.Me"

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewUserView(user), nil
}

func applyBody(user *models.User, in models.DummyOnboarding) norms.Norms {
	user.Goal = in.Goal
	user.Gender = in.Gender
	user.Age = in.Age
	user.WeightKg = in.WeightKg
	user.HeightCm = in.HeightCm
	user.TargetWeightKg = in.TargetWeightKg
	user.ActivityLevel = in.ActivityLevel

	n := norms.Calculate(norms.Params{
		Gender:        in.Gender,
		WeightKg:      in.WeightKg,
		HeightCm:      in.HeightCm,
		Age:           in.Age,
		ActivityLevel: in.ActivityLevel,
		Goal:          in.Goal,
	})
	user.DailyCalories = n.Calories
	user.DailyProteinG = n.ProteinG
	user.DailyFatG = n.FatG
	user.DailyCarbsG = n.CarbsG
	return n
}
