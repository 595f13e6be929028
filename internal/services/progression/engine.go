// Package progression начисляет опыт, повышает уровни и ведёт стрики.
//
// Engine и StreakTracker мутируют переданного *models.User в рамках транзакции
// вызывающего кода; сохранение агрегата остаётся за ним. Одновременно для
// одного пользователя должен работать не больше одного писателя.
package progression

import (
	"context"
	"log/slog"
	"math"

	"github.com/magabrotheeeer/habit-progression/internal/models"
)

const (
	baseThreshold = 500
	// MaxLevel — последний уровень. Порог на нём не растёт, опыт копится до
	// XPToNextLevel-1.
	MaxLevel = 50
	// LevelHookThreshold — уровень, начиная с которого вызывается LevelHook.
	LevelHookThreshold = 10
)

// LevelHook вызывается после начисления, если уровень пользователя
// не меньше LevelHookThreshold. Используется реестром достижений для level_10.
type LevelHook func(ctx context.Context, user *models.User) error

// Emitter принимает заметные события прогресса для отложенной публикации.
type Emitter interface {
	Emit(event models.Event)
}

// AwardResult — итог начисления опыта.
type AwardResult struct {
	AmountAwarded int  `json:"xp_awarded"`
	NewLevel      int  `json:"new_level"`
	LeveledUp     bool `json:"level_up"`
	RemainingXP   int  `json:"current_xp"`
	XPToNextLevel int  `json:"xp_to_next_level"`
}

// Engine начисляет опыт и разрешает повышения уровня.
type Engine struct {
	log     *slog.Logger
	events  Emitter
	onLevel LevelHook
}

// NewEngine создает Engine. events может быть nil.
func NewEngine(log *slog.Logger, events Emitter) *Engine {
	return &Engine{
		log:    log,
		events: events,
	}
}

// OnLevel регистрирует обработчик, вызываемый после мутации при level >= 10.
func (e *Engine) OnLevel(hook LevelHook) {
	e.onLevel = hook
}

// XPForLevel возвращает порог опыта для перехода с уровня level на следующий.
func XPForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return baseThreshold << (level - 1)
}

// Award прибавляет amount к опыту пользователя. За один вызов можно
// пройти несколько порогов. Нулевое или отрицательное amount ничего не меняет.
// Ошибка возможна только из LevelHook.
func (e *Engine) Award(ctx context.Context, user *models.User, amount int) (*AwardResult, error) {
	const op = "services.progression.Award"

	normalize(user)
	if amount < 0 {
		amount = 0
	}
	if amount > math.MaxInt-user.XP {
		amount = math.MaxInt - user.XP
	}

	startLevel := user.Level
	user.XP += amount
	leveledUp := false
	for user.Level < MaxLevel && user.XP >= user.XPToNextLevel {
		user.XP -= user.XPToNextLevel
		user.Level++
		user.XPToNextLevel = XPForLevel(user.Level)
		leveledUp = true
	}
	capXP(user)

	if leveledUp {
		e.log.Info("user leveled up",
			slog.String("op", op),
			slog.String("user_uid", user.UUID),
			slog.Int("from", startLevel),
			slog.Int("to", user.Level),
		)
		e.emit(models.Event{
			Type:    models.EventLevelUp,
			UserUID: user.UUID,
			TgID:    user.TgID,
			Payload: map[string]any{"level": user.Level, "previous_level": startLevel},
		})
	}

	result := &AwardResult{
		AmountAwarded: amount,
		NewLevel:      user.Level,
		LeveledUp:     leveledUp,
		RemainingXP:   user.XP,
		XPToNextLevel: user.XPToNextLevel,
	}

	if user.Level >= LevelHookThreshold && e.onLevel != nil {
		if err := e.onLevel(ctx, user); err != nil {
			return result, err
		}
		// бонус за достижение мог поднять уровень ещё раз
		result.NewLevel = user.Level
		result.LeveledUp = user.Level > startLevel
		result.RemainingXP = user.XP
		result.XPToNextLevel = user.XPToNextLevel
	}

	return result, nil
}

func (e *Engine) emit(event models.Event) {
	if e.events != nil {
		e.events.Emit(event)
	}
}

// normalize чинит агрегат, пришедший из хранилища с нулевыми значениями.
func normalize(user *models.User) {
	if user.Level < 1 {
		user.Level = 1
	}
	if user.Level > MaxLevel {
		user.Level = MaxLevel
	}
	if user.XP < 0 {
		user.XP = 0
	}
	if want := XPForLevel(user.Level); user.XPToNextLevel != want {
		user.XPToNextLevel = want
	}
	capXP(user)
}

// capXP держит xp < xp_to_next_level на последнем уровне.
func capXP(user *models.User) {
	if user.Level >= MaxLevel && user.XP >= user.XPToNextLevel {
		user.XP = user.XPToNextLevel - 1
	}
}
