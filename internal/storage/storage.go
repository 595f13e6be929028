// Package storage описывает контракт хранилища, которого требует движок
// прогресса: транзакция на одного пользователя с блокировкой его строки и
// уникальными ограничениями на достижения и платежи.
//
// Реализации: repository (PostgreSQL) и memory (для тестов и локального запуска).
package storage

import (
	"context"
	"time"

	"github.com/magabrotheeeer/habit-progression/internal/models"
)

// Tx — операции внутри транзакции пользователя. Строка пользователя
// заблокирована до фиксации, поэтому все read-modify-write над его
// счётчиками выполняются последовательно.
type Tx interface {
	HasAchievement(ctx context.Context, userUID, code string) (bool, error)
	InsertAchievement(ctx context.Context, achievement models.Achievement) (bool, error)

	InsertFoodLog(ctx context.Context, entry *models.FoodLog) (string, error)
	MealTypesOn(ctx context.Context, userUID string, day time.Time) ([]string, error)
	CountFoodLogDays(ctx context.Context, userUID string) (int, error)

	GetWorkoutByDate(ctx context.Context, userUID string, day time.Time) (*models.Workout, error)
	SaveWorkout(ctx context.Context, workout *models.Workout) (string, error)
	CountCompletedWorkouts(ctx context.Context, userUID string) (int, error)

	UpsertWeightLog(ctx context.Context, entry *models.WeightLog) (string, error)

	// InsertPayment добавляет платёж. false — платёж с таким
	// TelegramPaymentID уже записан.
	InsertPayment(ctx context.Context, payment models.Payment) (bool, error)
}

// TxFunc — тело транзакции. user уже заблокирован и будет сохранён
// после успешного возврата.
type TxFunc func(ctx context.Context, tx Tx, user *models.User) error

// Storage — хранилище пользователей и их активности.
type Storage interface {
	// InUserTx блокирует пользователя userUID, выполняет fn и сохраняет
	// изменённый агрегат в той же транзакции. Ошибка fn откатывает всё.
	InUserTx(ctx context.Context, userUID string, fn TxFunc) error

	CreateUser(ctx context.Context, user *models.User) (string, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByTgID(ctx context.Context, tgID int64) (*models.User, error)
	ListAchievements(ctx context.Context, userUID string) ([]models.Achievement, error)
	// ListFoodLogs возвращает записи о еде за календарный день day (UTC).
	ListFoodLogs(ctx context.Context, userUID string, day time.Time) ([]models.FoodLog, error)
	WeightHistory(ctx context.Context, userUID string, since time.Time) ([]models.WeightLog, error)
}
