package rabbitmq

import "github.com/magabrotheeeer/habit-progression/internal/models"

// QueueConfig — очередь и ключ маршрутизации, с которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetProgressionQueues возвращает очереди событий прогресса.
// Ключ маршрутизации совпадает с типом события.
func GetProgressionQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "progression.level_up", RoutingKey: models.EventLevelUp},
		{QueueName: "progression.achievement_unlocked", RoutingKey: models.EventAchievementUnlocked},
		{QueueName: "progression.streak_milestone", RoutingKey: models.EventStreakMilestone},
	}
}
