// Package notifier доставляет события прогресса в брокер сообщений.
// События копятся в Buffer, пока идёт транзакция пользователя, и
// публикуются только после её фиксации.
package notifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/habit-progression/internal/lib/metrics"
	"github.com/magabrotheeeer/habit-progression/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
	"github.com/magabrotheeeer/habit-progression/internal/models"
)

// Publisher отправляет одно событие.
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// AMQPPublisher публикует события в обменник RabbitMQ с ключом,
// равным типу события.
type AMQPPublisher struct {
	mu       sync.Mutex
	ch       rabbitmq.Channel
	exchange string
}

// NewAMQPPublisher создает AMQPPublisher.
func NewAMQPPublisher(ch rabbitmq.Channel, exchange string) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, exchange: exchange}
}

// Publish публикует событие. Канал AMQP не потокобезопасен, поэтому
// публикации сериализуются.
func (p *AMQPPublisher) Publish(_ context.Context, event models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return rabbitmq.PublishMessage(p.ch, p.exchange, event.Type, event)
}

// LogPublisher только пишет события в лог. Используется, когда брокер не настроен.
type LogPublisher struct {
	Log *slog.Logger
}

// Publish пишет событие в лог.
func (p LogPublisher) Publish(_ context.Context, event models.Event) error {
	p.Log.Info("progression event",
		slog.String("type", event.Type),
		sl.UserUID(event.UserUID),
		slog.Any("payload", event.Payload),
	)
	return nil
}

// Buffer собирает события во время транзакции. Реализует progression.Emitter.
type Buffer struct {
	now    func() time.Time
	events []models.Event
}

// NewBuffer создает пустой Buffer.
func NewBuffer(now func() time.Time) *Buffer {
	if now == nil {
		now = time.Now
	}
	return &Buffer{now: now}
}

// Emit добавляет событие, заполняя идентификатор и время.
func (b *Buffer) Emit(event models.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = b.now()
	}
	b.events = append(b.events, event)
}

// Events возвращает накопленные события.
func (b *Buffer) Events() []models.Event {
	return b.events
}

// Notifier публикует события после фиксации транзакции.
type Notifier struct {
	pub Publisher
	log *slog.Logger
}

// New создает Notifier.
func New(pub Publisher, log *slog.Logger) *Notifier {
	return &Notifier{pub: pub, log: log}
}

// Flush публикует события по порядку. Ошибка доставки не отменяет
// уже зафиксированное действие: она логируется и учитывается в метриках.
func (n *Notifier) Flush(ctx context.Context, events []models.Event) {
	const op = "services.notifier.Flush"

	for _, e := range events {
		err := n.pub.Publish(ctx, e)
		metrics.EventPublished(e.Type, err)
		if err != nil {
			n.log.Error("failed to publish event",
				slog.String("op", op),
				slog.String("type", e.Type),
				sl.UserUID(e.UserUID),
				sl.Err(err),
			)
		}
	}
}
