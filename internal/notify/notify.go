// Package notify рассылает события жизненного цикла встреч после коммита.
// Ошибка доставки никогда не откатывает уже сохранённое изменение.
package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type EventType string

const (
	EventScheduled   EventType = "scheduled"
	EventExtended    EventType = "extended"
	EventRescheduled EventType = "rescheduled"
	EventCancelled   EventType = "cancelled"
	EventResponded   EventType = "responded"
)

// Recipient - участник, которому адресовано событие
type Recipient struct {
	UserID     int64  `msgpack:"user_id"`
	Name       string `msgpack:"name"`
	TelegramID *int64 `msgpack:"-"`
	Timezone   string `msgpack:"timezone"`
}

type Event struct {
	Type        EventType   `msgpack:"type"`
	MeetingID   string      `msgpack:"meeting_id"`
	Title       string      `msgpack:"title"`
	Start       time.Time   `msgpack:"start"`
	End         time.Time   `msgpack:"end"`
	ActorID     int64       `msgpack:"actor_id"`
	Reason      string      `msgpack:"reason,omitempty"`
	Recipients  []Recipient `msgpack:"recipients"`
	OccurredAt  time.Time   `msgpack:"occurred_at"`
	CascadeFrom string      `msgpack:"cascade_from,omitempty"` // id встречи, продление которой сдвинуло эту
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Nop - уведомления выключены
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Multi рассылает событие во все каналы и логирует отказы
type Multi struct {
	notifiers []Notifier
	logger    *zap.Logger
}

func NewMulti(logger *zap.Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, logger: logger}
}

func (m *Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			m.logger.Warn("Failed to deliver notification",
				zap.String("event", string(event.Type)),
				zap.String("meeting_id", event.MeetingID),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
