package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/notify"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository"
	"github.com/Freeeeeet/meeting_scheduler/internal/timezone"
	"go.uber.org/zap"
)

// DefaultFocusCategoryID - категория "время для фокуса", если не задано иное
const DefaultFocusCategoryID int64 = 1

// Clock возвращает текущий момент; подменяется в тестах
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// loadUser получает пользователя и его часовой пояс
func loadUser(ctx context.Context, users repository.UserStore, id int64) (*model.User, *time.Location, error) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, nil, apperror.NotFound("user %d not found", id)
	}

	loc, err := timezone.LoadLocation(user.Timezone)
	if err != nil {
		return nil, nil, err
	}

	return user, loc, nil
}

// recipients собирает адресатов уведомления из уже загруженных пользователей
func recipients(ctx context.Context, users repository.UserStore, ids []int64) []notify.Recipient {
	loaded, err := users.GetByIDs(ctx, ids)
	if err != nil {
		return nil
	}

	out := make([]notify.Recipient, 0, len(ids))
	for _, id := range ids {
		u, ok := loaded[id]
		if !ok {
			continue
		}
		out = append(out, notify.Recipient{
			UserID:     u.ID,
			Name:       u.DisplayName(),
			TelegramID: u.TelegramID,
			Timezone:   u.Timezone,
		})
	}
	return out
}

// meetingEvent строит событие по встрече
func meetingEvent(eventType notify.EventType, m *model.Meeting, actorID int64, reason string, now time.Time) notify.Event {
	return notify.Event{
		Type:       eventType,
		MeetingID:  m.ID.String(),
		Title:      m.Title,
		Start:      m.StartTime,
		End:        m.EndTime,
		ActorID:    actorID,
		Reason:     reason,
		OccurredAt: now,
	}
}

// publish отправляет событие после коммита; ошибки только логируются
func publish(ctx context.Context, n notify.Notifier, users repository.UserStore, logger *zap.Logger, event notify.Event, participants []int64) {
	if n == nil {
		return
	}

	event.Recipients = recipients(ctx, users, participants)
	if err := n.Notify(ctx, event); err != nil {
		logger.Warn("Notification failed",
			zap.String("event", string(event.Type)),
			zap.String("meeting_id", event.MeetingID),
			zap.Error(err),
		)
	}
}

// appendHistory пишет запись журнала в рамках текущей транзакции
func appendHistory(ctx context.Context, repos *repository.Repositories, m *model.Meeting, requestedBy int64,
	editType model.EditType, original model.TimeRange, updated *model.TimeRange, reason string) error {

	record := &model.EditHistoryRecord{
		MeetingID:     m.ID,
		RequestedBy:   requestedBy,
		EditType:      editType,
		OriginalTimes: original,
		NewTimes:      updated,
		Reason:        reason,
	}

	if err := repos.History.Append(ctx, record); err != nil {
		return fmt.Errorf("append edit history: %w", err)
	}
	return nil
}
