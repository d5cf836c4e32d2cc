package repository

import (
	"context"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/google/uuid"
)

// Интерфейсы хранилищ, от которых зависят сервисы.
// Реализации: PostgreSQL в этом пакете и in-memory в memstore (для тестов).
// Get-методы возвращают (nil, nil), если запись не найдена.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error)
	UpdateTimezone(ctx context.Context, id int64, timezone string) error
}

type CategoryStore interface {
	Create(ctx context.Context, category *model.MeetingCategory) error
	GetByID(ctx context.Context, id int64) (*model.MeetingCategory, error)
	List(ctx context.Context) ([]*model.MeetingCategory, error)
}

type AvailabilityStore interface {
	// Create возвращает apperror с KindValidation при дубликате (owner, day, start, end)
	Create(ctx context.Context, window *model.AvailabilityWindow) error
	GetByID(ctx context.Context, id int64) (*model.AvailabilityWindow, error)
	ListByOwner(ctx context.Context, ownerID int64, activeOnly bool) ([]*model.AvailabilityWindow, error)
	Update(ctx context.Context, window *model.AvailabilityWindow) error
	Delete(ctx context.Context, id int64) error
}

type MeetingStore interface {
	Create(ctx context.Context, meeting *model.Meeting) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Meeting, error)
	// ListActiveForUser - активные встречи, где пользователь организатор или участник,
	// пересекающиеся с [from, to)
	ListActiveForUser(ctx context.Context, userID int64, from, to time.Time) ([]*model.Meeting, error)
	// NextForOrganizer - ближайшая scheduled/rescheduled встреча организатора с началом >= after
	NextForOrganizer(ctx context.Context, organizerID int64, after time.Time, exclude uuid.UUID) (*model.Meeting, error)
	// UpdateSchedule сохраняет время, extended_end_time и статус
	UpdateSchedule(ctx context.Context, meeting *model.Meeting) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.MeetingStatus) error
	// CompleteEndedBefore переводит активные встречи, закончившиеся до now, в completed
	CompleteEndedBefore(ctx context.Context, now time.Time) (int64, error)
}

type AttendeeStore interface {
	Create(ctx context.Context, attendee *model.MeetingAttendee) error
	UpdateResponse(ctx context.Context, attendee *model.MeetingAttendee) error
}

type EditHistoryStore interface {
	Append(ctx context.Context, record *model.EditHistoryRecord) error
	ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*model.EditHistoryRecord, error)
}

// Locker сериализует изменения расписаний пользователей внутри транзакции
type Locker interface {
	LockUsers(ctx context.Context, userIDs ...int64) error
}

// Repositories - набор хранилищ, привязанных к одному исполнителю (пулу или транзакции)
type Repositories struct {
	Users        UserStore
	Categories   CategoryStore
	Availability AvailabilityStore
	Meetings     MeetingStore
	Attendees    AttendeeStore
	History      EditHistoryStore
	Locks        Locker
}

// TxManager выдаёт хранилища вне транзакции и выполняет функцию в транзакции.
// Если fn вернула ошибку, ни одно изменение не применяется.
type TxManager interface {
	Repos() *Repositories
	InTx(ctx context.Context, fn func(repos *Repositories) error) error
}
