package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/notify"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository/memstore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Воскресенье; 2024-11-11 - понедельник
var testNow = time.Date(2024, 11, 10, 12, 0, 0, 0, time.UTC)

func monday(hour, minute int) time.Time {
	return time.Date(2024, 11, 11, hour, minute, 0, 0, time.UTC)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

type fixture struct {
	ctx      context.Context
	store    *memstore.Store
	notifier *recordingNotifier

	availability *AvailabilityService
	booking      *BookingService
	extension    *ExtensionService

	alice, bob, carol, dave *model.User
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithMode(t, ShiftOverlap)
}

func newFixtureWithMode(t *testing.T, mode ShiftMode) *fixture {
	t.Helper()

	ctx := context.Background()
	store := memstore.New()
	logger := zap.NewNop()
	notifier := &recordingNotifier{}
	clock := func() time.Time { return testNow }

	require.NoError(t, store.Repos().Categories.Create(ctx, &model.MeetingCategory{
		ID:   DefaultFocusCategoryID,
		Name: "Focus Time",
	}))

	f := &fixture{
		ctx:          ctx,
		store:        store,
		notifier:     notifier,
		availability: NewAvailabilityService(store, DefaultFocusCategoryID, clock, logger),
		booking:      NewBookingService(store, notifier, DefaultFocusCategoryID, clock, logger),
		extension:    NewExtensionService(store, notifier, mode, clock, logger),
	}

	f.alice = f.user(t, "alice", "UTC")
	f.bob = f.user(t, "bob", "UTC")
	f.carol = f.user(t, "carol", "UTC")
	f.dave = f.user(t, "dave", "UTC")

	return f
}

func (f *fixture) user(t *testing.T, name, tz string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Timezone: tz}
	require.NoError(t, f.store.Repos().Users.Create(f.ctx, u))
	return u
}

func (f *fixture) window(t *testing.T, owner *model.User, day int, start, end string) {
	t.Helper()
	res, err := f.availability.BulkCreate(f.ctx, owner.ID, []model.AvailabilityDayInput{{
		DayOfWeek: day,
		Slots:     []model.AvailabilitySlotInput{{StartTime: start, EndTime: end}},
	}}, true)
	require.NoError(t, err)
	require.NotEmpty(t, res.Created)
}

func (f *fixture) book(t *testing.T, organizer, attendee *model.User, start, end string) *model.Meeting {
	t.Helper()
	m, err := f.booking.Schedule(f.ctx, ScheduleRequest{
		OrganizerID: organizer.ID,
		AttendeeID:  attendee.ID,
		Title:       "Sync",
		StartTime:   start,
		EndTime:     end,
	})
	require.NoError(t, err)
	return m
}

// insertMeeting кладёт встречу напрямую в хранилище, минуя проверки доступности
func (f *fixture) insertMeeting(t *testing.T, organizer, attendee *model.User, start, end time.Time) *model.Meeting {
	t.Helper()
	m := &model.Meeting{
		OrganizerID: organizer.ID,
		Title:       "External",
		StartTime:   start,
		EndTime:     end,
		Status:      model.MeetingStatusScheduled,
		Priority:    model.PriorityMedium,
	}
	require.NoError(t, f.store.Repos().Meetings.Create(f.ctx, m))
	require.NoError(t, f.store.Repos().Attendees.Create(f.ctx, &model.MeetingAttendee{MeetingID: m.ID, UserID: attendee.ID}))
	return m
}

func (f *fixture) meeting(t *testing.T, m *model.Meeting) *model.Meeting {
	t.Helper()
	got, err := f.store.Repos().Meetings.GetByID(f.ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	return got
}

func requireKind(t *testing.T, err error, kind apperror.Kind) *apperror.Error {
	t.Helper()
	require.Error(t, err)
	e, ok := apperror.As(err)
	require.True(t, ok, "expected apperror, got %v", err)
	require.Equal(t, kind, e.Kind, "unexpected error: %v", err)
	return e
}
