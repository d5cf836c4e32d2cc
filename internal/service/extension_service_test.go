package service

import (
	"testing"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/notify"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// back-to-back: 10:00-11:00 с bob, затем 11:30-12:00 с carol
func (f *fixture) backToBack(t *testing.T) (primary, next *model.Meeting) {
	t.Helper()
	f.window(t, f.alice, 0, "09:00", "17:00")
	primary = f.book(t, f.alice, f.bob, "2024-11-11T10:00", "2024-11-11T11:00")
	next = f.book(t, f.alice, f.carol, "2024-11-11T11:30", "2024-11-11T12:00")
	return primary, next
}

func (f *fixture) extend(primary *model.Meeting, requester *model.User, newEnd string) (*ExtendResult, error) {
	return f.extension.Extend(f.ctx, ExtendRequest{
		MeetingID:   primary.ID,
		RequesterID: requester.ID,
		NewEndTime:  newEnd,
		Reason:      "running late",
	})
}

func TestExtendShiftsNextMeeting(t *testing.T) {
	f := newFixture(t)
	primary, next := f.backToBack(t)

	res, err := f.extend(primary, f.alice, "2024-11-11T11:45")
	require.NoError(t, err)

	assert.Equal(t, monday(11, 45), res.Meeting.EndTime)
	assert.Equal(t, model.MeetingStatusExtended, res.Meeting.Status)
	require.NotNil(t, res.Meeting.ExtendedEndTime)
	assert.Equal(t, monday(11, 45), *res.Meeting.ExtendedEndTime)

	require.NotNil(t, res.Shifted)
	assert.Equal(t, next.ID, res.Shifted.ID)

	stored := f.meeting(t, next)
	assert.Equal(t, monday(11, 45), stored.StartTime)
	assert.Equal(t, monday(12, 15), stored.EndTime)
	assert.Equal(t, model.MeetingStatusRescheduled, stored.Status)

	history := f.store.History()
	require.Len(t, history, 2)
	assert.Equal(t, model.EditTypeExtended, history[0].EditType)
	assert.Equal(t, primary.ID, history[0].MeetingID)
	assert.Equal(t, model.TimeRange{Start: monday(10, 0), End: monday(11, 0)}, history[0].OriginalTimes)
	require.NotNil(t, history[0].NewTimes)
	assert.Equal(t, monday(11, 45), history[0].NewTimes.End)
	assert.Equal(t, model.EditTypeRescheduled, history[1].EditType)
	assert.Equal(t, next.ID, history[1].MeetingID)

	events := f.notifier.Events()
	require.Len(t, events, 4)
	assert.Equal(t, notify.EventExtended, events[2].Type)
	assert.Equal(t, notify.EventRescheduled, events[3].Type)
	assert.Equal(t, primary.ID.String(), events[3].CascadeFrom)
}

func TestExtendCascadeConflictChangesNothing(t *testing.T) {
	f := newFixture(t)
	primary, next := f.backToBack(t)
	f.insertMeeting(t, f.dave, f.carol, monday(11, 50), monday(12, 10))

	_, err := f.extend(primary, f.alice, "2024-11-11T11:45")
	e := requireKind(t, err, apperror.KindCascadeConflict)
	assert.Equal(t, []int64{f.carol.ID}, e.UserIDs)

	storedPrimary := f.meeting(t, primary)
	assert.Equal(t, monday(11, 0), storedPrimary.EndTime)
	assert.Equal(t, model.MeetingStatusScheduled, storedPrimary.Status)
	assert.Nil(t, storedPrimary.ExtendedEndTime)

	storedNext := f.meeting(t, next)
	assert.Equal(t, monday(11, 30), storedNext.StartTime)
	assert.Equal(t, model.MeetingStatusScheduled, storedNext.Status)

	assert.Empty(t, f.store.History())
	assert.Len(t, f.notifier.Events(), 2)
}

func TestExtendRollsBackOnWriteFailure(t *testing.T) {
	f := newFixture(t)
	primary, next := f.backToBack(t)
	f.store.FailOn(memstore.OpMeetingUpdate, apperror.New(apperror.KindInternal, "connection reset"))

	_, err := f.extend(primary, f.alice, "2024-11-11T11:45")
	require.Error(t, err)

	assert.Empty(t, f.store.History())
	assert.Equal(t, monday(11, 0), f.meeting(t, primary).EndTime)
	assert.Equal(t, monday(11, 30), f.meeting(t, next).StartTime)

	f.store.FailOn(memstore.OpMeetingUpdate, nil)
	_, err = f.extend(primary, f.alice, "2024-11-11T11:45")
	require.NoError(t, err)
}

func TestExtendWithoutOverlapLeavesNextMeeting(t *testing.T) {
	f := newFixture(t)
	primary, next := f.backToBack(t)

	res, err := f.extend(primary, f.alice, "2024-11-11T11:15")
	require.NoError(t, err)
	assert.Nil(t, res.Shifted)

	stored := f.meeting(t, next)
	assert.Equal(t, monday(11, 30), stored.StartTime)
	assert.Equal(t, model.MeetingStatusScheduled, stored.Status)
	assert.Len(t, f.store.History(), 1)
}

func TestExtendDeltaMode(t *testing.T) {
	tests := []struct {
		name      string
		newEnd    string
		wantStart time.Time
	}{
		{name: "extension reaches next meeting", newEnd: "2024-11-11T11:45", wantStart: monday(12, 15)},
		{name: "extension stops before next meeting", newEnd: "2024-11-11T11:15", wantStart: monday(11, 45)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixtureWithMode(t, ShiftDelta)
			primary, next := f.backToBack(t)

			res, err := f.extend(primary, f.alice, tt.newEnd)
			require.NoError(t, err)
			require.NotNil(t, res.Shifted)

			stored := f.meeting(t, next)
			assert.Equal(t, tt.wantStart, stored.StartTime)
			assert.Equal(t, tt.wantStart.Add(30*time.Minute), stored.EndTime)
		})
	}
}

func TestExtendConflictForPrimaryParticipant(t *testing.T) {
	f := newFixture(t)
	f.window(t, f.alice, 0, "09:00", "17:00")
	primary := f.book(t, f.alice, f.bob, "2024-11-11T10:00", "2024-11-11T11:00")
	f.insertMeeting(t, f.dave, f.bob, monday(11, 0), monday(11, 30))

	_, err := f.extend(primary, f.alice, "2024-11-11T11:15")
	e := requireKind(t, err, apperror.KindSchedulingConflict)
	assert.Equal(t, []int64{f.bob.ID}, e.UserIDs)
	assert.Empty(t, f.store.History())
}

func TestExtendRejections(t *testing.T) {
	f := newFixture(t)
	primary, _ := f.backToBack(t)

	_, err := f.extend(primary, f.bob, "2024-11-11T11:15")
	requireKind(t, err, apperror.KindForbidden)

	_, err = f.extend(primary, f.alice, "2024-11-11T10:30")
	requireKind(t, err, apperror.KindInvalidExtension)

	_, err = f.extend(primary, f.alice, "2024-11-11T11:00")
	requireKind(t, err, apperror.KindInvalidExtension)

	_, err = f.extend(primary, f.alice, "tomorrow")
	requireKind(t, err, apperror.KindInvalidTimeFormat)

	_, err = f.booking.Cancel(f.ctx, primary.ID, f.alice.ID, "")
	require.NoError(t, err)
	_, err = f.extend(primary, f.alice, "2024-11-11T11:15")
	requireKind(t, err, apperror.KindInvalidExtension)
}

func TestExtendUsesOrganizerTimezone(t *testing.T) {
	f := newFixture(t)
	moscow := f.user(t, "moscow", "Europe/Moscow")
	f.window(t, moscow, 0, "09:00", "20:00")

	// 13:00-14:00 по Москве = 10:00-11:00 UTC
	primary := f.book(t, moscow, f.bob, "2024-11-11T10:00", "2024-11-11T11:00")

	res, err := f.extension.Extend(f.ctx, ExtendRequest{
		MeetingID:   primary.ID,
		RequesterID: moscow.ID,
		NewEndTime:  "2024-11-11T14:30",
	})
	require.NoError(t, err)
	assert.Equal(t, monday(11, 30), res.Meeting.EndTime)
}

func TestReschedule(t *testing.T) {
	f := newFixture(t)
	primary, _ := f.backToBack(t)

	_, err := f.extension.Reschedule(f.ctx, RescheduleRequest{
		MeetingID:    primary.ID,
		RequesterID:  f.bob.ID,
		NewStartTime: "2024-11-11T14:00",
		NewEndTime:   "2024-11-11T14:30",
	})
	requireKind(t, err, apperror.KindForbidden)

	_, err = f.extension.Reschedule(f.ctx, RescheduleRequest{
		MeetingID:    primary.ID,
		RequesterID:  f.alice.ID,
		NewStartTime: "2024-11-11T11:15",
		NewEndTime:   "2024-11-11T11:45",
	})
	e := requireKind(t, err, apperror.KindSchedulingConflict)
	assert.Equal(t, []int64{f.alice.ID}, e.UserIDs)

	_, err = f.extend(primary, f.alice, "2024-11-11T11:15")
	require.NoError(t, err)

	m, err := f.extension.Reschedule(f.ctx, RescheduleRequest{
		MeetingID:    primary.ID,
		RequesterID:  f.alice.ID,
		NewStartTime: "2024-11-11T14:00",
		NewEndTime:   "2024-11-11T14:30",
		Reason:       "room taken",
	})
	require.NoError(t, err)
	assert.Equal(t, model.MeetingStatusRescheduled, m.Status)
	assert.Nil(t, m.ExtendedEndTime)

	stored := f.meeting(t, primary)
	assert.Equal(t, monday(14, 0), stored.StartTime)
	assert.Equal(t, monday(14, 30), stored.EndTime)

	history, err := f.booking.History(f.ctx, primary.ID, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.EditTypeRescheduled, history[1].EditType)
	assert.Equal(t, monday(10, 0), history[1].OriginalTimes.Start)
	assert.Equal(t, monday(11, 15), history[1].OriginalTimes.End)
}

func TestParseShiftMode(t *testing.T) {
	mode, err := ParseShiftMode("")
	require.NoError(t, err)
	assert.Equal(t, ShiftOverlap, mode)

	mode, err = ParseShiftMode("delta")
	require.NoError(t, err)
	assert.Equal(t, ShiftDelta, mode)

	_, err = ParseShiftMode("push")
	assert.Error(t, err)
}
