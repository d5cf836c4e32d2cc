package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := New()

	owner := &model.User{Username: "alice"}
	require.NoError(t, store.Repos().Users.Create(ctx, owner))

	boom := errors.New("boom")
	err := store.InTx(ctx, func(repos *repository.Repositories) error {
		w := &model.AvailabilityWindow{OwnerID: owner.ID, DayOfWeek: 0, StartTime: 540, EndTime: 1020, IsActive: true}
		require.NoError(t, repos.Availability.Create(ctx, w))
		return boom
	})
	require.ErrorIs(t, err, boom)

	windows, err := store.Repos().Availability.ListByOwner(ctx, owner.ID, false)
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestAvailabilityDuplicateIsValidationError(t *testing.T) {
	ctx := context.Background()
	store := New()

	w := &model.AvailabilityWindow{OwnerID: 1, DayOfWeek: 2, StartTime: 540, EndTime: 600, IsActive: true}
	require.NoError(t, store.Repos().Availability.Create(ctx, w))

	dup := *w
	dup.ID = 0
	err := store.Repos().Availability.Create(ctx, &dup)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestListActiveForUserIncludesAttendeeMeetings(t *testing.T) {
	ctx := context.Background()
	store := New()
	base := time.Date(2024, 11, 11, 10, 0, 0, 0, time.UTC)

	m := &model.Meeting{OrganizerID: 1, StartTime: base, EndTime: base.Add(time.Hour), Status: model.MeetingStatusScheduled}
	require.NoError(t, store.Repos().Meetings.Create(ctx, m))
	require.NoError(t, store.Repos().Attendees.Create(ctx, &model.MeetingAttendee{MeetingID: m.ID, UserID: 2}))

	cancelled := &model.Meeting{OrganizerID: 2, StartTime: base, EndTime: base.Add(time.Hour), Status: model.MeetingStatusCancelled}
	require.NoError(t, store.Repos().Meetings.Create(ctx, cancelled))

	got, err := store.Repos().Meetings.ListActiveForUser(ctx, 2, base.Add(30*time.Minute), base.Add(45*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, m.ID, got[0].ID)
	require.NotNil(t, got[0].Attendee)
	assert.Equal(t, model.ResponsePending, got[0].Attendee.ResponseStatus)

	got, err = store.Repos().Meetings.ListActiveForUser(ctx, 2, base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got, "touching interval is not a conflict")
}
