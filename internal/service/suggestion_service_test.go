package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/advisor"
	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAdvisor struct {
	suggestions []advisor.Suggestion
	last        advisor.Request
}

func (a *stubAdvisor) Suggest(_ context.Context, req advisor.Request) ([]advisor.Suggestion, error) {
	a.last = req
	return a.suggestions, nil
}

func TestSuggestAnnotatesCandidates(t *testing.T) {
	f := newFixture(t)
	f.window(t, f.alice, 0, "09:00", "17:00")
	m := f.book(t, f.alice, f.bob, "2024-11-11T10:00", "2024-11-11T11:00")
	f.insertMeeting(t, f.dave, f.bob, monday(14, 0), monday(15, 0))

	stub := &stubAdvisor{suggestions: []advisor.Suggestion{
		{Start: monday(12, 0), End: monday(13, 0), Reasoning: "free"},
		{Start: monday(14, 30), End: monday(15, 30), Reasoning: "bob is busy"},
		{Start: monday(18, 0), End: monday(19, 0), Reasoning: "after hours"},
		{Start: monday(10, 30), End: monday(11, 30), Reasoning: "overlaps only itself"},
	}}
	svc := NewSuggestionService(f.store, stub, DefaultFocusCategoryID, func() time.Time { return testNow }, zap.NewNop())

	_, err := svc.Suggest(f.ctx, m.ID, f.bob.ID)
	requireKind(t, err, apperror.KindForbidden)

	got, err := svc.Suggest(f.ctx, m.ID, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.True(t, got[0].ConflictFree)
	assert.True(t, got[0].WithinAvailability)

	assert.False(t, got[1].ConflictFree)
	assert.Equal(t, []int64{f.bob.ID}, got[1].ConflictingUsers)

	assert.True(t, got[2].ConflictFree)
	assert.False(t, got[2].WithinAvailability)

	assert.True(t, got[3].ConflictFree)

	require.Len(t, stub.last.Participants, 2)
	assert.Equal(t, "alice", stub.last.Participants[0].Username)
	require.Len(t, stub.last.Participants[0].Available, 1)
	assert.Equal(t, advisor.Slot{DayOfWeek: 0, Start: "09:00", End: "17:00"}, stub.last.Participants[0].Available[0])
	require.Len(t, stub.last.Participants[1].Blocked, 1)
	assert.Equal(t, "14:00", stub.last.Participants[1].Blocked[0].Start)
	assert.Contains(t, stub.last.CacheKey, m.ID.String())
}

func TestSuggestWithoutAdvisor(t *testing.T) {
	f := newFixture(t)
	svc := NewSuggestionService(f.store, nil, DefaultFocusCategoryID, nil, zap.NewNop())
	assert.False(t, svc.Enabled())
}
