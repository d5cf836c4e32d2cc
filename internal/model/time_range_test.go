package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 11, 11, hour, minute, 0, 0, time.UTC)
}

func TestTimeRangeOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b TimeRange
		want bool
	}{
		{"disjoint", TimeRange{at(9, 0), at(10, 0)}, TimeRange{at(11, 0), at(12, 0)}, false},
		{"touching", TimeRange{at(9, 0), at(10, 0)}, TimeRange{at(10, 0), at(11, 0)}, false},
		{"partial", TimeRange{at(10, 0), at(11, 0)}, TimeRange{at(10, 30), at(10, 45)}, true},
		{"contains", TimeRange{at(9, 0), at(17, 0)}, TimeRange{at(10, 0), at(10, 30)}, true},
		{"identical", TimeRange{at(9, 0), at(10, 0)}, TimeRange{at(9, 0), at(10, 0)}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a), "overlap must be symmetric")
		})
	}
}

func TestTimeRangeShift(t *testing.T) {
	r := TimeRange{at(11, 30), at(12, 0)}.Shift(15 * time.Minute)
	assert.Equal(t, at(11, 45), r.Start)
	assert.Equal(t, at(12, 15), r.End)
	assert.Equal(t, 30*time.Minute, r.Duration())
}

func TestParseTimeOfDay(t *testing.T) {
	v, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, NewTimeOfDay(9, 30), v)
	assert.Equal(t, "09:30", v.String())

	v, err = ParseTimeOfDay("24:00")
	require.NoError(t, err)
	assert.Equal(t, MinutesPerDay, v)

	for _, bad := range []string{"9:30", "25:00", "12:60", "noon", "24:30", "", "+9:30", "-0:00", "09:+5", " 9:30", "0x:10"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, bad)
	}
}

func TestMeetingStatus(t *testing.T) {
	for _, s := range ActiveMeetingStatuses {
		assert.True(t, s.IsActive())
		assert.False(t, s.IsTerminal())
	}
	assert.True(t, MeetingStatusCancelled.IsTerminal())
	assert.True(t, MeetingStatusCompleted.IsTerminal())
	assert.False(t, MeetingStatusCompleted.IsActive())
}
