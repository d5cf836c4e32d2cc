package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekImageProducesPNG(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	weekStart := time.Date(2024, 11, 11, 0, 0, 0, 0, loc)

	data := WeekData{
		WeekStart: weekStart,
		Location:  loc,
		Now:       weekStart.Add(30 * time.Hour),
		ViewerID:  1,
		Names:     map[int64]string{2: "bob"},
		Meetings: []*model.Meeting{
			{OrganizerID: 1, Title: "Planning", StartTime: weekStart.Add(9 * time.Hour), EndTime: weekStart.Add(10 * time.Hour), Status: model.MeetingStatusScheduled},
			{OrganizerID: 1, Attendee: &model.MeetingAttendee{UserID: 2}, StartTime: weekStart.Add(47 * time.Hour), EndTime: weekStart.Add(49 * time.Hour), Status: model.MeetingStatusExtended},
			{OrganizerID: 1, Title: "Cancelled", StartTime: weekStart.Add(12 * time.Hour), EndTime: weekStart.Add(13 * time.Hour), Status: model.MeetingStatusCancelled},
		},
	}

	out, err := WeekImage(data)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, imageWidth, img.Bounds().Dx())
	assert.Equal(t, imageHeight, img.Bounds().Dy())
}

func TestGroupByDaySplitsAtLocalMidnight(t *testing.T) {
	weekStart := time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC)
	data := WeekData{
		ViewerID: 1,
		Names:    map[int64]string{2: "bob"},
		Meetings: []*model.Meeting{{
			OrganizerID: 1,
			Attendee:    &model.MeetingAttendee{UserID: 2},
			StartTime:   weekStart.Add(23 * time.Hour),
			EndTime:     weekStart.Add(25 * time.Hour),
			Status:      model.MeetingStatusScheduled,
		}},
	}

	blocks := groupByDay(data, weekStart, time.UTC)
	require.Len(t, blocks[0], 1)
	require.Len(t, blocks[1], 1)
	assert.Equal(t, 23.0, blocks[0][0].start)
	assert.Equal(t, 24.0, blocks[0][0].end)
	assert.Equal(t, 0.0, blocks[1][0].start)
	assert.Equal(t, 1.0, blocks[1][0].end)
	assert.Equal(t, "bob", blocks[0][0].label)

	hours := calculateHourRange(blocks)
	assert.Equal(t, 0, hours.start)
	assert.Equal(t, 24, hours.end)
}

func TestCalculateHourRangeDefaults(t *testing.T) {
	hours := calculateHourRange(nil)
	assert.Equal(t, defaultMinHour-hourPaddingTop, hours.start)
	assert.Equal(t, defaultMaxHour+hourPaddingBot, hours.end)
	assert.Equal(t, hours.end-hours.start, hours.total)
}
