package timezone

import (
	"testing"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Январь: Нью-Йорк в EST (-5)
var winter = time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestLoadLocation(t *testing.T) {
	loc := mustLoad(t, "Europe/Moscow")
	assert.Equal(t, "Europe/Moscow", loc.String())

	again := mustLoad(t, "Europe/Moscow")
	assert.Same(t, loc, again)

	utc := mustLoad(t, "")
	assert.Equal(t, "UTC", utc.String())

	_, err := LoadLocation("Mars/Olympus_Mons")
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidTimezone, apperror.KindOf(err))
}

func TestToUTCCrossesDayBoundary(t *testing.T) {
	moscow := mustLoad(t, "Europe/Moscow")

	day, tod := ToUTC(0, model.NewTimeOfDay(2, 0), moscow, winter)
	assert.Equal(t, 6, day, "Monday 02:00 MSK is Sunday in UTC")
	assert.Equal(t, model.NewTimeOfDay(23, 0), tod)

	ny := mustLoad(t, "America/New_York")
	day, tod = ToUTC(6, model.NewTimeOfDay(20, 0), ny, winter)
	assert.Equal(t, 0, day, "Sunday 20:00 EST is Monday in UTC")
	assert.Equal(t, model.NewTimeOfDay(1, 0), tod)
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"UTC", "Europe/Moscow", "America/New_York", "Asia/Kolkata", "Pacific/Chatham", "Asia/Tokyo"} {
		loc := mustLoad(t, name)
		for day := 0; day < 7; day++ {
			for minute := 0; minute < int(model.MinutesPerDay); minute += 15 {
				tod := model.TimeOfDay(minute)
				utcDay, utcTime := ToUTC(day, tod, loc, winter)
				backDay, backTime := ToLocal(utcDay, utcTime, loc, winter)
				require.Equal(t, day, backDay, "%s day %d %s", name, day, tod)
				require.Equal(t, tod, backTime, "%s day %d %s", name, day, tod)
			}
		}
	}
}

func TestSpanToUTCSplitsAtMidnight(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	spans := SpanToUTC(0, model.NewTimeOfDay(18, 0), model.NewTimeOfDay(22, 0), ny, winter)
	require.Len(t, spans, 2)
	assert.Equal(t, Span{DayOfWeek: 0, Start: model.NewTimeOfDay(23, 0), End: model.MinutesPerDay}, spans[0])
	assert.Equal(t, Span{DayOfWeek: 1, Start: 0, End: model.NewTimeOfDay(3, 0)}, spans[1])

	tokyo := mustLoad(t, "Asia/Tokyo")
	spans = SpanToUTC(0, model.NewTimeOfDay(8, 0), model.NewTimeOfDay(10, 0), tokyo, winter)
	require.Len(t, spans, 2)
	assert.Equal(t, Span{DayOfWeek: 6, Start: model.NewTimeOfDay(23, 0), End: model.MinutesPerDay}, spans[0])
	assert.Equal(t, Span{DayOfWeek: 0, Start: 0, End: model.NewTimeOfDay(1, 0)}, spans[1])
}

func TestSpanToUTCSingleDay(t *testing.T) {
	moscow := mustLoad(t, "Europe/Moscow")

	spans := SpanToUTC(2, model.NewTimeOfDay(9, 0), model.NewTimeOfDay(18, 0), moscow, winter)
	require.Len(t, spans, 1)
	assert.Equal(t, Span{DayOfWeek: 2, Start: model.NewTimeOfDay(6, 0), End: model.NewTimeOfDay(15, 0)}, spans[0])

	back := SpanToLocal(spans[0].DayOfWeek, spans[0].Start, spans[0].End, moscow, winter)
	require.Len(t, back, 1)
	assert.Equal(t, Span{DayOfWeek: 2, Start: model.NewTimeOfDay(9, 0), End: model.NewTimeOfDay(18, 0)}, back[0])
}

func TestSpanEndingAtMidnight(t *testing.T) {
	spans := SpanToUTC(4, model.NewTimeOfDay(20, 0), model.MinutesPerDay, time.UTC, winter)
	require.Len(t, spans, 1)
	assert.Equal(t, Span{DayOfWeek: 4, Start: model.NewTimeOfDay(20, 0), End: model.MinutesPerDay}, spans[0])

	assert.Empty(t, SpanToUTC(4, model.NewTimeOfDay(10, 0), model.NewTimeOfDay(10, 0), time.UTC, winter))
}

func TestParseLocalDateTime(t *testing.T) {
	moscow := mustLoad(t, "Europe/Moscow")

	got, err := ParseLocalDateTime("2024-11-11T10:00", moscow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 11, 7, 0, 0, 0, time.UTC), got.UTC())

	_, err = ParseLocalDateTime("11/11/2024 10am", moscow)
	assert.Equal(t, apperror.KindInvalidTimeFormat, apperror.KindOf(err))
}

func TestWeekday(t *testing.T) {
	monday := time.Date(2024, 11, 11, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, Weekday(monday))
	assert.Equal(t, 6, Weekday(monday.AddDate(0, 0, 6)))
	assert.Equal(t, time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC), StartOfWeek(monday.AddDate(0, 0, 3)))
}

func TestSpanToUTCUsesRulesAsOf(t *testing.T) {
	nov2024 := time.Date(2024, time.November, 10, 12, 0, 0, 0, time.UTC)
	jan2000 := time.Date(2000, time.January, 3, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		zone string
		asOf time.Time
		want []Span
	}{
		{
			name: "Istanbul is +03 since 2016",
			zone: "Europe/Istanbul",
			asOf: nov2024,
			want: []Span{{DayOfWeek: 0, Start: model.NewTimeOfDay(6, 0), End: model.NewTimeOfDay(14, 0)}},
		},
		{
			name: "Istanbul was +02 in winter 2000",
			zone: "Europe/Istanbul",
			asOf: jan2000,
			want: []Span{{DayOfWeek: 0, Start: model.NewTimeOfDay(7, 0), End: model.NewTimeOfDay(15, 0)}},
		},
		{
			name: "Apia moved to +13, Monday morning is Sunday in UTC",
			zone: "Pacific/Apia",
			asOf: nov2024,
			want: []Span{
				{DayOfWeek: 6, Start: model.NewTimeOfDay(20, 0), End: model.MinutesPerDay},
				{DayOfWeek: 0, Start: 0, End: model.NewTimeOfDay(4, 0)},
			},
		},
		{
			name: "Apia was -11 in 2000",
			zone: "Pacific/Apia",
			asOf: jan2000,
			want: []Span{
				{DayOfWeek: 0, Start: model.NewTimeOfDay(20, 0), End: model.MinutesPerDay},
				{DayOfWeek: 1, Start: 0, End: model.NewTimeOfDay(4, 0)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := mustLoad(t, tt.zone)
			spans := SpanToUTC(0, model.NewTimeOfDay(9, 0), model.NewTimeOfDay(17, 0), loc, tt.asOf)
			assert.Equal(t, tt.want, spans)

			var back []Span
			for _, sp := range spans {
				back = append(back, SpanToLocal(sp.DayOfWeek, sp.Start, sp.End, loc, tt.asOf)...)
			}
			require.NotEmpty(t, back)
			assert.Equal(t, 0, back[0].DayOfWeek)
			assert.Equal(t, model.NewTimeOfDay(9, 0), back[0].Start)
			assert.Equal(t, model.NewTimeOfDay(17, 0), back[len(back)-1].End)
		})
	}
}

func TestParseTimeOfDayRejectsSigns(t *testing.T) {
	for _, bad := range []string{"+9:30", "-0:00", "09:-1"} {
		_, err := ParseTimeOfDay(bad)
		assert.Equal(t, apperror.KindInvalidTimeFormat, apperror.KindOf(err), bad)
	}

	got, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, model.NewTimeOfDay(9, 30), got)
}
