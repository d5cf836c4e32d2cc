// Package timezone переводит еженедельное время между часовым поясом пользователя и UTC.
//
// Смещение зоны берётся на календарную дату момента asOf (правила зоны меняются
// со временем). Из результата используется только сдвиг дня (-1, 0, +1),
// который прибавляется к дню недели по модулю 7.
package timezone

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // база зон внутри бинарника, контейнер может быть без tzdata

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/patrickmn/go-cache"
)

// LocalDateTimeLayout - формат "YYYY-MM-DDTHH:MM" без смещения
const LocalDateTimeLayout = "2006-01-02T15:04"

// DateLayout - формат календарной даты
const DateLayout = "2006-01-02"

// locations кеширует разобранные зоны, time.LoadLocation читает tzdata с диска
var locations = cache.New(cache.NoExpiration, 0)

// LoadLocation возвращает зону по имени IANA
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = model.DefaultTimezone
	}

	if cached, ok := locations.Get(name); ok {
		return cached.(*time.Location), nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidTimezone, err, "unknown timezone %q", name)
	}

	locations.Set(name, loc, cache.NoExpiration)
	return loc, nil
}

// ParseLocalDateTime разбирает "YYYY-MM-DDTHH:MM" как настенное время в зоне loc
func ParseLocalDateTime(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(LocalDateTimeLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, apperror.Wrap(apperror.KindInvalidTimeFormat, err,
			"time %q must be in YYYY-MM-DDTHH:MM format", value)
	}
	return t, nil
}

// ParseDate разбирает календарную дату "YYYY-MM-DD" в зоне loc (полночь)
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, apperror.Wrap(apperror.KindInvalidTimeFormat, err,
			"date %q must be in YYYY-MM-DD format", value)
	}
	return t, nil
}

// ParseTimeOfDay - обёртка над model.ParseTimeOfDay с доменной ошибкой
func ParseTimeOfDay(value string) (model.TimeOfDay, error) {
	t, err := model.ParseTimeOfDay(value)
	if err != nil {
		return 0, apperror.Wrap(apperror.KindInvalidTimeFormat, err, "invalid time of day")
	}
	return t, nil
}

// Weekday возвращает день недели с понедельником = 0
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// TimeOfDayOf возвращает время суток момента t в его зоне
func TimeOfDayOf(t time.Time) model.TimeOfDay {
	return model.NewTimeOfDay(t.Hour(), t.Minute())
}

// StartOfDay возвращает полночь того же календарного дня в зоне t
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek возвращает полночь понедельника недели, содержащей t
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -Weekday(day))
}

// ToUTC переводит локальное (день, время) в UTC по правилам зоны на момент asOf
func ToUTC(dayOfWeek int, t model.TimeOfDay, loc *time.Location, asOf time.Time) (int, model.TimeOfDay) {
	return convert(dayOfWeek, t, loc, time.UTC, asOf)
}

// ToLocal переводит (день, время) из UTC в зону loc по правилам на момент asOf
func ToLocal(dayOfWeek int, t model.TimeOfDay, loc *time.Location, asOf time.Time) (int, model.TimeOfDay) {
	return convert(dayOfWeek, t, time.UTC, loc, asOf)
}

func convert(dayOfWeek int, t model.TimeOfDay, from, to *time.Location, asOf time.Time) (int, model.TimeOfDay) {
	ref := referenceDay(asOf, from)
	dst := anchor(ref, t, from).In(to)
	return wrapDay(dayOfWeek + dayShift(ref, dst)), TimeOfDayOf(dst)
}

// Span - интервал внутри одного дня недели, End может быть 24:00
type Span struct {
	DayOfWeek int
	Start     model.TimeOfDay
	End       model.TimeOfDay
}

func (s Span) String() string {
	return fmt.Sprintf("%d %s-%s", s.DayOfWeek, s.Start, s.End)
}

// Contains проверяет, что [start, end) целиком внутри интервала
func (s Span) Contains(start, end model.TimeOfDay) bool {
	return s.Start <= start && end <= s.End
}

// SpanToUTC переводит локальный интервал в UTC, разрезая его по полуночи UTC
func SpanToUTC(dayOfWeek int, start, end model.TimeOfDay, loc *time.Location, asOf time.Time) []Span {
	return convertSpan(dayOfWeek, start, end, loc, time.UTC, asOf)
}

// SpanToLocal переводит интервал из UTC в зону loc, разрезая его по местной полуночи
func SpanToLocal(dayOfWeek int, start, end model.TimeOfDay, loc *time.Location, asOf time.Time) []Span {
	return convertSpan(dayOfWeek, start, end, time.UTC, loc, asOf)
}

func convertSpan(dayOfWeek int, start, end model.TimeOfDay, from, to *time.Location, asOf time.Time) []Span {
	if start >= end {
		return nil
	}

	ref := referenceDay(asOf, from)
	cur := anchor(ref, start, from).In(to)
	stop := anchor(ref, end, from).In(to)
	day := dayOfWeek + dayShift(ref, cur)

	var spans []Span
	for cur.Before(stop) {
		midnight := StartOfDay(cur).AddDate(0, 0, 1)

		segEnd := stop
		endOfDay := TimeOfDayOf(stop)
		if !stop.Before(midnight) {
			segEnd = midnight
			endOfDay = model.MinutesPerDay
		}

		spans = append(spans, Span{
			DayOfWeek: wrapDay(day),
			Start:     TimeOfDayOf(cur),
			End:       endOfDay,
		})

		cur = segEnd
		day++
	}

	return spans
}

// referenceDay - календарная дата asOf в исходной зоне, полночь в UTC
func referenceDay(asOf time.Time, from *time.Location) time.Time {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	local := asOf.In(from)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// anchor ставит время суток на дату ref в зоне loc; 24:00 даёт полночь следующего дня
func anchor(ref time.Time, t model.TimeOfDay, loc *time.Location) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// dayShift - на сколько календарных дней t отстоит от даты ref
func dayShift(ref, t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(ref).Hours() / 24)
}

func wrapDay(day int) int {
	return ((day % 7) + 7) % 7
}
