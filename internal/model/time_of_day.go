package model

import (
	"fmt"
	"strings"
)

// TimeOfDay - минуты от полуночи. Значение MinutesPerDay (24:00) допустимо только как конец интервала.
type TimeOfDay int

const MinutesPerDay TimeOfDay = 24 * 60

// ParseTimeOfDay разбирает строку формата "HH:MM"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("time %q must be in HH:MM format", s)
	}

	h, okH := twoDigits(parts[0])
	m, okM := twoDigits(parts[1])
	if !okH || !okM {
		return 0, fmt.Errorf("time %q must be in HH:MM format", s)
	}

	if h == 24 && m == 0 {
		return MinutesPerDay, nil
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q is out of range", s)
	}

	return TimeOfDay(h*60 + m), nil
}

// twoDigits разбирает ровно две цифры; знак и пробелы не допускаются
func twoDigits(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// NewTimeOfDay собирает время из часов и минут
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalText позволяет отдавать время в JSON как "HH:MM"
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(data []byte) error {
	parsed, err := ParseTimeOfDay(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
