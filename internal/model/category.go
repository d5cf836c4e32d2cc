package model

import "time"

// MeetingCategory - тип встречи. Одна зарезервированная категория означает "время для фокуса".
type MeetingCategory struct {
	ID                     int64     `json:"id"`
	Name                   string    `json:"name"`
	Description            string    `json:"description"`
	DefaultDurationMinutes int       `json:"default_duration_minutes"`
	DisplayColor           string    `json:"display_color"` // #RRGGBB
	CreatedAt              time.Time `json:"created_at"`
}
