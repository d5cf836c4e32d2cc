package model

import (
	"time"

	"github.com/google/uuid"
)

type EditType string

const (
	EditTypeExtended    EditType = "extended"
	EditTypeRescheduled EditType = "rescheduled"
	EditTypeCancelled   EditType = "cancelled"
)

// EditHistoryRecord - неизменяемая запись об изменении встречи
type EditHistoryRecord struct {
	ID            int64      `json:"id"`
	MeetingID     uuid.UUID  `json:"meeting_id"`
	RequestedBy   int64      `json:"requested_by"`
	EditType      EditType   `json:"edit_type"`
	OriginalTimes TimeRange  `json:"original_times"`
	NewTimes      *TimeRange `json:"new_times,omitempty"`
	Reason        string     `json:"reason"`
	CreatedAt     time.Time  `json:"created_at"`
}
