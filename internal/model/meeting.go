package model

import (
	"time"

	"github.com/google/uuid"
)

type MeetingStatus string

const (
	MeetingStatusScheduled   MeetingStatus = "scheduled"
	MeetingStatusRescheduled MeetingStatus = "rescheduled"
	MeetingStatusExtended    MeetingStatus = "extended"
	MeetingStatusCancelled   MeetingStatus = "cancelled"
	MeetingStatusCompleted   MeetingStatus = "completed"
)

// ActiveMeetingStatuses - статусы, которые занимают время участников
var ActiveMeetingStatuses = []MeetingStatus{
	MeetingStatusScheduled,
	MeetingStatusRescheduled,
	MeetingStatusExtended,
}

func (s MeetingStatus) IsActive() bool {
	return s == MeetingStatusScheduled || s == MeetingStatusRescheduled || s == MeetingStatusExtended
}

func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusCancelled || s == MeetingStatusCompleted
}

type MeetingPriority string

const (
	PriorityLow    MeetingPriority = "low"
	PriorityMedium MeetingPriority = "medium"
	PriorityHigh   MeetingPriority = "high"
	PriorityUrgent MeetingPriority = "urgent"
)

func (p MeetingPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type ResponseStatus string

const (
	ResponsePending  ResponseStatus = "pending"
	ResponseAccepted ResponseStatus = "accepted"
	ResponseDeclined ResponseStatus = "declined"
)

type Meeting struct {
	ID              uuid.UUID       `json:"id"`
	OrganizerID     int64           `json:"organizer_id"`
	CategoryID      *int64          `json:"category_id,omitempty"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         time.Time       `json:"end_time"`
	ExtendedEndTime *time.Time      `json:"extended_end_time,omitempty"`
	Status          MeetingStatus   `json:"status"`
	Priority        MeetingPriority `json:"priority"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Заполняется сервисом, не из таблицы meetings
	Attendee *MeetingAttendee `json:"attendee,omitempty"`
}

// Range возвращает интервал встречи [start, end)
func (m *Meeting) Range() TimeRange {
	return TimeRange{Start: m.StartTime, End: m.EndTime}
}

// Participants возвращает организатора и участника (если есть)
func (m *Meeting) Participants() []int64 {
	ids := []int64{m.OrganizerID}
	if m.Attendee != nil && m.Attendee.UserID != m.OrganizerID {
		ids = append(ids, m.Attendee.UserID)
	}
	return ids
}

// IsParticipant проверяет, участвует ли пользователь во встрече
func (m *Meeting) IsParticipant(userID int64) bool {
	for _, id := range m.Participants() {
		if id == userID {
			return true
		}
	}
	return false
}

type MeetingAttendee struct {
	ID             int64          `json:"id"`
	MeetingID      uuid.UUID      `json:"meeting_id"`
	UserID         int64          `json:"user_id"`
	ResponseStatus ResponseStatus `json:"response_status"`
	ResponseTime   *time.Time     `json:"response_time,omitempty"`
}
