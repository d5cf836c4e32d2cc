package model

import "time"

// AvailabilityWindow - еженедельное окно доступности.
// День и время хранятся в UTC; DayOfWeek: 0 = Monday, 6 = Sunday.
type AvailabilityWindow struct {
	ID         int64     `json:"id"`
	OwnerID    int64     `json:"owner_id"`
	DayOfWeek  int       `json:"day_of_week"`
	StartTime  TimeOfDay `json:"start_time"`
	EndTime    TimeOfDay `json:"end_time"`
	CategoryID *int64    `json:"category_id,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsFocus сообщает, относится ли окно к категории фокуса
func (w *AvailabilityWindow) IsFocus(focusCategoryID int64) bool {
	return w.CategoryID != nil && *w.CategoryID == focusCategoryID
}

// AvailabilitySlotInput - один слот в локальном времени владельца
type AvailabilitySlotInput struct {
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	CategoryID *int64 `json:"category,omitempty"`
	IsActive   *bool  `json:"active,omitempty"`
}

// AvailabilityDayInput - набор слотов на один день недели.
// Одиночный слот приходит как день с единственным элементом.
type AvailabilityDayInput struct {
	DayOfWeek int                     `json:"day_of_week"`
	Slots     []AvailabilitySlotInput `json:"slots"`
}

// AvailabilityPatch - частичное обновление окна, время локальное
type AvailabilityPatch struct {
	DayOfWeek  *int    `json:"day_of_week,omitempty"`
	StartTime  *string `json:"start_time,omitempty"`
	EndTime    *string `json:"end_time,omitempty"`
	CategoryID *int64  `json:"category,omitempty"`
	IsActive   *bool   `json:"active,omitempty"`
}

// LocalWindow - окно, пересчитанное в часовой пояс зрителя
type LocalWindow struct {
	WindowID   int64     `json:"window_id"`
	DayOfWeek  int       `json:"day_of_week"`
	StartTime  TimeOfDay `json:"start_time"`
	EndTime    TimeOfDay `json:"end_time"`
	CategoryID *int64    `json:"category_id,omitempty"`
}
