package model

import "time"

// DefaultTimezone используется, если пользователь не указал свой пояс
const DefaultTimezone = "UTC"

type User struct {
	ID         int64     `json:"id"`
	TelegramID *int64    `json:"telegram_id,omitempty"` // для уведомлений, может быть nil
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Timezone   string    `json:"timezone"` // IANA, например "Europe/Moscow"
	IsAdmin    bool      `json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
}

// DisplayName возвращает имя для уведомлений и картинок
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}
