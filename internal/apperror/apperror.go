// Package apperror описывает доменные ошибки планировщика.
// Сервисы возвращают *Error с конкретным Kind, транспорт сопоставляет Kind со статусом ответа.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindInvalidTimezone     Kind = "invalid_timezone"
	KindInvalidTimeFormat   Kind = "invalid_time_format"
	KindNotFound            Kind = "not_found"
	KindForbidden           Kind = "forbidden"
	KindOutsideAvailability Kind = "outside_availability"
	KindSchedulingConflict  Kind = "scheduling_conflict"
	KindCascadeConflict     Kind = "cascade_conflict"
	KindInvalidExtension    Kind = "invalid_extension"
	KindValidation          Kind = "validation_error"
	KindInternal            Kind = "internal"
)

// Sentinel-значения для errors.Is, сравниваются по Kind
var (
	ErrInvalidTimezone     = &Error{Kind: KindInvalidTimezone}
	ErrInvalidTimeFormat   = &Error{Kind: KindInvalidTimeFormat}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrForbidden           = &Error{Kind: KindForbidden}
	ErrOutsideAvailability = &Error{Kind: KindOutsideAvailability}
	ErrSchedulingConflict  = &Error{Kind: KindSchedulingConflict}
	ErrCascadeConflict     = &Error{Kind: KindCascadeConflict}
	ErrInvalidExtension    = &Error{Kind: KindInvalidExtension}
	ErrValidation          = &Error{Kind: KindValidation}
)

// ItemError - ошибка одного элемента пакетной операции
type ItemError struct {
	DayOfWeek int    `json:"day_of_week"`
	Index     int    `json:"index"`
	Message   string `json:"message"`
}

type Error struct {
	Kind   Kind
	Detail string
	// UserIDs - пользователи, у которых найден конфликт
	UserIDs []int64
	Items   []ItemError
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает только Kind, чтобы errors.Is(err, ErrNotFound) работал для любых деталей
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// Conflict создаёт ошибку конфликта с перечнем пользователей
func Conflict(kind Kind, userIDs []int64, format string, args ...any) *Error {
	e := New(kind, format, args...)
	e.UserIDs = userIDs
	return e
}

// KindOf возвращает Kind ошибки или KindInternal для посторонних ошибок
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As достаёт *Error из цепочки
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
