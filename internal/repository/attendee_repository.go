package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository/base"
)

type AttendeeRepository struct {
	db base.DBTX
}

func NewAttendeeRepository(db base.DBTX) *AttendeeRepository {
	return &AttendeeRepository{db: db}
}

// Create добавляет участника встречи
func (r *AttendeeRepository) Create(ctx context.Context, attendee *model.MeetingAttendee) error {
	query := `
		INSERT INTO meeting_attendees (meeting_id, user_id, response_status)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	if attendee.ResponseStatus == "" {
		attendee.ResponseStatus = model.ResponsePending
	}

	err := r.db.QueryRow(ctx, query, attendee.MeetingID, attendee.UserID, attendee.ResponseStatus).Scan(&attendee.ID)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return apperror.Validation("meeting %s already has an attendee", attendee.MeetingID)
		}
		return fmt.Errorf("create meeting attendee: %w", err)
	}

	return nil
}

func (r *AttendeeRepository) UpdateResponse(ctx context.Context, attendee *model.MeetingAttendee) error {
	query := `
		UPDATE meeting_attendees
		SET response_status = $1, response_time = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(ctx, query, attendee.ResponseStatus, attendee.ResponseTime, attendee.ID)
	if err != nil {
		return fmt.Errorf("update attendee response: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NotFound("attendee %d not found", attendee.ID)
	}

	return nil
}
