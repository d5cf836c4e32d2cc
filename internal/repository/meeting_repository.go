package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// meetingSelect выбирает встречу вместе с участником (у встречи не больше одного участника)
const meetingSelect = `
	SELECT m.id, m.organizer_id, m.category_id, m.title, m.description,
	       m.start_time, m.end_time, m.extended_end_time, m.status, m.priority,
	       m.created_at, m.updated_at,
	       a.id, a.user_id, a.response_status, a.response_time
	FROM meetings m
	LEFT JOIN meeting_attendees a ON a.meeting_id = m.id
`

type MeetingRepository struct {
	db base.DBTX
}

func NewMeetingRepository(db base.DBTX) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create создаёт встречу. ID генерируется здесь, если не задан.
func (r *MeetingRepository) Create(ctx context.Context, meeting *model.Meeting) error {
	if meeting.ID == uuid.Nil {
		meeting.ID = uuid.New()
	}

	query := `
		INSERT INTO meetings (id, organizer_id, category_id, title, description, start_time, end_time, status, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		meeting.ID,
		meeting.OrganizerID,
		meeting.CategoryID,
		meeting.Title,
		meeting.Description,
		meeting.StartTime,
		meeting.EndTime,
		meeting.Status,
		meeting.Priority,
	).Scan(&meeting.CreatedAt, &meeting.UpdatedAt)

	if err != nil {
		if base.IsCheckViolation(err) {
			return apperror.Validation("start time must be before end time")
		}
		return fmt.Errorf("create meeting: %w", err)
	}

	return nil
}

// GetByID получает встречу по ID
func (r *MeetingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Meeting, error) {
	meeting, err := scanMeeting(r.db.QueryRow(ctx, meetingSelect+` WHERE m.id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get meeting by id: %w", err)
	}

	return meeting, nil
}

// ListActiveForUser получает активные встречи пользователя, пересекающиеся с [from, to)
func (r *MeetingRepository) ListActiveForUser(ctx context.Context, userID int64, from, to time.Time) ([]*model.Meeting, error) {
	query := meetingSelect + `
		WHERE (m.organizer_id = $1 OR a.user_id = $1)
		  AND m.status = ANY($2)
		  AND m.start_time < $4 AND m.end_time > $3
		ORDER BY m.start_time
	`

	rows, err := r.db.Query(ctx, query, userID, activeStatuses(), from, to)
	if err != nil {
		return nil, fmt.Errorf("list active meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*model.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		meetings = append(meetings, meeting)
	}

	return meetings, rows.Err()
}

// NextForOrganizer получает следующую встречу организатора после after
func (r *MeetingRepository) NextForOrganizer(ctx context.Context, organizerID int64, after time.Time, exclude uuid.UUID) (*model.Meeting, error) {
	query := meetingSelect + `
		WHERE m.organizer_id = $1
		  AND m.id <> $2
		  AND m.status IN ('scheduled', 'rescheduled')
		  AND m.start_time >= $3
		ORDER BY m.start_time
		LIMIT 1
	`

	meeting, err := scanMeeting(r.db.QueryRow(ctx, query, organizerID, exclude, after))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get next meeting: %w", err)
	}

	return meeting, nil
}

// UpdateSchedule сохраняет время, продление и статус встречи
func (r *MeetingRepository) UpdateSchedule(ctx context.Context, meeting *model.Meeting) error {
	query := `
		UPDATE meetings
		SET start_time = $1, end_time = $2, extended_end_time = $3, status = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		meeting.StartTime,
		meeting.EndTime,
		meeting.ExtendedEndTime,
		meeting.Status,
		meeting.ID,
	).Scan(&meeting.UpdatedAt)

	if err != nil {
		switch {
		case base.IsNotFound(err):
			return apperror.NotFound("meeting %s not found", meeting.ID)
		case base.IsCheckViolation(err):
			return apperror.Validation("start time must be before end time")
		}
		return fmt.Errorf("update meeting schedule: %w", err)
	}

	return nil
}

// UpdateStatus обновляет статус встречи
func (r *MeetingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.MeetingStatus) error {
	result, err := r.db.Exec(ctx, `UPDATE meetings SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update meeting status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NotFound("meeting %s not found", id)
	}

	return nil
}

// CompleteEndedBefore завершает прошедшие активные встречи
func (r *MeetingRepository) CompleteEndedBefore(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE meetings
		SET status = 'completed', updated_at = NOW()
		WHERE status = ANY($1) AND end_time < $2
	`

	result, err := r.db.Exec(ctx, query, activeStatuses(), now)
	if err != nil {
		return 0, fmt.Errorf("complete ended meetings: %w", err)
	}

	return result.RowsAffected(), nil
}

func activeStatuses() []string {
	out := make([]string, len(model.ActiveMeetingStatuses))
	for i, s := range model.ActiveMeetingStatuses {
		out[i] = string(s)
	}
	return out
}

func scanMeeting(row pgx.Row) (*model.Meeting, error) {
	var (
		m              model.Meeting
		attendeeID     *int64
		attendeeUserID *int64
		response       *string
		responseTime   *time.Time
	)

	err := row.Scan(
		&m.ID,
		&m.OrganizerID,
		&m.CategoryID,
		&m.Title,
		&m.Description,
		&m.StartTime,
		&m.EndTime,
		&m.ExtendedEndTime,
		&m.Status,
		&m.Priority,
		&m.CreatedAt,
		&m.UpdatedAt,
		&attendeeID,
		&attendeeUserID,
		&response,
		&responseTime,
	)
	if err != nil {
		return nil, err
	}

	if attendeeID != nil && attendeeUserID != nil {
		m.Attendee = &model.MeetingAttendee{
			ID:           *attendeeID,
			MeetingID:    m.ID,
			UserID:       *attendeeUserID,
			ResponseTime: responseTime,
		}
		if response != nil {
			m.Attendee.ResponseStatus = model.ResponseStatus(*response)
		}
	}

	return &m, nil
}
