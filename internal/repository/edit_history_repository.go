package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository/base"
	"github.com/google/uuid"
)

// EditHistoryRepository - журнал изменений встреч, только добавление
type EditHistoryRepository struct {
	db base.DBTX
}

func NewEditHistoryRepository(db base.DBTX) *EditHistoryRepository {
	return &EditHistoryRepository{db: db}
}

// Append добавляет запись; original_times и new_times хранятся в JSONB
func (r *EditHistoryRepository) Append(ctx context.Context, record *model.EditHistoryRecord) error {
	query := `
		INSERT INTO meeting_edit_history (meeting_id, requested_by, edit_type, original_times, new_times, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		record.MeetingID,
		record.RequestedBy,
		record.EditType,
		record.OriginalTimes,
		record.NewTimes,
		record.Reason,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		return fmt.Errorf("append edit history: %w", err)
	}

	return nil
}

// ListByMeeting возвращает историю встречи в хронологическом порядке
func (r *EditHistoryRepository) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*model.EditHistoryRecord, error) {
	query := `
		SELECT id, meeting_id, requested_by, edit_type, original_times, new_times, reason, created_at
		FROM meeting_edit_history
		WHERE meeting_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query, meetingID)
	if err != nil {
		return nil, fmt.Errorf("list edit history: %w", err)
	}
	defer rows.Close()

	var records []*model.EditHistoryRecord
	for rows.Next() {
		var rec model.EditHistoryRecord
		err := rows.Scan(
			&rec.ID,
			&rec.MeetingID,
			&rec.RequestedBy,
			&rec.EditType,
			&rec.OriginalTimes,
			&rec.NewTimes,
			&rec.Reason,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan edit history: %w", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}
