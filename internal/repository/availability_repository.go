package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const availabilityColumns = `id, owner_id, day_of_week, start_minute, end_minute, category_id, is_active, created_at, updated_at`

// AvailabilityRepository хранит окна доступности. Время в таблице - минуты от полуночи UTC.
type AvailabilityRepository struct {
	db base.DBTX
}

func NewAvailabilityRepository(db base.DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Create создаёт окно доступности
func (r *AvailabilityRepository) Create(ctx context.Context, window *model.AvailabilityWindow) error {
	query := `
		INSERT INTO availability_windows (owner_id, day_of_week, start_minute, end_minute, category_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		window.OwnerID,
		window.DayOfWeek,
		int(window.StartTime),
		int(window.EndTime),
		window.CategoryID,
		window.IsActive,
	).Scan(&window.ID, &window.CreatedAt, &window.UpdatedAt)

	if err != nil {
		switch {
		case base.IsUniqueViolation(err):
			return apperror.Validation("availability window %s-%s already exists for day %d",
				window.StartTime, window.EndTime, window.DayOfWeek)
		case base.IsCheckViolation(err):
			return apperror.Validation("start time must be before end time")
		}
		return fmt.Errorf("create availability window: %w", err)
	}

	return nil
}

// GetByID получает окно по ID
func (r *AvailabilityRepository) GetByID(ctx context.Context, id int64) (*model.AvailabilityWindow, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability_windows WHERE id = $1`

	window, err := scanWindow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get availability window by id: %w", err)
	}

	return window, nil
}

// ListByOwner возвращает окна пользователя в порядке (день, начало)
func (r *AvailabilityRepository) ListByOwner(ctx context.Context, ownerID int64, activeOnly bool) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM availability_windows
		WHERE owner_id = $1 AND (NOT $2 OR is_active)
		ORDER BY day_of_week, start_minute
	`

	rows, err := r.db.Query(ctx, query, ownerID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}
	defer rows.Close()

	var windows []*model.AvailabilityWindow
	for rows.Next() {
		window, err := scanWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan availability window: %w", err)
		}
		windows = append(windows, window)
	}

	return windows, rows.Err()
}

// Update сохраняет день, время, категорию и активность окна
func (r *AvailabilityRepository) Update(ctx context.Context, window *model.AvailabilityWindow) error {
	query := `
		UPDATE availability_windows
		SET day_of_week = $1, start_minute = $2, end_minute = $3, category_id = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		window.DayOfWeek,
		int(window.StartTime),
		int(window.EndTime),
		window.CategoryID,
		window.IsActive,
		window.ID,
	).Scan(&window.UpdatedAt)

	if err != nil {
		switch {
		case base.IsNotFound(err):
			return apperror.NotFound("availability window %d not found", window.ID)
		case base.IsUniqueViolation(err):
			return apperror.Validation("availability window %s-%s already exists for day %d",
				window.StartTime, window.EndTime, window.DayOfWeek)
		case base.IsCheckViolation(err):
			return apperror.Validation("start time must be before end time")
		}
		return fmt.Errorf("update availability window: %w", err)
	}

	return nil
}

// Delete удаляет окно
func (r *AvailabilityRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM availability_windows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete availability window: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NotFound("availability window %d not found", id)
	}

	return nil
}

func scanWindow(row pgx.Row) (*model.AvailabilityWindow, error) {
	var (
		w          model.AvailabilityWindow
		start, end int
	)
	err := row.Scan(
		&w.ID,
		&w.OwnerID,
		&w.DayOfWeek,
		&start,
		&end,
		&w.CategoryID,
		&w.IsActive,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.StartTime = model.TimeOfDay(start)
	w.EndTime = model.TimeOfDay(end)
	return &w, nil
}
