package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const categoryColumns = `id, name, description, default_duration_minutes, display_color, created_at`

type CategoryRepository struct {
	db base.DBTX
}

func NewCategoryRepository(db base.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create создаёт категорию встреч
func (r *CategoryRepository) Create(ctx context.Context, category *model.MeetingCategory) error {
	query := `
		INSERT INTO meeting_categories (name, description, default_duration_minutes, display_color)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		category.Name,
		category.Description,
		category.DefaultDurationMinutes,
		category.DisplayColor,
	).Scan(&category.ID, &category.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return apperror.Validation("category %q already exists", category.Name)
		}
		return fmt.Errorf("create category: %w", err)
	}

	return nil
}

// GetByID получает категорию по ID
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*model.MeetingCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM meeting_categories WHERE id = $1`

	category, err := scanCategory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category by id: %w", err)
	}

	return category, nil
}

// List возвращает все категории по имени
func (r *CategoryRepository) List(ctx context.Context) ([]*model.MeetingCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM meeting_categories ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []*model.MeetingCategory
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

func scanCategory(row pgx.Row) (*model.MeetingCategory, error) {
	var c model.MeetingCategory
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.DefaultDurationMinutes,
		&c.DisplayColor,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
