package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository"
	"go.uber.org/zap"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type CategoryService struct {
	categories repository.CategoryStore
	users      repository.UserStore
	logger     *zap.Logger
}

func NewCategoryService(categories repository.CategoryStore, users repository.UserStore, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		users:      users,
		logger:     logger,
	}
}

// List возвращает все категории встреч
func (s *CategoryService) List(ctx context.Context) ([]*model.MeetingCategory, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Create создаёт категорию, доступно только администраторам
func (s *CategoryService) Create(ctx context.Context, requesterID int64, category *model.MeetingCategory) (*model.MeetingCategory, error) {
	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("get requester: %w", err)
	}
	if requester == nil || !requester.IsAdmin {
		return nil, apperror.Forbidden("only administrators can create categories")
	}

	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return nil, apperror.Validation("category name is required")
	}
	if category.DefaultDurationMinutes <= 0 {
		category.DefaultDurationMinutes = 30
	}
	if category.DisplayColor == "" {
		category.DisplayColor = "#000000"
	}
	if !colorPattern.MatchString(category.DisplayColor) {
		return nil, apperror.Validation("display color must look like #RRGGBB")
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.Info("Category created",
		zap.Int64("category_id", category.ID),
		zap.String("name", category.Name),
		zap.Int64("admin_id", requesterID),
	)

	return category, nil
}
