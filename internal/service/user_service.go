package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository"
	"github.com/Freeeeeet/meeting_scheduler/internal/timezone"
	"go.uber.org/zap"
)

type UserService struct {
	users  repository.UserStore
	logger *zap.Logger
}

func NewUserService(users repository.UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// Register создаёт пользователя; пустой часовой пояс означает UTC
func (s *UserService) Register(ctx context.Context, user *model.User) (*model.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return nil, apperror.Validation("username is required")
	}

	if user.Timezone == "" {
		user.Timezone = model.DefaultTimezone
	}
	if _, err := timezone.LoadLocation(user.Timezone); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("timezone", user.Timezone),
	)

	return user, nil
}

// Get получает пользователя по ID
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user %d not found", id)
	}
	return user, nil
}

// UpdateTimezone меняет часовой пояс. Уже сохранённые окна не пересчитываются:
// они хранятся в UTC и показываются в новом поясе.
func (s *UserService) UpdateTimezone(ctx context.Context, id int64, tz string) (*model.User, error) {
	if _, err := timezone.LoadLocation(tz); err != nil {
		return nil, err
	}

	if err := s.users.UpdateTimezone(ctx, id, tz); err != nil {
		return nil, fmt.Errorf("update timezone: %w", err)
	}

	s.logger.Info("User timezone updated",
		zap.Int64("user_id", id),
		zap.String("timezone", tz),
	)

	return s.Get(ctx, id)
}

// Names возвращает отображаемые имена пользователей; неизвестные id пропускаются
func (s *UserService) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	names := make(map[int64]string, len(users))
	for id, u := range users {
		names[id] = u.DisplayName()
	}
	return names, nil
}
