package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/meeting_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// maxTxAttempts - сколько раз повторять транзакцию при serialization failure / deadlock
const maxTxAttempts = 3

// Store - реализация TxManager поверх pgxpool
type Store struct {
	pool   *pgxpool.Pool
	repos  *Repositories
	logger *zap.Logger
}

func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{
		pool:   pool,
		repos:  NewRepositories(pool),
		logger: logger,
	}
}

// NewRepositories собирает все репозитории над одним исполнителем запросов
func NewRepositories(db base.DBTX) *Repositories {
	return &Repositories{
		Users:        NewUserRepository(db),
		Categories:   NewCategoryRepository(db),
		Availability: NewAvailabilityRepository(db),
		Meetings:     NewMeetingRepository(db),
		Attendees:    NewAttendeeRepository(db),
		History:      NewEditHistoryRepository(db),
		Locks:        NewLockRepository(db),
	}
}

func (s *Store) Repos() *Repositories {
	return s.repos
}

// InTx выполняет fn в serializable транзакции, повторяя её при конфликте сериализации
func (s *Store) InTx(ctx context.Context, fn func(repos *Repositories) error) error {
	for attempt := 1; ; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil {
			return nil
		}

		if !base.IsRetryable(err) || attempt == maxTxAttempts {
			return err
		}

		s.logger.Warn("Retrying transaction",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}

func (s *Store) runTx(ctx context.Context, fn func(repos *Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
