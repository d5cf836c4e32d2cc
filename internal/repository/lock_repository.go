package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/meeting_scheduler/internal/repository/base"
)

// LockRepository берёт транзакционные advisory-локи на пользователей
type LockRepository struct {
	*base.Repository
}

func NewLockRepository(db base.DBTX) *LockRepository {
	return &LockRepository{Repository: base.NewRepository(db)}
}

// LockUsers блокирует расписания пользователей до конца транзакции.
// Локи берутся по возрастанию id, чтобы параллельные транзакции не встали в deadlock.
func (r *LockRepository) LockUsers(ctx context.Context, userIDs ...int64) error {
	ids := uniqueSorted(userIDs)

	for _, id := range ids {
		if _, err := r.DB().Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, id); err != nil {
			return fmt.Errorf("lock user %d: %w", id, err)
		}
	}

	return nil
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
