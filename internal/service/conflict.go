package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository"
	"github.com/google/uuid"
)

// FindConflicts возвращает активные встречи пользователя (как организатора или участника),
// пересекающиеся с r. Встречи из exclude не учитываются.
func FindConflicts(ctx context.Context, meetings repository.MeetingStore, userID int64, r model.TimeRange, exclude ...uuid.UUID) ([]*model.Meeting, error) {
	candidates, err := meetings.ListActiveForUser(ctx, userID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("list meetings for conflict check: %w", err)
	}

	return filterOverlapping(candidates, r, exclude), nil
}

// HasConflict - есть ли у пользователя хотя бы одна пересекающаяся встреча
func HasConflict(ctx context.Context, meetings repository.MeetingStore, userID int64, r model.TimeRange, exclude ...uuid.UUID) (bool, error) {
	conflicts, err := FindConflicts(ctx, meetings, userID, r, exclude...)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// ConflictingUsers проверяет всех пользователей и возвращает отсортированные id тех, кто занят
func ConflictingUsers(ctx context.Context, meetings repository.MeetingStore, userIDs []int64, r model.TimeRange, exclude ...uuid.UUID) ([]int64, error) {
	var busy []int64
	seen := make(map[int64]bool, len(userIDs))

	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		conflict, err := HasConflict(ctx, meetings, id, r, exclude...)
		if err != nil {
			return nil, err
		}
		if conflict {
			busy = append(busy, id)
		}
	}

	sort.Slice(busy, func(i, j int) bool { return busy[i] < busy[j] })
	return busy, nil
}

// filterOverlapping - чистая часть проверки, хранилище может вернуть лишнее
func filterOverlapping(candidates []*model.Meeting, r model.TimeRange, exclude []uuid.UUID) []*model.Meeting {
	var out []*model.Meeting
	for _, m := range candidates {
		if !m.Status.IsActive() || isExcluded(m.ID, exclude) {
			continue
		}
		if m.Range().Overlaps(r) {
			out = append(out, m)
		}
	}
	return out
}

func isExcluded(id uuid.UUID, exclude []uuid.UUID) bool {
	for _, e := range exclude {
		if e == id {
			return true
		}
	}
	return false
}
