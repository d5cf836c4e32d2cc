package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/advisor"
	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository"
	"github.com/Freeeeeet/meeting_scheduler/internal/timezone"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckedSuggestion - вариант от советника после проверки движком
type CheckedSuggestion struct {
	advisor.Suggestion
	ConflictFree       bool    `json:"conflict_free"`
	ConflictingUsers   []int64 `json:"conflicting_users,omitempty"`
	WithinAvailability bool    `json:"within_availability"`
}

type SuggestionService struct {
	store           repository.TxManager
	advisor         advisor.Advisor
	focusCategoryID int64
	now             Clock
	logger          *zap.Logger
}

func NewSuggestionService(store repository.TxManager, adv advisor.Advisor, focusCategoryID int64, now Clock, logger *zap.Logger) *SuggestionService {
	return &SuggestionService{
		store:           store,
		advisor:         adv,
		focusCategoryID: focusCategoryID,
		now:             clockOrNow(now),
		logger:          logger,
	}
}

// Enabled - настроен ли внешний советник
func (s *SuggestionService) Enabled() bool {
	return s.advisor != nil
}

// Suggest запрашивает варианты переноса встречи. Ничего не записывает:
// каждый вариант только проверяется на конфликты и доступность организатора.
func (s *SuggestionService) Suggest(ctx context.Context, meetingID uuid.UUID, requesterID int64) ([]CheckedSuggestion, error) {
	if s.advisor == nil {
		return nil, apperror.New(apperror.KindInternal, "suggestions are not configured")
	}

	repos := s.store.Repos()

	meeting, err := getMeeting(ctx, repos, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.OrganizerID != requesterID {
		return nil, apperror.Forbidden("only the organizer can request suggestions")
	}
	if meeting.Status.IsTerminal() {
		return nil, apperror.Validation("meeting is already %s", meeting.Status)
	}

	organizer, organizerLoc, err := loadUser(ctx, repos.Users, meeting.OrganizerID)
	if err != nil {
		return nil, err
	}

	req := advisor.Request{
		CacheKey:  meeting.ID.String() + ":" + strconv.FormatInt(meeting.UpdatedAt.Unix(), 10),
		Title:     meeting.Title,
		Start:     meeting.StartTime,
		End:       meeting.EndTime,
		Organizer: organizer.DisplayName(),
	}

	asOf := s.now()
	for _, id := range meeting.Participants() {
		p, err := s.participantSummary(ctx, repos, id, meeting, asOf)
		if err != nil {
			return nil, err
		}
		req.Participants = append(req.Participants, p)
	}

	suggestions, err := s.advisor.Suggest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get suggestions: %w", err)
	}

	organizerWindows, err := repos.Availability.ListByOwner(ctx, meeting.OrganizerID, true)
	if err != nil {
		return nil, fmt.Errorf("list organizer availability: %w", err)
	}

	checked := make([]CheckedSuggestion, 0, len(suggestions))
	for _, sg := range suggestions {
		r := model.TimeRange{Start: sg.Start, End: sg.End}
		busy, err := ConflictingUsers(ctx, repos.Meetings, meeting.Participants(), r, meeting.ID)
		if err != nil {
			return nil, err
		}
		checked = append(checked, CheckedSuggestion{
			Suggestion:         sg,
			ConflictFree:       len(busy) == 0,
			ConflictingUsers:   busy,
			WithinAvailability: withinAvailability(organizerWindows, r, organizerLoc, s.focusCategoryID, asOf),
		})
	}

	s.logger.Info("Reschedule suggestions generated",
		zap.String("meeting_id", meetingID.String()),
		zap.Int("count", len(checked)),
	)

	return checked, nil
}

// participantSummary - доступность (UTC) и занятые интервалы в день встречи
func (s *SuggestionService) participantSummary(ctx context.Context, repos *repository.Repositories, userID int64, meeting *model.Meeting, asOf time.Time) (advisor.Participant, error) {
	user, _, err := loadUser(ctx, repos.Users, userID)
	if err != nil {
		return advisor.Participant{}, err
	}

	p := advisor.Participant{Username: user.DisplayName(), Timezone: user.Timezone}

	windows, err := repos.Availability.ListByOwner(ctx, userID, true)
	if err != nil {
		return p, fmt.Errorf("list availability: %w", err)
	}
	for day, spans := range localAvailability(windows, time.UTC, s.focusCategoryID, asOf) {
		for _, sp := range spans {
			p.Available = append(p.Available, advisor.Slot{DayOfWeek: day, Start: sp.Start.String(), End: sp.End.String()})
		}
	}
	sortSlots(p.Available)

	dayStart := timezone.StartOfDay(meeting.StartTime.UTC())
	meetings, err := repos.Meetings.ListActiveForUser(ctx, userID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return p, fmt.Errorf("list meetings: %w", err)
	}
	for _, m := range meetings {
		if m.ID == meeting.ID {
			continue
		}
		start, end := m.StartTime.UTC(), m.EndTime.UTC()
		p.Blocked = append(p.Blocked, advisor.Slot{
			DayOfWeek: timezone.Weekday(start),
			Start:     start.Format("15:04"),
			End:       end.Format("15:04"),
		})
	}

	return p, nil
}

func sortSlots(slots []advisor.Slot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		return slots[i].Start < slots[j].Start
	})
}
