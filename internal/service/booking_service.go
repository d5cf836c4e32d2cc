package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/notify"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository"
	"github.com/Freeeeeet/meeting_scheduler/internal/timezone"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScheduleRequest - запрос на встречу; время локальное для участника (того, кто бронирует)
type ScheduleRequest struct {
	OrganizerID int64
	AttendeeID  int64
	CategoryID  *int64
	Title       string
	Description string
	StartTime   string
	EndTime     string
	Priority    model.MeetingPriority
}

type BookingService struct {
	store           repository.TxManager
	notifier        notify.Notifier
	focusCategoryID int64
	now             Clock
	logger          *zap.Logger
}

func NewBookingService(
	store repository.TxManager,
	notifier notify.Notifier,
	focusCategoryID int64,
	now Clock,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		store:           store,
		notifier:        notifier,
		focusCategoryID: focusCategoryID,
		now:             clockOrNow(now),
		logger:          logger,
	}
}

// Schedule бронирует встречу у организатора.
// Окна доступности не меняются: занятость определяется только встречами.
func (s *BookingService) Schedule(ctx context.Context, req ScheduleRequest) (*model.Meeting, error) {
	if req.OrganizerID == req.AttendeeID {
		return nil, apperror.Validation("cannot schedule a meeting with yourself")
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperror.Validation("unknown priority %q", priority)
	}

	repos := s.store.Repos()

	// Пояса организатора и участника разрешаются независимо
	_, organizerLoc, err := loadUser(ctx, repos.Users, req.OrganizerID)
	if err != nil {
		return nil, err
	}
	_, attendeeLoc, err := loadUser(ctx, repos.Users, req.AttendeeID)
	if err != nil {
		return nil, err
	}

	start, err := timezone.ParseLocalDateTime(req.StartTime, attendeeLoc)
	if err != nil {
		return nil, err
	}
	end, err := timezone.ParseLocalDateTime(req.EndTime, attendeeLoc)
	if err != nil {
		return nil, err
	}

	interval := model.TimeRange{Start: start.UTC(), End: end.UTC()}
	if !interval.Valid() {
		return nil, apperror.Validation("start time must be before end time")
	}
	if interval.Start.Before(s.now()) {
		return nil, apperror.Validation("cannot schedule a meeting in the past")
	}

	if err := s.checkCategory(ctx, repos, req.CategoryID); err != nil {
		return nil, err
	}

	meeting := &model.Meeting{
		ID:          uuid.New(),
		OrganizerID: req.OrganizerID,
		CategoryID:  req.CategoryID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		StartTime:   interval.Start,
		EndTime:     interval.End,
		Status:      model.MeetingStatusScheduled,
		Priority:    priority,
	}

	err = s.store.InTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Locks.LockUsers(ctx, req.OrganizerID, req.AttendeeID); err != nil {
			return err
		}

		windows, err := tx.Availability.ListByOwner(ctx, req.OrganizerID, true)
		if err != nil {
			return fmt.Errorf("list organizer availability: %w", err)
		}
		if !withinAvailability(windows, interval, organizerLoc, s.focusCategoryID, s.now()) {
			return apperror.New(apperror.KindOutsideAvailability,
				"%s-%s is outside the organizer's availability",
				interval.Start.In(organizerLoc).Format(timezone.LocalDateTimeLayout),
				interval.End.In(organizerLoc).Format(timezone.LocalDateTimeLayout))
		}

		busy, err := ConflictingUsers(ctx, tx.Meetings, []int64{req.OrganizerID, req.AttendeeID}, interval)
		if err != nil {
			return err
		}
		if len(busy) > 0 {
			return apperror.Conflict(apperror.KindSchedulingConflict, busy, "time slot conflicts with an existing meeting")
		}

		if err := tx.Meetings.Create(ctx, meeting); err != nil {
			return fmt.Errorf("create meeting: %w", err)
		}

		attendee := &model.MeetingAttendee{
			MeetingID:      meeting.ID,
			UserID:         req.AttendeeID,
			ResponseStatus: model.ResponsePending,
		}
		if err := tx.Attendees.Create(ctx, attendee); err != nil {
			return fmt.Errorf("create attendee: %w", err)
		}
		meeting.Attendee = attendee
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Meeting scheduled",
		zap.String("meeting_id", meeting.ID.String()),
		zap.Int64("organizer_id", req.OrganizerID),
		zap.Int64("attendee_id", req.AttendeeID),
		zap.Time("start", meeting.StartTime),
		zap.Time("end", meeting.EndTime),
	)

	publish(ctx, s.notifier, repos.Users, s.logger,
		meetingEvent(notify.EventScheduled, meeting, req.AttendeeID, "", s.now()), meeting.Participants())

	return meeting, nil
}

func (s *BookingService) checkCategory(ctx context.Context, repos *repository.Repositories, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	if *categoryID == s.focusCategoryID {
		return apperror.Validation("focus time cannot be booked")
	}

	category, err := repos.Categories.GetByID(ctx, *categoryID)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return apperror.NotFound("category %d not found", *categoryID)
	}
	return nil
}

// Cancel отменяет встречу; отменить может организатор или участник
func (s *BookingService) Cancel(ctx context.Context, meetingID uuid.UUID, userID int64, reason string) (*model.Meeting, error) {
	var meeting *model.Meeting

	err := s.store.InTx(ctx, func(tx *repository.Repositories) error {
		m, err := getMeeting(ctx, tx, meetingID)
		if err != nil {
			return err
		}
		if !m.IsParticipant(userID) {
			return apperror.Forbidden("only participants can cancel the meeting")
		}
		if m.Status.IsTerminal() {
			return apperror.Validation("meeting is already %s", m.Status)
		}

		if err := tx.Locks.LockUsers(ctx, m.Participants()...); err != nil {
			return err
		}
		if err := appendHistory(ctx, tx, m, userID, model.EditTypeCancelled, m.Range(), nil, reason); err != nil {
			return err
		}
		if err := tx.Meetings.UpdateStatus(ctx, m.ID, model.MeetingStatusCancelled); err != nil {
			return fmt.Errorf("cancel meeting: %w", err)
		}

		m.Status = model.MeetingStatusCancelled
		meeting = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Meeting cancelled",
		zap.String("meeting_id", meetingID.String()),
		zap.Int64("user_id", userID),
	)

	publish(ctx, s.notifier, s.store.Repos().Users, s.logger,
		meetingEvent(notify.EventCancelled, meeting, userID, reason, s.now()), meeting.Participants())

	return meeting, nil
}

// Respond сохраняет ответ участника на приглашение
func (s *BookingService) Respond(ctx context.Context, meetingID uuid.UUID, userID int64, response model.ResponseStatus) (*model.Meeting, error) {
	if response != model.ResponseAccepted && response != model.ResponseDeclined {
		return nil, apperror.Validation("response must be %q or %q", model.ResponseAccepted, model.ResponseDeclined)
	}

	var meeting *model.Meeting

	err := s.store.InTx(ctx, func(tx *repository.Repositories) error {
		m, err := getMeeting(ctx, tx, meetingID)
		if err != nil {
			return err
		}
		if m.Attendee == nil || m.Attendee.UserID != userID {
			return apperror.Forbidden("only the invited attendee can respond")
		}
		if m.Status.IsTerminal() {
			return apperror.Validation("meeting is already %s", m.Status)
		}

		now := s.now()
		m.Attendee.ResponseStatus = response
		m.Attendee.ResponseTime = &now
		if err := tx.Attendees.UpdateResponse(ctx, m.Attendee); err != nil {
			return fmt.Errorf("update response: %w", err)
		}

		meeting = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Attendee responded",
		zap.String("meeting_id", meetingID.String()),
		zap.Int64("user_id", userID),
		zap.String("response", string(response)),
	)

	publish(ctx, s.notifier, s.store.Repos().Users, s.logger,
		meetingEvent(notify.EventResponded, meeting, userID, string(response), s.now()), []int64{meeting.OrganizerID})

	return meeting, nil
}

// Get возвращает встречу участнику
func (s *BookingService) Get(ctx context.Context, meetingID uuid.UUID, viewerID int64) (*model.Meeting, error) {
	m, err := getMeeting(ctx, s.store.Repos(), meetingID)
	if err != nil {
		return nil, err
	}
	if !m.IsParticipant(viewerID) {
		return nil, apperror.Forbidden("only participants can view the meeting")
	}
	return m, nil
}

// History возвращает журнал изменений встречи
func (s *BookingService) History(ctx context.Context, meetingID uuid.UUID, viewerID int64) ([]*model.EditHistoryRecord, error) {
	if _, err := s.Get(ctx, meetingID, viewerID); err != nil {
		return nil, err
	}

	records, err := s.store.Repos().History.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}

// Day возвращает активные встречи пользователя, начинающиеся в указанную дату его пояса
func (s *BookingService) Day(ctx context.Context, userID int64, date string) ([]*model.Meeting, error) {
	_, loc, err := loadUser(ctx, s.store.Repos().Users, userID)
	if err != nil {
		return nil, err
	}

	dayStart, err := timezone.ParseDate(date, loc)
	if err != nil {
		return nil, err
	}

	return s.meetingsStartingIn(ctx, userID, dayStart, dayStart.AddDate(0, 0, 1))
}

// Week возвращает начало недели (понедельник, пояс пользователя) и встречи этой недели
func (s *BookingService) Week(ctx context.Context, userID int64, date string) (time.Time, []*model.Meeting, error) {
	_, loc, err := loadUser(ctx, s.store.Repos().Users, userID)
	if err != nil {
		return time.Time{}, nil, err
	}

	day, err := timezone.ParseDate(date, loc)
	if err != nil {
		return time.Time{}, nil, err
	}

	weekStart := timezone.StartOfWeek(day)
	meetings, err := s.meetingsStartingIn(ctx, userID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return time.Time{}, nil, err
	}
	return weekStart, meetings, nil
}

func (s *BookingService) meetingsStartingIn(ctx context.Context, userID int64, from, to time.Time) ([]*model.Meeting, error) {
	meetings, err := s.store.Repos().Meetings.ListActiveForUser(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}

	out := make([]*model.Meeting, 0, len(meetings))
	for _, m := range meetings {
		if !m.StartTime.Before(from) && m.StartTime.Before(to) {
			out = append(out, m)
		}
	}
	return out, nil
}

func getMeeting(ctx context.Context, repos *repository.Repositories, id uuid.UUID) (*model.Meeting, error) {
	m, err := repos.Meetings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	if m == nil {
		return nil, apperror.NotFound("meeting %s not found", id)
	}
	return m, nil
}

// CompleteEnded переводит закончившиеся встречи в completed
func (s *BookingService) CompleteEnded(ctx context.Context) (int64, error) {
	n, err := s.store.Repos().Meetings.CompleteEndedBefore(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("complete ended meetings: %w", err)
	}
	if n > 0 {
		s.logger.Info("Ended meetings completed", zap.Int64("count", n))
	}
	return n, nil
}
