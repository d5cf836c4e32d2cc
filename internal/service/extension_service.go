package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/notify"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository"
	"github.com/Freeeeeet/meeting_scheduler/internal/timezone"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ShiftMode - как сдвигается следующая встреча организатора при продлении
type ShiftMode string

const (
	// ShiftOverlap (по умолчанию) сдвигает следующую встречу на newEnd - next.start,
	// то есть ровно на величину наложения; без наложения встреча остаётся на месте.
	ShiftOverlap ShiftMode = "overlap"
	// ShiftDelta сдвигает следующую встречу на величину продления: newEnd - oldEnd
	ShiftDelta ShiftMode = "delta"
)

func ParseShiftMode(s string) (ShiftMode, error) {
	switch ShiftMode(s) {
	case "", ShiftOverlap:
		return ShiftOverlap, nil
	case ShiftDelta:
		return ShiftDelta, nil
	}
	return "", fmt.Errorf("unknown cascade shift mode %q", s)
}

type ExtendRequest struct {
	MeetingID   uuid.UUID
	RequesterID int64
	NewEndTime  string // локальное время организатора
	Reason      string
}

type RescheduleRequest struct {
	MeetingID    uuid.UUID
	RequesterID  int64
	NewStartTime string // локальное время организатора
	NewEndTime   string
	Reason       string
}

// ExtendResult - продлённая встреча и, если была, сдвинутая следующая
type ExtendResult struct {
	Meeting *model.Meeting `json:"meeting"`
	Shifted *model.Meeting `json:"shifted_meeting,omitempty"`
}

type ExtensionService struct {
	store     repository.TxManager
	notifier  notify.Notifier
	shiftMode ShiftMode
	now       Clock
	logger    *zap.Logger
}

func NewExtensionService(
	store repository.TxManager,
	notifier notify.Notifier,
	shiftMode ShiftMode,
	now Clock,
	logger *zap.Logger,
) *ExtensionService {
	if shiftMode == "" {
		shiftMode = ShiftOverlap
	}
	return &ExtensionService{
		store:     store,
		notifier:  notifier,
		shiftMode: shiftMode,
		now:       clockOrNow(now),
		logger:    logger,
	}
}

// Extend продлевает встречу и сдвигает следующую встречу организатора (один шаг каскада).
// Все участники сдвигаемой встречи проверяются до первой записи; при любом конфликте
// не меняется ничего.
func (s *ExtensionService) Extend(ctx context.Context, req ExtendRequest) (*ExtendResult, error) {
	repos := s.store.Repos()

	meeting, err := getMeeting(ctx, repos, req.MeetingID)
	if err != nil {
		return nil, err
	}
	if err := checkExtendable(meeting, req.RequesterID); err != nil {
		return nil, err
	}

	_, organizerLoc, err := loadUser(ctx, repos.Users, meeting.OrganizerID)
	if err != nil {
		return nil, err
	}
	newEnd, err := timezone.ParseLocalDateTime(req.NewEndTime, organizerLoc)
	if err != nil {
		return nil, err
	}
	newEnd = newEnd.UTC()

	result := &ExtendResult{}

	err = s.store.InTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Locks.LockUsers(ctx, meeting.Participants()...); err != nil {
			return err
		}

		// Перечитываем под локом: встречу могли изменить между проверкой и транзакцией
		primary, err := getMeeting(ctx, tx, req.MeetingID)
		if err != nil {
			return err
		}
		if err := checkExtendable(primary, req.RequesterID); err != nil {
			return err
		}
		if !newEnd.After(primary.EndTime) {
			return apperror.New(apperror.KindInvalidExtension, "new end time must be after the current end time")
		}

		next, err := tx.Meetings.NextForOrganizer(ctx, primary.OrganizerID, primary.EndTime, primary.ID)
		if err != nil {
			return fmt.Errorf("get next meeting: %w", err)
		}

		var shift time.Duration
		if next != nil {
			shift = s.shiftFor(primary, next, newEnd)
			if shift <= 0 {
				next = nil
			}
		}

		exclude := []uuid.UUID{primary.ID}
		if next != nil {
			exclude = append(exclude, next.ID)
			if err := tx.Locks.LockUsers(ctx, next.Participants()...); err != nil {
				return err
			}
		}

		extended := model.TimeRange{Start: primary.StartTime, End: newEnd}
		busy, err := ConflictingUsers(ctx, tx.Meetings, primary.Participants(), extended, exclude...)
		if err != nil {
			return err
		}
		if len(busy) > 0 {
			return apperror.Conflict(apperror.KindSchedulingConflict, busy,
				"extended meeting conflicts with another meeting")
		}

		var shifted model.TimeRange
		if next != nil {
			shifted = next.Range().Shift(shift)
			busy, err := ConflictingUsers(ctx, tx.Meetings, next.Participants(), shifted, exclude...)
			if err != nil {
				return err
			}
			if len(busy) > 0 {
				return apperror.Conflict(apperror.KindCascadeConflict, busy,
					"cannot move the next meeting %s: participants are busy", next.ID)
			}
		}

		// Проверки пройдены, дальше только записи
		original := primary.Range()
		if err := appendHistory(ctx, tx, primary, req.RequesterID, model.EditTypeExtended, original, &extended, req.Reason); err != nil {
			return err
		}
		primary.EndTime = newEnd
		primary.ExtendedEndTime = &newEnd
		primary.Status = model.MeetingStatusExtended
		if err := tx.Meetings.UpdateSchedule(ctx, primary); err != nil {
			return fmt.Errorf("update extended meeting: %w", err)
		}
		result.Meeting = primary

		if next != nil {
			reason := fmt.Sprintf("shifted by %s after meeting %s was extended", shift, primary.ID)
			if err := appendHistory(ctx, tx, next, req.RequesterID, model.EditTypeRescheduled, next.Range(), &shifted, reason); err != nil {
				return err
			}
			next.StartTime = shifted.Start
			next.EndTime = shifted.End
			next.Status = model.MeetingStatusRescheduled
			if err := tx.Meetings.UpdateSchedule(ctx, next); err != nil {
				return fmt.Errorf("update shifted meeting: %w", err)
			}
			result.Shifted = next
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("meeting_id", result.Meeting.ID.String()),
		zap.Int64("requester_id", req.RequesterID),
		zap.Time("new_end", newEnd),
	}
	if result.Shifted != nil {
		fields = append(fields,
			zap.String("shifted_meeting_id", result.Shifted.ID.String()),
			zap.Time("shifted_start", result.Shifted.StartTime),
		)
	}
	s.logger.Info("Meeting extended", fields...)

	now := s.now()
	users := s.store.Repos().Users
	publish(ctx, s.notifier, users, s.logger,
		meetingEvent(notify.EventExtended, result.Meeting, req.RequesterID, req.Reason, now), result.Meeting.Participants())
	if result.Shifted != nil {
		event := meetingEvent(notify.EventRescheduled, result.Shifted, req.RequesterID, req.Reason, now)
		event.CascadeFrom = result.Meeting.ID.String()
		publish(ctx, s.notifier, users, s.logger, event, result.Shifted.Participants())
	}

	return result, nil
}

// shiftFor считает сдвиг следующей встречи: overlap = newEnd - next.start, delta = newEnd - oldEnd.
// Неположительный сдвиг означает, что двигать нечего.
func (s *ExtensionService) shiftFor(primary, next *model.Meeting, newEnd time.Time) time.Duration {
	if s.shiftMode == ShiftDelta {
		return newEnd.Sub(primary.EndTime)
	}
	return newEnd.Sub(next.StartTime)
}

func checkExtendable(m *model.Meeting, requesterID int64) error {
	if m.OrganizerID != requesterID {
		return apperror.Forbidden("only the organizer can extend the meeting")
	}
	if m.Status.IsTerminal() {
		return apperror.New(apperror.KindInvalidExtension, "meeting is %s", m.Status)
	}
	return nil
}

// Reschedule переносит встречу на новое время; доступно только организатору
func (s *ExtensionService) Reschedule(ctx context.Context, req RescheduleRequest) (*model.Meeting, error) {
	repos := s.store.Repos()

	meeting, err := getMeeting(ctx, repos, req.MeetingID)
	if err != nil {
		return nil, err
	}
	if err := checkReschedulable(meeting, req.RequesterID); err != nil {
		return nil, err
	}

	_, organizerLoc, err := loadUser(ctx, repos.Users, meeting.OrganizerID)
	if err != nil {
		return nil, err
	}
	start, err := timezone.ParseLocalDateTime(req.NewStartTime, organizerLoc)
	if err != nil {
		return nil, err
	}
	end, err := timezone.ParseLocalDateTime(req.NewEndTime, organizerLoc)
	if err != nil {
		return nil, err
	}

	target := model.TimeRange{Start: start.UTC(), End: end.UTC()}
	if !target.Valid() {
		return nil, apperror.Validation("start time must be before end time")
	}
	if target.Start.Before(s.now()) {
		return nil, apperror.Validation("cannot move a meeting into the past")
	}

	err = s.store.InTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Locks.LockUsers(ctx, meeting.Participants()...); err != nil {
			return err
		}

		m, err := getMeeting(ctx, tx, req.MeetingID)
		if err != nil {
			return err
		}
		if err := checkReschedulable(m, req.RequesterID); err != nil {
			return err
		}

		busy, err := ConflictingUsers(ctx, tx.Meetings, m.Participants(), target, m.ID)
		if err != nil {
			return err
		}
		if len(busy) > 0 {
			return apperror.Conflict(apperror.KindSchedulingConflict, busy, "new time conflicts with an existing meeting")
		}

		if err := appendHistory(ctx, tx, m, req.RequesterID, model.EditTypeRescheduled, m.Range(), &target, req.Reason); err != nil {
			return err
		}

		m.StartTime = target.Start
		m.EndTime = target.End
		m.ExtendedEndTime = nil
		m.Status = model.MeetingStatusRescheduled
		if err := tx.Meetings.UpdateSchedule(ctx, m); err != nil {
			return fmt.Errorf("update rescheduled meeting: %w", err)
		}

		meeting = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Meeting rescheduled",
		zap.String("meeting_id", meeting.ID.String()),
		zap.Int64("requester_id", req.RequesterID),
		zap.Time("start", meeting.StartTime),
		zap.Time("end", meeting.EndTime),
	)

	publish(ctx, s.notifier, s.store.Repos().Users, s.logger,
		meetingEvent(notify.EventRescheduled, meeting, req.RequesterID, req.Reason, s.now()), meeting.Participants())

	return meeting, nil
}

func checkReschedulable(m *model.Meeting, requesterID int64) error {
	if m.OrganizerID != requesterID {
		return apperror.Forbidden("only the organizer can reschedule the meeting")
	}
	if m.Status.IsTerminal() {
		return apperror.Validation("meeting is %s and cannot be rescheduled", m.Status)
	}
	return nil
}
