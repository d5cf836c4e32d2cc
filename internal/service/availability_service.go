package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository"
	"github.com/Freeeeeet/meeting_scheduler/internal/timezone"
	"go.uber.org/zap"
)

// viewHorizon - насколько вперёд показываются занятые интервалы в просмотре доступности
const viewHorizon = 14 * 24 * time.Hour

// BulkResult - итог пакетного создания окон
type BulkResult struct {
	Created []*model.AvailabilityWindow `json:"created"`
	Errors  []apperror.ItemError        `json:"errors,omitempty"`
}

// AvailabilityView - доступность пользователя глазами зрителя, всё в поясе зрителя
type AvailabilityView struct {
	UserID       int64               `json:"user_id"`
	Timezone     string              `json:"timezone"`
	Windows      []model.LocalWindow `json:"windows"`
	FocusWindows []model.LocalWindow `json:"focus_windows,omitempty"`
	Meetings     []*model.Meeting    `json:"meetings,omitempty"`
	Busy         []model.TimeRange   `json:"busy,omitempty"`
}

type AvailabilityService struct {
	store           repository.TxManager
	focusCategoryID int64
	now             Clock
	logger          *zap.Logger
}

func NewAvailabilityService(store repository.TxManager, focusCategoryID int64, now Clock, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		store:           store,
		focusCategoryID: focusCategoryID,
		now:             clockOrNow(now),
		logger:          logger,
	}
}

// plannedSlot - провалидированный слот, готовый к записи (1 или 2 окна в UTC)
type plannedSlot struct {
	day     int
	index   int
	windows []*model.AvailabilityWindow
}

// BulkCreate создаёт окна из локального времени владельца.
// Без atomic ошибки собираются поэлементно, остальное сохраняется.
// С atomic любая ошибка откатывает весь вызов.
func (s *AvailabilityService) BulkCreate(ctx context.Context, ownerID int64, days []model.AvailabilityDayInput, atomic bool) (*BulkResult, error) {
	repos := s.store.Repos()

	_, loc, err := loadUser(ctx, repos.Users, ownerID)
	if err != nil {
		return nil, err
	}

	existing, err := repos.Availability.ListByOwner(ctx, ownerID, false)
	if err != nil {
		return nil, fmt.Errorf("list existing windows: %w", err)
	}

	planned, itemErrs := s.plan(ctx, repos, ownerID, loc, s.now(), days, existing)
	result := &BulkResult{Errors: itemErrs}

	if atomic {
		if len(itemErrs) > 0 {
			return nil, &apperror.Error{
				Kind:   apperror.KindValidation,
				Detail: fmt.Sprintf("%d availability slot(s) are invalid, nothing was saved", len(itemErrs)),
				Items:  itemErrs,
			}
		}

		err := s.store.InTx(ctx, func(tx *repository.Repositories) error {
			for _, p := range planned {
				for _, w := range p.windows {
					if err := tx.Availability.Create(ctx, w); err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("create availability windows: %w", err)
		}

		for _, p := range planned {
			result.Created = append(result.Created, p.windows...)
		}
	} else {
		for _, p := range planned {
			err := s.store.InTx(ctx, func(tx *repository.Repositories) error {
				for _, w := range p.windows {
					if err := tx.Availability.Create(ctx, w); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				if apperror.KindOf(err) == apperror.KindInternal {
					return nil, fmt.Errorf("create availability windows: %w", err)
				}
				result.Errors = append(result.Errors, itemError(p.day, p.index, err))
				continue
			}
			result.Created = append(result.Created, p.windows...)
		}
	}

	s.logger.Info("Availability windows created",
		zap.Int64("owner_id", ownerID),
		zap.Int("created", len(result.Created)),
		zap.Int("failed", len(result.Errors)),
		zap.Bool("atomic", atomic),
	)

	return result, nil
}

// plan валидирует вход и переводит слоты в UTC, не трогая хранилище на запись
func (s *AvailabilityService) plan(ctx context.Context, repos *repository.Repositories, ownerID int64, loc *time.Location, asOf time.Time,
	days []model.AvailabilityDayInput, existing []*model.AvailabilityWindow) ([]plannedSlot, []apperror.ItemError) {

	taken := make(map[timezone.Span]bool, len(existing))
	for _, w := range existing {
		taken[timezone.Span{DayOfWeek: w.DayOfWeek, Start: w.StartTime, End: w.EndTime}] = true
	}

	var (
		planned []plannedSlot
		errs    []apperror.ItemError
	)

	for _, day := range days {
		if len(day.Slots) == 0 {
			errs = append(errs, apperror.ItemError{DayOfWeek: day.DayOfWeek, Index: -1, Message: "no slots given"})
			continue
		}

		for i, slot := range day.Slots {
			windows, err := s.planSlot(ctx, repos, ownerID, loc, asOf, day.DayOfWeek, slot)
			if err == nil {
				for _, w := range windows {
					key := timezone.Span{DayOfWeek: w.DayOfWeek, Start: w.StartTime, End: w.EndTime}
					if taken[key] {
						err = apperror.Validation("availability window %s-%s already exists for day %d",
							w.StartTime, w.EndTime, w.DayOfWeek)
						break
					}
				}
			}
			if err != nil {
				errs = append(errs, itemError(day.DayOfWeek, i, err))
				continue
			}

			for _, w := range windows {
				taken[timezone.Span{DayOfWeek: w.DayOfWeek, Start: w.StartTime, End: w.EndTime}] = true
			}
			planned = append(planned, plannedSlot{day: day.DayOfWeek, index: i, windows: windows})
		}
	}

	return planned, errs
}

func (s *AvailabilityService) planSlot(ctx context.Context, repos *repository.Repositories, ownerID int64, loc *time.Location, asOf time.Time,
	day int, slot model.AvailabilitySlotInput) ([]*model.AvailabilityWindow, error) {

	if day < 0 || day > 6 {
		return nil, apperror.Validation("day_of_week must be between 0 (Monday) and 6 (Sunday)")
	}

	start, err := timezone.ParseTimeOfDay(slot.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := timezone.ParseTimeOfDay(slot.EndTime)
	if err != nil {
		return nil, err
	}
	if start >= end {
		return nil, apperror.Validation("start time %s must be before end time %s", start, end)
	}

	if err := s.checkCategory(ctx, repos, slot.CategoryID); err != nil {
		return nil, err
	}

	active := true
	if slot.IsActive != nil {
		active = *slot.IsActive
	}

	// Окно, которое в UTC переходит через полночь, сохраняется двумя записями
	spans := timezone.SpanToUTC(day, start, end, loc, asOf)
	windows := make([]*model.AvailabilityWindow, 0, len(spans))
	for _, sp := range spans {
		windows = append(windows, &model.AvailabilityWindow{
			OwnerID:    ownerID,
			DayOfWeek:  sp.DayOfWeek,
			StartTime:  sp.Start,
			EndTime:    sp.End,
			CategoryID: slot.CategoryID,
			IsActive:   active,
		})
	}

	return windows, nil
}

func (s *AvailabilityService) checkCategory(ctx context.Context, repos *repository.Repositories, categoryID *int64) error {
	if categoryID == nil {
		return nil
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

func itemError(day, index int, err error) apperror.ItemError {
	msg := err.Error()
	if e, ok := apperror.As(err); ok && e.Detail != "" {
		msg = e.Detail
	}
	return apperror.ItemError{DayOfWeek: day, Index: index, Message: msg}
}

// ListForViewer показывает доступность targetID в часовом поясе viewerID.
// Владелец видит также свои встречи и время фокуса; другие видят только занятые интервалы.
func (s *AvailabilityService) ListForViewer(ctx context.Context, viewerID, targetID int64) (*AvailabilityView, error) {
	repos := s.store.Repos()

	viewer, viewerLoc, err := loadUser(ctx, repos.Users, viewerID)
	if err != nil {
		return nil, err
	}
	if _, _, err := loadUser(ctx, repos.Users, targetID); err != nil {
		return nil, err
	}

	windows, err := repos.Availability.ListByOwner(ctx, targetID, true)
	if err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}

	view := &AvailabilityView{
		UserID:   targetID,
		Timezone: viewer.Timezone,
		Windows:  []model.LocalWindow{},
	}

	now := s.now()
	self := viewerID == targetID
	for _, w := range windows {
		local := toLocalWindows(w, viewerLoc, now)
		if w.IsFocus(s.focusCategoryID) {
			if self {
				view.FocusWindows = append(view.FocusWindows, local...)
			}
			continue
		}
		view.Windows = append(view.Windows, local...)
	}

	meetings, err := repos.Meetings.ListActiveForUser(ctx, targetID, now, now.Add(viewHorizon))
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}

	for _, m := range meetings {
		if self {
			view.Meetings = append(view.Meetings, m)
			continue
		}
		view.Busy = append(view.Busy, model.TimeRange{
			Start: m.StartTime.In(viewerLoc),
			End:   m.EndTime.In(viewerLoc),
		})
	}

	return view, nil
}

func toLocalWindows(w *model.AvailabilityWindow, loc *time.Location, asOf time.Time) []model.LocalWindow {
	spans := timezone.SpanToLocal(w.DayOfWeek, w.StartTime, w.EndTime, loc, asOf)
	out := make([]model.LocalWindow, 0, len(spans))
	for _, sp := range spans {
		out = append(out, model.LocalWindow{
			WindowID:   w.ID,
			DayOfWeek:  sp.DayOfWeek,
			StartTime:  sp.Start,
			EndTime:    sp.End,
			CategoryID: w.CategoryID,
		})
	}
	return out
}

// Update частично меняет окно. Время в patch - локальное для владельца.
func (s *AvailabilityService) Update(ctx context.Context, ownerID, windowID int64, patch model.AvailabilityPatch) (*model.AvailabilityWindow, error) {
	var updated *model.AvailabilityWindow

	err := s.store.InTx(ctx, func(repos *repository.Repositories) error {
		window, err := s.ownedWindow(ctx, repos, ownerID, windowID)
		if err != nil {
			return err
		}

		if patch.DayOfWeek != nil || patch.StartTime != nil || patch.EndTime != nil {
			_, loc, err := loadUser(ctx, repos.Users, ownerID)
			if err != nil {
				return err
			}
			if err := applyTimePatch(window, patch, loc, s.now()); err != nil {
				return err
			}
		}

		if patch.CategoryID != nil {
			if err := s.checkCategory(ctx, repos, patch.CategoryID); err != nil {
				return err
			}
			window.CategoryID = patch.CategoryID
		}
		if patch.IsActive != nil {
			window.IsActive = *patch.IsActive
		}

		if err := repos.Availability.Update(ctx, window); err != nil {
			return err
		}
		updated = window
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Availability window updated",
		zap.Int64("window_id", windowID),
		zap.Int64("owner_id", ownerID),
	)

	return updated, nil
}

// applyTimePatch пересчитывает день и время окна через локальный пояс владельца
func applyTimePatch(window *model.AvailabilityWindow, patch model.AvailabilityPatch, loc *time.Location, asOf time.Time) error {
	spans := timezone.SpanToLocal(window.DayOfWeek, window.StartTime, window.EndTime, loc, asOf)
	if len(spans) == 0 {
		return apperror.Validation("stored window %d is empty", window.ID)
	}
	local := spans[0]

	if patch.DayOfWeek != nil {
		if *patch.DayOfWeek < 0 || *patch.DayOfWeek > 6 {
			return apperror.Validation("day_of_week must be between 0 (Monday) and 6 (Sunday)")
		}
		local.DayOfWeek = *patch.DayOfWeek
	}
	if patch.StartTime != nil {
		start, err := timezone.ParseTimeOfDay(*patch.StartTime)
		if err != nil {
			return err
		}
		local.Start = start
	}
	if patch.EndTime != nil {
		end, err := timezone.ParseTimeOfDay(*patch.EndTime)
		if err != nil {
			return err
		}
		local.End = end
	}
	if local.Start >= local.End {
		return apperror.Validation("start time %s must be before end time %s", local.Start, local.End)
	}

	utc := timezone.SpanToUTC(local.DayOfWeek, local.Start, local.End, loc, asOf)
	if len(utc) != 1 {
		return apperror.Validation("window would cross midnight in UTC, create it as a new slot instead")
	}

	window.DayOfWeek = utc[0].DayOfWeek
	window.StartTime = utc[0].Start
	window.EndTime = utc[0].End
	return nil
}

// SetActive включает или выключает окно
func (s *AvailabilityService) SetActive(ctx context.Context, ownerID, windowID int64, active bool) (*model.AvailabilityWindow, error) {
	return s.Update(ctx, ownerID, windowID, model.AvailabilityPatch{IsActive: &active})
}

// Delete удаляет окно владельца
func (s *AvailabilityService) Delete(ctx context.Context, ownerID, windowID int64) error {
	err := s.store.InTx(ctx, func(repos *repository.Repositories) error {
		if _, err := s.ownedWindow(ctx, repos, ownerID, windowID); err != nil {
			return err
		}
		return repos.Availability.Delete(ctx, windowID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Availability window deleted",
		zap.Int64("window_id", windowID),
		zap.Int64("owner_id", ownerID),
	)
	return nil
}

// ownedWindow: чужое окно выглядит как несуществующее
func (s *AvailabilityService) ownedWindow(ctx context.Context, repos *repository.Repositories, ownerID, windowID int64) (*model.AvailabilityWindow, error) {
	window, err := repos.Availability.GetByID(ctx, windowID)
	if err != nil {
		return nil, fmt.Errorf("get availability window: %w", err)
	}
	if window == nil || window.OwnerID != ownerID {
		return nil, apperror.NotFound("availability window %d not found", windowID)
	}
	return window, nil
}

// localAvailability раскладывает активные не-фокусные окна по дням в поясе loc
// (смещение зоны на момент asOf) и склеивает соприкасающиеся интервалы
func localAvailability(windows []*model.AvailabilityWindow, loc *time.Location, focusCategoryID int64, asOf time.Time) map[int][]timezone.Span {
	byDay := make(map[int][]timezone.Span)
	for _, w := range windows {
		if !w.IsActive || w.IsFocus(focusCategoryID) {
			continue
		}
		for _, sp := range timezone.SpanToLocal(w.DayOfWeek, w.StartTime, w.EndTime, loc, asOf) {
			byDay[sp.DayOfWeek] = append(byDay[sp.DayOfWeek], sp)
		}
	}

	for day, spans := range byDay {
		byDay[day] = mergeSpans(spans)
	}
	return byDay
}

func mergeSpans(spans []timezone.Span) []timezone.Span {
	if len(spans) < 2 {
		return spans
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	merged := []timezone.Span{spans[0]}
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.Start <= last.End {
			if sp.End > last.End {
				last.End = sp.End
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}

// localInterval переводит интервал встречи в (день, начало, конец) пояса loc.
// ok=false, если встреча пересекает местную полночь.
func localInterval(r model.TimeRange, loc *time.Location) (day int, start, end model.TimeOfDay, ok bool) {
	ls := r.Start.In(loc)
	le := r.End.In(loc)

	day = timezone.Weekday(ls)
	start = timezone.TimeOfDayOf(ls)

	dayStart := timezone.StartOfDay(ls)
	nextDay := dayStart.AddDate(0, 0, 1)
	switch {
	case le.Before(nextDay):
		end = timezone.TimeOfDayOf(le)
	case le.Equal(nextDay):
		end = model.MinutesPerDay
	default:
		return 0, 0, 0, false
	}

	return day, start, end, true
}

// withinAvailability проверяет, что интервал целиком покрыт доступностью владельца
func withinAvailability(windows []*model.AvailabilityWindow, r model.TimeRange, loc *time.Location, focusCategoryID int64, asOf time.Time) bool {
	day, start, end, ok := localInterval(r, loc)
	if !ok {
		return false
	}

	for _, sp := range localAvailability(windows, loc, focusCategoryID, asOf)[day] {
		if sp.Contains(start, end) {
			return true
		}
	}
	return false
}
