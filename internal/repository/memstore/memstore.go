// Package memstore - in-memory реализация repository.TxManager для тестов сервисов и HTTP.
//
// Транзакции выполняются последовательно; при ошибке fn состояние откатывается к снимку.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository"
	"github.com/google/uuid"
)

// Операции, на которые можно повесить искусственную ошибку через FailOn
const (
	OpMeetingUpdate  = "meetings.update_schedule"
	OpHistoryAppend  = "history.append"
	OpWindowCreate   = "availability.create"
	OpAttendeeCreate = "attendees.create"
)

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	data     *state
	failures map[string]error
	repos    *repository.Repositories
}

type state struct {
	users      map[int64]model.User
	categories map[int64]model.MeetingCategory
	windows    map[int64]model.AvailabilityWindow
	meetings   map[uuid.UUID]model.Meeting
	attendees  map[uuid.UUID]model.MeetingAttendee
	history    []model.EditHistoryRecord

	nextUserID     int64
	nextCategoryID int64
	nextWindowID   int64
	nextAttendeeID int64
	nextHistoryID  int64
}

func New() *Store {
	s := &Store{
		data: &state{
			users:      make(map[int64]model.User),
			categories: make(map[int64]model.MeetingCategory),
			windows:    make(map[int64]model.AvailabilityWindow),
			meetings:   make(map[uuid.UUID]model.Meeting),
			attendees:  make(map[uuid.UUID]model.MeetingAttendee),
		},
		failures: make(map[string]error),
	}

	s.repos = &repository.Repositories{
		Users:        &userStore{s},
		Categories:   &categoryStore{s},
		Availability: &availabilityStore{s},
		Meetings:     &meetingStore{s},
		Attendees:    &attendeeStore{s},
		History:      &historyStore{s},
		Locks:        lockStore{},
	}

	return s
}

func (s *Store) Repos() *repository.Repositories {
	return s.repos
}

func (s *Store) InTx(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(s.repos); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}

	return nil
}

// FailOn заставляет операцию op вернуть err (nil снимает ошибку)
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// History возвращает копию всего журнала изменений
func (s *Store) History() []model.EditHistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.EditHistoryRecord(nil), s.data.history...)
}

func (s *Store) failure(op string) error {
	return s.failures[op]
}

func (st *state) clone() *state {
	c := *st
	c.users = make(map[int64]model.User, len(st.users))
	for k, v := range st.users {
		c.users[k] = v
	}
	c.categories = make(map[int64]model.MeetingCategory, len(st.categories))
	for k, v := range st.categories {
		c.categories[k] = v
	}
	c.windows = make(map[int64]model.AvailabilityWindow, len(st.windows))
	for k, v := range st.windows {
		c.windows[k] = v
	}
	c.meetings = make(map[uuid.UUID]model.Meeting, len(st.meetings))
	for k, v := range st.meetings {
		c.meetings[k] = v
	}
	c.attendees = make(map[uuid.UUID]model.MeetingAttendee, len(st.attendees))
	for k, v := range st.attendees {
		c.attendees[k] = v
	}
	c.history = append([]model.EditHistoryRecord(nil), st.history...)
	return &c
}

type userStore struct{ s *Store }

func (r *userStore) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.data.users {
		if u.Username == user.Username {
			return apperror.Validation("user %q already exists", user.Username)
		}
	}

	if user.Timezone == "" {
		user.Timezone = model.DefaultTimezone
	}
	r.s.data.nextUserID++
	user.ID = r.s.data.nextUserID
	user.CreatedAt = time.Now()
	r.s.data.users[user.ID] = *user
	return nil
}

func (r *userStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.data.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userStore) GetByIDs(_ context.Context, ids []int64) (map[int64]*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make(map[int64]*model.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.data.users[id]; ok {
			out[id] = &u
		}
	}
	return out, nil
}

func (r *userStore) UpdateTimezone(_ context.Context, id int64, timezone string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.data.users[id]
	if !ok {
		return apperror.NotFound("user %d not found", id)
	}
	u.Timezone = timezone
	r.s.data.users[id] = u
	return nil
}

type categoryStore struct{ s *Store }

func (r *categoryStore) Create(_ context.Context, category *model.MeetingCategory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.data.categories {
		if c.Name == category.Name {
			return apperror.Validation("category %q already exists", category.Name)
		}
	}

	if category.ID == 0 {
		r.s.data.nextCategoryID++
		category.ID = r.s.data.nextCategoryID
	} else if category.ID > r.s.data.nextCategoryID {
		r.s.data.nextCategoryID = category.ID
	}
	category.CreatedAt = time.Now()
	r.s.data.categories[category.ID] = *category
	return nil
}

func (r *categoryStore) GetByID(_ context.Context, id int64) (*model.MeetingCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.data.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *categoryStore) List(_ context.Context) ([]*model.MeetingCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*model.MeetingCategory, 0, len(r.s.data.categories))
	for _, c := range r.s.data.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type availabilityStore struct{ s *Store }

func (r *availabilityStore) Create(_ context.Context, window *model.AvailabilityWindow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failure(OpWindowCreate); err != nil {
		return err
	}
	if window.StartTime >= window.EndTime {
		return apperror.Validation("start time must be before end time")
	}
	if r.duplicate(window) {
		return apperror.Validation("availability window %s-%s already exists for day %d",
			window.StartTime, window.EndTime, window.DayOfWeek)
	}

	r.s.data.nextWindowID++
	window.ID = r.s.data.nextWindowID
	window.CreatedAt = time.Now()
	window.UpdatedAt = window.CreatedAt
	r.s.data.windows[window.ID] = *window
	return nil
}

func (r *availabilityStore) duplicate(window *model.AvailabilityWindow) bool {
	for _, w := range r.s.data.windows {
		if w.ID != window.ID && w.OwnerID == window.OwnerID && w.DayOfWeek == window.DayOfWeek &&
			w.StartTime == window.StartTime && w.EndTime == window.EndTime {
			return true
		}
	}
	return false
}

func (r *availabilityStore) GetByID(_ context.Context, id int64) (*model.AvailabilityWindow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.data.windows[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *availabilityStore) ListByOwner(_ context.Context, ownerID int64, activeOnly bool) ([]*model.AvailabilityWindow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*model.AvailabilityWindow
	for _, w := range r.s.data.windows {
		if w.OwnerID != ownerID || (activeOnly && !w.IsActive) {
			continue
		}
		w := w
		out = append(out, &w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *availabilityStore) Update(_ context.Context, window *model.AvailabilityWindow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.windows[window.ID]; !ok {
		return apperror.NotFound("availability window %d not found", window.ID)
	}
	if window.StartTime >= window.EndTime {
		return apperror.Validation("start time must be before end time")
	}
	if r.duplicate(window) {
		return apperror.Validation("availability window %s-%s already exists for day %d",
			window.StartTime, window.EndTime, window.DayOfWeek)
	}

	window.UpdatedAt = time.Now()
	r.s.data.windows[window.ID] = *window
	return nil
}

func (r *availabilityStore) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.windows[id]; !ok {
		return apperror.NotFound("availability window %d not found", id)
	}
	delete(r.s.data.windows, id)
	return nil
}

type meetingStore struct{ s *Store }

func (r *meetingStore) Create(_ context.Context, meeting *model.Meeting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !meeting.StartTime.Before(meeting.EndTime) {
		return apperror.Validation("start time must be before end time")
	}
	if meeting.ID == uuid.Nil {
		meeting.ID = uuid.New()
	}
	meeting.CreatedAt = time.Now()
	meeting.UpdatedAt = meeting.CreatedAt

	stored := *meeting
	stored.Attendee = nil
	r.s.data.meetings[meeting.ID] = stored
	return nil
}

// withAttendee собирает встречу так же, как LEFT JOIN в PostgreSQL-версии
func (r *meetingStore) withAttendee(m model.Meeting) *model.Meeting {
	if a, ok := r.s.data.attendees[m.ID]; ok {
		m.Attendee = &a
	}
	return &m
}

func (r *meetingStore) GetByID(_ context.Context, id uuid.UUID) (*model.Meeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.data.meetings[id]
	if !ok {
		return nil, nil
	}
	return r.withAttendee(m), nil
}

func (r *meetingStore) ListActiveForUser(_ context.Context, userID int64, from, to time.Time) ([]*model.Meeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	window := model.TimeRange{Start: from, End: to}
	var out []*model.Meeting
	for _, m := range r.s.data.meetings {
		full := r.withAttendee(m)
		if !full.Status.IsActive() || !full.IsParticipant(userID) || !full.Range().Overlaps(window) {
			continue
		}
		out = append(out, full)
	}
	sortByStart(out)
	return out, nil
}

func (r *meetingStore) NextForOrganizer(_ context.Context, organizerID int64, after time.Time, exclude uuid.UUID) (*model.Meeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var candidates []*model.Meeting
	for _, m := range r.s.data.meetings {
		if m.OrganizerID != organizerID || m.ID == exclude || m.StartTime.Before(after) {
			continue
		}
		if m.Status != model.MeetingStatusScheduled && m.Status != model.MeetingStatusRescheduled {
			continue
		}
		candidates = append(candidates, r.withAttendee(m))
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sortByStart(candidates)
	return candidates[0], nil
}

func (r *meetingStore) UpdateSchedule(_ context.Context, meeting *model.Meeting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failure(OpMeetingUpdate); err != nil {
		return err
	}
	stored, ok := r.s.data.meetings[meeting.ID]
	if !ok {
		return apperror.NotFound("meeting %s not found", meeting.ID)
	}
	if !meeting.StartTime.Before(meeting.EndTime) {
		return apperror.Validation("start time must be before end time")
	}

	stored.StartTime = meeting.StartTime
	stored.EndTime = meeting.EndTime
	stored.ExtendedEndTime = meeting.ExtendedEndTime
	stored.Status = meeting.Status
	stored.UpdatedAt = time.Now()
	meeting.UpdatedAt = stored.UpdatedAt
	r.s.data.meetings[meeting.ID] = stored
	return nil
}

func (r *meetingStore) UpdateStatus(_ context.Context, id uuid.UUID, status model.MeetingStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.data.meetings[id]
	if !ok {
		return apperror.NotFound("meeting %s not found", id)
	}
	stored.Status = status
	stored.UpdatedAt = time.Now()
	r.s.data.meetings[id] = stored
	return nil
}

func (r *meetingStore) CompleteEndedBefore(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, m := range r.s.data.meetings {
		if m.Status.IsActive() && m.EndTime.Before(now) {
			m.Status = model.MeetingStatusCompleted
			r.s.data.meetings[id] = m
			n++
		}
	}
	return n, nil
}

func sortByStart(meetings []*model.Meeting) {
	sort.Slice(meetings, func(i, j int) bool {
		return meetings[i].StartTime.Before(meetings[j].StartTime)
	})
}

type attendeeStore struct{ s *Store }

func (r *attendeeStore) Create(_ context.Context, attendee *model.MeetingAttendee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failure(OpAttendeeCreate); err != nil {
		return err
	}
	if _, ok := r.s.data.attendees[attendee.MeetingID]; ok {
		return apperror.Validation("meeting %s already has an attendee", attendee.MeetingID)
	}
	if attendee.ResponseStatus == "" {
		attendee.ResponseStatus = model.ResponsePending
	}
	r.s.data.nextAttendeeID++
	attendee.ID = r.s.data.nextAttendeeID
	r.s.data.attendees[attendee.MeetingID] = *attendee
	return nil
}

func (r *attendeeStore) UpdateResponse(_ context.Context, attendee *model.MeetingAttendee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.data.attendees[attendee.MeetingID]
	if !ok || stored.ID != attendee.ID {
		return apperror.NotFound("attendee %d not found", attendee.ID)
	}
	r.s.data.attendees[attendee.MeetingID] = *attendee
	return nil
}

type historyStore struct{ s *Store }

func (r *historyStore) Append(_ context.Context, record *model.EditHistoryRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failure(OpHistoryAppend); err != nil {
		return err
	}
	r.s.data.nextHistoryID++
	record.ID = r.s.data.nextHistoryID
	record.CreatedAt = time.Now()
	r.s.data.history = append(r.s.data.history, *record)
	return nil
}

func (r *historyStore) ListByMeeting(_ context.Context, meetingID uuid.UUID) ([]*model.EditHistoryRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*model.EditHistoryRecord
	for _, rec := range r.s.data.history {
		if rec.MeetingID == meetingID {
			rec := rec
			out = append(out, &rec)
		}
	}
	return out, nil
}

// lockStore ничего не делает: транзакции memstore и так идут по одной
type lockStore struct{}

func (lockStore) LockUsers(context.Context, ...int64) error { return nil }
