package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/render"
	"github.com/Freeeeeet/meeting_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type scheduleRequest struct {
	OrganizerID int64                 `json:"organizer_id" binding:"required"`
	CategoryID  *int64                `json:"category"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	StartTime   string                `json:"start_time" binding:"required"`
	EndTime     string                `json:"end_time" binding:"required"`
	Priority    model.MeetingPriority `json:"priority"`
}

// schedule: текущий пользователь бронирует встречу у организатора, время в его поясе
func (h *Handler) schedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	meeting, err := h.svc.Booking.Schedule(c.Request.Context(), service.ScheduleRequest{
		OrganizerID: req.OrganizerID,
		AttendeeID:  currentUserID(c),
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Priority:    req.Priority,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meeting)
}

type rescheduleRequest struct {
	MeetingID    uuid.UUID `json:"meeting_id" binding:"required"`
	NewStartTime string    `json:"new_start_time" binding:"required"`
	NewEndTime   string    `json:"new_end_time" binding:"required"`
	Reason       string    `json:"reason"`
}

func (h *Handler) reschedule(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	meeting, err := h.svc.Extension.Reschedule(c.Request.Context(), service.RescheduleRequest{
		MeetingID:    req.MeetingID,
		RequesterID:  currentUserID(c),
		NewStartTime: req.NewStartTime,
		NewEndTime:   req.NewEndTime,
		Reason:       req.Reason,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meeting)
}

func (h *Handler) extend(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		ExtendedEndTime string `json:"extended_end_time" binding:"required"`
		Reason          string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.svc.Extension.Extend(c.Request.Context(), service.ExtendRequest{
		MeetingID:   id,
		RequesterID: currentUserID(c),
		NewEndTime:  req.ExtendedEndTime,
		Reason:      req.Reason,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getMeeting(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	meeting, err := h.svc.Booking.Get(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meeting)
}

func (h *Handler) cancel(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	meeting, err := h.svc.Booking.Cancel(c.Request.Context(), id, currentUserID(c), req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meeting)
}

func (h *Handler) respond(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Response model.ResponseStatus `json:"response" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	meeting, err := h.svc.Booking.Respond(c.Request.Context(), id, currentUserID(c), req.Response)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meeting)
}

func (h *Handler) history(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	records, err := h.svc.Booking.History(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if records == nil {
		records = []*model.EditHistoryRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) day(c *gin.Context) {
	date := c.Param("date")
	meetings, err := h.svc.Booking.Day(c.Request.Context(), currentUserID(c), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "meetings": meetings})
}

func (h *Handler) weekImage(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	weekStart, meetings, err := h.svc.Booking.Week(ctx, userID, c.Param("date"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	var ids []int64
	for _, m := range meetings {
		ids = append(ids, m.Participants()...)
	}
	names, err := h.svc.Users.Names(ctx, ids)
	if err != nil {
		h.respondError(c, err)
		return
	}

	img, err := render.WeekImage(render.WeekData{
		WeekStart: weekStart,
		Location:  weekStart.Location(),
		Now:       h.opts.Now(),
		Meetings:  meetings,
		Names:     names,
		ViewerID:  userID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (h *Handler) suggestions(c *gin.Context) {
	id, ok := uuidParam(c, "meeting_id")
	if !ok {
		return
	}
	if h.svc.Suggestions == nil || !h.svc.Suggestions.Enabled() {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "suggestions are not configured"})
		return
	}

	suggestions, err := h.svc.Suggestions.Suggest(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meeting_id": id, "suggestions": suggestions})
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
