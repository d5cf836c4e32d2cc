package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/gin-gonic/gin"
)

// availabilityItem - либо день с набором слотов {"day_of_week", "slots": [...]},
// либо одиночный слот {"day_of_week", "start_time", "end_time", "category", "active"}
type availabilityItem struct {
	model.AvailabilityDayInput
}

func (a *availabilityItem) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if _, ok := probe["day_of_week"]; !ok {
		return fmt.Errorf("day_of_week is required")
	}

	if _, ok := probe["slots"]; ok {
		return decodeStrict(data, &a.AvailabilityDayInput)
	}

	var single struct {
		DayOfWeek int `json:"day_of_week"`
		model.AvailabilitySlotInput
	}
	if err := decodeStrict(data, &single); err != nil {
		return err
	}
	a.DayOfWeek = single.DayOfWeek
	a.Slots = []model.AvailabilitySlotInput{single.AvailabilitySlotInput}
	return nil
}

// decodeStrict не пропускает лишние поля, чтобы смесь двух форм была ошибкой
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type createAvailabilityRequest struct {
	Atomic         bool               `json:"atomic"`
	Availabilities []availabilityItem `json:"availabilities" binding:"required,min=1"`
}

func (h *Handler) createAvailability(c *gin.Context) {
	var req createAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	days := make([]model.AvailabilityDayInput, 0, len(req.Availabilities))
	for _, item := range req.Availabilities {
		days = append(days, item.AvailabilityDayInput)
	}

	result, err := h.svc.Availability.BulkCreate(c.Request.Context(), currentUserID(c), days, req.Atomic)
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusCreated
	switch {
	case len(result.Errors) > 0 && len(result.Created) == 0:
		status = http.StatusBadRequest
	case len(result.Errors) > 0:
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

func (h *Handler) listAvailability(c *gin.Context) {
	viewerID := currentUserID(c)
	targetID := viewerID
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "user_id must be an integer")
			return
		}
		targetID = id
	}

	view, err := h.svc.Availability.ListForViewer(c.Request.Context(), viewerID, targetID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) updateAvailability(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var patch model.AvailabilityPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}

	window, err := h.svc.Availability.Update(c.Request.Context(), currentUserID(c), id, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, window)
}

func (h *Handler) deleteAvailability(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Availability.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		badRequest(c, name+" must be an integer")
		return 0, false
	}
	return id, true
}
