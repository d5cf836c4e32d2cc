package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/meeting_scheduler/internal/apperror"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error   apperror.Kind        `json:"error"`
	Message string               `json:"message"`
	UserIDs []int64              `json:"user_ids,omitempty"`
	Items   []apperror.ItemError `json:"items,omitempty"`
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindInvalidTimeFormat, apperror.KindInvalidTimezone:
		return http.StatusBadRequest
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindSchedulingConflict, apperror.KindCascadeConflict:
		return http.StatusConflict
	case apperror.KindOutsideAvailability, apperror.KindInvalidExtension:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError отдаёт ошибку клиенту. Внутренние ошибки логируются и не раскрываются.
func (h *Handler) respondError(c *gin.Context, err error) {
	e, ok := apperror.As(err)
	if !ok || e.Kind == apperror.KindInternal {
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
			Error:   apperror.KindInternal,
			Message: "internal error",
		})
		return
	}

	c.AbortWithStatusJSON(statusFor(e.Kind), errorResponse{
		Error:   e.Kind,
		Message: e.Detail,
		UserIDs: e.UserIDs,
		Items:   e.Items,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Error:   apperror.KindValidation,
		Message: msg,
	})
}
