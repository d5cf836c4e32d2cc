package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username   string `json:"username" binding:"required"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Timezone   string `json:"timezone"`
	TelegramID *int64 `json:"telegram_id"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.svc.Users.Register(c.Request.Context(), &model.User{
		Username:   req.Username,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Timezone:   req.Timezone,
		TelegramID: req.TelegramID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := IssueToken(h.opts.JWTSecret, user.ID, h.opts.TokenTTL)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.svc.Users.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) updateTimezone(c *gin.Context) {
	var req struct {
		Timezone string `json:"timezone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.svc.Users.UpdateTimezone(c.Request.Context(), currentUserID(c), req.Timezone)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.svc.Categories.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) createCategory(c *gin.Context) {
	var req struct {
		Name                   string `json:"name" binding:"required"`
		Description            string `json:"description"`
		DefaultDurationMinutes int    `json:"default_duration_minutes"`
		DisplayColor           string `json:"display_color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	category, err := h.svc.Categories.Create(c.Request.Context(), currentUserID(c), &model.MeetingCategory{
		Name:                   req.Name,
		Description:            req.Description,
		DefaultDurationMinutes: req.DefaultDurationMinutes,
		DisplayColor:           req.DisplayColor,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}
