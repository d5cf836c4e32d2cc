// Package httpapi - JSON API планировщика поверх gin.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services - сервисы, которые обслуживает API
type Services struct {
	Users        *service.UserService
	Categories   *service.CategoryService
	Availability *service.AvailabilityService
	Booking      *service.BookingService
	Extension    *service.ExtensionService
	Suggestions  *service.SuggestionService
}

type Options struct {
	JWTSecret         []byte
	TokenTTL          time.Duration
	SuggestionsPerMin int
	CORSOrigins       []string
	Now               func() time.Time
}

type Handler struct {
	svc    Services
	opts   Options
	logger *zap.Logger
}

func NewHandler(svc Services, opts Options, logger *zap.Logger) *Handler {
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{svc: svc, opts: opts, logger: logger}
}

// NewRouter собирает gin.Engine со всеми маршрутами
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))
	router.Use(cors.New(corsConfig(h.opts.CORSOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/users", h.register)

		protected := api.Group("")
		protected.Use(JWTAuth(h.opts.JWTSecret))

		protected.GET("/me", h.me)
		protected.PATCH("/me/timezone", h.updateTimezone)

		protected.GET("/categories", h.listCategories)
		protected.POST("/categories", h.createCategory)

		protected.POST("/availability", h.createAvailability)
		protected.GET("/availability", h.listAvailability)
		protected.PATCH("/availability/:id", h.updateAvailability)
		protected.DELETE("/availability/:id", h.deleteAvailability)

		protected.POST("/schedule", h.schedule)
		protected.POST("/reschedule", h.reschedule)
		protected.GET("/meetings/:id", h.getMeeting)
		protected.PATCH("/meetings/:id/extend", h.extend)
		protected.POST("/meetings/:id/cancel", h.cancel)
		protected.POST("/meetings/:id/respond", h.respond)
		protected.GET("/meetings/:id/history", h.history)

		protected.GET("/day/:date", h.day)
		protected.GET("/week/:date/image.png", h.weekImage)

		protected.POST("/reschedule/suggestions/:meeting_id",
			RateLimit(h.opts.SuggestionsPerMin, h.logger), h.suggestions)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && strings.TrimSpace(origins[0]) == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
