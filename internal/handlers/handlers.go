// Package handlers exposes the routing and reminder API over gin.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docroute-api/internal/auth"
	"docroute-api/internal/clock"
	"docroute-api/internal/extract"
	"docroute-api/internal/metrics"
	"docroute-api/internal/repository"
	"docroute-api/internal/scheduler"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	store     repository.Store
	texts     extract.TextSource
	scheduler *scheduler.Scheduler
	clock     clock.Clock
	metrics   *metrics.Metrics
	uploadDir string
}

// NewHandlers creates new HTTP handlers
func NewHandlers(store repository.Store, texts extract.TextSource, sched *scheduler.Scheduler, clk clock.Clock, m *metrics.Metrics, uploadDir string) *Handlers {
	return &Handlers{
		store:     store,
		texts:     texts,
		scheduler: sched,
		clock:     clk,
		metrics:   m,
		uploadDir: uploadDir,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine, jwtSecret string) {
	// Health check
	router.GET("/healthz", h.HealthCheck)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1/ai-routing")
	api.Use(auth.Middleware(jwtSecret))
	{
		// Routing lifecycle
		api.POST("/create", h.CreateRouting)
		api.POST("/ai/analyze", h.Analyze)
		api.GET("/history", h.RoutingHistory)
		api.GET("/audit/:routing_id", h.AuditTrail)
		api.DELETE("/:routing_id", h.DeleteRouting)

		// Human triage
		api.POST("/human/deadline", h.CreateHumanDeadline)

		// Reminder rules
		api.GET("/reminders/history/:routing_id", h.ReminderHistory)
		api.DELETE("/reminders/history/:history_id", h.DeleteReminderHistory)
		api.GET("/reminders/:routing_id", h.GetReminders)
		api.POST("/reminders", h.CreateReminder)
		api.PUT("/reminders/:reminder_id", h.UpdateReminder)
		api.DELETE("/reminders/:reminder_id", h.DeleteReminder)

		// Scheduler control
		api.POST("/scheduler/run-once", h.RunSchedulerOnce)
		api.GET("/scheduler/status", h.SchedulerStatus)
	}
}
