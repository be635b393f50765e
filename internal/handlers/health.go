package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"docroute-api/internal/models"
)

// HealthCheck reports database and scheduler health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: h.clock.Now(),
		Database:  "connected",
		Metrics:   make(map[string]string),
	}

	if err := h.store.Ping(); err != nil {
		logrus.Errorf("Database health check failed: %v", err)
		response.Status = "unhealthy"
		response.Database = "disconnected"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	if h.scheduler.IsRunning() {
		response.Metrics["scheduler"] = "running"
		response.Metrics["next_run"] = h.scheduler.GetNextRun().Format("2006-01-02 15:04:05")
	} else {
		response.Metrics["scheduler"] = "stopped"
	}

	if count, err := h.store.CountActiveReminders(); err == nil {
		response.Metrics["active_reminders"] = fmt.Sprintf("%d", count)
	}

	c.JSON(http.StatusOK, response)
}

// RunSchedulerOnce triggers a single reminder pass outside the cron
// cadence.
func (h *Handlers) RunSchedulerOnce(c *gin.Context) {
	if err := h.scheduler.RunOnce(); err != nil {
		h.internalError(c, "Failed to run scheduler")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Scheduler pass completed"})
}

// SchedulerStatus reports whether the cron loop is running and its
// last/next fire times.
func (h *Handlers) SchedulerStatus(c *gin.Context) {
	status := gin.H{
		"running": h.scheduler.IsRunning(),
	}
	if h.scheduler.IsRunning() {
		status["next_run"] = h.scheduler.GetNextRun().Format("2006-01-02 15:04:05")
	}
	if last := h.scheduler.GetLastRun(); !last.IsZero() {
		status["last_run"] = last.Format("2006-01-02 15:04:05")
	}
	c.JSON(http.StatusOK, status)
}
