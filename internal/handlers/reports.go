package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type loginReportRequest struct {
	Day string `json:"day"`
}

// EnqueueLoginReport queues a CSV export of one UTC day of the login ledger.
// The day defaults to yesterday.
func (h HandlerSet) EnqueueLoginReport(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Reporting is disabled"})
		return
	}

	var req loginReportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	today := h.now().UTC().Truncate(24 * time.Hour)
	day := today.AddDate(0, 0, -1)
	if req.Day != "" {
		parsed, err := time.Parse("2006-01-02", req.Day)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "day must be YYYY-MM-DD"})
			return
		}
		if parsed.After(today) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "day is in the future"})
			return
		}
		day = parsed
	}

	taskID, err := h.reports.EnqueueLoginExport(c.Request.Context(), day)
	if err != nil {
		h.internalError(c, err, "Failed to enqueue report")
		return
	}
	h.metrics.ObserveReportEnqueued()

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": taskID,
		"day":     day.Format("2006-01-02"),
	})
}
