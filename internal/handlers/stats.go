package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solarsmart/api/internal/analytics"
)

type dayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

type monthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// WeeklyLogins serves GET /stats/weekly-logins. Empty days are omitted unless
// the caller passes fill=zero.
func (h HandlerSet) WeeklyLogins(c *gin.Context) {
	now := h.now()
	buckets, err := h.analytics.Weekly(c.Request.Context(), now)
	if err != nil {
		h.internalError(c, err, "Failed to fetch weekly stats")
		return
	}
	if c.Query("fill") == "zero" {
		buckets = analytics.FillDays(now, buckets)
	}

	items := make([]dayCount, 0, len(buckets))
	for _, b := range buckets {
		items = append(items, dayCount{Day: b.Key, Count: b.Count})
	}
	c.JSON(http.StatusOK, items)
}

func (h HandlerSet) MonthlyLogins(c *gin.Context) {
	now := h.now()
	buckets, err := h.analytics.Monthly(c.Request.Context(), now)
	if err != nil {
		h.internalError(c, err, "Failed to fetch monthly stats")
		return
	}
	if c.Query("fill") == "zero" {
		buckets = analytics.FillMonths(now, buckets)
	}

	items := make([]monthCount, 0, len(buckets))
	for _, b := range buckets {
		items = append(items, monthCount{Month: b.Key, Count: b.Count})
	}
	c.JSON(http.StatusOK, items)
}
