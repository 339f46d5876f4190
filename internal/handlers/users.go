package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"solarsmart/api/internal/middleware"
	"solarsmart/api/internal/models"
	"solarsmart/api/internal/service"
)

func (h HandlerSet) ListUsers(c *gin.Context) {
	overviews, err := h.users.List(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "Failed to fetch users")
		return
	}

	items := make([]meResponse, 0, len(overviews))
	for _, o := range overviews {
		items = append(items, toOverviewResponse(o))
	}
	c.JSON(http.StatusOK, items)
}

type loginLogResponse struct {
	LoginTime time.Time `json:"login_time"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// UserLogs lists a user's logins. Admins may read any user; everyone else
// only their own history.
func (h HandlerSet) UserLogs(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	if models.UserRole(claims.Role) != models.UserRoleAdmin && claims.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = v
	}

	events, err := h.users.Logins(c.Request.Context(), userID, limit)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.internalError(c, err, "Failed to fetch login history")
		return
	}

	items := make([]loginLogResponse, 0, len(events))
	for _, e := range events {
		items = append(items, loginLogResponse{
			LoginTime: e.LoginTime,
			IPAddress: e.IPAddress,
			UserAgent: e.UserAgent,
		})
	}
	c.JSON(http.StatusOK, items)
}
