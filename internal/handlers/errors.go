package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solarsmart/api/internal/middleware"
)

// internalError logs the cause and answers with a generic message.
func (h HandlerSet) internalError(c *gin.Context, err error, message string) {
	h.log.Error().
		Err(err).
		Str("route", c.FullPath()).
		Str("request_id", middleware.GetRequestID(c)).
		Msg(message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
