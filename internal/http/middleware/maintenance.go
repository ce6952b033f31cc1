package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/transit-complaints/backend/internal/settings"
)

// Maintenance rejects requests with 503 while the maintenanceMode flag is on.
func Maintenance(flags settings.FlagReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if flags.GetFlag(c.Request.Context(), settings.MaintenanceMode, settings.Defaults[settings.MaintenanceMode]) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{
					"code":    "MAINTENANCE",
					"message": "Complaint intake is paused for maintenance",
				},
			})
			return
		}
		c.Next()
	}
}
