package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func SecureHeaders(ctx *gin.Context) {
	ctx.Header("X-Content-Type-Options", "nosniff")
	ctx.Header("X-Frame-Options", "DENY")
	ctx.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	ctx.Header("X-XSS-Protection", "0")
	ctx.Next()
}

// MaintenanceMode short-circuits every request while the flag is on.
func MaintenanceMode(enabled bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if enabled {
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service is under maintenance", "code": "maintenance"})
			return
		}
		ctx.Next()
	}
}
