package middlewares

import (
	"cowork/src/config"
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

const DEBUG_SECRET_HEADER = "x-debug-secret"

// DebugOnly guards diagnostic routes. They do not exist in production, and
// require the shared secret header whenever DEBUG_SECRET is set.
func DebugOnly(cfg *config.Config) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if cfg.IsProd() {
			ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found", "code": "not_found"})
			return
		}
		if cfg.DebugSecret != "" {
			got := ctx.GetHeader(DEBUG_SECRET_HEADER)
			if subtle.ConstantTimeCompare([]byte(got), []byte(cfg.DebugSecret)) != 1 {
				log.Printf("[Debug] rejected %s %s from %s\n", ctx.Request.Method, ctx.Request.URL.Path, ctx.ClientIP())
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": "unauthorized"})
				return
			}
		}
		ctx.Next()
	}
}
