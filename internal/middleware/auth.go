package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const internalKeyHeader = "X-Internal-API-Key"

// InternalAuthMiddleware guards the validation API against anything
// that is not another backend service. Callers must present the shared
// key in the X-Internal-API-Key header; the key comes from the service
// configuration (INTERNAL_API_KEY).
func InternalAuthMiddleware(apiKey string) gin.HandlerFunc {
	if apiKey == "" {
		// Refuse every request rather than run open.
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "server misconfigured: internal API key not set",
			})
		}
	}
	keyBytes := []byte(apiKey)

	return func(c *gin.Context) {
		presented := c.GetHeader(internalKeyHeader)
		if subtle.ConstantTimeCompare([]byte(presented), keyBytes) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}
