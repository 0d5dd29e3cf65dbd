package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl lets the browser reuse a token-gated response for maxAge
// seconds while keeping it out of shared caches.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", maxAgeSeconds))
		c.Next()
	}
}

// NoStore keeps candidate data out of shared caches.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
