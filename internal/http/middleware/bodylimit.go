package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies at max bytes. Requests that declare a larger
// Content-Length are rejected up front with 413. Bodies of unknown length are
// wrapped in http.MaxBytesReader; reads past the cap return *http.MaxBytesError,
// which handlers map to the same 413. max <= 0 disables it.
func BodyLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > max {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "payload_too_large",
				"message":    "request body too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}
