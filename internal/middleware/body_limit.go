package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/sgpa-planner/internal/response"
)

// BodyLimit rejects requests whose declared body exceeds maxBytes and caps
// the reader for the rest.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.AbortFail(c, http.StatusRequestEntityTooLarge, response.ErrPayloadTooLarge)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
