package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arklim/campus-clock/internal/infra/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags each request with a correlation id, keeping one the
// caller already supplied. The id is echoed on the response header and
// stored in the request context so the access log and handler log
// lines for the same request line up.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, id)

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
