package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery converts a panic anywhere below it into a 500 response. Ledger
// handlers mutate money, so the client must always get a well-formed error
// envelope rather than a dropped connection, and the stack trace must land
// in the log together with the correlation ID for the request.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			correlationID := GetCorrelationID(c)

			logger.Error("panic recovered in request handler",
				"error", r,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"correlation_id", correlationID,
				"stack", string(debug.Stack()),
			)

			body := gin.H{
				"error": gin.H{
					"code":    "INTERNAL_SERVER_ERROR",
					"message": "An unexpected error occurred while processing the request",
				},
			}
			if correlationID != "" {
				body["correlation_id"] = correlationID
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()

		c.Next()
	}
}
