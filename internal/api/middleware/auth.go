package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fracbond-investment-ledger/internal/access"
)

// IdentityKey is the key used to store the authenticated identity in the
// gin context
const IdentityKey = "identity"

// Authenticate verifies the Bearer token on the request and stores the
// resulting identity in the context. Requests without a valid token are
// rejected with 401 before reaching the handler.
func Authenticate(logger *slog.Logger, tokens *access.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortUnauthorized(c, "Missing bearer token")
			return
		}

		identity, err := tokens.Verify(token)
		if err != nil {
			logger.Warn("Rejected request with invalid session token",
				"path", c.Request.URL.Path,
			)
			abortUnauthorized(c, "Invalid or expired session token")
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// RequireAdmin rejects non-admin identities with 403. It must run after
// Authenticate.
func RequireAdmin(gate *access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := gate.AuthorizeAdmin(GetIdentity(c)); err != nil {
			if errors.Is(err, access.ErrUnauthorized) {
				abortUnauthorized(c, "")
				return
			}
			abortForbidden(c, "Administrator access required")
			return
		}
		c.Next()
	}
}

// GetIdentity retrieves the authenticated identity from the gin context,
// or nil when the request was not authenticated.
func GetIdentity(c *gin.Context) *access.Identity {
	if v, exists := c.Get(IdentityKey); exists {
		if identity, ok := v.(*access.Identity); ok {
			return identity
		}
	}
	return nil
}

func abortUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func abortForbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Forbidden"
	}
	abortWithError(c, http.StatusForbidden, "FORBIDDEN", message)
}

// abortWithError builds the error envelope inline rather than through the
// handler package to avoid an import cycle.
func abortWithError(c *gin.Context, status int, code, message string) {
	response := gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(status, response)
}
