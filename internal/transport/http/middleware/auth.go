package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/campus-clock/internal/infra/security"
	"github.com/arklim/campus-clock/internal/usecase"
)

// SubjectKey is the gin context key holding the authenticated subject.
const SubjectKey = "subject"

// ErrorResponse matches the handlers.ErrorResponse structure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RequireAuth validates the Authorization header against the admin
// token service.
func RequireAuth(admin *usecase.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				ErrorResponse{Error: "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				ErrorResponse{Error: "invalid authorization format: expected 'Bearer <token>'"})
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				ErrorResponse{Error: "missing access token"})
			return
		}

		subject, err := admin.Verify(token)
		if err != nil {
			switch {
			case errors.Is(err, security.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					ErrorResponse{Error: "access token expired"})
			case errors.Is(err, security.ErrTokenInvalid):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					ErrorResponse{Error: "invalid access token"})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					ErrorResponse{Error: "authentication failed"})
			}
			return
		}

		c.Set(SubjectKey, subject)
		c.Next()
	}
}
