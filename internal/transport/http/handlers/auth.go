package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/campus-clock/internal/usecase"
)

// AuthHandler serves the management API login endpoint.
type AuthHandler struct {
	admin *usecase.AdminService
}

// NewAuthHandler constructs an AuthHandler instance.
func NewAuthHandler(admin *usecase.AdminService) *AuthHandler {
	return &AuthHandler{admin: admin}
}

// RegisterRoutes attaches auth endpoints to the router group.
func (h *AuthHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/login", h.Login)
}

// Login exchanges the admin credential for a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username and password are required"})
		return
	}

	token, err := h.admin.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, AuthLoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
	})
}
