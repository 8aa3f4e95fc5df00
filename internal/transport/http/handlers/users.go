package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arklim/campus-clock/internal/usecase"
)

// UserHandler serves portal account management endpoints.
type UserHandler struct {
	users    *usecase.UserService
	schedule *usecase.ScheduleService
}

// NewUserHandler constructs a UserHandler instance.
func NewUserHandler(users *usecase.UserService, schedule *usecase.ScheduleService) *UserHandler {
	return &UserHandler{users: users, schedule: schedule}
}

// RegisterRoutes attaches user endpoints to the router group.
func (h *UserHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", h.Register)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.PUT("/:id/auto-clock", h.SetAutoClock)
	group.PUT("/:id/password", h.UpdatePassword)
	group.DELETE("/:id", h.Delete)
	group.GET("/:id/attempts", h.ListAttempts)
	group.POST("/:id/clock", h.ClockNow)
}

var userErrorCases = []ErrorCase{
	{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
	{Err: usecase.ErrUsernameTaken, Status: http.StatusConflict, Message: "username already registered"},
	{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "invalid input"},
}

// Register stores a new portal account with encrypted credentials.
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username and password are required"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), usecase.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		AutoClock: req.AutoClock,
	})
	if err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "registration failed")
		return
	}

	c.JSON(http.StatusCreated, newUserSummary(*user))
}

// List returns every registered account.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "list users failed")
		return
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, newUserSummary(user))
	}
	c.JSON(http.StatusOK, summaries)
}

// Get returns one account.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "lookup user failed")
		return
	}

	c.JSON(http.StatusOK, newUserSummary(*user))
}

// SetAutoClock toggles daily scheduling for an account.
func (h *UserHandler) SetAutoClock(c *gin.Context) {
	var req SetAutoClockRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AutoClock == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "auto_clock is required"})
		return
	}

	if err := h.users.SetAutoClock(c.Request.Context(), c.Param("id"), *req.AutoClock); err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "update failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "auto clock updated"})
}

// UpdatePassword replaces the stored portal password.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "password is required"})
		return
	}

	if err := h.users.UpdatePassword(c.Request.Context(), c.Param("id"), req.Password); err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "update failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}

// Delete removes an account and its attempt history.
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "delete failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user deleted"})
}

// ListAttempts returns an account's attempt history, newest first.
func (h *UserHandler) ListAttempts(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	attempts, err := h.users.ListAttempts(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "list attempts failed")
		return
	}

	summaries := make([]AttemptSummary, 0, len(attempts))
	for _, attempt := range attempts {
		summaries = append(summaries, newAttemptSummary(attempt))
	}
	c.JSON(http.StatusOK, summaries)
}

// ClockNow schedules an immediate attempt for the account.
func (h *UserHandler) ClockNow(c *gin.Context) {
	attempt, err := h.schedule.ScheduleNow(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "schedule failed")
		return
	}

	c.JSON(http.StatusAccepted, newAttemptSummary(*attempt))
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
