package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solarsmart/api/internal/middleware"
	"solarsmart/api/internal/models"
	"solarsmart/api/internal/service"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Gender   string `json:"gender"`
}

type userResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Gender string `json:"gender"`
	Role   string `json:"role"`
}

type sessionUserResponse struct {
	userResponse
	LastLogin *time.Time `json:"last_login"`
}

type loginResponse struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	User      sessionUserResponse `json:"user"`
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Gender: user.Gender,
		Role:   string(user.Role),
	}
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.ObserveRegistration("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields required"})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Gender:   req.Gender,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			h.metrics.ObserveRegistration("invalid")
			c.JSON(http.StatusBadRequest, gin.H{"error": "All fields required"})
		case errors.Is(err, service.ErrDuplicateEmail):
			h.metrics.ObserveRegistration("duplicate")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		default:
			h.metrics.ObserveRegistration("error")
			h.internalError(c, err, "Registration failed")
		}
		return
	}

	h.metrics.ObserveRegistration("created")
	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.ObserveLogin("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			h.metrics.ObserveLogin("unknown_user")
			c.JSON(http.StatusUnauthorized, gin.H{"error": h.loginFailureMessage("User not found")})
		case errors.Is(err, service.ErrIncorrectPassword):
			h.metrics.ObserveLogin("bad_password")
			c.JSON(http.StatusUnauthorized, gin.H{"error": h.loginFailureMessage("Incorrect password")})
		default:
			h.metrics.ObserveLogin("error")
			h.internalError(c, err, "Login failed")
		}
		return
	}

	h.metrics.ObserveLogin("success")
	c.JSON(http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC(),
		User: sessionUserResponse{
			userResponse: toUserResponse(result.User),
			LastLogin:    result.LastLogin,
		},
	})
}

// loginFailureMessage hides which credential was wrong unless the deployment
// opted into the detailed messages.
func (h HandlerSet) loginFailureMessage(detailed string) string {
	if h.cfg != nil && h.cfg.Security.RevealLoginFailure {
		return detailed
	}
	return "Invalid email or password"
}

type meResponse struct {
	userResponse
	LastLogin   *time.Time `json:"last_login"`
	TotalLogins int64      `json:"total_logins"`
}

func (h HandlerSet) Me(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	overview, err := h.users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			return
		}
		h.internalError(c, err, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toOverviewResponse(overview)})
}

func toOverviewResponse(o service.UserOverview) meResponse {
	return meResponse{
		userResponse: toUserResponse(o.User),
		LastLogin:    o.LastLogin,
		TotalLogins:  o.TotalLogins,
	}
}
