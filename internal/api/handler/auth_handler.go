package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/jobboard/internal/account"
	"github.com/cuongbtq/jobboard/internal/api/dto"
	"github.com/cuongbtq/jobboard/internal/domain"
)

// Register handles POST /api/v1/auth/register
// Anonymous callers may create student and company accounts; admins may
// create any role.
func (h *Handler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), ActorFrom(c), account.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Role:        role,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.requestLogger(c).Info("User registered",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	c.JSON(http.StatusCreated, dto.NewUserDTO(user))
}

// Login handles POST /api/v1/auth/login
// Returns a bearer token for the authenticated user.
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, expiresAt, err := h.sessions.Issue(domain.ActorFor(user))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.requestLogger(c).Info("User logged in", slog.Int64("user_id", user.ID))
	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		User:      dto.NewUserDTO(user),
	})
}

// Me handles GET /api/v1/me
func (h *Handler) Me(c *gin.Context) {
	actor := ActorFrom(c)
	user, err := h.accounts.GetUser(c.Request.Context(), actor, actor.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserDTO(user))
}

// UpdateMe handles PUT /api/v1/me
// An empty password keeps the current one.
func (h *Handler) UpdateMe(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	actor := ActorFrom(c)
	user, err := h.accounts.UpdateProfile(c.Request.Context(), actor, actor.UserID, account.ProfileInput{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserDTO(user))
}
