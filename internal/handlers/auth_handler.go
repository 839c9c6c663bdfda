package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shop-backend/internal/auth"
	"shop-backend/internal/httpx"
	"shop-backend/internal/metrics"
	"shop-backend/internal/models"
	"shop-backend/internal/repository"
	"shop-backend/internal/validation"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenIssuer signs access tokens for a user.
type TokenIssuer interface {
	Issue(userID, role string) (string, time.Time, error)
}

type AuthHandler struct {
	users            UserStore
	tokens           TokenIssuer
	metrics          *metrics.Metrics
	logger           *zap.Logger
	allowAdminSignup bool
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, m *metrics.Metrics, logger *zap.Logger, allowAdminSignup bool) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, metrics: m, logger: logger, allowAdminSignup: allowAdminSignup}
}

// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var in models.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidBody(c, err)
		return
	}
	in.Normalize()
	if err := validation.Struct(in); err != nil {
		userResource.fail(c, h.logger, err, "")
		return
	}
	if in.Role == models.RoleAdmin && !h.allowAdminSignup {
		h.metrics.AuthFailures.WithLabelValues("forbidden").Inc()
		httpx.Fail(c, http.StatusForbidden, "Admin signup is disabled", "")
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		userResource.fail(c, h.logger, err, "Internal server error")
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Phone:        in.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		userResource.fail(c, h.logger, err, "Internal server error")
		return
	}

	h.respondWithToken(c, "Signup successful", user)
}

// POST /api/v1/auth/signin
func (h *AuthHandler) Signin(c *gin.Context) {
	var in models.SigninInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidBody(c, err)
		return
	}
	if err := validation.Struct(in); err != nil {
		userResource.fail(c, h.logger, err, "")
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		h.rejectSignin(c)
		return
	}
	if err != nil {
		userResource.fail(c, h.logger, err, "Internal server error")
		return
	}
	if err := auth.VerifyPassword(in.Password, user.PasswordHash); err != nil {
		h.rejectSignin(c)
		return
	}

	h.respondWithToken(c, "Signin successful", user)
}

func (h *AuthHandler) rejectSignin(c *gin.Context) {
	h.metrics.AuthFailures.WithLabelValues("signin").Inc()
	httpx.Fail(c, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error(), "")
}

func (h *AuthHandler) respondWithToken(c *gin.Context, message string, user *models.User) {
	token, _, err := h.tokens.Issue(user.ID.Hex(), string(user.Role))
	if err != nil {
		userResource.fail(c, h.logger, err, "Internal server error")
		return
	}
	httpx.WithToken(c, message, user, token)
}
