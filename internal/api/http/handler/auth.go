package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/gophchat-server/internal/api/http/middleware"
	"github.com/dtroode/gophchat-server/internal/apierror"
	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
)

// RegistrationService defines the two-phase registration operation.
type RegistrationService interface {
	Register(ctx context.Context, req model.RegisterRequest) (model.RegisterResult, error)
}

// LoginService defines password login.
type LoginService interface {
	Login(ctx context.Context, email, password string) (model.LoginResult, error)
}

// SessionService defines session revocation.
type SessionService interface {
	Logout(ctx context.Context, token string) error
	LogoutAll(ctx context.Context, accountID uuid.UUID) (int64, error)
}

type registerRequest struct {
	Email    string `json:"email" binding:"omitempty,email,max=254"`
	Password string `json:"password" binding:"max=72"`
	Code     string `json:"code" binding:"max=16"`
	Name     string `json:"name" binding:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Auth handles registration, login and logout endpoints.
type Auth struct {
	registration   RegistrationService
	login          LoginService
	sessions       SessionService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(
	registration RegistrationService,
	login LoginService,
	sessions SessionService,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		registration:   registration,
		login:          login,
		sessions:       sessions,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register sends a passcode when only an email is given, otherwise completes registration.
func (h *Auth) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Auth handler: malformed register request",
			"error", err.Error())
		handleError(c, apierror.NewErrValidation("invalid request body"))
		return
	}

	res, err := h.registration.Register(c.Request.Context(), model.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Code:     req.Code,
		Name:     req.Name,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	if res.CodeSent {
		c.JSON(http.StatusCreated, gin.H{"success": true, "message": "code sent"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "registration complete",
		"account_id": res.AccountID,
	})
}

func (h *Auth) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, apierror.NewErrValidation("email and password are required"))
		return
	}

	res, err := h.login.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      res.Token,
		"session_id": res.SessionID,
		"expires_at": res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout revokes the presented token. It succeeds for unknown or expired tokens.
func (h *Auth) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context(), middleware.BearerToken(c.Request)); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
}

// LogoutAll revokes every session of the authenticated account.
func (h *Auth) LogoutAll(c *gin.Context) {
	identity, ok := h.contextManager.GetIdentityFromContext(c.Request.Context())
	if !ok {
		handleError(c, apierror.NewErrInvalidAuthorizationToken())
		return
	}

	n, err := h.sessions.LogoutAll(c.Request.Context(), identity.AccountID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out everywhere", "revoked": n})
}
