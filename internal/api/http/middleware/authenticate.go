package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/gophchat-server/internal/apierror"
	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
)

const bearerPrefix = "Bearer "

// SessionValidator resolves a bearer token to an identity.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (model.Identity, error)
}

// Authenticate validates bearer tokens and injects the identity into the request context.
type Authenticate struct {
	validator      SessionValidator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(validator SessionValidator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{validator: validator, contextManager: contextManager, logger: logger}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// Handle rejects the request with 401 unless it carries a live session token.
func (m *Authenticate) Handle(c *gin.Context) {
	identity, err := m.validator.Validate(c.Request.Context(), BearerToken(c.Request))
	if err != nil {
		apiErr, ok := apierror.As(err)
		if !ok {
			apiErr = apierror.NewErrInternalServerError(err)
		}
		if apiErr.Kind == apierror.KindInternal {
			m.logger.Error("Authenticate middleware: session validation failed",
				"path", c.FullPath(),
				"error", err.Error())
		}
		c.AbortWithStatusJSON(apiErr.HTTPCode, gin.H{"success": false, "error": apiErr.Message})
		return
	}

	ctx := m.contextManager.SetIdentityToContext(c.Request.Context(), identity)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
