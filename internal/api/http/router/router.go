package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/gophchat-server/internal/api/http/handler"
	"github.com/dtroode/gophchat-server/internal/api/http/middleware"
	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
)

// Services groups the flows the HTTP API exposes.
type Services struct {
	Registration handler.RegistrationService
	Login        handler.LoginService
	Sessions     interface {
		handler.SessionService
		middleware.SessionValidator
	}
	Profile handler.ProfileService
}

// Router represents the HTTP router of the chat back end.
// It wires handlers to routes and applies logging, timeout and authentication middleware.
type Router struct {
	services       Services
	contextManager model.ContextManager
	requestTimeout time.Duration
	maxAvatarBytes int64
	logger         *logger.Logger
}

// New creates new HTTP Router instance.
//
// Parameters:
//   - services: The registration, login, session and profile flows
//   - contextManager: Carries the authenticated identity through the request context
//   - requestTimeout: Upper bound for one request's work
//   - maxAvatarBytes: Largest accepted avatar upload
//   - logger: The logger for request logging
//
// Returns a pointer to the newly created Router instance.
func New(
	services Services,
	contextManager model.ContextManager,
	requestTimeout time.Duration,
	maxAvatarBytes int64,
	logger *logger.Logger,
) *Router {
	return &Router{
		services:       services,
		contextManager: contextManager,
		requestTimeout: requestTimeout,
		maxAvatarBytes: maxAvatarBytes,
		logger:         logger,
	}
}

// Register builds the gin engine with public and protected route groups.
func (r *Router) Register() *gin.Engine {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.services.Sessions, r.contextManager, r.logger)

	engine := gin.New()
	engine.Use(
		logging.Handle,
		gin.CustomRecovery(logging.Recovery),
		middleware.Timeout(r.requestTimeout),
	)

	authHandler := handler.NewAuth(r.services.Registration, r.services.Login, r.services.Sessions, r.contextManager, r.logger)
	profileHandler := handler.NewProfile(r.services.Profile, r.contextManager, r.maxAvatarBytes, r.logger)

	engine.GET("/health", handler.Health)

	public := engine.Group("/")
	{
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
		public.POST("/logout", authHandler.Logout)
	}

	protected := engine.Group("/")
	protected.Use(authenticate.Handle)
	{
		protected.POST("/logout/all", authHandler.LogoutAll)
		protected.GET("/me", profileHandler.Me)
		protected.PUT("/me/avatar", profileHandler.UploadAvatar)
		protected.GET("/me/avatar", profileHandler.DownloadAvatar)
	}

	return engine
}
