package router

import (
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/gophchat-server/internal/api/grpc/middleware"
	"github.com/dtroode/gophchat-server/internal/logger"
)

// Router represents the operational gRPC router.
// It serves the standard health service and server reflection.
type Router struct {
	health healthpb.HealthServer
	logger *logger.Logger
}

// New creates new gRPC Router instance.
//
// Parameters:
//   - health: The health service reporting dependency state
//   - logger: The logger for request logging
//
// Returns a pointer to the newly created Router instance.
func New(health healthpb.HealthServer, logger *logger.Logger) *Router {
	return &Router{
		health: health,
		logger: logger,
	}
}

// Register builds the gRPC server with logging and recovery interceptors.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(logging.UnaryInterceptors()...),
		grpc.ChainStreamInterceptor(logging.StreamInterceptors()...),
	)
	healthpb.RegisterHealthServer(s, r.health)
	reflection.Register(s)

	return s
}
