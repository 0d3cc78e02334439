package health

import (
	"context"
	"sync"
	"time"

	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
)

// Reporter pings backing dependencies and publishes their state through the
// standard gRPC health service. Each dependency is exposed under its own
// service name; the empty name reports SERVING only while all of them answer.
type Reporter struct {
	server   *grpchealth.Server
	checkers map[string]model.HealthChecker
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger
}

// NewReporter creates a Reporter. Every dependency starts as NOT_SERVING until
// the first check completes.
func NewReporter(checkers map[string]model.HealthChecker, interval time.Duration, logger *logger.Logger) *Reporter {
	server := grpchealth.NewServer()
	server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for name := range checkers {
		server.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	timeout := interval / 2
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}

	return &Reporter{
		server:   server,
		checkers: checkers,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Server returns the health service to register on a gRPC server.
func (r *Reporter) Server() healthpb.HealthServer {
	return r.server
}

// Check pings every dependency concurrently and updates the published statuses.
// It reports whether all dependencies are reachable.
func (r *Reporter) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		healthy = true
	)
	for name, checker := range r.checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			st := healthpb.HealthCheckResponse_SERVING
			if err := checker.Ping(ctx); err != nil {
				st = healthpb.HealthCheckResponse_NOT_SERVING
				r.logger.Warn("Health reporter: dependency unreachable",
					"dependency", name,
					"error", err.Error())
				mu.Lock()
				healthy = false
				mu.Unlock()
			}
			r.server.SetServingStatus(name, st)
		}()
	}
	wg.Wait()

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	r.server.SetServingStatus("", overall)

	return healthy
}

// Run checks immediately and then on every interval until ctx is done. On
// return every status is switched to NOT_SERVING.
func (r *Reporter) Run(ctx context.Context) {
	r.Check(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			return
		case <-ticker.C:
			r.Check(ctx)
		}
	}
}
