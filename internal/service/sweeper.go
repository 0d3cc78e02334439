package service

import (
	"context"
	"time"

	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
)

// Sweeper periodically deletes session records past their expiry.
type Sweeper struct {
	sessionStore model.SessionStore
	interval     time.Duration
	logger       *logger.Logger
	now          func() time.Time
}

func NewSweeper(sessionStore model.SessionStore, interval time.Duration, logger *logger.Logger) *Sweeper {
	return &Sweeper{
		sessionStore: sessionStore,
		interval:     interval,
		logger:       logger,
		now:          time.Now,
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Sweeper service: stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one purge and returns the number of deleted sessions.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	n, err := s.sessionStore.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("Sweeper service: failed to delete expired sessions",
			"error", err.Error())
		return 0
	}
	if n > 0 {
		s.logger.Info("Sweeper service: expired sessions deleted",
			"count", n)
	}
	return n
}
