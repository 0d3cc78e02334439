package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/gophchat-server/internal/mocks"
	"github.com/dtroode/gophchat-server/internal/testutil"
)

func TestSweeper_Sweep(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := mocks.NewSessionStore(t)
	s := NewSweeper(store, time.Minute, testutil.MakeNoopLogger())
	s.now = func() time.Time { return now }

	store.On("DeleteExpired", mock.Anything, now).Return(int64(4), nil).Once()
	store.On("DeleteExpired", mock.Anything, now).Return(int64(0), errors.New("db down")).Once()

	assert.Equal(t, int64(4), s.Sweep(context.Background()))
	assert.Equal(t, int64(0), s.Sweep(context.Background()))
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	store := mocks.NewSessionStore(t)
	store.On("DeleteExpired", mock.Anything, mock.Anything).Return(int64(0), nil).Maybe()

	s := NewSweeper(store, 5*time.Millisecond, testutil.MakeNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
