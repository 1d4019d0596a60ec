package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestRunScheduledRefresh(t *testing.T) {
	ok := &countingRefresher{}
	RunScheduledRefresh(context.Background(), ok)
	assert.Equal(t, int32(1), ok.calls.Load())

	failing := &countingRefresher{err: errors.New("login failed")}
	assert.NotPanics(t, func() {
		RunScheduledRefresh(context.Background(), failing)
	})
	assert.Equal(t, int32(1), failing.calls.Load())
}

func TestRefreshSchedulerTicks(t *testing.T) {
	r := &countingRefresher{}
	s := NewRefreshScheduler(r, 10*time.Millisecond)

	s.Start()
	s.Start()
	assert.True(t, s.Running())

	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.Running())

	stopped := r.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, r.calls.Load(), "no refresh after Stop")

	s.Stop()
}

func TestRefreshSchedulerKeepsRunningAfterFailure(t *testing.T) {
	r := &countingRefresher{err: errors.New("dashboard down")}
	s := NewRefreshScheduler(r, 5*time.Millisecond)
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestRefreshSchedulerDisabled(t *testing.T) {
	s := NewRefreshScheduler(&countingRefresher{}, 0)
	s.Start()
	assert.False(t, s.Running())
	s.Stop()
}
