package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// Refresher renews the dashboard token
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RunScheduledRefresh performs one scheduled refresh. Failures are logged
// and swallowed: a scheduled run has nobody to report to.
func RunScheduledRefresh(ctx context.Context, r Refresher) {
	log.Println("[SCHEDULER] refreshing token...")
	if err := r.Refresh(ctx); err != nil {
		log.Printf("[SCHEDULER] refresh failed: %v", err)
		return
	}
	log.Println("[SCHEDULER] refresh succeeded.")
}

// RefreshScheduler periodically refreshes the token
type RefreshScheduler struct {
	mu       sync.Mutex
	r        Refresher
	interval time.Duration
	running  bool
	stop     chan struct{}
	done     chan struct{}
}

// NewRefreshScheduler creates a stopped scheduler
func NewRefreshScheduler(r Refresher, interval time.Duration) *RefreshScheduler {
	return &RefreshScheduler{r: r, interval: interval}
}

// Start launches the ticker loop. It is a no-op when already running or
// when the interval is not positive.
func (s *RefreshScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.interval <= 0 {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				RunScheduledRefresh(context.Background(), s.r)
			}
		}
	}(s.stop, s.done)

	log.Printf("[SCHEDULER] Token refresh scheduler started (interval: %v)", s.interval)
}

// Stop halts the loop and waits for an in-flight refresh to finish
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	log.Println("[SCHEDULER] Token refresh scheduler stopped")
}

// Running reports whether the loop is active
func (s *RefreshScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
