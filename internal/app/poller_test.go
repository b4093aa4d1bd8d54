package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/five82/ecoshop/internal/cart"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type countingCart struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
	polled   chan struct{}
}

func (c *countingCart) Refresh(context.Context) error {
	c.mu.Lock()
	c.calls++
	if c.err != nil {
		c.failures++
	} else {
		c.failures = 0
	}
	err := c.err
	c.mu.Unlock()
	select {
	case c.polled <- struct{}{}:
	default:
	}
	return err
}

func (c *countingCart) State() cart.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cart.State{ConsecutiveFailures: c.failures}
}

func TestStartPollerRefreshesUntilCancelled(t *testing.T) {
	c := &countingCart{polled: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartPoller(ctx, c, 5*time.Millisecond, nil)

	for i := 0; i < 3; i++ {
		select {
		case <-c.polled:
		case <-time.After(2 * time.Second):
			t.Fatalf("poll %d did not happen", i+1)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("poller did not stop")
	}
}

func TestStartPollerKeepsPollingOnFailure(t *testing.T) {
	c := &countingCart{polled: make(chan struct{}, 1), err: errors.New("offline")}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartPoller(ctx, c, time.Millisecond, nil)

	for i := 0; i < 2; i++ {
		select {
		case <-c.polled:
		case <-time.After(2 * time.Second):
			t.Fatalf("poll %d did not happen", i+1)
		}
	}
	cancel()
	<-done

	if st := c.State(); st.ConsecutiveFailures < 2 || !st.IsOffline() {
		t.Fatalf("state = %+v, want offline", st)
	}
}
