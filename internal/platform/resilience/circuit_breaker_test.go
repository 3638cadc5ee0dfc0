package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute, HalfOpenMaxReq: 1})

	if err := b.Allow(); err != nil {
		t.Fatalf("closed breaker should allow: %v", err)
	}
	b.RecordFailure()
	b.RecordFailure()

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if b.State() != CircuitStateOpen {
		t.Fatalf("unexpected state: %s", b.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute, HalfOpenMaxReq: 1})
	current := time.Unix(1000, 0)
	b.now = func() time.Time { return current }

	b.RecordFailure()
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open breaker, got %v", err)
	}

	current = current.Add(2 * time.Minute)
	if err := b.Allow(); err != nil {
		t.Fatalf("half-open probe should be allowed: %v", err)
	}
	b.RecordSuccess()

	if b.State() != CircuitStateClosed {
		t.Fatalf("breaker should close after successful probe, state=%s", b.State())
	}
}

func TestSingleFlight_Deduplicates(t *testing.T) {
	var g SingleFlight
	var calls atomic.Int32
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			val, err, _ := g.Do("key", func() (any, error) {
				calls.Add(1)
				time.Sleep(10 * time.Millisecond)
				return 42, nil
			})
			if err != nil || val != 42 {
				t.Errorf("unexpected result: %v %v", val, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if calls.Load() > 2 {
		t.Fatalf("expected deduplicated calls, got %d", calls.Load())
	}
}
