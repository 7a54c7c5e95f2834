package storage

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingSweepable struct {
	calls atomic.Int64
}

func (c *countingSweepable) Sweep(time.Time) int {
	c.calls.Add(1)
	return 1
}

func TestJanitorSweepsAllTargets(t *testing.T) {
	a := &countingSweepable{}
	b := &countingSweepable{}
	j := NewJanitor(time.Hour, zerolog.Nop(), a, b)

	j.SweepNow(time.Now())

	if a.calls.Load() != 1 || b.calls.Load() != 1 {
		t.Fatalf("sweep calls = %d,%d, want 1,1", a.calls.Load(), b.calls.Load())
	}
}

func TestJanitorStartStop(t *testing.T) {
	target := &countingSweepable{}
	j := NewJanitor(5*time.Millisecond, zerolog.Nop(), target)

	if err := j.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := j.Start(); err == nil {
		t.Fatal("second Start should fail")
	}

	deadline := time.After(2 * time.Second)
	for target.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("janitor never swept")
		case <-time.After(time.Millisecond):
		}
	}

	j.Stop()
	after := target.calls.Load()
	time.Sleep(20 * time.Millisecond)
	if target.calls.Load() != after {
		t.Fatal("janitor kept sweeping after Stop")
	}

	// Stop without Start is a no-op.
	j.Stop()
}
