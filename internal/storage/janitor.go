package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sweepable is anything the janitor can ask to reclaim expired resources.
// Implementations return how many items they removed.
type Sweepable interface {
	Sweep(now time.Time) int
}

// Janitor periodically runs its targets' sweeps. It is constructed and
// started explicitly from main; there is no hidden global timer.
type Janitor struct {
	interval time.Duration
	targets  []Sweepable
	log      zerolog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewJanitor creates a janitor sweeping targets every interval.
func NewJanitor(interval time.Duration, log zerolog.Logger, targets ...Sweepable) *Janitor {
	return &Janitor{
		interval: interval,
		targets:  targets,
		log:      log,
	}
}

// Start launches the sweep loop. Starting twice is an error.
func (j *Janitor) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stop != nil {
		return fmt.Errorf("janitor already started")
	}
	j.stop = make(chan struct{})
	j.done = make(chan struct{})
	go j.loop(j.stop, j.done)
	return nil
}

// Stop terminates the sweep loop and waits for it to exit. Safe to call
// without a prior Start.
func (j *Janitor) Stop() {
	j.mu.Lock()
	stop, done := j.stop, j.done
	j.stop, j.done = nil, nil
	j.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (j *Janitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			j.SweepNow(now)
		case <-stop:
			return
		}
	}
}

// SweepNow runs all targets once. Exposed so callers can sweep
// opportunistically outside the timer.
func (j *Janitor) SweepNow(now time.Time) {
	total := 0
	for _, t := range j.targets {
		total += t.Sweep(now)
	}
	if total > 0 {
		j.log.Info().Int("reclaimed", total).Msg("janitor sweep complete")
	}
}
