// Package tick provides the periodic tick source that stands in for the
// timer-overflow interrupt: a goroutine that only increments counters.
package tick

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Counter is a monotonically increasing tick count that one goroutine
// increments and another reads and resets. A reader may observe a value
// that is one tick stale.
type Counter struct {
	v atomic.Uint64
}

// Inc adds one tick.
func (c *Counter) Inc() {
	c.v.Add(1)
}

// Load returns the current count.
func (c *Counter) Load() uint64 {
	return c.v.Load()
}

// Reset sets the count to zero.
func (c *Counter) Reset() {
	c.v.Store(0)
}

// Source increments Ticks once per period, and Press once per period while
// the button reads pressed and the debouncer is armed.
type Source struct {
	Ticks *Counter
	Press *Counter

	// Pressed reports the raw button level. Nil means never pressed.
	Pressed func() bool
	// Armed reports whether the debouncer is waiting on a press.
	Armed func() bool
}

// Fire runs one tick. It never blocks and touches nothing but the counters.
func (s *Source) Fire() {
	s.Ticks.Inc()
	if s.Pressed == nil || s.Armed == nil {
		return
	}
	if s.Armed() && s.Pressed() {
		s.Press.Inc()
	}
}

// Run calls Fire for every value received on tick until ctx is done or
// tick is closed.
func (s *Source) Run(ctx context.Context, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-tick:
			if !ok {
				return
			}
			s.Fire()
		}
	}
}

// Start runs the source on a ticker with the given period. The returned
// function stops the ticker and waits for the goroutine to exit.
func (s *Source) Start(ctx context.Context, period time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(period)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Run(ctx, ticker.C)
	}()

	return func() {
		cancel()
		ticker.Stop()
		wg.Wait()
	}
}
