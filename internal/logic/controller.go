package logic

import "time"

// Controller is the main-loop body. It owns the program state, the debouncer
// and the engine, and maintains the output port image. It must only be used
// from one goroutine; the tick source touches nothing but the two counters
// and Debouncer.Armed.
type Controller struct {
	ticks    Counter
	debounce *Debouncer
	engine   *Engine
	testMask PortMask

	state   State
	prev    State // "" until the first Process call, so boot runs entry actions
	port    PortMask
	counts  Counts
	started time.Time
	lastHB  time.Time
}

// NewController creates a controller that boots into boot. ticks and press
// are the counters fed by the tick source. testLED is the index of the LED
// mirrored from the button in TESTING.
func NewController(t Timing, boot State, testLED int, ticks, press Counter, startTime time.Time) *Controller {
	c := &Controller{
		ticks:    ticks,
		debounce: NewDebouncer(t.Debounce, press),
		engine:   NewEngine(t),
		state:    boot,
		started:  startTime,
		lastHB:   startTime,
	}
	if testLED >= 0 && testLED < len(t.LEDs) {
		c.testMask = t.LEDs[testLED].Mask
	}
	return c
}

// Process runs one main-loop iteration and returns any events to report.
func (c *Controller) Process(in Input) []Event {
	var events []Event

	if c.debounce.Poll(in.Pressed) {
		from := c.state
		if c.Toggle() {
			events = append(events, Event{
				Timestamp: in.Time,
				Type:      EventStateChanged,
				From:      from,
				To:        c.state,
			})
		}
	}

	entering := c.prev != c.state
	c.prev = c.state

	switch c.state {
	case StateRunning:
		if entering {
			c.ticks.Reset()
			c.engine.Restart()
			c.port &^= c.engine.Mask()
		}
		activated, barReset := c.engine.Step(c.ticks.Load(), &c.port)
		c.counts.Activations += uint64(activated)
		if barReset {
			c.ticks.Reset()
			c.counts.Bars++
			events = append(events, Event{
				Timestamp: in.Time,
				Type:      EventBarComplete,
				From:      c.state,
				To:        c.state,
				Bar:       c.counts.Bars,
			})
		}

	case StatePaused:
		if entering {
			c.port &^= c.engine.Mask()
		}

	case StateTesting:
		if in.Pressed {
			c.port |= c.testMask
		} else {
			c.port &^= c.testMask
		}
	}

	return events
}

// Toggle flips RUNNING and PAUSED. It reports whether the state changed;
// TESTING is never left this way.
func (c *Controller) Toggle() bool {
	switch c.state {
	case StateRunning:
		c.state = StatePaused
	case StatePaused:
		c.state = StateRunning
	default:
		return false
	}
	c.counts.Toggles++
	return true
}

// State returns the current program state.
func (c *Controller) State() State {
	return c.state
}

// Port returns the output port image after the last Process call.
func (c *Controller) Port() PortMask {
	return c.port
}

// Debouncer exposes the debouncer so the tick source can gate the press timer.
func (c *Controller) Debouncer() *Debouncer {
	return c.debounce
}

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:  c.state,
		Ticks:  c.ticks.Load(),
		Port:   c.port,
		LEDs:   c.engine.LEDs(),
		Counts: c.counts,
	}
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed or
// if interval is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(c.lastHB) < interval {
		return nil
	}

	c.lastHB = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.started),
		State:     c.state,
		Counts:    c.counts,
	}
}
