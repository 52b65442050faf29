package logic

import "sync/atomic"

// ButtonState is the debouncer state.
type ButtonState int32

const (
	NotPushed ButtonState = iota
	PushedPending
	// PushedFired is a held press that has already produced its activation.
	// It behaves as PushedPending except that it cannot fire again.
	PushedFired
)

// Debouncer turns a noisy button level into single activation events.
// The press timer is incremented by the tick source while the button is
// held and the debouncer is armed.
type Debouncer struct {
	threshold uint64
	timer     Counter
	state     atomic.Int32
}

// NewDebouncer creates a debouncer that fires after threshold ticks of
// sustained press, measured on timer.
func NewDebouncer(threshold uint64, timer Counter) *Debouncer {
	return &Debouncer{threshold: threshold, timer: timer}
}

// Poll samples the raw button level. It returns true exactly once per
// press held for at least the threshold; the next activation requires a
// release first.
func (d *Debouncer) Poll(pressed bool) bool {
	st := d.State()

	if !pressed {
		if st != NotPushed {
			d.setState(NotPushed)
			d.timer.Reset()
		}
		return false
	}

	switch st {
	case NotPushed:
		d.timer.Reset()
		d.setState(PushedPending)
		fallthrough
	case PushedPending:
		if d.timer.Load() >= d.threshold {
			d.timer.Reset()
			d.setState(PushedFired)
			return true
		}
	}
	return false
}

// State returns the current debouncer state.
func (d *Debouncer) State() ButtonState {
	return ButtonState(d.state.Load())
}

// Armed reports whether the press timer should advance. It is safe to call
// from the tick goroutine.
func (d *Debouncer) Armed() bool {
	return d.State() == PushedPending
}

func (d *Debouncer) setState(s ButtonState) {
	d.state.Store(int32(s))
}
