package logic

// Engine advances the per-LED timing records against the tick counter and
// edits a port image. It is driven once per main-loop iteration while the
// program is RUNNING.
type Engine struct {
	leds       []LED
	onDuration uint64
	barLength  uint64
	reset      ResetPolicy
	all        PortMask
	fresh      []bool // LEDs lit in the current pass
}

// NewEngine creates an engine for the LEDs in t, in their restart condition.
func NewEngine(t Timing) *Engine {
	e := &Engine{
		leds:       make([]LED, len(t.LEDs)),
		fresh:      make([]bool, len(t.LEDs)),
		onDuration: t.OnDuration,
		barLength:  t.BarLength,
		reset:      t.Reset,
	}
	for i, spec := range t.LEDs {
		e.leds[i] = LED{Mask: spec.Mask, Interval: spec.Interval}
		e.all |= spec.Mask
	}
	return e
}

// Restart puts every LED back to its zero condition: unlit, phase point 0.
// Used on entry into RUNNING.
func (e *Engine) Restart() {
	for i := range e.leds {
		e.leds[i].PointInTime = 0
		e.leds[i].OffTime = 0
		e.leds[i].Toggled = false
	}
}

// Step evaluates activation, deactivation and bar reset, in that order, at
// tick now. It returns the number of LEDs that lit and whether the bar cycle
// ended; on a bar reset the caller must reset the tick counter.
func (e *Engine) Step(now uint64, port *PortMask) (activated int, barReset bool) {
	for i := range e.fresh {
		e.fresh[i] = false
	}

	for i := range e.leds {
		led := &e.leds[i]
		if !led.Toggled && now >= led.PointInTime {
			led.Toggled = true
			led.OffTime = led.PointInTime + e.onDuration
			*port |= led.Mask
			e.fresh[i] = true
			activated++
		}
	}

	for i := range e.leds {
		led := &e.leds[i]
		// An LED lit in this pass stays lit for at least one iteration.
		if led.Toggled && !e.fresh[i] && now >= led.OffTime {
			led.Toggled = false
			led.PointInTime += led.Interval
			*port &^= led.Mask
		}
	}

	if now >= e.barLength {
		for i := range e.leds {
			led := &e.leds[i]
			led.PointInTime = e.restartPoint(led)
			led.OffTime = 0
			led.Toggled = false
		}
		*port &^= e.all
		return activated, true
	}
	return activated, false
}

func (e *Engine) restartPoint(led *LED) uint64 {
	if e.reset == ResetInterval {
		return led.Interval
	}
	return 0
}

// Mask returns the bits of every LED the engine drives.
func (e *Engine) Mask() PortMask {
	return e.all
}

// LEDs returns a copy of the timing records.
func (e *Engine) LEDs() []LED {
	out := make([]LED, len(e.leds))
	copy(out, e.leds)
	return out
}
