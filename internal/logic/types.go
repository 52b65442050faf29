// Package logic contains the pure core of the LED bar: program state,
// button debouncing and the tick-driven animation engine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is measured in ticks read from a Counter; wall-clock time only appears
// as event timestamps passed in through Input.
package logic

import "time"

// State is the program mode.
type State string

const (
	StateRunning State = "RUNNING"
	StatePaused  State = "PAUSED"
	StateTesting State = "TESTING"
)

// ParseState converts a profile string into a State.
func ParseState(s string) (State, bool) {
	switch State(s) {
	case StateRunning, StatePaused, StateTesting:
		return State(s), true
	}
	return "", false
}

// ResetPolicy selects where each LED's phase point goes when a bar cycle ends.
type ResetPolicy string

const (
	// ResetZero restarts every LED at tick 0 (synchronized restart).
	ResetZero ResetPolicy = "zero"
	// ResetInterval restarts every LED one interval into the new bar.
	ResetInterval ResetPolicy = "interval"
)

// PortMask is an output port image. Each LED owns one bit; the engine never
// interprets the bit position.
type PortMask uint32

// Counter is a tick counter shared with the tick source. The tick source only
// increments it; the main loop reads it and resets it to zero.
type Counter interface {
	Load() uint64
	Reset()
}

// LEDSpec is the build-time description of one LED.
type LEDSpec struct {
	Mask     PortMask
	Interval uint64
}

// Timing holds every timing constant in ticks.
type Timing struct {
	BarLength  uint64
	OnDuration uint64
	Debounce   uint64
	Reset      ResetPolicy
	LEDs       []LEDSpec
}

// LED is the timing record for one output line.
type LED struct {
	Mask        PortMask
	Interval    uint64
	PointInTime uint64 // tick of the next activation
	Toggled     bool   // lit
	OffTime     uint64 // only meaningful while Toggled
}

// EventType identifies a controller event.
type EventType string

const (
	EventStateChanged EventType = "STATE_CHANGED"
	EventBarComplete  EventType = "BAR_COMPLETE"
)

// Event is emitted by Controller.Process.
type Event struct {
	Timestamp time.Time
	Type      EventType
	From      State
	To        State
	Bar       uint64 // bars completed so far, for BAR_COMPLETE
}

// Input is one main-loop sample.
type Input struct {
	Pressed bool // raw button level, true = pressed
	Time    time.Time
}

// Counts tracks activity since startup.
type Counts struct {
	Toggles     int
	Bars        uint64
	Activations uint64
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	State     State
	Counts    Counts
}

// Snapshot is a copy of the controller state for status consumers.
type Snapshot struct {
	State  State
	Ticks  uint64
	Port   PortMask
	LEDs   []LED
	Counts Counts
}
