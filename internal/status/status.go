// Package status provides a thread-safe status tracker for the ledbar daemon.
// The main loop writes to it; HTTP handlers and MQTT heartbeats read from it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/ledbar/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Profile       string
	TickPeriod    time.Duration
	BarTicks      uint64
	OnTicks       uint64
	DebounceTicks uint64
	ResetPhase    string
	HeartbeatMs   int64
	Broker        string
	HTTPAddr      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State         logic.State
	Ticks         uint64
	Port          logic.PortMask
	LEDs          []logic.LED
	Counts        logic.Counts
	BootID        string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Lit reports whether LED i is currently lit.
func (s Snapshot) Lit(i int) bool {
	if i < 0 || i >= len(s.LEDs) {
		return false
	}
	return s.Port&s.LEDs[i].Mask != 0
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time, boot id and config.
func NewTracker(startTime time.Time, bootID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			BootID:    bootID,
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update copies the controller state. Called from the main loop.
func (t *Tracker) Update(s logic.Snapshot) {
	t.mu.Lock()
	t.snap.State = s.State
	t.snap.Ticks = s.Ticks
	t.snap.Port = s.Port
	t.snap.LEDs = s.LEDs
	t.snap.Counts = s.Counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()

	s.LEDs = append([]logic.LED(nil), s.LEDs...)
	s.Now = t.now()
	return s
}
