package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	State         string     `json:"state"`
	Ticks         uint64     `json:"ticks"`
	LEDs          []LEDJSON  `json:"leds"`
	BootID        string     `json:"boot_id"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"counts"`
	Config        ConfigJSON `json:"config"`
}

// LEDJSON is the JSON representation of one LED timing record.
type LEDJSON struct {
	Lit         bool   `json:"lit"`
	Interval    uint64 `json:"interval"`
	PointInTime uint64 `json:"point_in_time"`
	OffTime     uint64 `json:"off_time"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of activity counts.
type CountsJSON struct {
	Toggles     int    `json:"toggles"`
	Bars        uint64 `json:"bars"`
	Activations uint64 `json:"activations"`
}

// ConfigJSON is the JSON representation of the compiled-in profile.
type ConfigJSON struct {
	Profile       string  `json:"profile"`
	TickPeriodMs  float64 `json:"tick_period_ms"`
	BarTicks      uint64  `json:"bar_ticks"`
	OnTicks       uint64  `json:"on_ticks"`
	DebounceTicks uint64  `json:"debounce_ticks"`
	ResetPhase    string  `json:"reset_phase"`
	HeartbeatMs   int64   `json:"heartbeat_ms"`
	HTTPAddr      string  `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}

	leds := make([]LEDJSON, len(snap.LEDs))
	for i, led := range snap.LEDs {
		leds[i] = LEDJSON{
			Lit:         snap.Lit(i),
			Interval:    led.Interval,
			PointInTime: led.PointInTime,
			OffTime:     led.OffTime,
		}
	}

	return StatusInner{
		State:         state,
		Ticks:         snap.Ticks,
		LEDs:          leds,
		BootID:        snap.BootID,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Toggles:     snap.Counts.Toggles,
			Bars:        snap.Counts.Bars,
			Activations: snap.Counts.Activations,
		},
		Config: ConfigJSON{
			Profile:       snap.Config.Profile,
			TickPeriodMs:  float64(snap.Config.TickPeriod) / float64(time.Millisecond),
			BarTicks:      snap.Config.BarTicks,
			OnTicks:       snap.Config.OnTicks,
			DebounceTicks: snap.Config.DebounceTicks,
			ResetPhase:    snap.Config.ResetPhase,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			HTTPAddr:      snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatCompact returns the single-line JSON status used by the live feed.
func FormatCompact(snap Snapshot) []byte {
	data, _ := json.Marshal(StatusJSON{Status: buildInner(snap)})
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
