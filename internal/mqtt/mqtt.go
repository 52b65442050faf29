// Package mqtt publishes LED bar status with abstraction for testing.
// The device only reports; it subscribes to nothing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/ledbar/internal/logic"
)

// Topic is the MQTT topic for program state events.
const Topic = "ledbar/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "ledbar/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a program event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // "STARTUP", "SHUTDOWN", "HEARTBEAT", "OFFLINE"
	Reason     string // "SIGTERM", "SIGINT" (shutdown only)
	BootID     string
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	LEDBar EventPayload `json:"ledbar"`
}

// EventPayload contains the program event details.
type EventPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// FormatPayload creates the JSON payload for a program event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		LEDBar: EventPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			From:      string(event.From),
			To:        string(event.To),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events that
// don't carry a full status snapshot (the last will, for instance).
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
	BootID    string `json:"boot_id,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
		BootID: event.BootID,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// WillPayload is published by the broker if the connection drops without a
// clean disconnect.
func WillPayload(bootID string) []byte {
	b, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "connection lost", BootID: bootID})
	return b
}
