package mqtt

import "github.com/sweeney/ledbar/internal/logic"

// Discard is the publisher used when no broker is configured. It drops
// everything and always reports disconnected.
type Discard struct{}

func (Discard) Publish(logic.Event) error       { return nil }
func (Discard) PublishSystem(SystemEvent) error { return nil }
func (Discard) Close() error                    { return nil }
func (Discard) IsConnected() bool               { return false }
