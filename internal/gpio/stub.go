//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/ledbar/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealButton is not available on non-Linux platforms.
type RealButton struct{}

// NewRealButton returns an error on non-Linux platforms.
func NewRealButton(chipName string, offset int) (*RealButton, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (b *RealButton) Read() (bool, error) {
	return false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (b *RealButton) Close() error {
	return nil
}

// RealPort is not available on non-Linux platforms.
type RealPort struct{}

// NewRealPort returns an error on non-Linux platforms.
func NewRealPort(chipName string, offsets []int) (*RealPort, error) {
	return nil, errUnsupported
}

// Write is not implemented on non-Linux platforms.
func (p *RealPort) Write(image logic.PortMask) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (p *RealPort) Close() error {
	return nil
}
