// Package gpio provides the button input, LED output port and buzzer with
// hardware abstraction. The real implementations use the Linux GPIO
// character device and periph.io; the fakes allow testing without hardware.
package gpio

import "github.com/sweeney/ledbar/internal/logic"

// Button reads the push-button line.
type Button interface {
	// Read returns true while the button is pressed (line high).
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Port drives the LED lines from a port image: bit i of the image drives
// the i-th LED line.
type Port interface {
	Write(image logic.PortMask) error

	// Close drives every line low and releases GPIO resources.
	Close() error
}

// Buzzer is a fixed-frequency PWM tone. It is configured once at startup
// and never modulated.
type Buzzer interface {
	Halt() error
}

// Defaults used when a profile leaves the chip unset.
const (
	DefaultChip = "gpiochip0"
)
