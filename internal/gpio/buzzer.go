package gpio

import (
	"fmt"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// RealBuzzer is a PWM tone on a periph.io pin.
type RealBuzzer struct {
	pin pgpio.PinIO
}

// NewRealBuzzer starts a PWM tone on the named pin (e.g. "GPIO13") at freqHz
// with the given duty cycle in [0,1].
func NewRealBuzzer(name string, freqHz int64, duty float64) (*RealBuzzer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("buzzer pin %q not found", name)
	}

	if err := pin.PWM(dutyOf(duty), physic.Frequency(freqHz)*physic.Hertz); err != nil {
		return nil, fmt.Errorf("start pwm on %s: %w", name, err)
	}
	return &RealBuzzer{pin: pin}, nil
}

// Halt stops the tone and leaves the pin low.
func (b *RealBuzzer) Halt() error {
	if err := b.pin.Halt(); err != nil {
		return fmt.Errorf("halt buzzer: %w", err)
	}
	if err := b.pin.Out(pgpio.Low); err != nil {
		return fmt.Errorf("drive buzzer low: %w", err)
	}
	return nil
}

func dutyOf(f float64) pgpio.Duty {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return pgpio.DutyMax
	}
	return pgpio.Duty(f * float64(pgpio.DutyMax))
}
