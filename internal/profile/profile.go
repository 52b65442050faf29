// Package profile holds the behaviour profile compiled into the binary.
// The profile is chosen at build time (the selftest build tag selects the
// three-state variant) and is never read from disk or the environment.
package profile

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/ledbar/internal/logic"
)

// ErrInvalidProfile is wrapped by every validation error.
var ErrInvalidProfile = errors.New("invalid profile")

// MaxLEDs is the width of the output port image.
const MaxLEDs = 32

// LED describes one output line.
type LED struct {
	Line        int     `yaml:"line"`          // GPIO line offset
	StepsPerBar float64 `yaml:"steps_per_bar"` // interval = bar / steps
}

// Buzzer is the fixed PWM tone output. An empty Pin disables it.
type Buzzer struct {
	Pin    string  `yaml:"pin"`
	FreqHz int64   `yaml:"freq_hz"`
	Duty   float64 `yaml:"duty"` // 0..1
}

// Hardware names the GPIO chip and lines.
type Hardware struct {
	Chip   string `yaml:"chip"`
	Button int    `yaml:"button"`
	Buzzer Buzzer `yaml:"buzzer"`
}

// Status configures the outbound status surfaces. Empty values disable them.
type Status struct {
	HTTP       string  `yaml:"http"`
	MQTTBroker string  `yaml:"mqtt_broker"`
	HeartbeatS float64 `yaml:"heartbeat_s"`
}

// Profile is the complete build-time configuration.
type Profile struct {
	Name        string  `yaml:"name"`
	TickPeriodS float64 `yaml:"tick_period_s"`
	PollPeriodS float64 `yaml:"poll_period_s"`
	BarS        float64 `yaml:"bar_s"`
	OnS         float64 `yaml:"on_s"`
	DebounceS   float64 `yaml:"debounce_s"`
	BootState   string  `yaml:"boot_state"`
	ResetPhase  string  `yaml:"reset_phase"`
	TestLED     int     `yaml:"test_led"`

	LEDs     []LED    `yaml:"leds"`
	Hardware Hardware `yaml:"hardware"`
	Status   Status   `yaml:"status"`
}

// Load returns the profile compiled into this binary.
func Load() (*Profile, error) {
	return Parse(embedded)
}

// Parse decodes and validates a YAML profile.
func Parse(b []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) validate() error {
	switch {
	case p.TickPeriodS <= 0:
		return fmt.Errorf("%w: tick_period_s must be positive", ErrInvalidProfile)
	case p.PollPeriodS <= 0:
		return fmt.Errorf("%w: poll_period_s must be positive", ErrInvalidProfile)
	case len(p.LEDs) == 0:
		return fmt.Errorf("%w: no leds", ErrInvalidProfile)
	case len(p.LEDs) > MaxLEDs:
		return fmt.Errorf("%w: %d leds, at most %d", ErrInvalidProfile, len(p.LEDs), MaxLEDs)
	case p.TestLED < 0 || p.TestLED >= len(p.LEDs):
		return fmt.Errorf("%w: test_led %d out of range", ErrInvalidProfile, p.TestLED)
	}

	if _, ok := logic.ParseState(p.BootState); !ok {
		return fmt.Errorf("%w: unknown boot_state %q", ErrInvalidProfile, p.BootState)
	}
	switch logic.ResetPolicy(p.ResetPhase) {
	case logic.ResetZero, logic.ResetInterval:
	default:
		return fmt.Errorf("%w: unknown reset_phase %q", ErrInvalidProfile, p.ResetPhase)
	}

	if p.ticks(p.BarS) == 0 {
		return fmt.Errorf("%w: bar_s shorter than one tick", ErrInvalidProfile)
	}
	if p.ticks(p.OnS) == 0 {
		return fmt.Errorf("%w: on_s shorter than one tick", ErrInvalidProfile)
	}
	if p.ticks(p.DebounceS) == 0 {
		return fmt.Errorf("%w: debounce_s shorter than one tick", ErrInvalidProfile)
	}

	seen := make(map[int]bool, len(p.LEDs))
	for i, led := range p.LEDs {
		if led.StepsPerBar <= 0 {
			return fmt.Errorf("%w: led %d: steps_per_bar must be positive", ErrInvalidProfile, i)
		}
		if p.ticks(p.BarS/led.StepsPerBar) == 0 {
			return fmt.Errorf("%w: led %d: interval shorter than one tick", ErrInvalidProfile, i)
		}
		if led.Line == p.Hardware.Button || seen[led.Line] {
			return fmt.Errorf("%w: led %d: line %d already in use", ErrInvalidProfile, i, led.Line)
		}
		seen[led.Line] = true
	}

	if b := p.Hardware.Buzzer; b.Pin != "" && (b.FreqHz <= 0 || b.Duty < 0 || b.Duty > 1) {
		return fmt.Errorf("%w: buzzer needs freq_hz > 0 and duty in [0,1]", ErrInvalidProfile)
	}
	return nil
}

// ticks converts seconds to whole ticks, truncating. The epsilon keeps exact
// multiples of the period from rounding down a tick.
func (p *Profile) ticks(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(seconds/p.TickPeriodS + 1e-9)
}

// Timing converts the profile into tick counts. LED i drives port bit i.
func (p *Profile) Timing() logic.Timing {
	t := logic.Timing{
		BarLength:  p.ticks(p.BarS),
		OnDuration: p.ticks(p.OnS),
		Debounce:   p.ticks(p.DebounceS),
		Reset:      logic.ResetPolicy(p.ResetPhase),
		LEDs:       make([]logic.LEDSpec, len(p.LEDs)),
	}
	for i, led := range p.LEDs {
		t.LEDs[i] = logic.LEDSpec{
			Mask:     logic.PortMask(1) << uint(i),
			Interval: p.ticks(p.BarS / led.StepsPerBar),
		}
	}
	return t
}

// Boot returns the program state at power-on.
func (p *Profile) Boot() logic.State {
	s, _ := logic.ParseState(p.BootState)
	return s
}

// Lines returns the GPIO line offsets of the LEDs in port-bit order.
func (p *Profile) Lines() []int {
	lines := make([]int, len(p.LEDs))
	for i, led := range p.LEDs {
		lines[i] = led.Line
	}
	return lines
}

// TickPeriod returns the tick period as a duration.
func (p *Profile) TickPeriod() time.Duration {
	return seconds(p.TickPeriodS)
}

// PollPeriod returns the main-loop period as a duration.
func (p *Profile) PollPeriod() time.Duration {
	return seconds(p.PollPeriodS)
}

// Heartbeat returns the heartbeat interval; zero disables heartbeats.
func (p *Profile) Heartbeat() time.Duration {
	return seconds(p.Status.HeartbeatS)
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
