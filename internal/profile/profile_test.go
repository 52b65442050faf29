package profile

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/ledbar/internal/logic"
)

const validYAML = `
name: test
tick_period_s: 0.001
poll_period_s: 0.0005
bar_s: 3
on_s: 0.1
debounce_s: 0.5
boot_state: PAUSED
reset_phase: zero
test_led: 1
leds:
  - line: 5
    steps_per_bar: 3
  - line: 6
    steps_per_bar: 4
hardware:
  chip: gpiochip0
  button: 17
status:
  heartbeat_s: 60
`

func TestLoadEmbedded(t *testing.T) {
	p, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != "default" {
		t.Errorf("Name: got %q, want default", p.Name)
	}
	if p.Boot() != logic.StateRunning {
		t.Errorf("Boot: got %s, want RUNNING", p.Boot())
	}

	// Integer truncation of seconds / 16.384 ms.
	tm := p.Timing()
	if tm.BarLength != 183 {
		t.Errorf("BarLength: got %d, want 183", tm.BarLength)
	}
	if tm.OnDuration != 6 {
		t.Errorf("OnDuration: got %d, want 6", tm.OnDuration)
	}
	if tm.Debounce != 30 {
		t.Errorf("Debounce: got %d, want 30", tm.Debounce)
	}
	if len(tm.LEDs) != 2 {
		t.Fatalf("LEDs: got %d, want 2", len(tm.LEDs))
	}
	if tm.LEDs[0].Interval != 45 || tm.LEDs[1].Interval != 26 {
		t.Errorf("intervals: got %d, %d, want 45, 26", tm.LEDs[0].Interval, tm.LEDs[1].Interval)
	}
	if p.TickPeriod() != 16384*time.Microsecond {
		t.Errorf("TickPeriod: got %v", p.TickPeriod())
	}
}

func TestSelftestProfile(t *testing.T) {
	b, err := os.ReadFile("selftest.yaml")
	if err != nil {
		t.Fatalf("read selftest.yaml: %v", err)
	}
	p, err := Parse(b)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Boot() != logic.StateTesting {
		t.Errorf("Boot: got %s, want TESTING", p.Boot())
	}
	if p.Hardware.Buzzer.Pin == "" {
		t.Error("selftest profile should drive the buzzer")
	}
}

func TestTimingConversion(t *testing.T) {
	p, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tm := p.Timing()
	want := logic.Timing{
		BarLength:  3000,
		OnDuration: 100,
		Debounce:   500,
		Reset:      logic.ResetZero,
		LEDs: []logic.LEDSpec{
			{Mask: 1, Interval: 1000},
			{Mask: 2, Interval: 750},
		},
	}
	if tm.BarLength != want.BarLength || tm.OnDuration != want.OnDuration ||
		tm.Debounce != want.Debounce || tm.Reset != want.Reset {
		t.Errorf("Timing: got %+v, want %+v", tm, want)
	}
	for i := range want.LEDs {
		if tm.LEDs[i] != want.LEDs[i] {
			t.Errorf("LED %d: got %+v, want %+v", i, tm.LEDs[i], want.LEDs[i])
		}
	}

	if got := p.Lines(); len(got) != 2 || got[0] != 5 || got[1] != 6 {
		t.Errorf("Lines: got %v, want [5 6]", got)
	}
	if p.PollPeriod() != 500*time.Microsecond {
		t.Errorf("PollPeriod: got %v", p.PollPeriod())
	}
	if p.Heartbeat() != time.Minute {
		t.Errorf("Heartbeat: got %v", p.Heartbeat())
	}
	if p.Boot() != logic.StatePaused {
		t.Errorf("Boot: got %s", p.Boot())
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name    string
		old     string
		new     string
		wantMsg string
	}{
		{"zero tick", "tick_period_s: 0.001", "tick_period_s: 0", "tick_period_s"},
		{"zero poll", "poll_period_s: 0.0005", "poll_period_s: -1", "poll_period_s"},
		{"bad state", "boot_state: PAUSED", "boot_state: IDLE", "boot_state"},
		{"bad reset", "reset_phase: zero", "reset_phase: random", "reset_phase"},
		{"test led range", "test_led: 1", "test_led: 2", "test_led"},
		{"on shorter than tick", "on_s: 0.1", "on_s: 0.0001", "on_s"},
		{"debounce zero", "debounce_s: 0.5", "debounce_s: 0", "debounce_s"},
		{"bad steps", "steps_per_bar: 3", "steps_per_bar: 0", "steps_per_bar"},
		{"duplicate line", "line: 6", "line: 5", "already in use"},
		{"line is button", "line: 6", "line: 17", "already in use"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.Replace(validYAML, tt.old, tt.new, 1)
			_, err := Parse([]byte(doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidProfile) {
				t.Errorf("expected ErrInvalidProfile, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestParseNoLEDs(t *testing.T) {
	doc := validYAML[:strings.Index(validYAML, "leds:")]
	_, err := Parse([]byte(doc))
	if !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("leds: [unterminated"))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if errors.Is(err, ErrInvalidProfile) {
		t.Error("decode errors should not be validation errors")
	}
}

func TestParseBuzzer(t *testing.T) {
	doc := strings.Replace(validYAML, "  button: 17", "  button: 17\n  buzzer:\n    pin: GPIO13\n    freq_hz: 0\n    duty: 0.5", 1)
	if _, err := Parse([]byte(doc)); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("expected ErrInvalidProfile for zero buzzer frequency, got %v", err)
	}
}
