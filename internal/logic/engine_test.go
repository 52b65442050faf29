package logic

import "testing"

// fakeCounter is a Counter driven directly by tests.
type fakeCounter struct {
	n uint64
}

func (f *fakeCounter) Load() uint64 { return f.n }
func (f *fakeCounter) Reset()       { f.n = 0 }
func (f *fakeCounter) add(d uint64) { f.n += d }

// scenarioTiming uses a 977 Hz tick: a 3 s bar and a 0.1 s on-duration.
func scenarioTiming(reset ResetPolicy, intervals ...uint64) Timing {
	t := Timing{
		BarLength:  3 * 977,
		OnDuration: 97,
		Debounce:   488,
		Reset:      reset,
	}
	for i, iv := range intervals {
		t.LEDs = append(t.LEDs, LEDSpec{Mask: 1 << uint(i), Interval: iv})
	}
	return t
}

type edge struct {
	tick uint64
	on   bool
}

// runTicks steps e once per tick from..to inclusive and records port edges
// for mask. It stops at the first bar reset and returns that tick.
func runTicks(t *testing.T, e *Engine, port *PortMask, mask PortMask, from, to uint64) ([]edge, uint64, bool) {
	t.Helper()
	var edges []edge
	for now := from; now <= to; now++ {
		before := *port&mask != 0
		_, reset := e.Step(now, port)
		after := *port&mask != 0
		if before != after {
			edges = append(edges, edge{tick: now, on: after})
		}
		if reset {
			return edges, now, true
		}
	}
	return edges, 0, false
}

func TestEngineScenarioSingleLED(t *testing.T) {
	e := NewEngine(scenarioTiming(ResetZero, 977))
	var port PortMask

	edges, resetAt, reset := runTicks(t, e, &port, 1, 0, 5000)
	if !reset {
		t.Fatal("expected a bar reset")
	}
	if resetAt != 2931 {
		t.Errorf("bar reset at tick %d, want 2931", resetAt)
	}

	want := []edge{
		{0, true}, {97, false},
		{977, true}, {1074, false},
		{1954, true}, {2051, false},
	}
	if len(edges) != len(want) {
		t.Fatalf("expected %d edges, got %d: %v", len(want), len(edges), edges)
	}
	for i := range want {
		if edges[i] != want[i] {
			t.Errorf("edge %d: got %+v, want %+v", i, edges[i], want[i])
		}
	}

	if port != 0 {
		t.Errorf("port after reset: got %b, want 0", port)
	}
	led := e.LEDs()[0]
	if led.Toggled || led.PointInTime != 0 || led.OffTime != 0 {
		t.Errorf("LED after reset: got %+v", led)
	}
}

func TestEngineOnDurationIndependentOfInterval(t *testing.T) {
	e := NewEngine(scenarioTiming(ResetZero, 977, 418, 250))
	var port PortMask

	onAt := make(map[int]uint64)
	pulses := 0
	for now := uint64(0); now < 2931; now++ {
		before := port
		e.Step(now, &port)
		for i := 0; i < 3; i++ {
			bit := PortMask(1) << uint(i)
			switch {
			case before&bit == 0 && port&bit != 0:
				onAt[i] = now
			case before&bit != 0 && port&bit == 0:
				pulses++
				if got := now - onAt[i]; got != 97 {
					t.Errorf("LED %d lit at %d, off at %d: on for %d ticks, want 97", i, onAt[i], now, got)
				}
			}
		}
	}
	if pulses < 10 {
		t.Errorf("expected at least 10 complete pulses, got %d", pulses)
	}
}

func TestEnginePhaseStaggering(t *testing.T) {
	tm := scenarioTiming(ResetZero, 977, 500)
	tm.BarLength = 100000
	e := NewEngine(tm)
	var port PortMask

	cycles := [2]uint64{}
	points := [2][]uint64{}
	for now := uint64(0); now < 20000; now++ {
		before := port
		e.Step(now, &port)
		for i := 0; i < 2; i++ {
			bit := PortMask(1) << uint(i)
			if before&bit != 0 && port&bit == 0 {
				cycles[i]++
				points[i] = append(points[i], e.LEDs()[i].PointInTime)
			}
		}
	}

	for i, iv := range []uint64{977, 500} {
		for k, p := range points[i] {
			if want := uint64(k+1) * iv; p != want {
				t.Errorf("LED %d after %d cycles: point %d, want %d", i, k+1, p, want)
			}
		}
	}

	for k := 0; k < len(points[0]) && k < len(points[1]); k++ {
		diff := int64(points[0][k]) - int64(points[1][k])
		if want := int64(k+1) * (977 - 500); diff != want {
			t.Errorf("after %d cycles: divergence %d, want %d", k+1, diff, want)
		}
	}
}

func TestEngineBarResetIdempotent(t *testing.T) {
	e := NewEngine(scenarioTiming(ResetInterval, 977, 418))
	var port PortMask

	// Light both LEDs, then jump straight to the bar boundary.
	e.Step(0, &port)
	if port != 0b11 {
		t.Fatalf("expected both LEDs lit, got %b", port)
	}

	_, reset := e.Step(2931, &port)
	if !reset {
		t.Fatal("expected bar reset at bar length")
	}
	if port != 0 {
		t.Errorf("port after reset: got %b, want 0", port)
	}

	want := e.LEDs()
	for i, led := range want {
		if led.Toggled {
			t.Errorf("LED %d still toggled after reset", i)
		}
		if led.PointInTime != led.Interval {
			t.Errorf("LED %d point %d, want interval %d", i, led.PointInTime, led.Interval)
		}
	}

	// The caller resets the counter; re-evaluating at the start of the new
	// bar changes nothing until the first phase point.
	for n := 0; n < 3; n++ {
		if _, reset := e.Step(0, &port); reset {
			t.Fatal("unexpected second reset")
		}
		if port != 0 {
			t.Errorf("evaluation %d: port %b, want 0", n, port)
		}
		got := e.LEDs()
		for i := range got {
			if got[i] != want[i] {
				t.Errorf("evaluation %d: LED %d changed from %+v to %+v", n, i, want[i], got[i])
			}
		}
	}
}

func TestEngineResetPolicies(t *testing.T) {
	tests := []struct {
		policy ResetPolicy
		want   uint64
	}{
		{ResetZero, 0},
		{ResetInterval, 977},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			e := NewEngine(scenarioTiming(tt.policy, 977))
			var port PortMask
			e.Step(2931, &port)
			if got := e.LEDs()[0].PointInTime; got != tt.want {
				t.Errorf("point after reset: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEngineLateLoopDoesNotOpenAndCloseInOnePass(t *testing.T) {
	e := NewEngine(scenarioTiming(ResetZero, 977))
	var port PortMask

	// The loop first runs long after the LED was due, past its off time.
	activated, _ := e.Step(500, &port)
	if activated != 1 {
		t.Fatalf("expected 1 activation, got %d", activated)
	}
	if port != 1 {
		t.Fatalf("LED should be lit after late activation, port %b", port)
	}

	e.Step(501, &port)
	if port != 0 {
		t.Errorf("LED should turn off on the next pass, port %b", port)
	}
	if got := e.LEDs()[0].PointInTime; got != 977 {
		t.Errorf("next point: got %d, want 977", got)
	}
}

func TestEngineLateLoopGuardCoversEveryLED(t *testing.T) {
	tm := scenarioTiming(ResetZero)
	for i := 0; i < 70; i++ {
		tm.LEDs = append(tm.LEDs, LEDSpec{Mask: PortMask(1) << uint(i%32), Interval: 977})
	}
	e := NewEngine(tm)
	var port PortMask

	if activated, _ := e.Step(500, &port); activated != 70 {
		t.Fatalf("expected 70 activations, got %d", activated)
	}
	for i, led := range e.LEDs() {
		if !led.Toggled || led.PointInTime != 0 {
			t.Errorf("LED %d closed in the pass that lit it: %+v", i, led)
		}
	}

	e.Step(501, &port)
	for i, led := range e.LEDs() {
		if led.Toggled || led.PointInTime != 977 {
			t.Errorf("LED %d after next pass: %+v", i, led)
		}
	}
}

func TestEngineRestart(t *testing.T) {
	e := NewEngine(scenarioTiming(ResetInterval, 977, 418))
	var port PortMask
	for now := uint64(0); now < 1500; now++ {
		e.Step(now, &port)
	}

	e.Restart()
	for i, led := range e.LEDs() {
		if led.Toggled || led.PointInTime != 0 || led.OffTime != 0 {
			t.Errorf("LED %d after restart: %+v", i, led)
		}
	}
}

func TestEngineLeavesForeignBitsAlone(t *testing.T) {
	e := NewEngine(scenarioTiming(ResetZero, 977))
	port := PortMask(1 << 7)

	e.Step(0, &port)
	e.Step(2931, &port)
	if port != 1<<7 {
		t.Errorf("port: got %b, want only bit 7", port)
	}
	if e.Mask() != 1 {
		t.Errorf("mask: got %b, want 1", e.Mask())
	}
}
