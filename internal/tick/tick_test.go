package tick

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCounter(t *testing.T) {
	var c Counter
	for i := 0; i < 5; i++ {
		c.Inc()
	}
	if got := c.Load(); got != 5 {
		t.Errorf("Load: got %d, want 5", got)
	}
	c.Reset()
	if got := c.Load(); got != 0 {
		t.Errorf("Load after Reset: got %d, want 0", got)
	}
}

func TestCounterConcurrentIncrements(t *testing.T) {
	var c Counter
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()
	if got := c.Load(); got != 8000 {
		t.Errorf("Load: got %d, want 8000", got)
	}
}

func TestFirePressGating(t *testing.T) {
	tests := []struct {
		name      string
		pressed   bool
		armed     bool
		wantPress uint64
	}{
		{"idle", false, false, 0},
		{"pressed not armed", true, false, 0},
		{"armed released", false, true, 0},
		{"pressed and armed", true, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Source{
				Ticks:   &Counter{},
				Press:   &Counter{},
				Pressed: func() bool { return tt.pressed },
				Armed:   func() bool { return tt.armed },
			}
			for i := 0; i < 3; i++ {
				s.Fire()
			}
			if got := s.Ticks.Load(); got != 3 {
				t.Errorf("ticks: got %d, want 3", got)
			}
			if got := s.Press.Load(); got != tt.wantPress {
				t.Errorf("press: got %d, want %d", got, tt.wantPress)
			}
		})
	}
}

func TestFireWithoutButton(t *testing.T) {
	s := &Source{Ticks: &Counter{}, Press: &Counter{}}
	s.Fire()
	if s.Ticks.Load() != 1 || s.Press.Load() != 0 {
		t.Errorf("got ticks=%d press=%d, want 1, 0", s.Ticks.Load(), s.Press.Load())
	}
}

func TestRunConsumesTicksUntilClosed(t *testing.T) {
	s := &Source{Ticks: &Counter{}, Press: &Counter{}}
	ch := make(chan time.Time)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background(), ch)
		close(done)
	}()

	for i := 0; i < 10; i++ {
		ch <- time.Time{}
	}
	close(ch)
	<-done

	if got := s.Ticks.Load(); got != 10 {
		t.Errorf("ticks: got %d, want 10", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := &Source{Ticks: &Counter{}, Press: &Counter{}}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx, make(chan time.Time))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStartAndStop(t *testing.T) {
	s := &Source{Ticks: &Counter{}, Press: &Counter{}}
	stop := s.Start(context.Background(), time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for s.Ticks.Load() < 5 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	stop()

	n := s.Ticks.Load()
	if n < 5 {
		t.Fatalf("expected at least 5 ticks, got %d", n)
	}
	time.Sleep(10 * time.Millisecond)
	if got := s.Ticks.Load(); got != n {
		t.Errorf("ticks advanced after stop: %d -> %d", n, got)
	}
}
