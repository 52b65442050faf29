package gpio

import (
	"errors"
	"sync"

	"github.com/sweeney/ledbar/internal/logic"
)

// FakeButton is a test double that returns scripted button levels.
// It is safe for concurrent use, since the tick goroutine and the main loop
// both read the button.
type FakeButton struct {
	mu sync.Mutex

	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeButton creates a FakeButton with the given samples.
func NewFakeButton(samples ...bool) *FakeButton {
	return &FakeButton{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeButton) Read() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Peek returns the current sample without consuming it.
func (f *FakeButton) Peek() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Samples) == 0 {
		return false
	}
	return f.Samples[f.index]
}

// Close marks the button as closed.
func (f *FakeButton) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Reset rewinds to the first sample.
func (f *FakeButton) Reset() {
	f.mu.Lock()
	f.index = 0
	f.Closed = false
	f.mu.Unlock()
}

// FakePort records every image written to it.
type FakePort struct {
	// Writes contains every image passed to Write, in order.
	Writes []logic.PortMask

	// Closed tracks if Close was called
	Closed bool

	// WriteError, if set, will be returned by Write()
	WriteError error
}

// NewFakePort creates an empty FakePort.
func NewFakePort() *FakePort {
	return &FakePort{}
}

// Write records the image.
func (f *FakePort) Write(image logic.PortMask) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, image)
	return nil
}

// Last returns the most recently written image, or 0.
func (f *FakePort) Last() logic.PortMask {
	if len(f.Writes) == 0 {
		return 0
	}
	return f.Writes[len(f.Writes)-1]
}

// Close drives the port low and marks it closed.
func (f *FakePort) Close() error {
	f.Writes = append(f.Writes, 0)
	f.Closed = true
	return nil
}

// FakeBuzzer records whether it was halted.
type FakeBuzzer struct {
	Halted bool

	// HaltError, if set, will be returned by Halt()
	HaltError error
}

// Halt marks the buzzer halted.
func (f *FakeBuzzer) Halt() error {
	f.Halted = true
	return f.HaltError
}
