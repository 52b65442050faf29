//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/ledbar/internal/logic"
)

// RealButton reads the button from actual hardware using the Linux GPIO
// character device.
type RealButton struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealButton requests the button line as an input. The pull-up is
// disabled; the external circuit drives the line high when pressed.
func NewRealButton(chipName string, offset int) (*RealButton, error) {
	chip, err := gpiocdev.NewChip(chipOrDefault(chipName))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithBiasDisabled)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button line %d: %w", offset, err)
	}

	return &RealButton{chip: chip, line: line}, nil
}

// Read returns true while the line reads high.
func (b *RealButton) Read() (bool, error) {
	v, err := b.line.Value()
	if err != nil {
		return false, fmt.Errorf("read button line: %w", err)
	}
	return v == 1, nil
}

// Close releases GPIO resources.
func (b *RealButton) Close() error {
	var errs []error
	if b.line != nil {
		if err := b.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button line: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealPort drives LED lines through one multi-line output request.
type RealPort struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	vals  []int
}

// NewRealPort requests offsets as outputs, all driven low. Bit i of a port
// image drives offsets[i].
func NewRealPort(chipName string, offsets []int) (*RealPort, error) {
	chip, err := gpiocdev.NewChip(chipOrDefault(chipName))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	vals := make([]int, len(offsets))
	lines, err := chip.RequestLines(offsets, gpiocdev.AsOutput(vals...))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request led lines %v: %w", offsets, err)
	}

	return &RealPort{chip: chip, lines: lines, vals: vals}, nil
}

// Write sets every LED line from the image.
func (p *RealPort) Write(image logic.PortMask) error {
	for i := range p.vals {
		p.vals[i] = 0
		if image&(logic.PortMask(1)<<uint(i)) != 0 {
			p.vals[i] = 1
		}
	}
	if err := p.lines.SetValues(p.vals); err != nil {
		return fmt.Errorf("write led lines: %w", err)
	}
	return nil
}

// Close drives every LED low, returns the lines to inputs and releases them.
func (p *RealPort) Close() error {
	var errs []error

	if p.lines != nil {
		if err := p.Write(0); err != nil {
			errs = append(errs, err)
		}
		if err := p.lines.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure led lines: %w", err))
		}
		if err := p.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led lines: %w", err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func chipOrDefault(name string) string {
	if name == "" {
		return DefaultChip
	}
	return name
}
