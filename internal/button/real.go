//go:build linux

package button

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// DefaultPin is the BCM pin the setup switch is wired to.
const DefaultPin = 5

// RealInput owns the switch GPIO line. Edge interrupts feed the Monitor;
// Pressed supports the boot-time level check.
type RealInput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealInput requests the switch line with pull-up (the switch shorts to
// ground) and routes both edges into mon.
func NewRealInput(pin int, mon *Monitor) (*RealInput, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			// Runs on the event goroutine: keep it to the atomic work in
			// Monitor, nothing else.
			switch evt.Type {
			case gpiocdev.LineEventFallingEdge:
				mon.HandleEdge(Press, evt.Timestamp)
			case gpiocdev.LineEventRisingEdge:
				mon.HandleEdge(Release, evt.Timestamp)
			}
		}))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request switch pin %d: %w", pin, err)
	}

	return &RealInput{chip: chip, line: line}, nil
}

// Pressed reads the current level. The switch is active-low.
func (r *RealInput) Pressed() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read switch pin: %w", err)
	}
	return v == 0, nil
}

// Close releases GPIO resources.
func (r *RealInput) Close() error {
	var errs []error
	if r.line != nil {
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close switch pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
