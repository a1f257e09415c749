package button

// Input reads the physical switch level. The real implementation is GPIO
// backed; the fake allows testing without hardware.
type Input interface {
	// Pressed returns true while the switch is held.
	Pressed() (bool, error)

	// Close releases hardware resources.
	Close() error
}

// FakeInput is a test double returning scripted levels.
type FakeInput struct {
	// Levels contains scripted Pressed() results, consumed in order; the
	// last value repeats once exhausted.
	Levels []bool
	// ReadError, if set, is returned by Pressed.
	ReadError error
	// Closed tracks whether Close was called.
	Closed bool

	index int
}

// Pressed returns the next scripted level.
func (f *FakeInput) Pressed() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Levels) == 0 {
		return false, nil
	}
	v := f.Levels[f.index]
	if f.index < len(f.Levels)-1 {
		f.index++
	}
	return v, nil
}

// Close marks the input as closed.
func (f *FakeInput) Close() error {
	f.Closed = true
	return nil
}
