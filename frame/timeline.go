package frame

// Stamps are the timeline semaphore values used by one frame.
type Stamps struct {
	ComputeWait    uint64
	ComputeSignal  uint64
	GraphicsWait   uint64
	GraphicsSignal uint64
}

// Timeline is the host side counter of the timeline semaphore. Every
// submitted frame uses two values: one for compute completion and one for
// graphics completion.
type Timeline struct {
	value uint64
}

// Value is the last value graphics work was asked to signal.
func (t *Timeline) Value() uint64 {
	return t.value
}

// Stamps returns the values for the next frame without consuming them.
func (t *Timeline) Stamps() Stamps {
	v := t.value
	return Stamps{
		ComputeWait:    v,
		ComputeSignal:  v + 1,
		GraphicsWait:   v + 1,
		GraphicsSignal: v + 2,
	}
}

// Advance consumes the values returned by Stamps.
func (t *Timeline) Advance() {
	t.value += 2
}
