// Package descriptor wires every frame slot's uniform buffer and the two
// particle buffers it reads and writes into the compute descriptor sets.
package descriptor

// Binding indices of the compute descriptor set layout.
const (
	UniformBinding = 0
	ReadBinding    = 1
	WriteBinding   = 2
)

// SlotBinding names, by frame slot index, the buffers bound to one set.
type SlotBinding struct {
	Slot    int
	Uniform int
	Read    int
	Write   int
}

// Plan returns the bindings of every slot for framesInFlight slots. Slot i
// reads the particles slot i-1 wrote, so consecutive frames form a single
// chain however many slots there are.
func Plan(framesInFlight int) []SlotBinding {
	plan := make([]SlotBinding, framesInFlight)
	for i := range plan {
		plan[i] = SlotBinding{
			Slot:    i,
			Uniform: i,
			Read:    (i - 1 + framesInFlight) % framesInFlight,
			Write:   i,
		}
	}
	return plan
}
