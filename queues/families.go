// Package queues selects the Vulkan queue families the renderer submits to.
package queues

import (
	"errors"

	"vulkan-particles/optional"
)

// ErrNoUniversalFamily is returned when no queue family can do graphics,
// compute and presentation at once.
var ErrNoUniversalFamily = errors.New(
	"no queue family supports graphics, compute and present together",
)

// Family describes the capabilities of one queue family.
type Family struct {
	Graphics bool
	Compute  bool
	Present  bool
}

// FamilyIndices holds the indexes of Vulkan queue families needed by the programs.
type FamilyIndices struct {

	// Graphics is the index of the first graphics capable queue family.
	Graphics optional.Optional[uint32]

	// Universal is the index of the first queue family which supports graphics,
	// compute and presenting to the drawing surface. All submissions go to it.
	Universal optional.Optional[uint32]
}

// IsComplete returns true if all families have been set.
func (f *FamilyIndices) IsComplete() bool {
	return f.Graphics.HasValue() && f.Universal.HasValue()
}

// Find returns the indices for families, stopping at the first family which
// completes them.
func Find(families []Family) FamilyIndices {
	indices := FamilyIndices{}

	for i, family := range families {
		if family.Graphics && !indices.Graphics.HasValue() {
			indices.Graphics.Set(uint32(i))
		}

		if family.Graphics && family.Compute && family.Present {
			indices.Universal.Set(uint32(i))
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices
}

// Universal returns the index of the universal family or ErrNoUniversalFamily.
func Universal(families []Family) (uint32, error) {
	indices := Find(families)
	if !indices.Universal.HasValue() {
		return 0, ErrNoUniversalFamily
	}
	return indices.Universal.Get(), nil
}
