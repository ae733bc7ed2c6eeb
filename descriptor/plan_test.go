package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanTwoSlots(t *testing.T) {
	assert.Equal(t, []SlotBinding{
		{Slot: 0, Uniform: 0, Read: 1, Write: 0},
		{Slot: 1, Uniform: 1, Read: 0, Write: 1},
	}, Plan(2))
}

func TestPlanChain(t *testing.T) {
	for frames := 2; frames <= 5; frames++ {
		plan := Plan(frames)
		require.Len(t, plan, frames)

		for i, b := range plan {
			prev := plan[(i-1+frames)%frames]
			assert.Equal(t, prev.Write, b.Read, "F=%d slot %d must read what the previous slot wrote", frames, i)
			assert.NotEqual(t, b.Read, b.Write, "F=%d slot %d reads and writes one buffer", frames, i)
			assert.Equal(t, i, b.Uniform)
		}
	}
}
