package queues

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	tests := []struct {
		name      string
		families  []Family
		graphics  int
		universal int
	}{
		{
			name:      "single universal family",
			families:  []Family{{Graphics: true, Compute: true, Present: true}},
			graphics:  0,
			universal: 0,
		},
		{
			name: "split families",
			families: []Family{
				{Graphics: true},
				{Compute: true},
				{Graphics: true, Compute: true, Present: true},
			},
			graphics:  0,
			universal: 2,
		},
		{
			name: "first universal wins",
			families: []Family{
				{Compute: true},
				{Graphics: true, Compute: true, Present: true},
				{Graphics: true, Compute: true, Present: true},
			},
			graphics:  1,
			universal: 1,
		},
		{
			name: "present without compute",
			families: []Family{
				{Graphics: true, Present: true},
				{Compute: true, Present: true},
			},
			graphics:  0,
			universal: -1,
		},
		{
			name:      "no families",
			graphics:  -1,
			universal: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indices := Find(tt.families)

			if tt.graphics < 0 {
				assert.False(t, indices.Graphics.HasValue())
			} else {
				require.True(t, indices.Graphics.HasValue())
				assert.Equal(t, uint32(tt.graphics), indices.Graphics.Get())
			}

			if tt.universal < 0 {
				assert.False(t, indices.Universal.HasValue())
				_, err := Universal(tt.families)
				assert.ErrorIs(t, err, ErrNoUniversalFamily)
			} else {
				require.True(t, indices.IsComplete())
				assert.Equal(t, uint32(tt.universal), indices.Universal.Get())
			}
		})
	}
}
