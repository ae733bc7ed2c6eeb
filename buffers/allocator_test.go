package buffers

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchMemoryType(t *testing.T) {
	types := []vk.MemoryPropertyFlags{
		DeviceLocal,
		HostVisible,
		DeviceLocal | HostVisible,
	}

	tests := []struct {
		name       string
		filter     uint32
		properties vk.MemoryPropertyFlags
		want       uint32
	}{
		{"first device local", 0b111, DeviceLocal, 0},
		{"host visible", 0b111, HostVisible, 1},
		{"filter skips allowed types", 0b100, HostVisible, 2},
		{"both properties", 0b011 | 0b100, DeviceLocal | HostVisible, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := matchMemoryType(types, tt.filter, tt.properties)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchMemoryTypeNone(t *testing.T) {
	_, err := matchMemoryType([]vk.MemoryPropertyFlags{DeviceLocal}, 0b1, HostVisible)
	assert.ErrorIs(t, err, ErrNoMemoryType)

	_, err = matchMemoryType([]vk.MemoryPropertyFlags{HostVisible}, 0b10, HostVisible)
	assert.ErrorIs(t, err, ErrNoMemoryType, "the only matching type is filtered out")
}

func TestParticleUsage(t *testing.T) {
	for _, bit := range []vk.BufferUsageFlagBits{
		vk.BufferUsageStorageBufferBit,
		vk.BufferUsageVertexBufferBit,
		vk.BufferUsageTransferDstBit,
	} {
		assert.NotZero(t, ParticleUsage&vk.BufferUsageFlags(bit))
	}
}

func TestFanOutCopiesWholeBufferToEverySlot(t *testing.T) {
	dst := make([]vk.Buffer, 3)
	size := setSize(8192)

	copies := fanOut(dst, size)
	require.Len(t, copies, len(dst))

	for i, c := range copies {
		assert.Equal(t, dst[i], c.dst)
		assert.Equal(t, vk.BufferCopy{SrcOffset: 0, DstOffset: 0, Size: size}, c.region, "slot %d", i)
	}

	assert.Empty(t, fanOut(nil, size))
}

func TestSetSize(t *testing.T) {
	assert.Equal(t, vk.DeviceSize(8192*32), setSize(8192))
	assert.Equal(t, setSize(4), (&ParticleSet{Count: 4}).Size())
}
