package optional

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptional(t *testing.T) {
	var o Optional[uint32]
	assert.False(t, o.HasValue())
	assert.Equal(t, uint32(0), o.Get())

	o.Set(0)
	assert.True(t, o.HasValue(), "zero is a valid value")
	assert.Equal(t, uint32(0), o.Get())

	o.Set(7)
	assert.Equal(t, uint32(7), o.Get())

	o.Reset()
	assert.False(t, o.HasValue())
}

func TestOf(t *testing.T) {
	o := Of("compute")
	assert.True(t, o.HasValue())
	assert.Equal(t, "compute", o.Get())
}
