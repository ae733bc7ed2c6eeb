package shaders

import (
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "particle.spv")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRead(t *testing.T) {
	data := make([]byte, 20)
	binary.LittleEndian.PutUint32(data, spirvMagic)
	binary.LittleEndian.PutUint32(data[4:], 0x00010400)

	m, err := Read(writeFile(t, data))
	require.NoError(t, err)

	assert.Equal(t, uint(20), m.Size())
	words := m.Words()
	require.Len(t, words, 5)
	assert.Equal(t, binary.NativeEndian.Uint32(data[:4]), words[0])
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.spv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.spv")
	assert.Contains(t, err.Error(), "go generate ./shaders")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestReadInvalid(t *testing.T) {
	tests := map[string][]byte{
		"empty":       {},
		"unaligned":   {0x03, 0x02, 0x23, 0x07, 0x00},
		"wrong magic": {0xde, 0xad, 0xbe, 0xef},
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Read(writeFile(t, data))
			assert.ErrorIs(t, err, ErrInvalidModule)
		})
	}
}

func TestEntryPointsTerminated(t *testing.T) {
	for _, name := range []string{VertexEntry, FragmentEntry, ComputeEntry} {
		assert.Equal(t, byte(0), name[len(name)-1])
	}
}
