// Package shaders loads the compiled SPIR-V module holding every shader stage
// of the renderer. Run `go generate` in order to compile it again.
package shaders

//go:generate slangc particle.slang -target spirv -profile spirv_1_4 -emit-spirv-directly -fvk-use-entrypoint-name -entry vertMain -entry fragMain -entry compMain -o particle.spv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"vulkan-particles/unsafer"
)

// Entry point names inside the module, NUL terminated for the Vulkan API.
const (
	VertexEntry   = "vertMain\x00"
	FragmentEntry = "fragMain\x00"
	ComputeEntry  = "compMain\x00"
)

// LocalSizeX is the numthreads x dimension compMain is compiled with.
const LocalSizeX = 256

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// ErrInvalidModule is returned for files which are not SPIR-V modules.
var ErrInvalidModule = errors.New("invalid SPIR-V module")

// Module is a compiled SPIR-V blob.
type Module struct {
	Path string
	Code []byte
}

// Read loads and sanity checks the module at path.
func Read(path string) (Module, error) {
	code, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Module{}, fmt.Errorf(
			"shader module %q not found, compile particle.slang with `go generate ./shaders` (needs slangc): %w",
			path, err)
	}
	if err != nil {
		return Module{}, fmt.Errorf("failed to read shader module %q: %w", path, err)
	}

	m := Module{Path: path, Code: code}
	if err := m.Validate(); err != nil {
		return Module{}, err
	}

	return m, nil
}

// Validate checks the size and the magic number of the module.
func (m Module) Validate() error {
	if len(m.Code) == 0 || len(m.Code)%4 != 0 {
		return fmt.Errorf("%w: %q has size %d", ErrInvalidModule, m.Path, len(m.Code))
	}

	if binary.LittleEndian.Uint32(m.Code) != spirvMagic &&
		binary.BigEndian.Uint32(m.Code) != spirvMagic {
		return fmt.Errorf("%w: %q has no SPIR-V magic number", ErrInvalidModule, m.Path)
	}

	return nil
}

// Words returns the module as 32 bit words, the form vkCreateShaderModule
// expects.
func (m Module) Words() []uint32 {
	return unsafer.BytesToUint32(m.Code)
}

// Size is the module size in bytes.
func (m Module) Size() uint {
	return uint(len(m.Code))
}
