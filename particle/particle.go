// Package particle defines the particle record shared by the host and the
// shaders, its initial seeding and a host reference of the compute step.
package particle

import (
	"math"
	"math/rand/v2"
	"unsafe"

	"github.com/xlab/linmath"
)

// Particle mirrors the shader side struct. Field order and sizes match the
// std430 layout: position at 0, velocity at 8 and color at 16.
type Particle struct {
	Position linmath.Vec2
	Velocity linmath.Vec2
	Color    linmath.Vec4
}

// Size is the byte size of one Particle, also the vertex buffer stride.
const Size = uint32(unsafe.Sizeof(Particle{}))

// PositionOffset and ColorOffset are the byte offsets of the vertex attributes.
var (
	PositionOffset = uint32(unsafe.Offsetof(Particle{}.Position))
	ColorOffset    = uint32(unsafe.Offsetof(Particle{}.Color))
)

// SeedOptions controls Seed.
type SeedOptions struct {
	// Radius of the disk the particles are scattered in, in clip space units.
	Radius float32

	// Aspect is height/width of the target surface. X coordinates are scaled by
	// it so the disk looks round.
	Aspect float32

	// Speed is the length of every initial velocity.
	Speed float32
}

// Seed creates n particles scattered uniformly inside a disk, moving away from
// its center. The same rng state always produces the same particles.
func Seed(rng *rand.Rand, n int, opts SeedOptions) []Particle {
	particles := make([]Particle, n)

	for i := range particles {
		r := opts.Radius * float32(math.Sqrt(rng.Float64()))
		theta := rng.Float64() * 2 * math.Pi

		x := r * float32(math.Cos(theta)) * opts.Aspect
		y := r * float32(math.Sin(theta))

		p := &particles[i]
		p.Position = linmath.Vec2{x, y}
		p.Velocity = direction(p.Position)
		p.Velocity.Scale(&p.Velocity, opts.Speed)
		p.Color = linmath.Vec4{
			float32(rng.Float64()),
			float32(rng.Float64()),
			float32(rng.Float64()),
			1,
		}
	}

	return particles
}

// NewRand returns the generator used for seeding.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// direction returns the unit vector pointing at pos, or zero for the origin.
func direction(pos linmath.Vec2) linmath.Vec2 {
	var dir linmath.Vec2
	if pos.Len() == 0 {
		return dir
	}
	dir.Norm(&pos)
	return dir
}
