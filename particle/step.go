package particle

import "github.com/xlab/linmath"

// Step advances every particle of in by dt and stores the result in out. It
// is the host side twin of the compMain kernel: particles move along their
// velocity and bounce off the [-1, 1] clip space border. len(out) must be at
// least len(in).
func Step(in, out []Particle, dt float32) {
	var move linmath.Vec2
	for i := range in {
		p := in[i]

		move.Scale(&p.Velocity, dt)
		p.Position.Add(&p.Position, &move)

		if p.Position[0] <= -1 || p.Position[0] >= 1 {
			p.Velocity[0] = -p.Velocity[0]
		}
		if p.Position[1] <= -1 || p.Position[1] >= 1 {
			p.Velocity[1] = -p.Velocity[1]
		}

		out[i] = p
	}
}
