package fluid

import "math"

// CPU stencil kernels for the pass pipeline. Each kernel processes the row
// band [y0, y1) so the software backend can fan rows out across workers.
// Neighbor reads use clamped addressing (Field.At); the divergence kernel
// additionally reflects off-edge velocity, see below.

// curlPass measures the local rotation of the velocity field:
//
//	curl = 0.5 * (vy[right] - vy[left] - vx[top] + vx[bottom])
func curlPass(vel, curl *Field, y0, y1 int) {
	w := vel.Width()
	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			c := 0.5 * (vel.At(x+1, y, 1) - vel.At(x-1, y, 1) -
				vel.At(x, y+1, 0) + vel.At(x, y-1, 0))
			curl.Set(x, y, 0, c)
		}
	}
}

// vorticityPass adds a confinement force that pushes flow back toward local
// vortex centers, counteracting the numerical damping of small swirls.
// The force is the normalized gradient of |curl| scaled by strength and the
// cell's own curl; its y component is negated for the field's axis
// convention.
func vorticityPass(dst, src, curl *Field, strength, dt float32, y0, y1 int) {
	w := src.Width()
	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			t := absf(curl.At(x, y+1, 0))
			b := absf(curl.At(x, y-1, 0))
			r := absf(curl.At(x+1, y, 0))
			l := absf(curl.At(x-1, y, 0))

			fx := 0.5 * (t - b)
			fy := 0.5 * (r - l)

			// Normalize with a floor so still regions produce no force.
			invLen := 1 / (float32(math.Sqrt(float64(fx*fx+fy*fy))) + 1e-4)
			c := curl.At(x, y, 0)
			fx *= invLen * strength * c
			fy *= invLen * strength * c
			fy = -fy

			dst.Set(x, y, 0, src.At(x, y, 0)+fx*dt)
			dst.Set(x, y, 1, src.At(x, y, 1)+fy*dt)
		}
	}
}

// divergencePass computes the net outflow per cell:
//
//	div = 0.5 * (vx[right] - vx[left] + vy[top] - vy[bottom])
//
// Off-edge samples reflect the perpendicular component of the center cell,
// which makes the domain boundary behave as a solid wall.
func divergencePass(vel, div *Field, y0, y1 int) {
	w, h := vel.Width(), vel.Height()
	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			l := vel.At(x-1, y, 0)
			r := vel.At(x+1, y, 0)
			b := vel.At(x, y-1, 1)
			t := vel.At(x, y+1, 1)

			if x == 0 {
				l = -vel.At(x, y, 0)
			}
			if x == w-1 {
				r = -vel.At(x, y, 0)
			}
			if y == 0 {
				b = -vel.At(x, y, 1)
			}
			if y == h-1 {
				t = -vel.At(x, y, 1)
			}

			div.Set(x, y, 0, 0.5*(r-l+t-b))
		}
	}
}

// clearPass scales the previous frame's pressure by the warm-start decay.
func clearPass(dst, src *Field, decay float32, y0, y1 int) {
	w := src.Width()
	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			dst.Set(x, y, 0, src.At(x, y, 0)*decay)
		}
	}
}

// jacobiPass runs one iteration of the Jacobi pressure solve:
//
//	p = (p[left] + p[right] + p[top] + p[bottom] - div) / 4
func jacobiPass(dst, src, div *Field, y0, y1 int) {
	w := src.Width()
	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			p := (src.At(x-1, y, 0) + src.At(x+1, y, 0) +
				src.At(x, y+1, 0) + src.At(x, y-1, 0) -
				div.At(x, y, 0)) * 0.25
			dst.Set(x, y, 0, p)
		}
	}
}

// gradientPass subtracts the pressure gradient from velocity, removing the
// divergent component of the flow (the projection step):
//
//	vel -= (p[right] - p[left], p[top] - p[bottom])
func gradientPass(dst, src, p *Field, y0, y1 int) {
	w := src.Width()
	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			gx := p.At(x+1, y, 0) - p.At(x-1, y, 0)
			gy := p.At(x, y+1, 0) - p.At(x, y-1, 0)
			dst.Set(x, y, 0, src.At(x, y, 0)-gx)
			dst.Set(x, y, 1, src.At(x, y, 1)-gy)
		}
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
