package fluid

import "math"

// bilinear samples component c of f at the normalized coordinate (u, v) with
// texel-center alignment and clamped edges.
func bilinear(f *Field, u, v float32, c int) float32 {
	gx := u*float32(f.Width()) - 0.5
	gy := v*float32(f.Height()) - 0.5

	x0 := int(math.Floor(float64(gx)))
	y0 := int(math.Floor(float64(gy)))
	fx := gx - float32(x0)
	fy := gy - float32(y0)

	s00 := f.At(x0, y0, c)
	s10 := f.At(x0+1, y0, c)
	s01 := f.At(x0, y0+1, c)
	s11 := f.At(x0+1, y0+1, c)

	top := s01 + (s11-s01)*fx
	bot := s00 + (s10-s00)*fx
	return bot + (top-bot)*fy
}

// advectPass performs the semi-Lagrangian backward trace: each cell looks
// upstream along the velocity at its own position and pulls the source value
// from there, scaled by the dissipation factor.
//
// dst and src share a grid; vel may live on a different (coarser) grid and is
// sampled bilinearly, which is how dye advection reuses the sim-grid
// velocity.
func advectPass(dst, src, vel *Field, dt, dissipation float32, y0, y1 int) {
	w, h := dst.Width(), dst.Height()
	tx, ty := vel.TexelSize()
	comps := dst.Components()

	for y := y0; y < y1; y++ {
		v := (float32(y) + 0.5) / float32(h)
		for x := 0; x < w; x++ {
			u := (float32(x) + 0.5) / float32(w)

			vx := bilinear(vel, u, v, 0)
			vy := bilinear(vel, u, v, 1)

			su := u - dt*vx*tx
			sv := v - dt*vy*ty

			for c := 0; c < comps; c++ {
				dst.Set(x, y, c, dissipation*bilinear(src, su, sv, c))
			}
		}
	}
}

// splatPass adds a Gaussian falloff blob of value to a field:
//
//	out = src + exp(-|p|^2 / radius) * value
//
// where p is the cell's offset from (cx, cy) with its x component scaled by
// the output aspect ratio, so splats stay round on non-square outputs.
// Repeated splats at the same point accumulate additively.
func splatPass(dst, src *Field, cx, cy float32, value []float32, radius, aspect float32, y0, y1 int) {
	w, h := dst.Width(), dst.Height()
	comps := dst.Components()

	for y := y0; y < y1; y++ {
		dy := (float32(y)+0.5)/float32(h) - cy
		for x := 0; x < w; x++ {
			dx := (float32(x)+0.5)/float32(w) - cx
			dx *= aspect

			g := float32(math.Exp(float64(-(dx*dx + dy*dy) / radius)))
			for c := 0; c < comps; c++ {
				dst.Set(x, y, c, src.At(x, y, c)+g*value[c])
			}
		}
	}
}
