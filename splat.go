package fluid

// RGB is an additive dye color with channels in [0, 1].
type RGB struct {
	R, G, B float32
}

// Splat is a transient injection request: a Gaussian blob of velocity and dye
// added to the fields at one point. It is constructed by the caller, consumed
// synchronously by one Engine.Splat call and never stored.
type Splat struct {
	// X, Y is the normalized position in [0, 1], top-left origin (pointer
	// convention). The engine flips Y onto the field's bottom-up axis.
	X, Y float32

	// DX, DY is the velocity delta carried by the blob, in grid-normalized
	// units per second. Hosts typically scale pointer motion by
	// Config.SplatForce to produce these.
	DX, DY float32

	// Color is added to the dye field with the same falloff.
	Color RGB

	// Radius is the Gaussian radius in normalized units.
	// 0 means Config.SplatRadius.
	Radius float32

	// Force multiplies DX and DY. 0 means 1.
	Force float32
}

// withDefaults fills Radius and Force from the config.
func (s Splat) withDefaults(cfg Config) Splat {
	if s.Radius <= 0 {
		s.Radius = cfg.SplatRadius
	}
	if s.Force == 0 {
		s.Force = 1
	}
	return s
}
