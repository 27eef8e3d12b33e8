package fluid

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats is a numeric summary of the current simulation state, computed on
// demand from a CPU view of the fields. With a GPU backend this forces a
// device readback; treat it as a diagnostic, not a per-frame counter.
type Stats struct {
	// Frame is the number of completed simulation steps.
	Frame uint64

	// TotalDye is the summed absolute dye magnitude across the grid,
	// all channels.
	TotalDye float64

	// MaxVelocity is the largest velocity magnitude of any cell.
	MaxVelocity float64

	// MeanAbsDivergence measures how far the velocity field is from
	// divergence-free. More pressure iterations push it toward zero.
	MeanAbsDivergence float64
}

// Stats computes a summary of the current fields.
func (e *Engine) Stats() (Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Stats{}, ErrEngineClosed
	}

	fs, err := e.backend.Fields()
	if err != nil {
		return Stats{}, err
	}

	s := Stats{Frame: e.frame}

	dye := fs.Dye.Read().Data()
	absDye := make([]float64, len(dye))
	for i, v := range dye {
		absDye[i] = math.Abs(float64(v))
	}
	s.TotalDye = floats.Sum(absDye)

	vel := fs.Velocity.Read()
	velData := vel.Data()
	for i := 0; i < len(velData); i += 2 {
		vx := float64(velData[i])
		vy := float64(velData[i+1])
		if m := math.Hypot(vx, vy); m > s.MaxVelocity {
			s.MaxVelocity = m
		}
	}

	// Recompute divergence into a scratch plane so the measurement never
	// perturbs backend state.
	div := NewField(vel.Width(), vel.Height(), 1)
	divergencePass(vel, div, 0, vel.Height())
	absDiv := make([]float64, len(div.Data()))
	for i, v := range div.Data() {
		absDiv[i] = math.Abs(float64(v))
	}
	s.MeanAbsDivergence = stat.Mean(absDiv, nil)

	return s, nil
}
