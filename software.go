package fluid

import (
	"sync"

	"github.com/gogpu/fluid/internal/parallel"
)

// SoftwareBackend is the CPU implementation of the pass pipeline. It is
// always available, deterministic, and serves as the reference for the GPU
// backend. Passes are parallelized across row bands by a worker pool.
type SoftwareBackend struct {
	mu sync.Mutex

	cfg    Config
	fields *FieldSet
	pool   *parallel.WorkerPool
	aspect float32

	initialized bool
}

// Interface compliance check.
var _ Backend = (*SoftwareBackend)(nil)

// NewSoftwareBackend creates an uninitialized software backend.
// The engine calls Init during construction.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{}
}

// Name returns the backend identifier.
func (b *SoftwareBackend) Name() string { return "software" }

// Init allocates the field set and starts the worker pool.
func (b *SoftwareBackend) Init(cfg Config, simW, simH, dyeW, dyeH int, outputAspect float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cfg = cfg
	b.fields = NewFieldSet(simW, simH, dyeW, dyeH)
	b.pool = parallel.NewWorkerPool(cfg.Workers)
	b.aspect = outputAspect
	b.initialized = true

	Logger().Debug("fluid: software backend initialized",
		"sim", [2]int{simW, simH}, "dye", [2]int{dyeW, dyeH}, "workers", b.pool.Workers())
	return nil
}

// Splat adds Gaussian velocity and dye blobs at the request position.
// Each affected field gets one full-grid pass followed by a swap.
func (b *SoftwareBackend) Splat(s Splat) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return ErrNotInitialized
	}

	// Wider outputs get a proportionally wider falloff so the blob's
	// on-screen footprint keeps its size.
	radius := s.Radius
	if b.aspect > 1 {
		radius *= b.aspect
	}

	cx, cy := s.X, 1-s.Y

	vel := b.fields.Velocity
	velDelta := []float32{s.DX * s.Force, s.DY * s.Force}
	b.pool.ForEachBand(vel.Read().Height(), func(y0, y1 int) {
		splatPass(vel.Write(), vel.Read(), cx, cy, velDelta, radius, b.aspect, y0, y1)
	})
	vel.Swap()

	dye := b.fields.Dye
	color := []float32{s.Color.R, s.Color.G, s.Color.B}
	b.pool.ForEachBand(dye.Read().Height(), func(y0, y1 int) {
		splatPass(dye.Write(), dye.Read(), cx, cy, color, radius, b.aspect, y0, y1)
	})
	dye.Swap()

	return nil
}

// Step advances the simulation by dt seconds, running the fixed pass
// sequence: curl, vorticity confinement, divergence, pressure clear, Jacobi
// solve, gradient subtraction, velocity self-advection, dye advection.
func (b *SoftwareBackend) Step(dt float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return ErrNotInitialized
	}

	f := b.fields
	simH := f.Curl.Height()

	b.pool.ForEachBand(simH, func(y0, y1 int) {
		curlPass(f.Velocity.Read(), f.Curl, y0, y1)
	})

	b.pool.ForEachBand(simH, func(y0, y1 int) {
		vorticityPass(f.Velocity.Write(), f.Velocity.Read(), f.Curl, b.cfg.Curl, dt, y0, y1)
	})
	f.Velocity.Swap()

	b.pool.ForEachBand(simH, func(y0, y1 int) {
		divergencePass(f.Velocity.Read(), f.Divergence, y0, y1)
	})

	b.pool.ForEachBand(simH, func(y0, y1 int) {
		clearPass(f.Pressure.Write(), f.Pressure.Read(), b.cfg.PressureDecay, y0, y1)
	})
	f.Pressure.Swap()

	for range b.cfg.PressureIterations {
		b.pool.ForEachBand(simH, func(y0, y1 int) {
			jacobiPass(f.Pressure.Write(), f.Pressure.Read(), f.Divergence, y0, y1)
		})
		f.Pressure.Swap()
	}

	b.pool.ForEachBand(simH, func(y0, y1 int) {
		gradientPass(f.Velocity.Write(), f.Velocity.Read(), f.Pressure.Read(), y0, y1)
	})
	f.Velocity.Swap()

	b.pool.ForEachBand(simH, func(y0, y1 int) {
		advectPass(f.Velocity.Write(), f.Velocity.Read(), f.Velocity.Read(), dt, b.cfg.VelocityDissipation, y0, y1)
	})
	f.Velocity.Swap()

	b.pool.ForEachBand(f.Dye.Read().Height(), func(y0, y1 int) {
		advectPass(f.Dye.Write(), f.Dye.Read(), f.Velocity.Read(), dt, b.cfg.DensityDissipation, y0, y1)
	})
	f.Dye.Swap()

	return nil
}

// Render runs the display composite into target.
func (b *SoftwareBackend) Render(target *Pixmap) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return ErrNotInitialized
	}
	if target == nil {
		return ErrNilTarget
	}
	compositeDye(b.fields.Dye.Read(), target)
	return nil
}

// Fields returns the live simulation state. Callers must not mutate it while
// the backend is stepping.
func (b *SoftwareBackend) Fields() (*FieldSet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil, ErrNotInitialized
	}
	return b.fields, nil
}

// Close stops the worker pool and drops the field storage.
func (b *SoftwareBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pool != nil {
		b.pool.Close()
		b.pool = nil
	}
	b.fields = nil
	b.initialized = false
}
