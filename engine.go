package fluid

import (
	"fmt"
	"sync"
	"time"
)

// maxFrameTime caps the integration step at one 60 Hz frame. A stall (tab in
// background, debugger pause) then costs simulation time, never stability.
const maxFrameTime = float32(1.0 / 60.0)

// Engine drives one fluid simulation: it owns a backend, plans the grid
// resolutions for the output size, converts wall time into clamped steps and
// exposes the injection and render API.
//
// Engine is safe for concurrent use, though the expected pattern is one
// driver goroutine calling Splat/Update/RenderTo in a frame loop.
type Engine struct {
	mu sync.Mutex

	cfg     Config
	backend Backend

	width, height int
	simW, simH    int
	dyeW, dyeH    int

	now    func() time.Time
	last   time.Time
	frame  uint64
	output *Pixmap

	closed bool
}

// New creates an engine for an output surface of the given size.
// The sim and dye grids are planned from the config's base resolutions,
// preserving the output aspect ratio. The default backend is software;
// inject another with WithBackend.
//
// A backend that fails to initialize (for example backend/wgpu with no
// usable adapter) makes New fail; the backend is closed before returning.
func New(cfg Config, width, height int, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: output size %dx%d", ErrInvalidConfig, width, height)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}

	backend := o.backend
	if backend == nil {
		backend = NewSoftwareBackend()
	}

	simW, simH := PlanResolution(cfg.SimResolution, width, height)
	dyeW, dyeH := PlanResolution(cfg.DyeResolution, width, height)
	aspect := float32(width) / float32(height)

	propagateLogger(backend, Logger())
	if err := backend.Init(cfg, simW, simH, dyeW, dyeH, aspect); err != nil {
		backend.Close()
		return nil, fmt.Errorf("fluid: backend %q init: %w", backend.Name(), err)
	}

	e := &Engine{
		cfg:     cfg,
		backend: backend,
		width:   width,
		height:  height,
		simW:    simW,
		simH:    simH,
		dyeW:    dyeW,
		dyeH:    dyeH,
		now:     o.now,
	}
	e.last = e.now()

	Logger().Info("fluid: engine created",
		"backend", backend.Name(),
		"output", [2]int{width, height},
		"sim", [2]int{simW, simH},
		"dye", [2]int{dyeW, dyeH})
	return e, nil
}

// Splat injects a Gaussian blob of velocity and dye at the request position.
// Repeated splats at the same point accumulate additively.
func (e *Engine) Splat(s Splat) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	return e.backend.Splat(s.withDefaults(e.cfg))
}

// Update advances the simulation by the wall time elapsed since the previous
// Update (or since construction), clamped to 1/60 s.
func (e *Engine) Update() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}

	now := e.now()
	dt := float32(now.Sub(e.last).Seconds())
	e.last = now

	if dt < 0 {
		dt = 0
	}
	if dt > maxFrameTime {
		dt = maxFrameTime
	}
	return e.step(dt)
}

// Step advances the simulation by an explicit dt in seconds, bypassing the
// clock. Fixed-rate hosts and tests use this; dt is still clamped to 1/60 s.
func (e *Engine) Step(dt float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	if dt < 0 {
		dt = 0
	}
	if dt > maxFrameTime {
		dt = maxFrameTime
	}
	return e.step(dt)
}

func (e *Engine) step(dt float32) error {
	if err := e.backend.Step(dt); err != nil {
		return err
	}
	e.frame++
	return nil
}

// RenderTo runs the display composite into target, which may have any size;
// the dye field is sampled bilinearly.
func (e *Engine) RenderTo(target *Pixmap) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	if target == nil {
		return ErrNilTarget
	}
	return e.backend.Render(target)
}

// Output returns an engine-owned pixmap matching the output size, allocated
// on first use. Convenient for hosts that render one frame at a time.
func (e *Engine) Output() *Pixmap {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.output == nil {
		e.output = NewPixmap(e.width, e.height)
	}
	return e.output
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Size returns the output surface dimensions.
func (e *Engine) Size() (width, height int) { return e.width, e.height }

// SimGridSize returns the planned velocity/pressure grid dimensions.
func (e *Engine) SimGridSize() (width, height int) { return e.simW, e.simH }

// DyeGridSize returns the planned dye grid dimensions.
func (e *Engine) DyeGridSize() (width, height int) { return e.dyeW, e.dyeH }

// Frame returns the number of completed simulation steps.
func (e *Engine) Frame() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// Close releases the backend and its field storage.
// Close is safe to call multiple times; operations after Close return
// ErrEngineClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.backend.Close()
	e.closed = true
}
