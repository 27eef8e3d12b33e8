package fluid

import "errors"

// Package-level errors returned by the engine and its backends.
var (
	// ErrInvalidConfig wraps all Config validation failures.
	ErrInvalidConfig = errors.New("fluid: invalid config")

	// ErrEngineClosed is returned by operations on a closed engine.
	ErrEngineClosed = errors.New("fluid: engine closed")

	// ErrNotInitialized is returned when a backend is used before Init.
	ErrNotInitialized = errors.New("fluid: backend not initialized")

	// ErrNilTarget is returned when rendering into a nil surface.
	ErrNilTarget = errors.New("fluid: nil render target")

	// ErrNoGPU is wrapped by GPU backend construction failures (no adapter,
	// no Vulkan backend, shader compilation failure). Callers should fall
	// back to the software backend.
	ErrNoGPU = errors.New("fluid: no usable GPU")
)

// Backend owns the field storage and executes the pass pipeline. The engine
// never touches grid memory directly; it drives a Backend.
//
// Implementations must be safe to Close more than once. They need not be safe
// for concurrent use; the engine serializes all calls.
type Backend interface {
	// Name identifies the backend ("software", "wgpu-compute").
	Name() string

	// Init allocates field storage for the given grid dimensions.
	// outputAspect is width/height of the output surface, used for the
	// splat falloff correction.
	Init(cfg Config, simW, simH, dyeW, dyeH int, outputAspect float32) error

	// Splat adds Gaussian velocity and dye blobs at the request position.
	// The request arrives with defaults applied; the backend flips Y onto
	// the field's bottom-up axis.
	Splat(s Splat) error

	// Step advances the simulation by dt seconds: the full pass sequence
	// from curl through dye advection. Blocks until the fields are updated.
	Step(dt float32) error

	// Render runs the display composite into target: dye sampled
	// bilinearly at target resolution, alpha = max(r, g, b).
	Render(target *Pixmap) error

	// Fields returns a CPU view of the current simulation state.
	// The software backend returns its live storage; GPU backends read the
	// device buffers back, which is expensive and meant for diagnostics
	// and tests, not per-frame use.
	Fields() (*FieldSet, error)

	// Close releases all storage. The backend is unusable afterwards.
	Close()
}
