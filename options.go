package fluid

import "time"

// Option configures an Engine during creation.
//
// Example:
//
//	// Default software simulation
//	eng, err := fluid.New(cfg, 1280, 720)
//
//	// Custom GPU backend (dependency injection)
//	eng, err := fluid.New(cfg, 1280, 720, fluid.WithBackend(gpuBackend))
type Option func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	backend Backend
	now     func() time.Time
	workers int
}

// defaultOptions returns the default engine options.
func defaultOptions() engineOptions {
	return engineOptions{
		backend: nil,      // Will be set to SoftwareBackend if nil
		now:     time.Now, // Wall clock
	}
}

// WithBackend sets a custom backend for the Engine.
// Use this for dependency injection of GPU or custom backends.
//
// Example:
//
//	gpu, err := wgpu.NewBackend(wgpu.BackendConfig{})
//	if err != nil {
//	    // no usable GPU, fall back to the default software backend
//	}
//	eng, err := fluid.New(cfg, 1280, 720, fluid.WithBackend(gpu))
func WithBackend(b Backend) Option {
	return func(o *engineOptions) {
		o.backend = b
	}
}

// WithClock replaces the time source used by Update to measure frame time.
// Tests use this to drive the engine deterministically.
func WithClock(now func() time.Time) Option {
	return func(o *engineOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithWorkers overrides Config.Workers for the software backend's CPU
// fan-out. 0 keeps the config value.
func WithWorkers(n int) Option {
	return func(o *engineOptions) {
		o.workers = n
	}
}
