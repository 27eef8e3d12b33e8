// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package wgpu provides GPU-accelerated fluid simulation using WebGPU.
//
// The backend runs the engine's pass pipeline as WGSL compute shaders over
// storage buffers, one pipeline per stage, with double-buffered fields
// realized as buffer pairs. It either creates a standalone Vulkan device or
// adopts a device shared by the host application.
package wgpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/fluid"
)

// BackendConfig configures GPU backend creation.
type BackendConfig struct {
	// Device and Queue adopt an existing GPU device, typically obtained
	// from the host via render.DeviceHandle. When nil, NewBackend creates
	// a standalone Vulkan device and owns its lifetime.
	Device hal.Device
	Queue  hal.Queue
}

// Backend implements fluid.Backend on WebGPU compute.
//
// Construction acquires the device; fluid.New then calls Init, which
// compiles the shaders and allocates the field buffers. A Backend whose
// device cannot be acquired is never returned: NewBackend fails with
// fluid.ErrNoGPU wrapped, so callers can fall back to the software backend.
type Backend struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	dispatcher *dispatcher
	info       GPUInfo

	externalDevice bool // true when using shared device (don't destroy on Close)
	initialized    bool
}

// Interface compliance checks.
var _ fluid.Backend = (*Backend)(nil)

// NewBackend acquires a GPU device and returns an uninitialized backend.
// Pass the result to fluid.New via fluid.WithBackend.
func NewBackend(cfg BackendConfig) (*Backend, error) {
	b := &Backend{}

	if cfg.Device != nil && cfg.Queue != nil {
		b.device = cfg.Device
		b.queue = cfg.Queue
		b.externalDevice = true
		slogger().Debug("wgpu: using shared GPU device")
		return b, nil
	}

	if err := b.initGPU(); err != nil {
		b.Close()
		return nil, fmt.Errorf("%w: %w", fluid.ErrNoGPU, err)
	}
	return b, nil
}

// initGPU creates a standalone Vulkan device for compute-only use.
// This is the fallback path when no external device is provided.
func (b *Backend) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	b.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	b.device = openDev.Device
	b.queue = openDev.Queue
	b.info = GPUInfo{
		Name:       selected.Info.Name,
		DeviceType: selected.Info.DeviceType,
	}

	slogger().Info("wgpu: GPU initialized (standalone)", "adapter", selected.Info.Name)
	return nil
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return "wgpu-compute" }

// SetDeviceProvider switches the backend to a shared GPU device from an
// external provider (e.g. a gogpu host). The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
// If the backend was already initialized, its pipelines are rebuilt on the
// new device.
func (b *Backend) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var cfg fluid.Config
	var dims gridDims
	rebuild := false
	if b.dispatcher != nil {
		cfg, dims = b.dispatcher.cfg, b.dispatcher.dims
		rebuild = true
		b.dispatcher.Close()
		b.dispatcher = nil
	}

	// Destroy own resources if we created them.
	if !b.externalDevice && b.device != nil {
		b.device.Destroy()
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}

	b.device = device
	b.queue = queue
	b.externalDevice = true
	b.info = GPUInfo{}
	b.initialized = false

	if rebuild {
		d := newDispatcher(device, queue, cfg, dims)
		if err := d.Init(); err != nil {
			return fmt.Errorf("%w: %w", fluid.ErrNoGPU, err)
		}
		b.dispatcher = d
		b.initialized = true
	}

	slogger().Debug("wgpu: switched to shared GPU device")
	return nil
}

// Info returns information about the selected GPU. The zero value is
// returned for shared devices, whose adapter the host already knows.
func (b *Backend) Info() GPUInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.info
}

// SetLogger sets the logger for the GPU backend.
// Called by fluid.New to propagate logging configuration.
func (b *Backend) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Init compiles the compute pipelines and allocates all field buffers.
func (b *Backend) Init(cfg fluid.Config, simW, simH, dyeW, dyeH int, outputAspect float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil || b.queue == nil {
		return fluid.ErrNoGPU
	}
	if b.initialized {
		return nil
	}

	d := newDispatcher(b.device, b.queue, cfg, gridDims{
		SimW: simW, SimH: simH,
		DyeW: dyeW, DyeH: dyeH,
		Aspect: outputAspect,
	})
	if err := d.Init(); err != nil {
		return fmt.Errorf("%w: %w", fluid.ErrNoGPU, err)
	}
	b.dispatcher = d
	b.initialized = true
	return nil
}

// CanCompute reports whether the compute pipelines are ready.
func (b *Backend) CanCompute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized && b.dispatcher != nil
}

// Splat adds Gaussian velocity and dye blobs at the request position.
func (b *Backend) Splat(s fluid.Splat) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return fluid.ErrNotInitialized
	}
	return b.dispatcher.Splat(s)
}

// Step advances the simulation by dt seconds. Blocks until the GPU work
// completes so the buffers are consistent when Step returns.
func (b *Backend) Step(dt float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return fluid.ErrNotInitialized
	}
	return b.dispatcher.Step(dt)
}

// Render runs the display composite and reads the frame back into target.
func (b *Backend) Render(target *fluid.Pixmap) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return fluid.ErrNotInitialized
	}
	if target == nil {
		return fluid.ErrNilTarget
	}
	return b.dispatcher.Render(target)
}

// Fields reads every device buffer back into a CPU field set.
// This stalls the pipeline; it exists for diagnostics and tests.
func (b *Backend) Fields() (*fluid.FieldSet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil, fluid.ErrNotInitialized
	}
	return b.dispatcher.ReadFields()
}

// Close releases all GPU resources held by the backend.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dispatcher != nil {
		b.dispatcher.Close()
		b.dispatcher = nil
	}

	if !b.externalDevice {
		if b.device != nil {
			b.device.Destroy()
			b.device = nil
		}
		if b.instance != nil {
			b.instance.Destroy()
			b.instance = nil
		}
	} else {
		// Don't destroy shared resources -- we don't own them.
		b.device = nil
		b.instance = nil
	}
	b.queue = nil
	b.initialized = false
	b.externalDevice = false
}
