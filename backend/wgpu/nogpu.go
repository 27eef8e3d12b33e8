// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build nogpu

// Package wgpu provides GPU-accelerated fluid simulation using WebGPU.
//
// This build has GPU support compiled out (the nogpu tag); NewBackend always
// fails and callers fall back to the software backend.
package wgpu

import (
	"log/slog"

	"github.com/gogpu/fluid"
)

// BackendConfig configures GPU backend creation. Unused in nogpu builds.
type BackendConfig struct{}

// Backend is a stub that reports GPU support as unavailable.
type Backend struct{}

var _ fluid.Backend = (*Backend)(nil)

// NewBackend always fails in nogpu builds.
func NewBackend(BackendConfig) (*Backend, error) {
	return nil, fluid.ErrNoGPU
}

func (b *Backend) Name() string                { return "wgpu-compute" }
func (b *Backend) Info() GPUInfo               { return GPUInfo{} }
func (b *Backend) SetDeviceProvider(any) error { return fluid.ErrNoGPU }
func (b *Backend) SetLogger(*slog.Logger)      {}
func (b *Backend) CanCompute() bool            { return false }
func (b *Backend) Splat(fluid.Splat) error     { return fluid.ErrNoGPU }
func (b *Backend) Step(float32) error          { return fluid.ErrNoGPU }
func (b *Backend) Render(*fluid.Pixmap) error  { return fluid.ErrNoGPU }
func (b *Backend) Close()                      {}

func (b *Backend) Init(fluid.Config, int, int, int, int, float32) error {
	return fluid.ErrNoGPU
}

func (b *Backend) Fields() (*fluid.FieldSet, error) {
	return nil, fluid.ErrNoGPU
}
