// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"math"
)

// Uniform parameter blocks for the compute stages. Each struct mirrors the
// WGSL Params struct of its stage byte for byte; toBytes produces the
// little-endian layout WriteBuffer uploads. Sizes are multiples of 16 to
// satisfy uniform buffer alignment.

func putF32(b []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
}

func putU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:], v)
}

// gridParams covers stages that only need the grid extent: curl, divergence,
// jacobi and gradient subtract.
type gridParams struct {
	W, H uint32
}

func (p gridParams) toBytes() []byte {
	b := make([]byte, 16)
	putU32(b, 0, p.W)
	putU32(b, 4, p.H)
	return b
}

// vorticityParams parameterizes the confinement force stage.
type vorticityParams struct {
	W, H     uint32
	Strength float32
	DT       float32
}

func (p vorticityParams) toBytes() []byte {
	b := make([]byte, 16)
	putU32(b, 0, p.W)
	putU32(b, 4, p.H)
	putF32(b, 8, p.Strength)
	putF32(b, 12, p.DT)
	return b
}

// clearParams parameterizes the pressure warm-start decay stage.
type clearParams struct {
	W, H  uint32
	Decay float32
}

func (p clearParams) toBytes() []byte {
	b := make([]byte, 16)
	putU32(b, 0, p.W)
	putU32(b, 4, p.H)
	putF32(b, 8, p.Decay)
	return b
}

// advectParams parameterizes velocity self-advection, where the quantity and
// the velocity share a grid.
type advectParams struct {
	W, H        uint32
	DT          float32
	Dissipation float32
}

func (p advectParams) toBytes() []byte {
	b := make([]byte, 16)
	putU32(b, 0, p.W)
	putU32(b, 4, p.H)
	putF32(b, 8, p.DT)
	putF32(b, 12, p.Dissipation)
	return b
}

// advectDyeParams parameterizes dye advection, where the dye grid is finer
// than the velocity grid and velocity is sampled bilinearly.
type advectDyeParams struct {
	DyeW, DyeH  uint32
	VelW, VelH  uint32
	DT          float32
	Dissipation float32
}

func (p advectDyeParams) toBytes() []byte {
	b := make([]byte, 32)
	putU32(b, 0, p.DyeW)
	putU32(b, 4, p.DyeH)
	putU32(b, 8, p.VelW)
	putU32(b, 12, p.VelH)
	putF32(b, 16, p.DT)
	putF32(b, 20, p.Dissipation)
	return b
}

// splatParams parameterizes both splat stages. Velocity splats use the xy of
// Value; dye splats use xyz.
type splatParams struct {
	W, H   uint32
	X, Y   float32
	Value  [4]float32
	Radius float32
	Aspect float32
}

func (p splatParams) toBytes() []byte {
	b := make([]byte, 48)
	putU32(b, 0, p.W)
	putU32(b, 4, p.H)
	putF32(b, 8, p.X)
	putF32(b, 12, p.Y)
	for i, v := range p.Value {
		putF32(b, 16+i*4, v)
	}
	putF32(b, 32, p.Radius)
	putF32(b, 36, p.Aspect)
	return b
}

// compositeParams parameterizes the display composite, which resamples the
// dye grid to the output resolution.
type compositeParams struct {
	DyeW, DyeH uint32
	OutW, OutH uint32
}

func (p compositeParams) toBytes() []byte {
	b := make([]byte, 16)
	putU32(b, 0, p.DyeW)
	putU32(b, 4, p.DyeH)
	putU32(b, 8, p.OutW)
	putU32(b, 12, p.OutH)
	return b
}
