// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	_ "embed"

	"github.com/gogpu/gputypes"
)

//go:embed shaders/curl.wgsl
var curlWGSL string

//go:embed shaders/vorticity.wgsl
var vorticityWGSL string

//go:embed shaders/divergence.wgsl
var divergenceWGSL string

//go:embed shaders/clear_pressure.wgsl
var clearPressureWGSL string

//go:embed shaders/jacobi.wgsl
var jacobiWGSL string

//go:embed shaders/gradient_subtract.wgsl
var gradientSubtractWGSL string

//go:embed shaders/advect_velocity.wgsl
var advectVelocityWGSL string

//go:embed shaders/advect_dye.wgsl
var advectDyeWGSL string

//go:embed shaders/splat_velocity.wgsl
var splatVelocityWGSL string

//go:embed shaders/splat_dye.wgsl
var splatDyeWGSL string

//go:embed shaders/composite.wgsl
var compositeWGSL string

// stage identifies one compute pass of the simulation pipeline.
type stage int

const (
	stageCurl stage = iota
	stageVorticity
	stageDivergence
	stageClearPressure
	stageJacobi
	stageGradientSubtract
	stageAdvectVelocity
	stageAdvectDye
	stageSplatVelocity
	stageSplatDye
	stageComposite
	stageCount
)

func (s stage) String() string {
	switch s {
	case stageCurl:
		return "curl"
	case stageVorticity:
		return "vorticity"
	case stageDivergence:
		return "divergence"
	case stageClearPressure:
		return "clear_pressure"
	case stageJacobi:
		return "jacobi"
	case stageGradientSubtract:
		return "gradient_subtract"
	case stageAdvectVelocity:
		return "advect_velocity"
	case stageAdvectDye:
		return "advect_dye"
	case stageSplatVelocity:
		return "splat_velocity"
	case stageSplatDye:
		return "splat_dye"
	case stageComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// shaderSources indexes WGSL source by stage.
var shaderSources = [stageCount]string{
	stageCurl:             curlWGSL,
	stageVorticity:        vorticityWGSL,
	stageDivergence:       divergenceWGSL,
	stageClearPressure:    clearPressureWGSL,
	stageJacobi:           jacobiWGSL,
	stageGradientSubtract: gradientSubtractWGSL,
	stageAdvectVelocity:   advectVelocityWGSL,
	stageAdvectDye:        advectDyeWGSL,
	stageSplatVelocity:    splatVelocityWGSL,
	stageSplatDye:         splatDyeWGSL,
	stageComposite:        compositeWGSL,
}

// uniformSizes indexes the Params byte size by stage.
var uniformSizes = [stageCount]uint64{
	stageCurl:             16,
	stageVorticity:        16,
	stageDivergence:       16,
	stageClearPressure:    16,
	stageJacobi:           16,
	stageGradientSubtract: 16,
	stageAdvectVelocity:   16,
	stageAdvectDye:        32,
	stageSplatVelocity:    48,
	stageSplatDye:         48,
	stageComposite:        16,
}

func paramsUniform(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
}

func storageRO(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
	}
}

func storageRW(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
	}
}

// stageLayoutEntries indexes the bind group layout by stage. Binding order
// matches the @binding declarations in the WGSL sources.
var stageLayoutEntries = [stageCount][]gputypes.BindGroupLayoutEntry{
	stageCurl:             {paramsUniform(0), storageRO(1), storageRW(2)},
	stageVorticity:        {paramsUniform(0), storageRO(1), storageRO(2), storageRW(3)},
	stageDivergence:       {paramsUniform(0), storageRO(1), storageRW(2)},
	stageClearPressure:    {paramsUniform(0), storageRO(1), storageRW(2)},
	stageJacobi:           {paramsUniform(0), storageRO(1), storageRO(2), storageRW(3)},
	stageGradientSubtract: {paramsUniform(0), storageRO(1), storageRO(2), storageRW(3)},
	stageAdvectVelocity:   {paramsUniform(0), storageRO(1), storageRW(2)},
	stageAdvectDye:        {paramsUniform(0), storageRO(1), storageRO(2), storageRW(3)},
	stageSplatVelocity:    {paramsUniform(0), storageRO(1), storageRW(2)},
	stageSplatDye:         {paramsUniform(0), storageRO(1), storageRW(2)},
	stageComposite:        {paramsUniform(0), storageRO(1), storageRW(2)},
}
