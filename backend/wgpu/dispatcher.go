// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fluid"
)

const workgroupSize = 16

// gpuTimeout bounds how long a single submission may take before the step is
// abandoned.
const gpuTimeout = 5 * time.Second

// gridDims carries the grid extents chosen by the engine.
type gridDims struct {
	SimW, SimH int
	DyeW, DyeH int
	Aspect     float32
}

// dispatcher owns the compiled pipelines, the field buffers and the per-stage
// uniform buffers, and encodes the pass sequence each frame.
//
// Double-buffered fields are buffer pairs with a front index; every pass
// reads front and writes back, then the pair swaps. Each submission runs to
// completion before the call returns, so the front buffers always hold a
// consistent state.
type dispatcher struct {
	device hal.Device
	queue  hal.Queue
	cfg    fluid.Config
	dims   gridDims

	modules   [stageCount]hal.ShaderModule
	bgLayouts [stageCount]hal.BindGroupLayout
	pLayouts  [stageCount]hal.PipelineLayout
	pipelines [stageCount]hal.ComputePipeline
	uniforms  [stageCount]hal.Buffer

	velocity   [2]hal.Buffer // array<vec2<f32>>, sim grid
	pressure   [2]hal.Buffer // array<f32>, sim grid
	dye        [2]hal.Buffer // array<vec4<f32>>, dye grid
	divergence hal.Buffer    // array<f32>, sim grid
	curl       hal.Buffer    // array<f32>, sim grid

	velFront   int
	pressFront int
	dyeFront   int

	fieldStaging hal.Buffer // readback scratch, sized for the largest field

	output        hal.Buffer // packed RGBA8, out grid
	outputStaging hal.Buffer
	outW, outH    int
}

func newDispatcher(device hal.Device, queue hal.Queue, cfg fluid.Config, dims gridDims) *dispatcher {
	return &dispatcher{
		device: device,
		queue:  queue,
		cfg:    cfg,
		dims:   dims,
	}
}

func (d *dispatcher) velBytes() uint64    { return uint64(d.dims.SimW*d.dims.SimH) * 8 }
func (d *dispatcher) scalarBytes() uint64 { return uint64(d.dims.SimW*d.dims.SimH) * 4 }
func (d *dispatcher) dyeBytes() uint64    { return uint64(d.dims.DyeW*d.dims.DyeH) * 16 }

// Init compiles all stages and allocates the field and uniform buffers.
// On any failure, everything created so far is destroyed.
func (d *dispatcher) Init() error {
	for i := stage(0); i < stageCount; i++ {
		// Pre-validate through naga; the SPIR-V path gives better
		// diagnostics than driver-side WGSL parsing.
		spirvBytes, err := naga.Compile(shaderSources[i])
		if err != nil {
			d.destroyPartialInit(int(i))
			return fmt.Errorf("compiling %v shader: %w", i, err)
		}
		spirv := make([]uint32, len(spirvBytes)/4)
		for j := range spirv {
			spirv[j] = binary.LittleEndian.Uint32(spirvBytes[j*4:])
		}

		module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  "fluid_" + i.String(),
			Source: hal.ShaderSource{SPIRV: spirv},
		})
		if err != nil {
			d.destroyPartialInit(int(i))
			return fmt.Errorf("creating %v module: %w", i, err)
		}
		d.modules[i] = module

		bgl, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   "fluid_" + i.String() + "_bgl",
			Entries: stageLayoutEntries[i],
		})
		if err != nil {
			d.destroyPartialInit(int(i) + 1)
			return fmt.Errorf("creating %v bind group layout: %w", i, err)
		}
		d.bgLayouts[i] = bgl

		layout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
			Label:            "fluid_" + i.String() + "_layout",
			BindGroupLayouts: []hal.BindGroupLayout{bgl},
		})
		if err != nil {
			d.destroyPartialInit(int(i) + 1)
			return fmt.Errorf("creating %v pipeline layout: %w", i, err)
		}
		d.pLayouts[i] = layout

		pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label:   "fluid_" + i.String(),
			Layout:  layout,
			Compute: hal.ComputeState{Module: module, EntryPoint: "main"},
		})
		if err != nil {
			d.destroyPartialInit(int(i) + 1)
			return fmt.Errorf("creating %v pipeline: %w", i, err)
		}
		d.pipelines[i] = pipeline

		uniform, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "fluid_" + i.String() + "_params",
			Size:  uniformSizes[i],
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			d.destroyPartialInit(int(i) + 1)
			return fmt.Errorf("creating %v uniform: %w", i, err)
		}
		d.uniforms[i] = uniform
	}

	if err := d.createFieldBuffers(); err != nil {
		d.Close()
		return err
	}
	d.writeStaticUniforms()

	slogger().Debug("wgpu: dispatcher ready",
		"sim", [2]int{d.dims.SimW, d.dims.SimH},
		"dye", [2]int{d.dims.DyeW, d.dims.DyeH})
	return nil
}

// destroyPartialInit releases the per-stage resources for stages [0, upTo).
func (d *dispatcher) destroyPartialInit(upTo int) {
	for i := 0; i < upTo && i < int(stageCount); i++ {
		if d.uniforms[i] != nil {
			d.device.DestroyBuffer(d.uniforms[i])
			d.uniforms[i] = nil
		}
		if d.pipelines[i] != nil {
			d.device.DestroyComputePipeline(d.pipelines[i])
			d.pipelines[i] = nil
		}
		if d.pLayouts[i] != nil {
			d.device.DestroyPipelineLayout(d.pLayouts[i])
			d.pLayouts[i] = nil
		}
		if d.bgLayouts[i] != nil {
			d.device.DestroyBindGroupLayout(d.bgLayouts[i])
			d.bgLayouts[i] = nil
		}
		if d.modules[i] != nil {
			d.device.DestroyShaderModule(d.modules[i])
			d.modules[i] = nil
		}
	}
}

func (d *dispatcher) createFieldBuffers() error {
	fieldUsage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc

	create := func(label string, size uint64) (hal.Buffer, error) {
		buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: label,
			Size:  size,
			Usage: fieldUsage,
		})
		if err != nil {
			return nil, fmt.Errorf("creating %s buffer: %w", label, err)
		}
		// Fields start at rest.
		d.queue.WriteBuffer(buf, 0, make([]byte, size))
		return buf, nil
	}

	var err error
	for i := range 2 {
		if d.velocity[i], err = create(fmt.Sprintf("fluid_velocity_%d", i), d.velBytes()); err != nil {
			return err
		}
		if d.pressure[i], err = create(fmt.Sprintf("fluid_pressure_%d", i), d.scalarBytes()); err != nil {
			return err
		}
		if d.dye[i], err = create(fmt.Sprintf("fluid_dye_%d", i), d.dyeBytes()); err != nil {
			return err
		}
	}
	if d.divergence, err = create("fluid_divergence", d.scalarBytes()); err != nil {
		return err
	}
	if d.curl, err = create("fluid_curl", d.scalarBytes()); err != nil {
		return err
	}

	stagingSize := d.velBytes()
	if d.dyeBytes() > stagingSize {
		stagingSize = d.dyeBytes()
	}
	d.fieldStaging, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "fluid_field_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("creating field staging buffer: %w", err)
	}
	return nil
}

// writeStaticUniforms uploads the parameter blocks that never change between
// frames. Stages whose parameters carry dt are rewritten each Step.
func (d *dispatcher) writeStaticUniforms() {
	simGrid := gridParams{W: uint32(d.dims.SimW), H: uint32(d.dims.SimH)}.toBytes()
	d.queue.WriteBuffer(d.uniforms[stageCurl], 0, simGrid)
	d.queue.WriteBuffer(d.uniforms[stageDivergence], 0, simGrid)
	d.queue.WriteBuffer(d.uniforms[stageJacobi], 0, simGrid)
	d.queue.WriteBuffer(d.uniforms[stageGradientSubtract], 0, simGrid)

	d.queue.WriteBuffer(d.uniforms[stageClearPressure], 0, clearParams{
		W: uint32(d.dims.SimW), H: uint32(d.dims.SimH),
		Decay: d.cfg.PressureDecay,
	}.toBytes())
}

func workgroups(n int) uint32 {
	return uint32((n + workgroupSize - 1) / workgroupSize)
}

func bufEntry(binding uint32, buf hal.Buffer, size uint64) gputypes.BindGroupEntry {
	return gputypes.BindGroupEntry{
		Binding: binding,
		Resource: gputypes.BufferBinding{
			Buffer: buf.NativeHandle(),
			Offset: 0,
			Size:   size,
		},
	}
}

// frame accumulates one submission: an encoder plus the transient bind
// groups it references, destroyed once the GPU is done with them.
type frame struct {
	d          *dispatcher
	encoder    hal.CommandEncoder
	bindGroups []hal.BindGroup
}

func (d *dispatcher) beginFrame(label string) (*frame, error) {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("creating command encoder: %w", err)
	}
	encoder.BeginEncoding(label)
	return &frame{d: d, encoder: encoder}, nil
}

// dispatch records one compute pass for st over a w x h grid.
func (f *frame) dispatch(st stage, entries []gputypes.BindGroupEntry, w, h int) error {
	bg, err := f.d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "fluid_" + st.String() + "_bg",
		Layout:  f.d.bgLayouts[st],
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("creating %v bind group: %w", st, err)
	}
	f.bindGroups = append(f.bindGroups, bg)

	pass := f.encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "fluid_" + st.String()})
	pass.SetPipeline(f.d.pipelines[st])
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(workgroups(w), workgroups(h), 1)
	pass.End()
	return nil
}

// finish submits the recorded work, blocks until the GPU completes it, and
// releases the transient resources.
func (f *frame) finish() error {
	cmdBuf, err := f.encoder.EndEncoding()
	if err != nil {
		f.destroyBindGroups()
		return fmt.Errorf("ending encoding: %w", err)
	}

	fence, err := f.d.device.CreateFence()
	if err != nil {
		f.d.device.FreeCommandBuffer(cmdBuf)
		f.destroyBindGroups()
		return fmt.Errorf("creating fence: %w", err)
	}
	defer f.d.device.DestroyFence(fence)

	if err := f.d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		f.d.device.FreeCommandBuffer(cmdBuf)
		f.destroyBindGroups()
		return fmt.Errorf("submitting commands: %w", err)
	}
	ok, waitErr := f.d.device.Wait(fence, 1, gpuTimeout)

	f.d.device.FreeCommandBuffer(cmdBuf)
	f.destroyBindGroups()
	return fenceOutcome(ok, waitErr)
}

// fenceOutcome folds the two results of a fence wait into one error.
// A fence that did not signal within the timeout must fail the frame,
// otherwise buffer swaps would commit over half-finished GPU work.
func fenceOutcome(ok bool, err error) error {
	if err != nil {
		return fmt.Errorf("waiting for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("GPU timeout after %v", gpuTimeout)
	}
	return nil
}

func (f *frame) destroyBindGroups() {
	for _, bg := range f.bindGroups {
		f.d.device.DestroyBindGroup(bg)
	}
	f.bindGroups = nil
}

// Step encodes and runs the full pass sequence for one frame: curl,
// vorticity confinement, divergence, pressure clear, Jacobi iterations,
// gradient subtraction, velocity self-advection, dye advection.
//
// The Jacobi solve is unrolled into one dispatch per iteration with the
// pressure buffers ping-ponging between dispatches.
func (d *dispatcher) Step(dt float32) error {
	simW, simH := d.dims.SimW, d.dims.SimH
	dyeW, dyeH := d.dims.DyeW, d.dims.DyeH

	d.queue.WriteBuffer(d.uniforms[stageVorticity], 0, vorticityParams{
		W: uint32(simW), H: uint32(simH),
		Strength: d.cfg.Curl, DT: dt,
	}.toBytes())
	d.queue.WriteBuffer(d.uniforms[stageAdvectVelocity], 0, advectParams{
		W: uint32(simW), H: uint32(simH),
		DT: dt, Dissipation: d.cfg.VelocityDissipation,
	}.toBytes())
	d.queue.WriteBuffer(d.uniforms[stageAdvectDye], 0, advectDyeParams{
		DyeW: uint32(dyeW), DyeH: uint32(dyeH),
		VelW: uint32(simW), VelH: uint32(simH),
		DT: dt, Dissipation: d.cfg.DensityDissipation,
	}.toBytes())

	f, err := d.beginFrame("fluid_step")
	if err != nil {
		return err
	}

	vel := func(i int) hal.Buffer { return d.velocity[i] }
	press := func(i int) hal.Buffer { return d.pressure[i] }
	velFront, pressFront, dyeFront := d.velFront, d.pressFront, d.dyeFront

	err = f.dispatch(stageCurl, []gputypes.BindGroupEntry{
		bufEntry(0, d.uniforms[stageCurl], uniformSizes[stageCurl]),
		bufEntry(1, vel(velFront), d.velBytes()),
		bufEntry(2, d.curl, d.scalarBytes()),
	}, simW, simH)

	if err == nil {
		err = f.dispatch(stageVorticity, []gputypes.BindGroupEntry{
			bufEntry(0, d.uniforms[stageVorticity], uniformSizes[stageVorticity]),
			bufEntry(1, vel(velFront), d.velBytes()),
			bufEntry(2, d.curl, d.scalarBytes()),
			bufEntry(3, vel(1-velFront), d.velBytes()),
		}, simW, simH)
		velFront = 1 - velFront
	}

	if err == nil {
		err = f.dispatch(stageDivergence, []gputypes.BindGroupEntry{
			bufEntry(0, d.uniforms[stageDivergence], uniformSizes[stageDivergence]),
			bufEntry(1, vel(velFront), d.velBytes()),
			bufEntry(2, d.divergence, d.scalarBytes()),
		}, simW, simH)
	}

	if err == nil {
		err = f.dispatch(stageClearPressure, []gputypes.BindGroupEntry{
			bufEntry(0, d.uniforms[stageClearPressure], uniformSizes[stageClearPressure]),
			bufEntry(1, press(pressFront), d.scalarBytes()),
			bufEntry(2, press(1-pressFront), d.scalarBytes()),
		}, simW, simH)
		pressFront = 1 - pressFront
	}

	for i := 0; err == nil && i < d.cfg.PressureIterations; i++ {
		err = f.dispatch(stageJacobi, []gputypes.BindGroupEntry{
			bufEntry(0, d.uniforms[stageJacobi], uniformSizes[stageJacobi]),
			bufEntry(1, press(pressFront), d.scalarBytes()),
			bufEntry(2, d.divergence, d.scalarBytes()),
			bufEntry(3, press(1-pressFront), d.scalarBytes()),
		}, simW, simH)
		pressFront = 1 - pressFront
	}

	if err == nil {
		err = f.dispatch(stageGradientSubtract, []gputypes.BindGroupEntry{
			bufEntry(0, d.uniforms[stageGradientSubtract], uniformSizes[stageGradientSubtract]),
			bufEntry(1, press(pressFront), d.scalarBytes()),
			bufEntry(2, vel(velFront), d.velBytes()),
			bufEntry(3, vel(1-velFront), d.velBytes()),
		}, simW, simH)
		velFront = 1 - velFront
	}

	if err == nil {
		err = f.dispatch(stageAdvectVelocity, []gputypes.BindGroupEntry{
			bufEntry(0, d.uniforms[stageAdvectVelocity], uniformSizes[stageAdvectVelocity]),
			bufEntry(1, vel(velFront), d.velBytes()),
			bufEntry(2, vel(1-velFront), d.velBytes()),
		}, simW, simH)
		velFront = 1 - velFront
	}

	if err == nil {
		err = f.dispatch(stageAdvectDye, []gputypes.BindGroupEntry{
			bufEntry(0, d.uniforms[stageAdvectDye], uniformSizes[stageAdvectDye]),
			bufEntry(1, d.dye[dyeFront], d.dyeBytes()),
			bufEntry(2, vel(velFront), d.velBytes()),
			bufEntry(3, d.dye[1-dyeFront], d.dyeBytes()),
		}, dyeW, dyeH)
		dyeFront = 1 - dyeFront
	}

	if err != nil {
		f.destroyBindGroups()
		return err
	}
	if err := f.finish(); err != nil {
		return err
	}

	// Commit the swaps only after the GPU work landed.
	d.velFront = velFront
	d.pressFront = pressFront
	d.dyeFront = dyeFront
	return nil
}

// Splat adds Gaussian velocity and dye blobs. The request position uses the
// pointer convention (top-left origin); the field axis runs bottom-up.
func (d *dispatcher) Splat(s fluid.Splat) error {
	radius := s.Radius
	if d.dims.Aspect > 1 {
		radius *= d.dims.Aspect
	}
	cx, cy := s.X, 1-s.Y

	d.queue.WriteBuffer(d.uniforms[stageSplatVelocity], 0, splatParams{
		W: uint32(d.dims.SimW), H: uint32(d.dims.SimH),
		X: cx, Y: cy,
		Value:  [4]float32{s.DX * s.Force, s.DY * s.Force},
		Radius: radius, Aspect: d.dims.Aspect,
	}.toBytes())
	d.queue.WriteBuffer(d.uniforms[stageSplatDye], 0, splatParams{
		W: uint32(d.dims.DyeW), H: uint32(d.dims.DyeH),
		X: cx, Y: cy,
		Value:  [4]float32{s.Color.R, s.Color.G, s.Color.B},
		Radius: radius, Aspect: d.dims.Aspect,
	}.toBytes())

	f, err := d.beginFrame("fluid_splat")
	if err != nil {
		return err
	}

	err = f.dispatch(stageSplatVelocity, []gputypes.BindGroupEntry{
		bufEntry(0, d.uniforms[stageSplatVelocity], uniformSizes[stageSplatVelocity]),
		bufEntry(1, d.velocity[d.velFront], d.velBytes()),
		bufEntry(2, d.velocity[1-d.velFront], d.velBytes()),
	}, d.dims.SimW, d.dims.SimH)

	if err == nil {
		err = f.dispatch(stageSplatDye, []gputypes.BindGroupEntry{
			bufEntry(0, d.uniforms[stageSplatDye], uniformSizes[stageSplatDye]),
			bufEntry(1, d.dye[d.dyeFront], d.dyeBytes()),
			bufEntry(2, d.dye[1-d.dyeFront], d.dyeBytes()),
		}, d.dims.DyeW, d.dims.DyeH)
	}

	if err != nil {
		f.destroyBindGroups()
		return err
	}
	if err := f.finish(); err != nil {
		return err
	}

	d.velFront = 1 - d.velFront
	d.dyeFront = 1 - d.dyeFront
	return nil
}

// ensureOutput sizes the composite output and staging buffers to the target.
func (d *dispatcher) ensureOutput(w, h int) error {
	if d.output != nil && d.outW == w && d.outH == h {
		return nil
	}
	if d.output != nil {
		d.device.DestroyBuffer(d.output)
		d.output = nil
	}
	if d.outputStaging != nil {
		d.device.DestroyBuffer(d.outputStaging)
		d.outputStaging = nil
	}

	size := uint64(w*h) * 4
	output, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "fluid_output",
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("creating output buffer: %w", err)
	}
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "fluid_output_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		d.device.DestroyBuffer(output)
		return fmt.Errorf("creating output staging buffer: %w", err)
	}

	d.output = output
	d.outputStaging = staging
	d.outW, d.outH = w, h
	return nil
}

// Render runs the display composite at the target resolution and reads the
// packed frame back into the pixmap.
func (d *dispatcher) Render(target *fluid.Pixmap) error {
	w, h := target.Width(), target.Height()
	if err := d.ensureOutput(w, h); err != nil {
		return err
	}

	d.queue.WriteBuffer(d.uniforms[stageComposite], 0, compositeParams{
		DyeW: uint32(d.dims.DyeW), DyeH: uint32(d.dims.DyeH),
		OutW: uint32(w), OutH: uint32(h),
	}.toBytes())

	f, err := d.beginFrame("fluid_render")
	if err != nil {
		return err
	}

	size := uint64(w*h) * 4
	err = f.dispatch(stageComposite, []gputypes.BindGroupEntry{
		bufEntry(0, d.uniforms[stageComposite], uniformSizes[stageComposite]),
		bufEntry(1, d.dye[d.dyeFront], d.dyeBytes()),
		bufEntry(2, d.output, size),
	}, w, h)
	if err != nil {
		f.destroyBindGroups()
		return err
	}

	f.encoder.CopyBufferToBuffer(d.output, d.outputStaging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	if err := f.finish(); err != nil {
		return err
	}

	// The shader packs bytes in R, G, B, A order, matching the pixmap.
	if err := d.queue.ReadBuffer(d.outputStaging, 0, target.Data()); err != nil {
		return fmt.Errorf("reading frame: %w", err)
	}
	return nil
}

// readBuffer copies a device buffer through the staging buffer into host
// memory. Each call is a full round trip.
func (d *dispatcher) readBuffer(src hal.Buffer, size uint64) ([]byte, error) {
	f, err := d.beginFrame("fluid_readback")
	if err != nil {
		return nil, err
	}
	f.encoder.CopyBufferToBuffer(src, d.fieldStaging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	if err := f.finish(); err != nil {
		return nil, err
	}

	out := make([]byte, size)
	if err := d.queue.ReadBuffer(d.fieldStaging, 0, out); err != nil {
		return nil, fmt.Errorf("reading buffer: %w", err)
	}
	return out, nil
}

func bytesToF32(dst []float32, raw []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
}

// ReadFields snapshots every device buffer into a CPU field set.
func (d *dispatcher) ReadFields() (*fluid.FieldSet, error) {
	fs := fluid.NewFieldSet(d.dims.SimW, d.dims.SimH, d.dims.DyeW, d.dims.DyeH)

	raw, err := d.readBuffer(d.velocity[d.velFront], d.velBytes())
	if err != nil {
		return nil, err
	}
	bytesToF32(fs.Velocity.Read().Data(), raw)

	raw, err = d.readBuffer(d.pressure[d.pressFront], d.scalarBytes())
	if err != nil {
		return nil, err
	}
	bytesToF32(fs.Pressure.Read().Data(), raw)

	raw, err = d.readBuffer(d.divergence, d.scalarBytes())
	if err != nil {
		return nil, err
	}
	bytesToF32(fs.Divergence.Data(), raw)

	raw, err = d.readBuffer(d.curl, d.scalarBytes())
	if err != nil {
		return nil, err
	}
	bytesToF32(fs.Curl.Data(), raw)

	raw, err = d.readBuffer(d.dye[d.dyeFront], d.dyeBytes())
	if err != nil {
		return nil, err
	}
	// Device dye is vec4 per cell; the CPU field keeps three components.
	dye := fs.Dye.Read().Data()
	cells := d.dims.DyeW * d.dims.DyeH
	for p := 0; p < cells; p++ {
		for c := 0; c < 3; c++ {
			dye[p*3+c] = math.Float32frombits(binary.LittleEndian.Uint32(raw[p*16+c*4:]))
		}
	}
	return fs, nil
}

// Close destroys every GPU resource owned by the dispatcher.
func (d *dispatcher) Close() {
	d.destroyPartialInit(int(stageCount))

	destroy := func(buf *hal.Buffer) {
		if *buf != nil {
			d.device.DestroyBuffer(*buf)
			*buf = nil
		}
	}
	for i := range 2 {
		destroy(&d.velocity[i])
		destroy(&d.pressure[i])
		destroy(&d.dye[i])
	}
	destroy(&d.divergence)
	destroy(&d.curl)
	destroy(&d.fieldStaging)
	destroy(&d.output)
	destroy(&d.outputStaging)
}
