// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/fluid"
)

func TestStageString(t *testing.T) {
	seen := map[string]bool{}
	for s := stage(0); s < stageCount; s++ {
		name := s.String()
		if name == "unknown" || name == "" {
			t.Errorf("stage %d has no name", s)
		}
		if seen[name] {
			t.Errorf("duplicate stage name %q", name)
		}
		seen[name] = true
		if shaderSources[s] == "" {
			t.Errorf("stage %v has no shader source", s)
		}
		if len(stageLayoutEntries[s]) == 0 {
			t.Errorf("stage %v has no layout entries", s)
		}
	}
}

func TestFenceOutcome(t *testing.T) {
	devLost := errors.New("device lost")
	tests := []struct {
		name   string
		ok     bool
		err    error
		wantOK bool
	}{
		{"signaled", true, nil, true},
		{"timeout", false, nil, false},
		{"device error", false, devLost, false},
	}
	for _, tt := range tests {
		err := fenceOutcome(tt.ok, tt.err)
		if tt.wantOK {
			if err != nil {
				t.Errorf("%s: unexpected error: %v", tt.name, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("%s: fence wait must fail the frame", tt.name)
		}
	}
	if err := fenceOutcome(false, devLost); !errors.Is(err, devLost) {
		t.Errorf("device error not wrapped: %v", err)
	}
}

func TestUniformSizesMatchToBytes(t *testing.T) {
	got := map[stage]int{
		stageCurl:             len(gridParams{}.toBytes()),
		stageVorticity:        len(vorticityParams{}.toBytes()),
		stageDivergence:       len(gridParams{}.toBytes()),
		stageClearPressure:    len(clearParams{}.toBytes()),
		stageJacobi:           len(gridParams{}.toBytes()),
		stageGradientSubtract: len(gridParams{}.toBytes()),
		stageAdvectVelocity:   len(advectParams{}.toBytes()),
		stageAdvectDye:        len(advectDyeParams{}.toBytes()),
		stageSplatVelocity:    len(splatParams{}.toBytes()),
		stageSplatDye:         len(splatParams{}.toBytes()),
		stageComposite:        len(compositeParams{}.toBytes()),
	}
	for s, n := range got {
		if uint64(n) != uniformSizes[s] {
			t.Errorf("%v params = %d bytes, uniformSizes says %d", s, n, uniformSizes[s])
		}
		if n%16 != 0 {
			t.Errorf("%v params = %d bytes, not 16-aligned", s, n)
		}
	}
}

func TestSplatParamsLayout(t *testing.T) {
	p := splatParams{
		W: 128, H: 72,
		X: 0.25, Y: 0.75,
		Value:  [4]float32{1, 2, 3, 0},
		Radius: 0.0025,
		Aspect: 1.5,
	}
	b := p.toBytes()

	if got := binary.LittleEndian.Uint32(b[0:]); got != 128 {
		t.Errorf("W = %d, want 128", got)
	}
	if got := binary.LittleEndian.Uint32(b[4:]); got != 72 {
		t.Errorf("H = %d, want 72", got)
	}
	f32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
	}
	if f32(8) != 0.25 || f32(12) != 0.75 {
		t.Errorf("point = (%v, %v), want (0.25, 0.75)", f32(8), f32(12))
	}
	if f32(16) != 1 || f32(20) != 2 || f32(24) != 3 {
		t.Errorf("value = (%v, %v, %v), want (1, 2, 3)", f32(16), f32(20), f32(24))
	}
	if f32(32) != 0.0025 {
		t.Errorf("radius = %v, want 0.0025", f32(32))
	}
	if f32(36) != 1.5 {
		t.Errorf("aspect = %v, want 1.5", f32(36))
	}
}

func TestWorkgroups(t *testing.T) {
	tests := []struct {
		n    int
		want uint32
	}{
		{1, 1},
		{16, 1},
		{17, 2},
		{128, 8},
		{130, 9},
	}
	for _, tt := range tests {
		if got := workgroups(tt.n); got != tt.want {
			t.Errorf("workgroups(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

// newGPUBackend skips the test when no adapter is available, so the suite
// passes on CI machines without a GPU.
func newGPUBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := NewBackend(BackendConfig{})
	if err != nil {
		if errors.Is(err, fluid.ErrNoGPU) {
			t.Skipf("no GPU available: %v", err)
		}
		t.Fatalf("NewBackend: %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

func TestBackendLifecycle(t *testing.T) {
	b := newGPUBackend(t)

	if b.Name() != "wgpu-compute" {
		t.Errorf("Name = %q", b.Name())
	}
	if _, err := b.Fields(); !errors.Is(err, fluid.ErrNotInitialized) {
		t.Errorf("Fields before Init = %v, want ErrNotInitialized", err)
	}

	cfg := fluid.DefaultConfig()
	if err := b.Init(cfg, 64, 64, 128, 128, 1.0); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !b.CanCompute() {
		t.Error("CanCompute = false after Init")
	}

	fs, err := b.Fields()
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	for _, v := range fs.Dye.Read().Data() {
		if v != 0 {
			t.Fatal("dye not zero after Init")
		}
	}
}

func TestBackendSplatStepRender(t *testing.T) {
	b := newGPUBackend(t)

	cfg := fluid.DefaultConfig()
	if err := b.Init(cfg, 64, 64, 128, 128, 1.0); err != nil {
		t.Fatalf("Init: %v", err)
	}

	err := b.Splat(fluid.Splat{
		X: 0.5, Y: 0.5,
		DX: 20, DY: 0,
		Color:  fluid.RGB{R: 1},
		Radius: 0.01,
		Force:  1,
	})
	if err != nil {
		t.Fatalf("Splat: %v", err)
	}

	fs, err := b.Fields()
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if got := fs.Dye.Read().At(64, 64, 0); got < 0.5 {
		t.Errorf("dye at center = %v, want > 0.5", got)
	}
	if got := fs.Velocity.Read().At(32, 32, 0); got < 1 {
		t.Errorf("velocity at center = %v, want > 1", got)
	}

	for range 10 {
		if err := b.Step(1.0 / 60.0); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	target := fluid.NewPixmap(128, 128)
	if err := b.Render(target); err != nil {
		t.Fatalf("Render: %v", err)
	}
	center := target.GetPixel(64, 64)
	if center.R == 0 {
		t.Error("rendered center has no red after splat")
	}
	if center.A < center.R {
		t.Errorf("alpha %v below max channel %v", center.A, center.R)
	}
}

func TestBackendMatchesSoftware(t *testing.T) {
	b := newGPUBackend(t)

	cfg := fluid.DefaultConfig()
	cfg.PressureIterations = 8
	if err := b.Init(cfg, 32, 32, 64, 64, 1.0); err != nil {
		t.Fatalf("Init: %v", err)
	}

	sw := fluid.NewSoftwareBackend()
	if err := sw.Init(cfg, 32, 32, 64, 64, 1.0); err != nil {
		t.Fatalf("software Init: %v", err)
	}
	defer sw.Close()

	s := fluid.Splat{
		X: 0.4, Y: 0.6,
		DX: 15, DY: -10,
		Color:  fluid.RGB{R: 0.8, G: 0.2},
		Radius: 0.01,
		Force:  1,
	}
	if err := b.Splat(s); err != nil {
		t.Fatal(err)
	}
	if err := sw.Splat(s); err != nil {
		t.Fatal(err)
	}
	for range 5 {
		if err := b.Step(1.0 / 60.0); err != nil {
			t.Fatal(err)
		}
		if err := sw.Step(1.0 / 60.0); err != nil {
			t.Fatal(err)
		}
	}

	gpuFields, err := b.Fields()
	if err != nil {
		t.Fatal(err)
	}
	swFields, err := sw.Fields()
	if err != nil {
		t.Fatal(err)
	}

	// Float ordering differs between the two implementations, so compare
	// with a loose per-cell tolerance.
	gd := gpuFields.Dye.Read().Data()
	sd := swFields.Dye.Read().Data()
	for i := range sd {
		if diff := float64(gd[i] - sd[i]); math.Abs(diff) > 1e-2 {
			t.Fatalf("dye[%d]: gpu %v vs software %v", i, gd[i], sd[i])
		}
	}
}
