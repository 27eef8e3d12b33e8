// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/fluid"
)

func TestPixmapTargetBasics(t *testing.T) {
	target := NewPixmapTarget(64, 32)

	if target.Width() != 64 || target.Height() != 32 {
		t.Errorf("size = %dx%d, want 64x32", target.Width(), target.Height())
	}
	if target.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("format = %v, want RGBA8Unorm", target.Format())
	}
	if target.TextureView() != nil {
		t.Error("CPU target has a texture view")
	}
	if len(target.Pixels()) != 64*32*4 {
		t.Errorf("pixel buffer length = %d, want %d", len(target.Pixels()), 64*32*4)
	}
	if target.Stride() != 64*4 {
		t.Errorf("stride = %d, want %d", target.Stride(), 64*4)
	}

	target.SetPixel(3, 4, color.RGBA{R: 255, A: 255})
	got := target.GetPixel(3, 4)
	r, _, _, a := got.RGBA()
	if r>>8 != 255 || a>>8 != 255 {
		t.Errorf("GetPixel(3,4) = %v, want opaque red", got)
	}
}

func TestPixmapTargetResize(t *testing.T) {
	target := NewPixmapTarget(8, 8)
	target.Resize(16, 4)
	if target.Width() != 16 || target.Height() != 4 {
		t.Errorf("size after resize = %dx%d, want 16x4", target.Width(), target.Height())
	}
}

func TestPresentSameSize(t *testing.T) {
	frame := fluid.NewPixmap(8, 8)
	frame.SetPixel(2, 3, fluid.RGBA{R: 1, A: 1})

	target := NewPixmapTarget(8, 8)
	if err := Present(frame, target); err != nil {
		t.Fatalf("Present: %v", err)
	}

	r, _, _, a := target.GetPixel(2, 3).RGBA()
	if r>>8 != 255 || a>>8 != 255 {
		t.Errorf("presented pixel = %v, want opaque red", target.GetPixel(2, 3))
	}
}

func TestPresentRescales(t *testing.T) {
	frame := fluid.NewPixmap(4, 4)
	frame.Clear(fluid.RGBA{G: 1, A: 1})

	target := NewPixmapTarget(16, 16)
	if err := Present(frame, target); err != nil {
		t.Fatalf("Present: %v", err)
	}

	_, g, _, a := target.GetPixel(8, 8).RGBA()
	if g>>8 < 250 || a>>8 < 250 {
		t.Errorf("center of rescaled frame = %v, want solid green", target.GetPixel(8, 8))
	}
}

func TestPresentNilFrame(t *testing.T) {
	target := NewPixmapTarget(4, 4)
	if err := Present(nil, target); !errors.Is(err, fluid.ErrNilTarget) {
		t.Errorf("Present(nil) = %v, want ErrNilTarget", err)
	}
}

func TestPresentGPUOnlyTarget(t *testing.T) {
	target := NewSurfaceTarget(32, 32, gputypes.TextureFormatBGRA8Unorm, nil)
	err := Present(fluid.NewPixmap(32, 32), target)
	if !errors.Is(err, ErrNoCPUAccess) {
		t.Errorf("Present to surface = %v, want ErrNoCPUAccess", err)
	}
}

func TestNullDeviceHandle(t *testing.T) {
	var h DeviceHandle = NullDeviceHandle{}
	if h.Device() != nil || h.Queue() != nil || h.Adapter() != nil {
		t.Error("null handle returned a non-nil resource")
	}
	if h.SurfaceFormat() != gputypes.TextureFormatUndefined {
		t.Errorf("SurfaceFormat = %v, want Undefined", h.SurfaceFormat())
	}
}
