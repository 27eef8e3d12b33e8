package fluid

import (
	"image/color"
	"path/filepath"
	"testing"
)

func TestPixmapSetGetPixel(t *testing.T) {
	p := NewPixmap(8, 8)

	p.SetPixel(2, 3, RGBA{R: 1, G: 0.5, A: 1})
	got := p.GetPixel(2, 3)
	if got.R != 1 || got.A != 1 {
		t.Errorf("GetPixel(2,3) = %+v, want opaque red", got)
	}
	if got.G < 0.49 || got.G > 0.51 {
		t.Errorf("green channel = %v, want ~0.5", got.G)
	}

	// Out of range access is a no-op / zero.
	p.SetPixel(-1, 0, RGBA{R: 1})
	p.SetPixel(8, 8, RGBA{R: 1})
	if (p.GetPixel(-1, 0) != RGBA{}) {
		t.Error("out of range GetPixel not zero")
	}
}

func TestPixmapClear(t *testing.T) {
	p := NewPixmap(4, 4)
	p.Clear(RGBA{B: 1, A: 1})

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if c := p.GetPixel(x, y); c.B != 1 || c.A != 1 {
				t.Fatalf("pixel (%d,%d) = %+v after Clear", x, y, c)
			}
		}
	}
}

func TestPixmapChannelClamping(t *testing.T) {
	p := NewPixmap(1, 1)
	p.SetPixel(0, 0, RGBA{R: 2.5, G: -1, A: 1})

	got := p.GetPixel(0, 0)
	if got.R != 1 {
		t.Errorf("overbright red = %v, want clamped to 1", got.R)
	}
	if got.G != 0 {
		t.Errorf("negative green = %v, want clamped to 0", got.G)
	}
}

func TestPixmapImageInterface(t *testing.T) {
	p := NewPixmap(5, 7)
	p.SetPixel(1, 2, RGBA{R: 1, A: 1})

	if b := p.Bounds(); b.Dx() != 5 || b.Dy() != 7 {
		t.Errorf("Bounds = %v", b)
	}
	if p.ColorModel() != color.RGBAModel {
		t.Error("unexpected color model")
	}
	r, _, _, a := p.At(1, 2).RGBA()
	if r>>8 != 255 || a>>8 != 255 {
		t.Errorf("At(1,2) = %v, want opaque red", p.At(1, 2))
	}

	img := p.ToImage()
	if img.Pix[(2*5+1)*4] != 255 {
		t.Error("ToImage lost the red pixel")
	}
	// ToImage copies; mutating the image must not touch the pixmap.
	img.Pix[(2*5+1)*4] = 0
	if p.GetPixel(1, 2).R != 1 {
		t.Error("ToImage shares storage with the pixmap")
	}
}

func TestPixmapSavePNG(t *testing.T) {
	p := NewPixmap(16, 16)
	p.Clear(RGBA{G: 1, A: 1})

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := p.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	if err := p.SavePNG(filepath.Join(t.TempDir(), "missing", "frame.png")); err == nil {
		t.Error("SavePNG into missing directory succeeded")
	}
}
