package fluid

import (
	"image"

	"golang.org/x/image/draw"
)

// compositeDye runs the display pass: the dye field becomes an RGBA image
// whose alpha is max(r, g, b), so empty regions render transparent and dyed
// regions carry visible density. The dye-resolution image is then scaled to
// the target surface with bilinear filtering, matching the linear texture
// sampling of the GPU path.
func compositeDye(dye *Field, target *Pixmap) {
	w, h := dye.Width(), dye.Height()
	src := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		// Field rows are bottom-up; image rows are top-down.
		row := src.Pix[(h-1-y)*src.Stride:]
		for x := 0; x < w; x++ {
			r := dye.At(x, y, 0)
			g := dye.At(x, y, 1)
			bl := dye.At(x, y, 2)

			a := r
			if g > a {
				a = g
			}
			if bl > a {
				a = bl
			}

			i := x * 4
			row[i+0] = clamp8(r)
			row[i+1] = clamp8(g)
			row[i+2] = clamp8(bl)
			row[i+3] = clamp8(a)
		}
	}

	dst := target.rgbaView()
	if w == target.Width() && h == target.Height() {
		copy(dst.Pix, src.Pix)
		return
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}

// clamp8 converts a [0, 1] sample to an 8-bit channel value.
func clamp8(v float32) uint8 {
	v *= 255
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
