package fluid

// Field is a rectangular grid of float32 samples with 1..4 components per
// cell, stored row-major. It is the CPU-side representation of one simulation
// plane (velocity, pressure, divergence, curl or dye).
//
// Fields are never resized after creation; a resolution change requires a new
// engine.
type Field struct {
	width      int
	height     int
	components int
	data       []float32
}

// NewField creates a zero-filled field.
func NewField(width, height, components int) *Field {
	return &Field{
		width:      width,
		height:     height,
		components: components,
		data:       make([]float32, width*height*components),
	}
}

// Width returns the grid width in cells.
func (f *Field) Width() int { return f.width }

// Height returns the grid height in cells.
func (f *Field) Height() int { return f.height }

// Components returns the number of float32 values per cell.
func (f *Field) Components() int { return f.components }

// TexelSize returns the normalized size of one cell (1/width, 1/height).
func (f *Field) TexelSize() (float32, float32) {
	return 1 / float32(f.width), 1 / float32(f.height)
}

// Data returns the raw sample storage (row-major, interleaved components).
func (f *Field) Data() []float32 { return f.data }

// At returns component c of the cell at (x, y). Coordinates outside the grid
// are clamped to the nearest edge cell, which is the boundary condition used
// by every stencil pass.
func (f *Field) At(x, y, c int) float32 {
	x = clampInt(x, 0, f.width-1)
	y = clampInt(y, 0, f.height-1)
	return f.data[(y*f.width+x)*f.components+c]
}

// Set stores component c of the cell at (x, y). Out-of-range coordinates are
// ignored.
func (f *Field) Set(x, y, c int, v float32) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return
	}
	f.data[(y*f.width+x)*f.components+c] = v
}

// Clear zeroes every sample.
func (f *Field) Clear() {
	for i := range f.data {
		f.data[i] = 0
	}
}

// CopyFrom copies the samples of src, which must have the same shape.
func (f *Field) CopyFrom(src *Field) {
	copy(f.data, src.data)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DoubleBuffered pairs two same-shape fields with a parity index so that a
// pass can read the previous state while writing the next one. Read and Write
// always return distinct fields; Swap flips which is which in O(1).
type DoubleBuffered struct {
	bufs  [2]*Field
	front int
}

// NewDoubleBuffered creates a double-buffered field pair, both zero-filled.
func NewDoubleBuffered(width, height, components int) *DoubleBuffered {
	return &DoubleBuffered{
		bufs: [2]*Field{
			NewField(width, height, components),
			NewField(width, height, components),
		},
	}
}

// Read returns the current front buffer.
func (d *DoubleBuffered) Read() *Field { return d.bufs[d.front] }

// Write returns the current back buffer.
func (d *DoubleBuffered) Write() *Field { return d.bufs[1-d.front] }

// Swap exchanges the read and write roles.
func (d *DoubleBuffered) Swap() { d.front = 1 - d.front }

// FieldSet is the complete simulation state: every plane the pass pipeline
// reads or writes. Velocity, pressure, divergence and curl share the sim
// grid; dye has its own (usually finer) grid.
type FieldSet struct {
	Velocity   *DoubleBuffered // 2 components, sim grid
	Dye        *DoubleBuffered // 3 components, dye grid
	Pressure   *DoubleBuffered // 1 component, sim grid
	Divergence *Field          // 1 component, sim grid, single-buffered
	Curl       *Field          // 1 component, sim grid, single-buffered
}

// NewFieldSet allocates all planes for the given grid dimensions.
func NewFieldSet(simW, simH, dyeW, dyeH int) *FieldSet {
	return &FieldSet{
		Velocity:   NewDoubleBuffered(simW, simH, 2),
		Dye:        NewDoubleBuffered(dyeW, dyeH, 3),
		Pressure:   NewDoubleBuffered(simW, simH, 1),
		Divergence: NewField(simW, simH, 1),
		Curl:       NewField(simW, simH, 1),
	}
}
