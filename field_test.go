package fluid

import "testing"

func TestFieldClampedAddressing(t *testing.T) {
	f := NewField(4, 3, 1)
	f.Set(0, 0, 0, 1)
	f.Set(3, 2, 0, 2)

	tests := []struct {
		name string
		x, y int
		want float32
	}{
		{"in range", 0, 0, 1},
		{"left of grid", -5, 0, 1},
		{"below grid", 0, -1, 1},
		{"right of grid", 10, 2, 2},
		{"above grid", 3, 99, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.At(tt.x, tt.y, 0); got != tt.want {
				t.Errorf("At(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestFieldSetIgnoresOutOfRange(t *testing.T) {
	f := NewField(2, 2, 1)
	f.Set(-1, 0, 0, 7)
	f.Set(0, 5, 0, 7)

	for _, v := range f.Data() {
		if v != 0 {
			t.Fatalf("out-of-range Set mutated the field: %v", f.Data())
		}
	}
}

func TestFieldTexelSize(t *testing.T) {
	f := NewField(128, 64, 2)
	tx, ty := f.TexelSize()
	if tx != 1.0/128 || ty != 1.0/64 {
		t.Errorf("TexelSize() = (%v, %v), want (%v, %v)", tx, ty, 1.0/128, 1.0/64)
	}
}

// Swapping twice must restore the original read/write roles, and the two
// buffers must always be distinct.
func TestDoubleBufferedSwap(t *testing.T) {
	d := NewDoubleBuffered(4, 4, 1)

	r0, w0 := d.Read(), d.Write()
	if r0 == w0 {
		t.Fatal("Read and Write return the same buffer")
	}

	d.Swap()
	if d.Read() != w0 || d.Write() != r0 {
		t.Error("Swap did not exchange the buffers")
	}

	d.Swap()
	if d.Read() != r0 || d.Write() != w0 {
		t.Error("double Swap did not restore the original roles")
	}
}

// A write into the back buffer must not be visible through Read until the
// swap, and the previous read buffer must be intact after it.
func TestDoubleBufferedIsolation(t *testing.T) {
	d := NewDoubleBuffered(2, 2, 1)
	d.Read().Set(0, 0, 0, 1)
	d.Write().Set(0, 0, 0, 2)

	if got := d.Read().At(0, 0, 0); got != 1 {
		t.Errorf("Read sees back-buffer write before Swap: %v", got)
	}

	d.Swap()
	if got := d.Read().At(0, 0, 0); got != 2 {
		t.Errorf("Read after Swap = %v, want 2", got)
	}
	if got := d.Write().At(0, 0, 0); got != 1 {
		t.Errorf("Write after Swap = %v, want 1", got)
	}
}

func TestNewFieldSetShapes(t *testing.T) {
	fs := NewFieldSet(128, 72, 512, 288)

	checks := []struct {
		name       string
		f          *Field
		w, h, comp int
	}{
		{"velocity", fs.Velocity.Read(), 128, 72, 2},
		{"dye", fs.Dye.Read(), 512, 288, 3},
		{"pressure", fs.Pressure.Read(), 128, 72, 1},
		{"divergence", fs.Divergence, 128, 72, 1},
		{"curl", fs.Curl, 128, 72, 1},
	}

	for _, c := range checks {
		if c.f.Width() != c.w || c.f.Height() != c.h || c.f.Components() != c.comp {
			t.Errorf("%s: got %dx%dx%d, want %dx%dx%d",
				c.name, c.f.Width(), c.f.Height(), c.f.Components(), c.w, c.h, c.comp)
		}
	}
}
