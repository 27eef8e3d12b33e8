package fluid

import (
	"math"
	"testing"
)

func TestPlanResolution(t *testing.T) {
	tests := []struct {
		name    string
		base    int
		targetW int
		targetH int
		wantW   int
		wantH   int
	}{
		{"square", 128, 600, 600, 128, 128},
		{"landscape 16:9", 128, 1920, 1080, 228, 128},
		{"portrait 9:16", 128, 1080, 1920, 128, 228},
		{"landscape 2:1", 64, 1000, 500, 128, 64},
		{"portrait 1:2", 64, 500, 1000, 64, 128},
		{"dye grid 16:9", 512, 1920, 1080, 910, 512},
		{"near-square", 128, 601, 600, 128, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotW, gotH := PlanResolution(tt.base, tt.targetW, tt.targetH)
			if gotW != tt.wantW || gotH != tt.wantH {
				t.Errorf("PlanResolution(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.base, tt.targetW, tt.targetH, gotW, gotH, tt.wantW, tt.wantH)
			}
		})
	}
}

// The planned grid must preserve the output aspect ratio within rounding
// error, whatever the orientation.
func TestPlanResolutionPreservesAspect(t *testing.T) {
	sizes := [][2]int{
		{1920, 1080}, {1080, 1920}, {800, 600}, {600, 800},
		{1234, 777}, {333, 999}, {64, 64},
	}

	for _, size := range sizes {
		w, h := size[0], size[1]
		gridW, gridH := PlanResolution(128, w, h)

		targetAspect := float64(max(w, h)) / float64(min(w, h))
		gridAspect := float64(max(gridW, gridH)) / float64(min(gridW, gridH))

		// Rounding the long axis to whole cells perturbs the ratio by at
		// most half a cell.
		tol := 0.5 / 128
		if math.Abs(gridAspect-targetAspect)/targetAspect > tol {
			t.Errorf("target %dx%d: grid %dx%d has aspect %.4f, want %.4f",
				w, h, gridW, gridH, gridAspect, targetAspect)
		}

		if (w > h) != (gridW > gridH) && gridW != gridH {
			t.Errorf("target %dx%d: grid %dx%d has flipped orientation", w, h, gridW, gridH)
		}
	}
}
