package fluid

import "math"

// PlanResolution computes aspect-preserving grid dimensions for a target
// output size. baseResolution is the detail budget for the short axis; the
// long axis is scaled by the output aspect ratio so cells stay square.
//
// The sim grid and the dye grid are planned independently, which is what
// allows coarse physics under sharp color.
func PlanResolution(baseResolution, targetWidth, targetHeight int) (gridWidth, gridHeight int) {
	aspect := float64(targetWidth) / float64(targetHeight)
	if aspect < 1 {
		aspect = 1 / aspect
	}

	minDim := int(math.Round(float64(baseResolution)))
	maxDim := int(math.Round(float64(baseResolution) * aspect))

	if targetWidth > targetHeight {
		return maxDim, minDim
	}
	return minDim, maxDim
}
