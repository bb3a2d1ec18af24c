// Package geometry provides rectangle overlap metrics and bounds clamping
// for detector-reported coordinates.
package geometry

import "image"

// IoU returns the intersection-over-union of two axis-aligned rectangles.
// The result is in [0,1]: identical rectangles yield 1, disjoint or
// degenerate rectangles yield 0.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}

	interArea := area(inter)
	unionArea := area(a) + area(b) - interArea
	if unionArea <= 0 {
		return 0
	}

	return float64(interArea) / float64(unionArea)
}

// ClampToBounds clips rect to the frame extents [0,width]x[0,height].
// Detector coordinates are untrusted and may fall outside the source
// frame; a rectangle entirely outside clamps to empty.
func ClampToBounds(rect image.Rectangle, width, height int) image.Rectangle {
	return rect.Intersect(image.Rect(0, 0, width, height))
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
