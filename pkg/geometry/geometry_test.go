package geometry

import (
	"image"
	"math"
	"testing"
)

func TestIoUIdentical(t *testing.T) {
	r := image.Rect(10, 20, 110, 120)
	if got := IoU(r, r); !floatEquals(got, 1.0) {
		t.Errorf("IoU of identical rects = %v, want 1.0", got)
	}
}

func TestIoUDisjoint(t *testing.T) {
	a := image.Rect(0, 0, 50, 50)
	b := image.Rect(100, 100, 150, 150)
	if got := IoU(a, b); got != 0 {
		t.Errorf("IoU of disjoint rects = %v, want 0", got)
	}
}

func TestIoUTouchingEdges(t *testing.T) {
	a := image.Rect(0, 0, 50, 50)
	b := image.Rect(50, 0, 100, 50)
	if got := IoU(a, b); got != 0 {
		t.Errorf("IoU of edge-touching rects = %v, want 0", got)
	}
}

func TestIoUPartialOverlap(t *testing.T) {
	// Intersection 50x100 = 5000, union 15000.
	a := image.Rect(0, 0, 100, 100)
	b := image.Rect(50, 0, 150, 100)
	want := 5000.0 / 15000.0
	if got := IoU(a, b); !floatEquals(got, want) {
		t.Errorf("IoU = %v, want %v", got, want)
	}
}

func TestIoUSymmetric(t *testing.T) {
	a := image.Rect(0, 0, 80, 60)
	b := image.Rect(40, 30, 120, 90)
	if ab, ba := IoU(a, b), IoU(b, a); !floatEquals(ab, ba) {
		t.Errorf("IoU not symmetric: %v vs %v", ab, ba)
	}
}

func TestIoUDegenerate(t *testing.T) {
	zero := image.Rect(10, 10, 10, 10)
	full := image.Rect(0, 0, 100, 100)
	if got := IoU(zero, full); got != 0 {
		t.Errorf("IoU with zero-area rect = %v, want 0", got)
	}
}

func TestClampToBounds(t *testing.T) {
	tests := []struct {
		name string
		rect image.Rectangle
		want image.Rectangle
	}{
		{"inside", image.Rect(10, 10, 50, 50), image.Rect(10, 10, 50, 50)},
		{"negative origin", image.Rect(-20, -10, 50, 50), image.Rect(0, 0, 50, 50)},
		{"past extents", image.Rect(500, 400, 800, 700), image.Rect(500, 400, 640, 480)},
		{"spanning", image.Rect(-100, -100, 1000, 1000), image.Rect(0, 0, 640, 480)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampToBounds(tt.rect, 640, 480)
			if got != tt.want {
				t.Errorf("ClampToBounds(%v) = %v, want %v", tt.rect, got, tt.want)
			}
		})
	}
}

func TestClampFullyOutside(t *testing.T) {
	got := ClampToBounds(image.Rect(700, 500, 800, 600), 640, 480)
	if !got.Empty() {
		t.Errorf("rect outside bounds should clamp to empty, got %v", got)
	}
}

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
