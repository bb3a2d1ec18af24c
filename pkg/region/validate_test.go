package region

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

func TestRejectsEmptyFrame(t *testing.T) {
	v := NewValidator(DefaultConfig())
	frame := gocv.NewMat()
	defer frame.Close()

	if v.IsValidFaceRegion(frame, image.Rect(0, 0, 50, 50)) {
		t.Error("empty frame should never validate")
	}
}

func TestRejectsDegenerateRect(t *testing.T) {
	v := NewValidator(DefaultConfig())
	frame := grayFrame(480, 640, 128)
	defer frame.Close()

	for _, r := range []image.Rectangle{
		image.Rect(10, 10, 10, 60), // zero width
		image.Rect(10, 10, 60, 10), // zero height
		{Min: image.Pt(60, 60), Max: image.Pt(10, 10)}, // inverted, non-canonical
	} {
		if v.IsValidFaceRegion(frame, r) {
			t.Errorf("degenerate rect %v should be rejected", r)
		}
	}
}

func TestRejectsOutOfBoundsRect(t *testing.T) {
	v := NewValidator(DefaultConfig())
	frame := grayFrame(480, 640, 128)
	defer frame.Close()

	if v.IsValidFaceRegion(frame, image.Rect(600, 440, 700, 540)) {
		t.Error("rect extending past the frame should be rejected")
	}
	if v.IsValidFaceRegion(frame, image.Rect(-10, 5, 70, 85)) {
		t.Error("rect with negative origin should be rejected")
	}
}

func TestRejectsExtremeAspect(t *testing.T) {
	v := NewValidator(DefaultConfig())
	frame := grayFrame(480, 640, 128)
	defer frame.Close()

	// Aspect 3.0 is out of band no matter what the pixels hold.
	if v.IsValidFaceRegion(frame, image.Rect(100, 100, 190, 130)) {
		t.Error("aspect ratio 3.0 should be rejected")
	}
}

func TestRejectsBelowMinSize(t *testing.T) {
	v := NewValidator(DefaultConfig())
	frame := grayFrame(480, 640, 128)
	defer frame.Close()

	if v.IsValidFaceRegion(frame, image.Rect(100, 100, 110, 110)) {
		t.Error("10px face should be below the size floor")
	}
}

func TestRejectsOversizeFraction(t *testing.T) {
	v := NewValidator(DefaultConfig())
	frame := grayFrame(480, 640, 128)
	defer frame.Close()

	// 250px exceeds 30% of a 640-wide frame.
	if v.IsValidFaceRegion(frame, image.Rect(100, 100, 350, 350)) {
		t.Error("face covering >30% of the frame should be rejected")
	}
}

func TestRejectsUniformRegion(t *testing.T) {
	v := NewValidator(DefaultConfig())
	frame := grayFrame(480, 640, 128)
	defer frame.Close()

	// Zero variance sits below the contrast floor.
	if v.IsValidFaceRegion(frame, image.Rect(100, 100, 180, 180)) {
		t.Error("flat gray region should be rejected")
	}
}

func TestRejectsNoiseRegion(t *testing.T) {
	v := NewValidator(DefaultConfig())
	frame := checkerFrame(480, 640)
	defer frame.Close()

	// A 0/255 checkerboard has stddev 127.5, past the contrast ceiling.
	if v.IsValidFaceRegion(frame, image.Rect(100, 100, 180, 180)) {
		t.Error("checkerboard noise should be rejected")
	}
}

func TestAcceptsFaceLikeRegion(t *testing.T) {
	v := NewValidator(DefaultConfig())
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(120, 120, 120, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	r := image.Rect(300, 200, 380, 280)
	drawFaceFixture(&frame, r)

	if !v.IsValidFaceRegion(frame, r) {
		t.Error("skin-toned textured region should validate")
	}
}

func TestSkinHeuristic(t *testing.T) {
	skin := solidColor(60, 60, 90, 120, 170)
	defer skin.Close()
	if !isSkinToned(skin) {
		t.Error("BGR(90,120,170) should read as skin")
	}

	blue := solidColor(60, 60, 200, 50, 50)
	defer blue.Close()
	if isSkinToned(blue) {
		t.Error("blue-dominant region should not read as skin")
	}

	dark := solidColor(60, 60, 10, 10, 10)
	defer dark.Close()
	if isSkinToned(dark) {
		t.Error("near-black region should not read as skin")
	}
}

func TestEdgeDensitySolidZero(t *testing.T) {
	flat := grayFrame(100, 100, 90)
	defer flat.Close()
	if d := edgeDensity(flat); d != 0 {
		t.Errorf("edge density of flat region = %v, want 0", d)
	}

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(120, 120, 120, 0), 100, 100, gocv.MatTypeCV8UC3)
	defer frame.Close()
	drawFaceFixture(&frame, image.Rect(10, 10, 90, 90))
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	if d := edgeDensity(gray); d <= 0 {
		t.Errorf("edge density of drawn features = %v, want > 0", d)
	}
}

// grayFrame builds a single-channel frame filled with value.
func grayFrame(rows, cols int, value float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(value, 0, 0, 0), rows, cols, gocv.MatTypeCV8U)
}

// solidColor builds a BGR frame filled with one color.
func solidColor(rows, cols int, b, g, r float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), rows, cols, gocv.MatTypeCV8UC3)
}

// checkerFrame builds a single-channel 0/255 checkerboard.
func checkerFrame(rows, cols int) gocv.Mat {
	m := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if (x+y)%2 == 0 {
				m.SetUCharAt(y, x, 255)
			} else {
				m.SetUCharAt(y, x, 0)
			}
		}
	}
	return m
}

// drawFaceFixture paints a skin-toned patch with dark rounded features
// at rect, giving mid-band contrast and edge density without any
// rectangular display structure.
func drawFaceFixture(frame *gocv.Mat, r image.Rectangle) {
	skin := color.RGBA{R: 170, G: 120, B: 90, A: 0}
	gocv.Rectangle(frame, r, skin, -1)

	dark := color.RGBA{R: 40, G: 30, B: 30, A: 0}
	x, y := r.Min.X, r.Min.Y
	gocv.Circle(frame, image.Pt(x+22, y+28), 8, dark, -1)  // left eye
	gocv.Circle(frame, image.Pt(x+58, y+28), 8, dark, -1)  // right eye
	gocv.Circle(frame, image.Pt(x+40, y+45), 6, dark, -1)  // nose
	gocv.Circle(frame, image.Pt(x+40, y+62), 12, dark, -1) // mouth
	gocv.Line(frame, image.Pt(x+14, y+16), image.Pt(x+30, y+14), dark, 3)
	gocv.Line(frame, image.Pt(x+50, y+14), image.Pt(x+66, y+16), dark, 3)
}
