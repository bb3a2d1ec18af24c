package region

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

func TestBrightUniformIsDisplay(t *testing.T) {
	panel := grayFrame(100, 100, 220)
	defer panel.Close()

	if !IsElectronicDisplay(panel) {
		t.Error("uniform bright region (mean 220, stddev 0) should read as a display")
	}
}

func TestFaceTextureIsNotDisplay(t *testing.T) {
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(120, 120, 120, 0), 200, 200, gocv.MatTypeCV8UC3)
	defer frame.Close()
	r := image.Rect(40, 40, 120, 120)
	drawFaceFixture(&frame, r)

	crop := frame.Region(r)
	defer crop.Close()

	if IsElectronicDisplay(crop) {
		t.Error("mid-brightness irregular texture should not read as a display")
	}
}

func TestQuadGridIsDisplay(t *testing.T) {
	// Five bright rectangles on a dark ground, like window chrome.
	screen := grayFrame(200, 200, 20)
	defer screen.Close()

	white := color.RGBA{R: 230, G: 230, B: 230, A: 0}
	for i := 0; i < 5; i++ {
		x := 10 + (i%3)*60
		y := 20 + (i/3)*90
		gocv.Rectangle(&screen, image.Rect(x, y, x+44, y+30), white, -1)
	}

	if !IsElectronicDisplay(screen) {
		t.Error("region with five quadrilaterals should read as a display")
	}
}

func TestRenderedTextContrastIsDisplay(t *testing.T) {
	// Two window-like panels keep the quad count at 2, below the
	// density cutoff; the fine checker block mimics rendered text that
	// a 5x5 blur flattens, driving the blur difference past its
	// threshold.
	screen := grayFrame(200, 200, 20)
	defer screen.Close()

	white := color.RGBA{R: 230, G: 230, B: 230, A: 0}
	gocv.Rectangle(&screen, image.Rect(10, 10, 90, 50), white, -1)
	gocv.Rectangle(&screen, image.Rect(110, 10, 190, 50), white, -1)

	for y := 100; y < 180; y++ {
		for x := 20; x < 180; x++ {
			if (x+y)%2 == 0 {
				screen.SetUCharAt(y, x, 235)
			} else {
				screen.SetUCharAt(y, x, 15)
			}
		}
	}

	if !IsElectronicDisplay(screen) {
		t.Error("rectangular panels plus blur-fragile fine contrast should read as a display")
	}
}

func TestDirectionalLineEnergyIsDisplay(t *testing.T) {
	// Two panels plus long thin horizontal rules, like text rows under
	// a bezel. The sparse edges keep the blur difference low, so the
	// rejection has to come from the line-energy signal.
	screen := grayFrame(200, 200, 20)
	defer screen.Close()

	white := color.RGBA{R: 230, G: 230, B: 230, A: 0}
	gocv.Rectangle(&screen, image.Rect(10, 10, 90, 50), white, -1)
	gocv.Rectangle(&screen, image.Rect(110, 10, 190, 50), white, -1)

	for _, y := range []int{120, 140, 160, 180} {
		gocv.Line(&screen, image.Pt(10, y), image.Pt(190, y), white, 1)
	}

	if !IsElectronicDisplay(screen) {
		t.Error("rectangular panels plus long horizontal runs should read as a display")
	}
}

func TestSaturatedBrightIsDisplay(t *testing.T) {
	red := solidColor(100, 100, 20, 20, 230)
	defer red.Close()

	if !IsElectronicDisplay(red) {
		t.Error("saturated bright color should read as a display")
	}
}

func TestEmptyCropIsNotDisplay(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	if IsElectronicDisplay(empty) {
		t.Error("empty crop should not read as a display")
	}
}
