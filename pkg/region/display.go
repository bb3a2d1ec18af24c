package region

import (
	"image"

	"gocv.io/x/gocv"
)

// Display-artifact thresholds. A phone or monitor held up to the camera
// shows up as a backlit, geometric, color-saturated patch; each signal
// below captures one of those symptoms.
const (
	displayBrightMean  = 200.0 // backlit panel brightness floor
	displayBrightStd   = 15.0  // uniformity ceiling for a lit panel
	displayCannyLow    = 100
	displayCannyHigh   = 200
	displayQuadMinSide = 5 // ignore sub-5px quadrilaterals
	displayMaxQuads    = 3 // more rectangles than this means UI chrome
	displaySatRatio    = 0.7
	displaySatBright   = 150.0
	displayBlurDiff    = 25.0 // rendered text survives a 5x5 blur poorly
	displayLineRatio   = 0.08
)

// IsElectronicDisplay reports whether the cropped candidate region looks
// like an electronic display rather than a face. The region is the color
// crop; single-channel input skips the color signal.
func IsElectronicDisplay(crop gocv.Mat) bool {
	if crop.Empty() {
		return false
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if crop.Channels() > 1 {
		gocv.CvtColor(crop, &gray, gocv.ColorBGRToGray)
	} else {
		crop.CopyTo(&gray)
	}

	// Uniform high brightness: a lit panel with no facial shading.
	mean, stddev := meanStdDev(gray)
	if mean > displayBrightMean && stddev < displayBrightStd {
		return true
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, displayCannyLow, displayCannyHigh)

	quads := countQuadShapes(edges)
	if quads > displayMaxQuads {
		return true
	}

	// Artificial color: strongly saturated and bright mean color.
	if crop.Channels() >= 3 {
		m := crop.Mean()
		maxC := max3(m.Val1, m.Val2, m.Val3)
		minC := min3(m.Val1, m.Val2, m.Val3)
		if maxC > 0 {
			if (maxC-minC)/maxC > displaySatRatio && maxC > displaySatBright {
				return true
			}
		}
	}

	// Sharp local contrast that a mild blur destroys, typical of
	// rendered text, counts only alongside rectangular structure.
	if quads > 1 {
		blurred := gocv.NewMat()
		defer blurred.Close()
		gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

		diff := gocv.NewMat()
		defer diff.Close()
		gocv.AbsDiff(gray, blurred, &diff)

		if diff.Mean().Val1 > displayBlurDiff {
			return true
		}

		if hasDirectionalLines(edges) {
			return true
		}
	}

	return false
}

// countQuadShapes extracts external contours from the edge map and counts
// those whose polygon approximation is a quadrilateral of useful size.
func countQuadShapes(edges gocv.Mat) int {
	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	count := 0
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		peri := gocv.ArcLength(c, true)
		approx := gocv.ApproxPolyDP(c, 0.02*peri, true)
		if approx.Size() == 4 {
			r := gocv.BoundingRect(approx)
			if r.Dx() > displayQuadMinSide && r.Dy() > displayQuadMinSide {
				count++
			}
		}
		approx.Close()
	}
	return count
}

// hasDirectionalLines opens the edge map with long horizontal and
// vertical structuring elements; screen bezels and text rows leave
// straight runs that survive the opening.
func hasDirectionalLines(edges gocv.Mat) bool {
	total := gocv.CountNonZero(edges)
	if total == 0 {
		return false
	}

	hKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(15, 1))
	defer hKernel.Close()
	vKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(1, 15))
	defer vKernel.Close()

	hLines := gocv.NewMat()
	defer hLines.Close()
	vLines := gocv.NewMat()
	defer vLines.Close()
	gocv.MorphologyEx(edges, &hLines, gocv.MorphOpen, hKernel)
	gocv.MorphologyEx(edges, &vLines, gocv.MorphOpen, vKernel)

	hRatio := float64(gocv.CountNonZero(hLines)) / float64(total)
	vRatio := float64(gocv.CountNonZero(vLines)) / float64(total)
	return hRatio > displayLineRatio || vRatio > displayLineRatio
}

func max3(a, b, c float64) float64 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

func min3(a, b, c float64) float64 {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
