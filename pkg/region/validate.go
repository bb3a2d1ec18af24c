// Package region validates face candidate regions. A candidate survives
// only if it passes a conjunction of independent weak filters: geometric
// plausibility, an electronic-display artifact detector, a contrast band,
// and an edge-density band. No single photometric signal separates faces
// from false positives reliably; together they are precise enough for
// per-frame use.
package region

import (
	"image"

	"gocv.io/x/gocv"
)

// Canny thresholds for the texture edge map. These differ from the
// display detector's harsher pair on purpose: validation wants faint
// facial structure to count, display detection wants only hard edges.
const (
	edgeCannyLow  = 50
	edgeCannyHigh = 150
)

// Validator applies the candidate-region filter chain.
type Validator struct {
	cfg Config
}

// NewValidator creates a Validator with the given thresholds.
func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Config returns the validator's current thresholds.
func (v *Validator) Config() Config {
	return v.cfg
}

// SetConfig replaces the validator's thresholds.
func (v *Validator) SetConfig(cfg Config) {
	v.cfg = cfg
}

// IsValidFaceRegion reports whether rect plausibly contains a face in
// frame. Checks run cheapest-first and short-circuit, but the outcome
// does not depend on order. Rejection is the expected result for most
// raw detector candidates and is not an error.
func (v *Validator) IsValidFaceRegion(frame gocv.Mat, rect image.Rectangle) bool {
	if frame.Empty() {
		return false
	}

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	if rect.Dx() <= 0 || rect.Dy() <= 0 || !rect.In(bounds) {
		return false
	}

	aspect := float64(rect.Dx()) / float64(rect.Dy())
	if aspect < v.cfg.MinAspect || aspect > v.cfg.MaxAspect {
		return false
	}

	if rect.Dx() < v.cfg.MinSize || rect.Dy() < v.cfg.MinSize {
		return false
	}
	maxW := float64(frame.Cols()) * v.cfg.MaxFrameFraction
	maxH := float64(frame.Rows()) * v.cfg.MaxFrameFraction
	if float64(rect.Dx()) > maxW || float64(rect.Dy()) > maxH {
		return false
	}

	crop := frame.Region(rect)
	defer crop.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(crop, &gray, gocv.ColorBGRToGray)
	} else {
		crop.CopyTo(&gray)
	}

	if v.cfg.RejectDisplays && IsElectronicDisplay(crop) {
		return false
	}

	_, stddev := meanStdDev(gray)
	if stddev < v.cfg.MinStdDev || stddev > v.cfg.MaxStdDev {
		return false
	}

	density := edgeDensity(gray)
	lo, hi := v.cfg.EdgeDensityMin, v.cfg.EdgeDensityMax
	if frame.Channels() >= 3 && isSkinToned(crop) {
		lo, hi = v.cfg.SkinEdgeDensityMin, v.cfg.SkinEdgeDensityMax
	}
	if density < lo || density > hi {
		return false
	}

	return true
}

// edgeDensity is the fraction of region pixels the Canny detector marks
// as edges.
func edgeDensity(gray gocv.Mat) float64 {
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, edgeCannyLow, edgeCannyHigh)

	total := gray.Cols() * gray.Rows()
	if total <= 0 {
		return 0
	}
	return float64(gocv.CountNonZero(edges)) / float64(total)
}

// isSkinToned applies a coarse BGR heuristic to the region's mean color.
// Deliberately permissive: it only selects which edge-density band applies.
func isSkinToned(crop gocv.Mat) bool {
	mean := crop.Mean()
	b, g, r := mean.Val1, mean.Val2, mean.Val3
	return r > 40 && g > 25 && b > 15 && r > 0.8*b && r > 0.7*g
}

func meanStdDev(m gocv.Mat) (float64, float64) {
	meanMat := gocv.NewMat()
	defer meanMat.Close()
	stdMat := gocv.NewMat()
	defer stdMat.Close()
	gocv.MeanStdDev(m, &meanMat, &stdMat)
	return meanMat.GetDoubleAt(0, 0), stdMat.GetDoubleAt(0, 0)
}
