package backend

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facefind/pkg/geometry"
)

// Cascade scan parameters. Zoomed-region rescans use a more sensitive
// scale step and let the window grow to the whole region; full-frame
// scans cap the window to keep the pass cheap.
const (
	cascadeScaleFactor  = 1.1
	cascadeMinNeighbors = 2
	cascadeMinSize      = 20
	cascadeMaxSize      = 600

	regionScaleFactor = 1.05

	// Cascades report no per-window score, so accepted windows carry a
	// fixed plausibility.
	cascadeConfidence = 0.7
)

// CascadeBackend runs a Haar cascade over a grayscale, histogram-
// equalized copy of the frame.
type CascadeBackend struct {
	mu         sync.Mutex // classifier state is not reentrant
	classifier gocv.CascadeClassifier
}

// NewCascade loads a Haar cascade file.
func NewCascade(path string) (*CascadeBackend, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade: %s", path)
	}
	return &CascadeBackend{classifier: classifier}, nil
}

// Kind identifies this backend.
func (b *CascadeBackend) Kind() Kind {
	return KindCascade
}

// Close releases the classifier.
func (b *CascadeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.classifier.Close()
}

// GenerateCandidates scans the frame at multiple scales.
func (b *CascadeBackend) GenerateCandidates(frame gocv.Mat, scan ScanParams) ([]Candidate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frame.Empty() {
		return nil, errors.New("empty frame")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(gray, &equalized)

	scale := cascadeScaleFactor
	maxSide := cascadeMaxSize
	if scan.Region {
		scale = regionScaleFactor
		maxSide = maxInt(frame.Cols(), frame.Rows())
	}

	rects := b.classifier.DetectMultiScaleWithParams(
		equalized,
		scale,
		cascadeMinNeighbors,
		0,
		image.Pt(cascadeMinSize, cascadeMinSize),
		image.Pt(maxSide, maxSide),
	)

	candidates := make([]Candidate, 0, len(rects))
	for _, r := range rects {
		box := geometry.ClampToBounds(r, frame.Cols(), frame.Rows())
		if box.Empty() {
			continue
		}
		candidates = append(candidates, Candidate{Box: box, Confidence: cascadeConfidence})
	}
	return candidates, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
