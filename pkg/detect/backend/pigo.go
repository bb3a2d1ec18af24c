package backend

import (
	"errors"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facefind/pkg/geometry"
)

// pigo scan parameters, matching the cascade variant where the two
// overlap. Quality scores above ~10 are confident detections, so the
// score maps to confidence with that as the ceiling.
const (
	pigoShiftFactor  = 0.1
	pigoScaleFactor  = 1.1
	pigoClusterIoU   = 0.2
	pigoQualityScale = 10.0
)

// PigoBackend runs the pure-Go pigo cascade. It needs no native
// OpenCV in its load path, which makes it the fallback of last resort.
type PigoBackend struct {
	classifier *pigo.Pigo
}

// NewPigoBackend loads a binary pigo cascade (the facefinder format).
func NewPigoBackend(cascadePath string) (*PigoBackend, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("read pigo cascade: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack pigo cascade: %w", err)
	}
	return &PigoBackend{classifier: classifier}, nil
}

// Kind identifies this backend.
func (b *PigoBackend) Kind() Kind {
	return KindPigo
}

// Close is a no-op; the classifier is plain Go memory.
func (b *PigoBackend) Close() error {
	return nil
}

// GenerateCandidates runs the cascade over the grayscale frame. The
// unpacked classifier is read-only, so no locking is needed here.
func (b *PigoBackend) GenerateCandidates(frame gocv.Mat, scan ScanParams) ([]Candidate, error) {
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

	rows, cols := gray.Rows(), gray.Cols()
	pixels := gray.ToBytes()

	params := pigo.CascadeParams{
		MinSize:     cascadeMinSize,
		MaxSize:     maxInt(rows, cols),
		ShiftFactor: pigoShiftFactor,
		ScaleFactor: pigoScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := b.classifier.RunCascade(params, 0.0)
	dets = b.classifier.ClusterDetections(dets, pigoClusterIoU)

	threshold := EffectiveThreshold(scan.BaseConfidence, len(dets))

	var candidates []Candidate
	for _, det := range dets {
		conf := float64(det.Q) / pigoQualityScale
		if conf > 1.0 {
			conf = 1.0
		}
		if conf < threshold {
			continue
		}

		half := det.Scale / 2
		box := geometry.ClampToBounds(
			image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half),
			cols, rows,
		)
		if box.Empty() {
			continue
		}

		candidates = append(candidates, Candidate{Box: box, Confidence: conf})
	}
	return candidates, nil
}
