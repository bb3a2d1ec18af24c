package backend

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facefind/pkg/geometry"
)

// SSD preprocessing constants. The 416px input trades some speed for
// recall on small faces; the mean values are the training-set channel
// means the network expects removed.
const (
	ssdInputSize = 416
	ssdMeanB     = 104.0
	ssdMeanG     = 177.0
	ssdMeanR     = 123.0
	ssdRowWidth  = 7
)

// SSDBackend runs a Caffe single-shot face detector.
type SSDBackend struct {
	mu  sync.Mutex // the loaded net is not reentrant
	net gocv.Net
}

// NewSSD loads the SSD prototxt and weights pair.
func NewSSD(protoPath, weightsPath string) (*SSDBackend, error) {
	for _, p := range []string{protoPath, weightsPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("ssd artifact missing: %s", p)
		}
	}

	net := gocv.ReadNetFromCaffe(protoPath, weightsPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load ssd model from %s", weightsPath)
	}
	return &SSDBackend{net: net}, nil
}

// Kind identifies this backend.
func (b *SSDBackend) Kind() Kind {
	return KindSSD
}

// Close releases the network.
func (b *SSDBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.net.Close()
}

// GenerateCandidates runs one forward pass. Output rows are 7 floats:
// image id, label, confidence, then the box corners normalized to
// [0,1]. Corners scale to pixel space using the frame's real
// dimensions and clamp, since the network happily reports boxes
// slightly outside the frame.
func (b *SSDBackend) GenerateCandidates(frame gocv.Mat, scan ScanParams) ([]Candidate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frame.Empty() {
		return nil, errors.New("empty frame")
	}

	blob := gocv.BlobFromImage(frame, 1.0, image.Pt(ssdInputSize, ssdInputSize),
		gocv.NewScalar(ssdMeanB, ssdMeanG, ssdMeanR, 0), false, false)
	defer blob.Close()

	b.net.SetInput(blob, "")
	out := b.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read detection tensor: %w", err)
	}

	rows := len(data) / ssdRowWidth
	threshold := EffectiveThreshold(scan.BaseConfidence, rows)

	w := float64(frame.Cols())
	h := float64(frame.Rows())

	var candidates []Candidate
	for i := 0; i < rows; i++ {
		row := data[i*ssdRowWidth : (i+1)*ssdRowWidth]
		conf := float64(row[2])
		if conf < threshold {
			continue
		}

		box := image.Rect(
			int(float64(row[3])*w),
			int(float64(row[4])*h),
			int(float64(row[5])*w),
			int(float64(row[6])*h),
		)
		box = geometry.ClampToBounds(box, frame.Cols(), frame.Rows())
		if box.Empty() {
			continue
		}

		candidates = append(candidates, Candidate{Box: box, Confidence: conf})
	}
	return candidates, nil
}
