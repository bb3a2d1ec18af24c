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

const (
	// yunetFloor is the score floor baked into the detector; the real
	// acceptance threshold is applied per call so it can move with the
	// dynamic policy and runtime tuning.
	yunetFloor        = 0.05
	yunetNMSThreshold = 0.3
	yunetTopK         = 5000
	yunetLandmarks    = 5
)

// YuNetBackend runs OpenCV's FaceDetectorYN over an ONNX YuNet model.
// Unlike the SSD variant it reports five facial landmarks per face.
type YuNetBackend struct {
	mu       sync.Mutex // protects inference
	detector gocv.FaceDetectorYN
}

// NewYuNet loads a YuNet ONNX model.
func NewYuNet(modelPath string) (*YuNetBackend, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("yunet model not found: %s", modelPath)
	}

	// Input size is updated per image before each detection.
	detector := gocv.NewFaceDetectorYNWithParams(
		modelPath,
		"",
		image.Pt(320, 320),
		yunetFloor,
		yunetNMSThreshold,
		yunetTopK,
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetBackend{detector: detector}, nil
}

// Kind identifies this backend.
func (b *YuNetBackend) Kind() Kind {
	return KindYuNet
}

// Close releases the detector.
func (b *YuNetBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detector.Close()
	return nil
}

// GenerateCandidates runs one detection pass. The output matrix has 15
// columns per face: box at 0-3, five landmark pairs at 4-13, score at
// 14, all in pixel coordinates already.
func (b *YuNetBackend) GenerateCandidates(frame gocv.Mat, scan ScanParams) ([]Candidate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frame.Empty() {
		return nil, errors.New("empty frame")
	}

	b.detector.SetInputSize(image.Pt(frame.Cols(), frame.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	b.detector.Detect(frame, &faces)

	rows := faces.Rows()
	threshold := EffectiveThreshold(scan.BaseConfidence, rows)

	var candidates []Candidate
	for r := 0; r < rows; r++ {
		score := float64(faces.GetFloatAt(r, 14))
		if score < threshold {
			continue
		}

		x := int(faces.GetFloatAt(r, 0))
		y := int(faces.GetFloatAt(r, 1))
		w := int(faces.GetFloatAt(r, 2))
		h := int(faces.GetFloatAt(r, 3))

		box := geometry.ClampToBounds(image.Rect(x, y, x+w, y+h), frame.Cols(), frame.Rows())
		if box.Empty() {
			continue
		}

		landmarks := make([]image.Point, 0, yunetLandmarks)
		for k := 0; k < yunetLandmarks; k++ {
			lx := int(faces.GetFloatAt(r, 4+2*k))
			ly := int(faces.GetFloatAt(r, 5+2*k))
			landmarks = append(landmarks, image.Pt(lx, ly))
		}

		candidates = append(candidates, Candidate{
			Box:        box,
			Confidence: score,
			Landmarks:  landmarks,
		})
	}
	return candidates, nil
}
