// Package backend provides interchangeable face-candidate generators.
// Each variant turns a frame into raw candidate rectangles with
// confidences; everything downstream (validation, encoding, dedup) is
// backend-agnostic.
package backend

import (
	"errors"
	"image"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facefind/internal/log"
	"github.com/teslashibe/go-facefind/pkg/models"
)

// Kind identifies a candidate generator implementation.
type Kind string

const (
	KindSSD     Kind = "ssd"
	KindYuNet   Kind = "yunet"
	KindCascade Kind = "cascade"
	KindPigo    Kind = "pigo"
)

// ErrNoBackend means no artifact set under the model directory loaded.
var ErrNoBackend = errors.New("no detection backend could be loaded")

// Candidate is a raw detector output before validation.
type Candidate struct {
	Box        image.Rectangle
	Confidence float64
	Landmarks  []image.Point
}

// ScanParams tune one candidate-generation pass.
type ScanParams struct {
	// BaseConfidence is the acceptance threshold before any dynamic
	// adjustment.
	BaseConfidence float64

	// Region marks a zoomed-region rescan, which uses the more
	// sensitive cascade parameters.
	Region bool
}

// Backend generates face candidates from a frame. A detector selects
// its backend once at initialization and never branches on Kind after
// that.
type Backend interface {
	GenerateCandidates(frame gocv.Mat, scan ScanParams) ([]Candidate, error)
	Kind() Kind
	Close() error
}

// Dynamic thresholding: a flood of raw candidates signals a crowd
// scene where real faces sit below the base threshold.
const (
	crowdCandidateCount = 30
	crowdThresholdScale = 0.7
	crowdThresholdFloor = 0.12
)

// EffectiveThreshold lowers the acceptance threshold when a single
// pass yields an unusually large number of raw candidates. Exposed as
// policy so the behavior stays testable on its own.
func EffectiveThreshold(base float64, rawCount int) float64 {
	if rawCount <= crowdCandidateCount {
		return base
	}
	t := base * crowdThresholdScale
	if t < crowdThresholdFloor {
		t = crowdThresholdFloor
	}
	return t
}

// Open loads the first backend whose artifacts are present under
// modelDir. preferDeepLearning puts the DNN variants first; otherwise
// the cascade variants lead.
func Open(modelDir string, preferDeepLearning bool) (Backend, error) {
	type loader struct {
		name string
		load func() (Backend, error)
	}

	dnn := []loader{
		{"ssd", func() (Backend, error) { return openSSD(modelDir) }},
		{"yunet", func() (Backend, error) { return openYuNet(modelDir) }},
	}
	classical := []loader{
		{"cascade", func() (Backend, error) { return openCascade(modelDir) }},
		{"pigo", func() (Backend, error) { return openPigo(modelDir) }},
	}

	var chain []loader
	if preferDeepLearning {
		chain = append(dnn, classical...)
	} else {
		chain = append(classical, dnn...)
	}

	for _, l := range chain {
		b, err := l.load()
		if err != nil {
			log.Debug("backend unavailable", "backend", l.name, "error", err)
			continue
		}
		log.Info("detection backend loaded", "backend", string(b.Kind()))
		return b, nil
	}
	return nil, ErrNoBackend
}

func openSSD(dir string) (Backend, error) {
	proto, weights, ok := models.FindSSD(dir)
	if !ok {
		return nil, errors.New("ssd artifacts not found")
	}
	return NewSSD(proto, weights)
}

func openYuNet(dir string) (Backend, error) {
	path, ok := models.FindYuNet(dir)
	if !ok {
		return nil, errors.New("yunet model not found")
	}
	return NewYuNet(path)
}

func openCascade(dir string) (Backend, error) {
	path, ok := models.FindCascade(dir)
	if !ok {
		return nil, errors.New("haar cascade not found")
	}
	return NewCascade(path)
}

func openPigo(dir string) (Backend, error) {
	path, ok := models.FindFacefinder(dir)
	if !ok {
		return nil, errors.New("pigo cascade not found")
	}
	return NewPigoBackend(path)
}
