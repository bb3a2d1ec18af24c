package backend

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facefind/pkg/models"
)

func TestEffectiveThreshold(t *testing.T) {
	tests := []struct {
		name     string
		base     float64
		rawCount int
		want     float64
	}{
		{"sparse scene keeps base", 0.3, 10, 0.3},
		{"boundary count keeps base", 0.3, 30, 0.3},
		{"crowd lowers threshold", 0.3, 31, 0.21},
		{"floor holds for low base", 0.1, 50, 0.12},
		{"floor holds for tiny base", 0.05, 100, 0.12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveThreshold(tt.base, tt.rawCount)
			if !floatEquals(got, tt.want) {
				t.Errorf("EffectiveThreshold(%v, %d) = %v, want %v", tt.base, tt.rawCount, got, tt.want)
			}
		})
	}
}

func TestOpenEmptyDir(t *testing.T) {
	dir := t.TempDir()
	if _, ok := models.FindCascade(dir); ok {
		t.Skip("system haar cascade present, discovery cannot fail here")
	}

	_, err := Open(dir, true)
	if !errors.Is(err, ErrNoBackend) {
		t.Errorf("Open on empty dir = %v, want ErrNoBackend", err)
	}
}

func TestNewSSDMissingArtifacts(t *testing.T) {
	if _, err := NewSSD("testdata/none.prototxt", "testdata/none.caffemodel"); err == nil {
		t.Error("missing ssd artifacts should be an error")
	}
}

func TestNewYuNetMissingModel(t *testing.T) {
	if _, err := NewYuNet("testdata/none.onnx"); err == nil {
		t.Error("missing yunet model should be an error")
	}
}

func TestNewPigoMissingCascade(t *testing.T) {
	if _, err := NewPigoBackend("testdata/none"); err == nil {
		t.Error("missing pigo cascade should be an error")
	}
}

func TestCascadeDetectsOnBlankFrame(t *testing.T) {
	path, ok := models.FindCascade("../../../models")
	if !ok {
		t.Skip("haar cascade not available, skipping")
	}

	b, err := NewCascade(path)
	if err != nil {
		t.Fatalf("load cascade: %v", err)
	}
	defer b.Close()

	if b.Kind() != KindCascade {
		t.Errorf("Kind = %v, want %v", b.Kind(), KindCascade)
	}

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	candidates, err := b.GenerateCandidates(frame, ScanParams{BaseConfidence: 0.3})
	if err != nil {
		t.Fatalf("GenerateCandidates: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("black frame produced %d candidates, want 0", len(candidates))
	}
}

func TestGenerateCandidatesEmptyFrame(t *testing.T) {
	b := &PigoBackend{}
	frame := gocv.NewMat()
	defer frame.Close()

	if _, err := b.GenerateCandidates(frame, ScanParams{}); err == nil {
		t.Error("empty frame should be an error")
	}
}

func floatEquals(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
