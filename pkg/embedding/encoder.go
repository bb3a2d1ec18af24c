// Package embedding turns an accepted face region into a numeric vector
// for downstream similarity matching. Without a recognition model the
// fast path produces a deterministic 128-element feature vector from
// intensity statistics; with a model the raw network output is used
// verbatim and its length is model-defined.
package embedding

import (
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// Size is the fast-path encoding length. The model path may differ.
const Size = 128

// Sobel 3x3 peak response on 8-bit input, used to normalize the
// gradient summary.
const sobelGain = 4.0 * 255.0

// Config holds encoder settings.
type Config struct {
	// HighFidelity switches the fast path to a 96px equalized input.
	HighFidelity bool

	// BlockSize is the integral-image block edge for localized means.
	BlockSize int

	// ModelInputSize is the square input edge expected by the
	// recognition model, when one is loaded.
	ModelInputSize int

	// UseAccelerator requests device-side preprocessing. Only honored
	// when the binary is built with accelerator support and a device
	// is present; keep off when several callers share one device.
	UseAccelerator bool
}

// DefaultConfig returns the encoder defaults.
func DefaultConfig() Config {
	return Config{
		HighFidelity:   false,
		BlockSize:      16,
		ModelInputSize: 160,
		UseAccelerator: false,
	}
}

// Encoder extracts face encodings. Safe for concurrent use; the model
// and accelerator paths are serialized internally.
type Encoder struct {
	mu    sync.Mutex // protects net inference and the device stream
	cfg   Config
	net   gocv.Net
	model bool
	accel *accelContext
}

// NewEncoder creates a fast-path encoder.
func NewEncoder(cfg Config) *Encoder {
	e := &Encoder{cfg: cfg}
	if cfg.UseAccelerator && AcceleratorAvailable() {
		e.accel = newAccelContext()
	}
	return e
}

// NewEncoderWithModel creates an encoder backed by a recognition model
// in ONNX format. The model output becomes the encoding verbatim.
func NewEncoderWithModel(cfg Config, modelPath string) (*Encoder, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("recognition model not found: %s", modelPath)
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load recognition model: %s", modelPath)
	}

	e := NewEncoder(cfg)
	e.net = net
	e.model = true
	return e, nil
}

// HasModel reports whether the higher-fidelity model path is active.
func (e *Encoder) HasModel() bool {
	return e.model
}

// SetHighFidelity switches the fast-path analysis window for
// subsequent encodes. A plain scalar store; in-flight encodes may use
// either window.
func (e *Encoder) SetHighFidelity(v bool) {
	e.cfg.HighFidelity = v
}

// Close releases the model and any device resources.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model {
		e.net.Close()
		e.model = false
	}
	if e.accel != nil {
		e.accel.Close()
		e.accel = nil
	}
	return nil
}

// Encode produces the encoding for a face region. It never fails
// observably: any internal error yields an all-zero vector of the
// fast-path length, so consumers always receive a usable shape.
func (e *Encoder) Encode(face gocv.Mat) (vec []float32) {
	defer func() {
		// Native pixel ops surface errors as panics; the contract
		// here is a zero sentinel, not an error.
		if r := recover(); r != nil {
			vec = make([]float32, Size)
		}
	}()

	if face.Empty() || face.Cols() <= 0 || face.Rows() <= 0 {
		return make([]float32, Size)
	}

	if e.model {
		return e.encodeWithModel(face)
	}
	return e.encodeFast(face)
}

// encodeFast builds the fixed-length feature vector: global intensity
// statistics, integral-image block means in raster order, and a coarse
// gradient summary, zero-padded to Size.
func (e *Encoder) encodeFast(face gocv.Mat) []float32 {
	side := 64
	if e.cfg.HighFidelity {
		side = 96
	}

	gray := gocv.NewMat()
	defer gray.Close()
	e.prepareGray(face, side, &gray)

	if e.cfg.HighFidelity {
		equalized := gocv.NewMat()
		defer equalized.Close()
		gocv.EqualizeHist(gray, &equalized)
		equalized.CopyTo(&gray)
	}

	mean, stddev := grayStats(gray)

	vec := make([]float32, 0, Size)
	vec = append(vec, float32(mean/255.0), float32(stddev/255.0))

	vec = e.appendBlockMeans(vec, gray, side)
	vec = appendGradientSummary(vec, gray)

	for len(vec) < Size {
		vec = append(vec, 0)
	}
	return vec[:Size]
}

// prepareGray resizes the region to side x side single-channel, on the
// device when the accelerator is engaged.
func (e *Encoder) prepareGray(face gocv.Mat, side int, gray *gocv.Mat) {
	if e.accel != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.accel.preprocess(face, side, gray)
		return
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(face, &resized, image.Pt(side, side), 0, 0, gocv.InterpolationLinear)

	if face.Channels() > 1 {
		gocv.CvtColor(resized, gray, gocv.ColorBGRToGray)
	} else {
		resized.CopyTo(gray)
	}
}

// appendBlockMeans adds per-block mean intensities computed from one
// integral-image pass, leaving room for the gradient summary.
func (e *Encoder) appendBlockMeans(vec []float32, gray gocv.Mat, side int) []float32 {
	block := e.cfg.BlockSize
	if block <= 0 || block > side {
		block = 16
	}

	sum := gocv.NewMat()
	defer sum.Close()
	sqsum := gocv.NewMat()
	defer sqsum.Close()
	tilted := gocv.NewMat()
	defer tilted.Close()
	gocv.Integral(gray, &sum, &sqsum, &tilted)

	norm := float32(block*block) * 255.0
	for by := 0; by+block <= side; by += block {
		for bx := 0; bx+block <= side; bx += block {
			if len(vec) >= Size-2 {
				return vec
			}
			s := blockSum(sum, bx, by, block)
			vec = append(vec, float32(s)/norm)
		}
	}
	return vec
}

// blockSum reads one block total from the integral image, which is one
// pixel larger than the source in each dimension.
func blockSum(sum gocv.Mat, x, y, block int) int32 {
	x2, y2 := x+block, y+block
	return sum.GetIntAt(y2, x2) - sum.GetIntAt(y, x2) - sum.GetIntAt(y2, x) + sum.GetIntAt(y, x)
}

// appendGradientSummary adds the mean absolute horizontal and vertical
// Sobel responses.
func appendGradientSummary(vec []float32, gray gocv.Mat) []float32 {
	gx := sobelMeanAbs(gray, 1, 0)
	gy := sobelMeanAbs(gray, 0, 1)
	return append(vec, float32(gx), float32(gy))
}

func sobelMeanAbs(gray gocv.Mat, dx, dy int) float64 {
	grad := gocv.NewMat()
	defer grad.Close()
	gocv.Sobel(gray, &grad, gocv.MatTypeCV32F, dx, dy, 3, 1, 0, gocv.BorderDefault)

	data, err := grad.DataPtrFloat32()
	if err != nil || len(data) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range data {
		total += math.Abs(float64(v))
	}
	return total / float64(len(data)) / sobelGain
}

// encodeWithModel runs the recognition network and returns its raw
// output. Inference is serialized; the loaded net is not reentrant.
func (e *Encoder) encodeWithModel(face gocv.Mat) []float32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	sz := e.cfg.ModelInputSize
	blob := gocv.BlobFromImage(face, 1.0/255.0, image.Pt(sz, sz), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	e.net.SetInput(blob, "")
	out := e.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil || len(data) == 0 {
		return make([]float32, Size)
	}

	// The tensor view dies with out; hand back an owned copy.
	vec := make([]float32, len(data))
	copy(vec, data)
	return vec
}

func grayStats(m gocv.Mat) (float64, float64) {
	meanMat := gocv.NewMat()
	defer meanMat.Close()
	stdMat := gocv.NewMat()
	defer stdMat.Close()
	gocv.MeanStdDev(m, &meanMat, &stdMat)
	return meanMat.GetDoubleAt(0, 0), stdMat.GetDoubleAt(0, 0)
}
