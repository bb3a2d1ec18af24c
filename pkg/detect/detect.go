// Package detect orchestrates the face-finding pipeline: backend
// candidate generation, geometric and photometric validation,
// embedding extraction, optional multi-scale escalation, and
// duplicate resolution. A Detector owns one backend and one encoder;
// construct with New, arm with Initialize, release with Close.
package detect

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facefind/internal/log"
	"github.com/teslashibe/go-facefind/pkg/detect/backend"
	"github.com/teslashibe/go-facefind/pkg/embedding"
	"github.com/teslashibe/go-facefind/pkg/geometry"
	"github.com/teslashibe/go-facefind/pkg/models"
	"github.com/teslashibe/go-facefind/pkg/region"
)

// Sentinel errors surfaced through DetectionResult.Error.
var (
	ErrNotInitialized = errors.New("detector not initialized")
	ErrDecodeFailed   = errors.New("failed to decode image from buffer")
)

// DetectedFace is one accepted face in frame coordinates.
type DetectedFace struct {
	Box        image.Rectangle `json:"box"`
	Confidence float64         `json:"confidence"`
	Landmarks  []image.Point   `json:"landmarks,omitempty"`
	Encoding   []float32       `json:"encoding,omitempty"`
}

// DetectionResult reports one detection call. A failed call carries a
// non-empty Error and an empty face list; a clean scan of a faceless
// frame is a success with zero faces.
type DetectionResult struct {
	Success          bool           `json:"success"`
	Error            string         `json:"error,omitempty"`
	Faces            []DetectedFace `json:"faces"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
}

// Detector runs the detection pipeline. Tunable thresholds may be
// adjusted between calls; re-initializing or closing while a call is
// in flight is the caller's responsibility to avoid.
type Detector struct {
	cfg       Config
	validator *region.Validator
	encoder   *embedding.Encoder
	backend   backend.Backend

	mu          sync.Mutex // guards lifecycle transitions only
	initialized bool
	closed      bool
}

// New constructs an unarmed detector and registers it with the shared
// execution pool. Call Initialize before detecting and Close when done.
func New(cfg Config) *Detector {
	acquirePool()
	return &Detector{
		cfg:       cfg,
		validator: region.NewValidator(cfg.Validator),
	}
}

// Initialize loads a backend and encoder. With Config.Backend set the
// injected backend is used as-is; otherwise modelDir is searched for
// detection artifacts, preferring deep-learning backends when
// preferDeepLearning is true. Safe to call again to re-arm with a
// different model directory.
func (d *Detector) Initialize(modelDir string, preferDeepLearning bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.New("detector closed")
	}

	b := d.cfg.Backend
	if b == nil {
		opened, err := backend.Open(modelDir, preferDeepLearning)
		if err != nil {
			return fmt.Errorf("initialize detector: %w", err)
		}
		b = opened
	}
	if d.backend != nil && d.backend != b {
		d.backend.Close()
	}
	d.backend = b

	if d.encoder != nil {
		d.encoder.Close()
		d.encoder = nil
	}
	// An empty model directory means no artifact discovery at all;
	// probing relative paths would pick up stray files from the
	// working directory.
	if modelDir != "" {
		if path, ok := models.FindRecognition(modelDir); ok {
			enc, err := embedding.NewEncoderWithModel(d.cfg.Encoder, path)
			if err != nil {
				log.Warn("recognition model unusable, using fast encoder", "path", path, "error", err)
			} else {
				d.encoder = enc
			}
		}
	}
	if d.encoder == nil {
		d.encoder = embedding.NewEncoder(d.cfg.Encoder)
	}

	d.initialized = true
	log.Info("detector initialized", "backend", string(b.Kind()), "encoder_model", d.encoder.HasModel())
	return nil
}

// IsInitialized reports whether Initialize has succeeded.
func (d *Detector) IsInitialized() bool { return d.initialized }

// BackendKind names the active backend, or "" before Initialize.
func (d *Detector) BackendKind() string {
	if d.backend == nil {
		return ""
	}
	return string(d.backend.Kind())
}

// SetConfidenceThreshold adjusts the base acceptance threshold. The
// write is a plain scalar store: concurrent in-flight calls may see
// either value, never a torn one that matters.
func (d *Detector) SetConfidenceThreshold(t float64) { d.cfg.ConfidenceThreshold = t }

// GetConfidenceThreshold returns the current base threshold.
func (d *Detector) GetConfidenceThreshold() float64 { return d.cfg.ConfidenceThreshold }

// SetDeduplicationThreshold adjusts the duplicate-overlap ratio.
func (d *Detector) SetDeduplicationThreshold(t float64) { d.cfg.DedupIoU = t }

// SetEscalation enables or disables the multi-scale rescan.
func (d *Detector) SetEscalation(enabled bool) { d.cfg.EnableEscalation = enabled }

// SetEscalationMinFaces adjusts the sparse-result threshold.
func (d *Detector) SetEscalationMinFaces(n int) {
	if n >= 1 {
		d.cfg.EscalationMinFaces = n
	}
}

// SetEscalationMinConfidence adjusts the acceptance floor for faces
// found in zoomed regions.
func (d *Detector) SetEscalationMinConfidence(v float64) {
	if v >= 0 && v <= 1 {
		d.cfg.EscalationMinConfidence = v
	}
}

// SetHighFidelity switches the encoder analysis window for
// subsequent encodes.
func (d *Detector) SetHighFidelity(v bool) {
	if d.encoder != nil {
		d.encoder.SetHighFidelity(v)
	}
}

// UpdateValidator swaps the region-validation tunables.
func (d *Detector) UpdateValidator(cfg region.Config) { d.validator.SetConfig(cfg) }

// ValidatorConfig returns the active region-validation tunables.
func (d *Detector) ValidatorConfig() region.Config { return d.validator.Config() }

// Close releases the backend, encoder, and pool registration.
// Idempotent.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.initialized = false
	if d.backend != nil {
		d.backend.Close()
		d.backend = nil
	}
	if d.encoder != nil {
		d.encoder.Close()
		d.encoder = nil
	}
	releasePool()
	return nil
}

// Detect runs the full pipeline over a decoded frame. It never
// panics: native-layer failures come back as a failed result, and a
// failed call leaves the detector usable.
func (d *Detector) Detect(frame gocv.Mat) DetectionResult {
	return d.run(frame, time.Now())
}

// DetectBuffer decodes an encoded image (JPEG, PNG) and runs Detect
// on it. Undecodable bytes produce a failed result, not a panic.
func (d *Detector) DetectBuffer(buf []byte) DetectionResult {
	start := time.Now()
	if len(buf) == 0 {
		return failure(ErrDecodeFailed.Error(), start)
	}
	img, err := gocv.IMDecode(buf, gocv.IMReadColor)
	if err != nil {
		return failure(ErrDecodeFailed.Error(), start)
	}
	defer img.Close()
	if img.Empty() {
		return failure(ErrDecodeFailed.Error(), start)
	}
	return d.run(img, start)
}

func (d *Detector) run(frame gocv.Mat, start time.Time) (res DetectionResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("detection panicked", "panic", r)
			res = failure(fmt.Sprintf("internal processing failure: %v", r), start)
		}
	}()

	if !d.initialized || d.backend == nil {
		return failure(ErrNotInitialized.Error(), start)
	}
	if frame.Empty() {
		return failure("empty input image", start)
	}

	state := newCallState(d.cfg)
	faces, err := d.runPipeline(frame, state, 0)
	if err != nil {
		return failure(err.Error(), start)
	}
	return DetectionResult{
		Success:          true,
		Faces:            faces,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}

// runPipeline scans one frame at one scale: candidates, clamp,
// validate, encode, then escalate if the result is sparse. Candidates
// are kept in discovery order.
func (d *Detector) runPipeline(frame gocv.Mat, state *callState, depth int) ([]DetectedFace, error) {
	base := d.cfg.ConfidenceThreshold
	if depth > 0 {
		base *= regionConfidenceScale
	}
	candidates, err := d.backend.GenerateCandidates(frame, backend.ScanParams{
		BaseConfidence: base,
		Region:         depth > 0,
	})
	if err != nil {
		return nil, fmt.Errorf("generate candidates: %w", err)
	}

	faces := make([]DetectedFace, 0, len(candidates))
	for _, c := range candidates {
		box := geometry.ClampToBounds(c.Box, frame.Cols(), frame.Rows())
		if box.Empty() {
			continue
		}
		if !d.validator.IsValidFaceRegion(frame, box) {
			continue
		}

		crop := frame.Region(box)
		encoding := d.encoder.Encode(crop)
		crop.Close()

		faces = append(faces, DetectedFace{
			Box:        box,
			Confidence: c.Confidence,
			Landmarks:  c.Landmarks,
			Encoding:   encoding,
		})
	}

	if d.shouldEscalate(faces, state, depth) {
		faces = d.escalate(frame, faces, state, depth)
	}
	return faces, nil
}

func failure(msg string, start time.Time) DetectionResult {
	return DetectionResult{
		Success:          false,
		Error:            msg,
		Faces:            []DetectedFace{},
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}
