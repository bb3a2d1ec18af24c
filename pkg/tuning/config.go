// Package tuning provides runtime-adjustable detection settings.
// This follows the same manager/preset pattern as the service config,
// so operators can retune a running detector without a restart.
package tuning

import "github.com/teslashibe/go-facefind/pkg/region"

// Config holds every detection parameter adjustable at runtime.
// These can be modified via the config API while the service runs.
type Config struct {
	// === Pipeline ===
	ConfidenceThreshold     float64 `json:"confidence_threshold"`      // Base candidate acceptance threshold
	DedupIoU                float64 `json:"dedup_iou"`                 // Overlap ratio treated as duplicate
	EnableEscalation        bool    `json:"enable_escalation"`         // Zoomed-region rescan for sparse results
	EscalationMinFaces      int     `json:"escalation_min_faces"`      // Result size below which a scan is sparse
	EscalationMinConfidence float64 `json:"escalation_min_confidence"` // Acceptance floor for zoomed-region faces

	// === Region validation ===
	MinAspect        float64 `json:"min_aspect"`         // Width/height floor
	MaxAspect        float64 `json:"max_aspect"`         // Width/height ceiling
	MinFaceSize      int     `json:"min_face_size"`      // Smallest usable face edge in pixels
	MaxFrameFraction float64 `json:"max_frame_fraction"` // Largest face relative to frame
	MinStdDev        float64 `json:"min_stddev"`         // Contrast floor
	MaxStdDev        float64 `json:"max_stddev"`         // Contrast ceiling

	// EdgeDensity bands; the skin band applies when the region reads
	// as skin-toned.
	EdgeDensityMin     float64 `json:"edge_density_min"`
	EdgeDensityMax     float64 `json:"edge_density_max"`
	SkinEdgeDensityMin float64 `json:"skin_edge_density_min"`
	SkinEdgeDensityMax float64 `json:"skin_edge_density_max"`

	// RejectDisplays drops candidates that look like screens or
	// framed photos.
	RejectDisplays bool `json:"reject_displays"`

	// === Embedding ===
	HighFidelity bool `json:"high_fidelity"` // 96px analysis window instead of 64px
}

// DefaultConfig returns the permissive baseline used at startup.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:     0.3,
		DedupIoU:                0.3,
		EnableEscalation:        false,
		EscalationMinFaces:      3,
		EscalationMinConfidence: 0.4,

		MinAspect:        0.6,
		MaxAspect:        1.6,
		MinFaceSize:      15,
		MaxFrameFraction: 0.3,
		MinStdDev:        6,
		MaxStdDev:        90,

		EdgeDensityMin:     0.1,
		EdgeDensityMax:     0.4,
		SkinEdgeDensityMin: 0.03,
		SkinEdgeDensityMax: 0.5,

		RejectDisplays: true,
		HighFidelity:   false,
	}
}

// Region projects the validation fields into a region config.
func (c Config) Region() region.Config {
	return region.Config{
		MinAspect:          c.MinAspect,
		MaxAspect:          c.MaxAspect,
		MinSize:            c.MinFaceSize,
		MaxFrameFraction:   c.MaxFrameFraction,
		MinStdDev:          c.MinStdDev,
		MaxStdDev:          c.MaxStdDev,
		EdgeDensityMin:     c.EdgeDensityMin,
		EdgeDensityMax:     c.EdgeDensityMax,
		SkinEdgeDensityMin: c.SkinEdgeDensityMin,
		SkinEdgeDensityMax: c.SkinEdgeDensityMax,
		RejectDisplays:     c.RejectDisplays,
	}
}

// Validate checks that the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		errors = append(errors, "confidence_threshold must be between 0 and 1")
	}
	if c.DedupIoU < 0 || c.DedupIoU > 1 {
		errors = append(errors, "dedup_iou must be between 0 and 1")
	}
	if c.EscalationMinFaces < 1 {
		errors = append(errors, "escalation_min_faces must be at least 1")
	}
	if c.EscalationMinConfidence < 0 || c.EscalationMinConfidence > 1 {
		errors = append(errors, "escalation_min_confidence must be between 0 and 1")
	}

	if c.MinAspect <= 0 || c.MaxAspect <= 0 || c.MinAspect >= c.MaxAspect {
		errors = append(errors, "aspect band must satisfy 0 < min_aspect < max_aspect")
	}
	if c.MinFaceSize < 1 {
		errors = append(errors, "min_face_size must be at least 1 pixel")
	}
	if c.MaxFrameFraction <= 0 || c.MaxFrameFraction > 1 {
		errors = append(errors, "max_frame_fraction must be between 0 and 1")
	}
	if c.MinStdDev < 0 || c.MaxStdDev <= c.MinStdDev {
		errors = append(errors, "contrast band must satisfy 0 <= min_stddev < max_stddev")
	}

	if c.EdgeDensityMin < 0 || c.EdgeDensityMax <= c.EdgeDensityMin || c.EdgeDensityMax > 1 {
		errors = append(errors, "edge density band must satisfy 0 <= min < max <= 1")
	}
	if c.SkinEdgeDensityMin < 0 || c.SkinEdgeDensityMax <= c.SkinEdgeDensityMin || c.SkinEdgeDensityMax > 1 {
		errors = append(errors, "skin edge density band must satisfy 0 <= min < max <= 1")
	}

	return errors
}
