package detect

import (
	"github.com/teslashibe/go-facefind/pkg/detect/backend"
	"github.com/teslashibe/go-facefind/pkg/embedding"
	"github.com/teslashibe/go-facefind/pkg/region"
)

// Config holds the orchestrator's tunables. Threshold fields are plain
// scalars a caller may adjust between calls; see the setter docs for
// the concurrency caveat.
type Config struct {
	// ConfidenceThreshold is the base acceptance threshold for raw
	// candidates, before dynamic adjustment.
	ConfidenceThreshold float64

	// DedupIoU is the overlap ratio above which two faces are the
	// same face.
	DedupIoU float64

	// EnableEscalation turns on the multi-scale zoomed-region rescan
	// for sparse results. Off by default: it multiplies per-frame cost
	// by up to six.
	EnableEscalation bool

	// EscalationMinFaces is the result size below which a scan counts
	// as sparse.
	EscalationMinFaces int

	// EscalationMinConfidence is the acceptance floor applied to faces
	// found in zoomed regions, where upscaling inflates detector
	// scores.
	EscalationMinConfidence float64

	// Validator and Encoder configure the downstream stages.
	Validator region.Config
	Encoder   embedding.Config

	// Backend, when set, is used directly instead of artifact
	// discovery. The detector takes ownership and closes it.
	Backend backend.Backend
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:     0.3,
		DedupIoU:                0.3,
		EnableEscalation:        false,
		EscalationMinFaces:      3,
		EscalationMinConfidence: 0.4,
		Validator: region.DefaultConfig(),
		Encoder:   embedding.DefaultConfig(),
	}
}
