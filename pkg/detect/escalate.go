package detect

import (
	"image"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facefind/internal/log"
	"github.com/teslashibe/go-facefind/pkg/geometry"
)

const (
	// escalationZoom is the upscale factor applied to each rescanned
	// region.
	escalationZoom = 2

	// escalationMaxDepth caps recursion: regions of regions are never
	// rescanned.
	escalationMaxDepth = 1

	// escalationMinInterval rate-limits escalation within one call.
	escalationMinInterval = 100 * time.Millisecond

	// regionConfidenceScale relaxes the base threshold for region
	// scans, where faces occupy proportionally more of the image.
	regionConfidenceScale = 0.8
)

// callState carries the escalation guards for a single detection
// call. Guard state is threaded through the call explicitly, so
// concurrent calls on the same detector never throttle each other.
type callState struct {
	minFaces       int
	lastEscalation time.Time
}

func newCallState(cfg Config) *callState {
	return &callState{minFaces: cfg.EscalationMinFaces}
}

// shouldEscalate decides whether a sparse scan warrants zoomed-region
// rescans. A guard-blocked escalation is skipped outright, never
// deferred.
func (d *Detector) shouldEscalate(faces []DetectedFace, state *callState, depth int) bool {
	if !d.cfg.EnableEscalation {
		return false
	}
	if len(faces) >= state.minFaces {
		return false
	}
	if depth >= escalationMaxDepth {
		return false
	}
	if !state.lastEscalation.IsZero() && time.Since(state.lastEscalation) < escalationMinInterval {
		return false
	}
	return true
}

// escalate rescans the four quadrants and a centered half-size
// region, each upscaled by escalationZoom, and merges mapped-back
// faces into the main result. Region failures degrade to the result
// already in hand.
func (d *Detector) escalate(frame gocv.Mat, faces []DetectedFace, state *callState, depth int) []DetectedFace {
	state.lastEscalation = time.Now()

	for _, reg := range escalationRegions(frame.Cols(), frame.Rows()) {
		if reg.Dx() < 2 || reg.Dy() < 2 {
			continue
		}
		sub := frame.Region(reg)
		zoomed := gocv.NewMat()
		gocv.Resize(sub, &zoomed, image.Pt(reg.Dx()*escalationZoom, reg.Dy()*escalationZoom), 0, 0, gocv.InterpolationLinear)
		sub.Close()

		regionFaces, err := d.runPipeline(zoomed, state, depth+1)
		zoomed.Close()
		if err != nil {
			log.Debug("region rescan failed", "region", reg.String(), "error", err)
			continue
		}

		for _, rf := range regionFaces {
			mapped := mapToFrame(rf, reg)
			if mapped.Confidence <= d.cfg.EscalationMinConfidence {
				continue
			}
			faces = mergeFace(faces, mapped, d.cfg.DedupIoU)
		}
	}
	return faces
}

// escalationRegions returns the four quadrants plus a centered region
// spanning half of each dimension.
func escalationRegions(w, h int) []image.Rectangle {
	halfW, halfH := w/2, h/2
	return []image.Rectangle{
		image.Rect(0, 0, halfW, halfH),
		image.Rect(halfW, 0, w, halfH),
		image.Rect(0, halfH, halfW, h),
		image.Rect(halfW, halfH, w, h),
		image.Rect(w/4, h/4, w/4+halfW, h/4+halfH),
	}
}

// mapToFrame translates a face found in a zoomed region crop back to
// full-frame coordinates.
func mapToFrame(f DetectedFace, reg image.Rectangle) DetectedFace {
	mapped := f
	mapped.Box = image.Rect(
		f.Box.Min.X/escalationZoom+reg.Min.X,
		f.Box.Min.Y/escalationZoom+reg.Min.Y,
		f.Box.Max.X/escalationZoom+reg.Min.X,
		f.Box.Max.Y/escalationZoom+reg.Min.Y,
	)
	if len(f.Landmarks) > 0 {
		lm := make([]image.Point, len(f.Landmarks))
		for i, p := range f.Landmarks {
			lm[i] = image.Pt(p.X/escalationZoom+reg.Min.X, p.Y/escalationZoom+reg.Min.Y)
		}
		mapped.Landmarks = lm
	}
	return mapped
}

// mergeFace adds cand to faces unless it overlaps an existing face
// beyond iouThreshold; of a duplicate pair the higher-confidence one
// survives.
func mergeFace(faces []DetectedFace, cand DetectedFace, iouThreshold float64) []DetectedFace {
	for i, f := range faces {
		if geometry.IoU(f.Box, cand.Box) > iouThreshold {
			if cand.Confidence > f.Confidence {
				faces[i] = cand
			}
			return faces
		}
	}
	return append(faces, cand)
}
