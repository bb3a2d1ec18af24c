package region

// Config holds the validator's tunable thresholds. Every bound here is an
// empirical constant, not a derived quantity; the defaults are the most
// permissive values observed to work across frontal and tilted faces.
// These can be modified via the tuning API at runtime.
type Config struct {
	// Aspect ratio band (width/height). Frontal-only deployments can
	// narrow this to roughly 0.7-1.3.
	MinAspect float64 `json:"min_aspect"`
	MaxAspect float64 `json:"max_aspect"`

	// MinSize is the smallest accepted side length in pixels. Distant
	// or crowd faces need a low floor.
	MinSize int `json:"min_size"`

	// MaxFrameFraction caps a face side relative to the frame extent.
	// A single face larger than this fraction of the frame is implausible.
	MaxFrameFraction float64 `json:"max_frame_fraction"`

	// Grayscale standard deviation band. Below the floor is a blank
	// surface, above the ceiling is noise.
	MinStdDev float64 `json:"min_stddev"`
	MaxStdDev float64 `json:"max_stddev"`

	// Edge density band for non-skin-toned regions.
	EdgeDensityMin float64 `json:"edge_density_min"`
	EdgeDensityMax float64 `json:"edge_density_max"`

	// Looser edge density band applied when the region's mean color
	// passes the skin heuristic.
	SkinEdgeDensityMin float64 `json:"skin_edge_density_min"`
	SkinEdgeDensityMax float64 `json:"skin_edge_density_max"`

	// RejectDisplays enables the electronic-display artifact detector.
	RejectDisplays bool `json:"reject_displays"`
}

// DefaultConfig returns the validator defaults.
func DefaultConfig() Config {
	return Config{
		MinAspect:          0.6,
		MaxAspect:          1.6,
		MinSize:            15,
		MaxFrameFraction:   0.3,
		MinStdDev:          6.0,
		MaxStdDev:          90.0,
		EdgeDensityMin:     0.1,
		EdgeDensityMax:     0.4,
		SkinEdgeDensityMin: 0.03,
		SkinEdgeDensityMax: 0.5,
		RejectDisplays:     true,
	}
}
