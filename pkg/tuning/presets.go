package tuning

// Preset names for common operating profiles
const (
	PresetDefault  = "default"
	PresetCrowd    = "crowd"
	PresetStrict   = "strict"
	PresetPortrait = "portrait"
	PresetLowLight = "lowlight"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:  DefaultConfig(),
		PresetCrowd:    CrowdConfig(),
		PresetStrict:   StrictConfig(),
		PresetPortrait: PortraitConfig(),
		PresetLowLight: LowLightConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetCrowd,
		PresetStrict,
		PresetPortrait,
		PresetLowLight,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// CrowdConfig tunes for group shots: smaller faces, a lower
// acceptance bar, and escalation to recover faces the full-frame
// pass misses.
func CrowdConfig() Config {
	cfg := DefaultConfig()
	cfg.ConfidenceThreshold = 0.25
	cfg.MinFaceSize = 12
	cfg.MaxFrameFraction = 0.2
	cfg.EnableEscalation = true
	cfg.EscalationMinFaces = 4
	return cfg
}

// StrictConfig tunes for precision over recall: higher confidence,
// tighter geometry and contrast bands.
func StrictConfig() Config {
	cfg := DefaultConfig()
	cfg.ConfidenceThreshold = 0.5
	cfg.DedupIoU = 0.4
	cfg.MinAspect = 0.7
	cfg.MaxAspect = 1.4
	cfg.MinStdDev = 10
	cfg.MaxStdDev = 80
	cfg.HighFidelity = true
	return cfg
}

// PortraitConfig tunes for a single large subject filling much of
// the frame.
func PortraitConfig() Config {
	cfg := DefaultConfig()
	cfg.ConfidenceThreshold = 0.4
	cfg.MinFaceSize = 40
	cfg.MaxFrameFraction = 0.6
	cfg.HighFidelity = true
	return cfg
}

// LowLightConfig relaxes the contrast and edge floors for dim scenes,
// where real faces flatten toward the noise floor.
func LowLightConfig() Config {
	cfg := DefaultConfig()
	cfg.ConfidenceThreshold = 0.2
	cfg.MinStdDev = 3
	cfg.EdgeDensityMin = 0.05
	cfg.SkinEdgeDensityMin = 0.02
	return cfg
}
