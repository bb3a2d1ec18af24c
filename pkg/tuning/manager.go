package tuning

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager holds the current detection configuration and handles updates.
type Manager struct {
	config Config
	mu     sync.RWMutex

	// Callback when config changes (for applying to a live detector)
	OnConfigChange func(cfg Config) error
}

// NewManager creates a new tuning manager with default config.
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// GetConfig returns the current detection configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates and stores a full configuration, then notifies
// the change callback.
func (m *Manager) SetConfig(cfg Config) error {
	if errors := cfg.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}

	return nil
}

// UpdateConfig updates specific fields of the configuration.
// Accepts a map of field names to values. A "preset" key loads that
// preset first; remaining keys override individual fields on top.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	m.mu.Lock()
	cfg := m.config
	m.mu.Unlock()

	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", presetName)
		}
		cfg = *preset
		delete(params, "preset")
	}

	for key, value := range params {
		switch key {
		case "confidence_threshold":
			if v, ok := toFloat(value); ok {
				cfg.ConfidenceThreshold = v
			}
		case "dedup_iou":
			if v, ok := toFloat(value); ok {
				cfg.DedupIoU = v
			}
		case "enable_escalation":
			if v, ok := toBool(value); ok {
				cfg.EnableEscalation = v
			}
		case "escalation_min_faces":
			if v, ok := toInt(value); ok {
				cfg.EscalationMinFaces = v
			}
		case "escalation_min_confidence":
			if v, ok := toFloat(value); ok {
				cfg.EscalationMinConfidence = v
			}
		case "min_aspect":
			if v, ok := toFloat(value); ok {
				cfg.MinAspect = v
			}
		case "max_aspect":
			if v, ok := toFloat(value); ok {
				cfg.MaxAspect = v
			}
		case "min_face_size":
			if v, ok := toInt(value); ok {
				cfg.MinFaceSize = v
			}
		case "max_frame_fraction":
			if v, ok := toFloat(value); ok {
				cfg.MaxFrameFraction = v
			}
		case "min_stddev":
			if v, ok := toFloat(value); ok {
				cfg.MinStdDev = v
			}
		case "max_stddev":
			if v, ok := toFloat(value); ok {
				cfg.MaxStdDev = v
			}
		case "edge_density_min":
			if v, ok := toFloat(value); ok {
				cfg.EdgeDensityMin = v
			}
		case "edge_density_max":
			if v, ok := toFloat(value); ok {
				cfg.EdgeDensityMax = v
			}
		case "skin_edge_density_min":
			if v, ok := toFloat(value); ok {
				cfg.SkinEdgeDensityMin = v
			}
		case "skin_edge_density_max":
			if v, ok := toFloat(value); ok {
				cfg.SkinEdgeDensityMax = v
			}
		case "reject_displays":
			if v, ok := toBool(value); ok {
				cfg.RejectDisplays = v
			}
		case "high_fidelity":
			if v, ok := toBool(value); ok {
				cfg.HighFidelity = v
			}
		}
	}

	return m.SetConfig(cfg)
}

// GetConfigJSON returns the current config as a map for JSON serialization.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	cfg := m.GetConfig()

	data, _ := json.Marshal(cfg)
	var result map[string]interface{}
	json.Unmarshal(data, &result)

	return result
}

// Helper functions for type conversion

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

func toBool(v interface{}) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		if val == "true" {
			return true, true
		}
		if val == "false" {
			return false, true
		}
	}
	return false, false
}
