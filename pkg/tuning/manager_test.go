package tuning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.Validate())
}

func TestAllPresetsValid(t *testing.T) {
	for name, cfg := range Presets() {
		assert.Emptyf(t, cfg.Validate(), "preset %q fails validation", name)
	}
}

func TestGetPreset(t *testing.T) {
	require.NotNil(t, GetPreset(PresetCrowd))
	assert.Nil(t, GetPreset("panorama"))

	// Presets hand out copies; mutating one must not leak back.
	p := GetPreset(PresetDefault)
	p.ConfidenceThreshold = 0.99
	assert.Equal(t, 0.3, GetPreset(PresetDefault).ConfidenceThreshold)
}

func TestValidateCatchesBadBands(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinAspect = 1.8 // above MaxAspect
	cfg.ConfidenceThreshold = 0
	errs := cfg.Validate()
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "confidence_threshold")
	assert.Contains(t, errs[1], "aspect")
}

func TestSetConfigRejectsInvalid(t *testing.T) {
	m := NewManager()
	bad := DefaultConfig()
	bad.MaxFrameFraction = 2.0

	err := m.SetConfig(bad)
	require.Error(t, err)
	assert.Equal(t, 0.3, m.GetConfig().MaxFrameFraction, "rejected config must not be stored")
}

func TestUpdateConfigFields(t *testing.T) {
	m := NewManager()
	err := m.UpdateConfig(map[string]interface{}{
		"confidence_threshold":      0.45,
		"min_face_size":             20,
		"enable_escalation":         true,
		"escalation_min_confidence": 0.55,
		"reject_displays":           false,
	})
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 0.45, cfg.ConfidenceThreshold)
	assert.Equal(t, 20, cfg.MinFaceSize)
	assert.True(t, cfg.EnableEscalation)
	assert.Equal(t, 0.55, cfg.EscalationMinConfidence)
	assert.False(t, cfg.RejectDisplays)
}

func TestUpdateConfigPresetWithOverrides(t *testing.T) {
	m := NewManager()
	err := m.UpdateConfig(map[string]interface{}{
		"preset":               PresetCrowd,
		"confidence_threshold": 0.35,
	})
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 0.35, cfg.ConfidenceThreshold, "override should win over preset value")
	assert.Equal(t, 12, cfg.MinFaceSize, "non-overridden fields come from the preset")
	assert.True(t, cfg.EnableEscalation)
}

func TestUpdateConfigUnknownPreset(t *testing.T) {
	m := NewManager()
	err := m.UpdateConfig(map[string]interface{}{"preset": "imaginary"})
	assert.ErrorContains(t, err, "unknown preset")
}

func TestConfigChangeCallback(t *testing.T) {
	m := NewManager()
	var applied []Config
	m.OnConfigChange = func(cfg Config) error {
		applied = append(applied, cfg)
		return nil
	}

	require.NoError(t, m.UpdateConfig(map[string]interface{}{"confidence_threshold": 0.6}))
	require.Len(t, applied, 1)
	assert.Equal(t, 0.6, applied[0].ConfidenceThreshold)
}

func TestCallbackErrorPropagates(t *testing.T) {
	m := NewManager()
	m.OnConfigChange = func(Config) error { return assert.AnError }

	err := m.SetConfig(DefaultConfig())
	assert.ErrorContains(t, err, "failed to apply config")
}

func TestRegionProjection(t *testing.T) {
	cfg := StrictConfig()
	rc := cfg.Region()
	assert.Equal(t, cfg.MinAspect, rc.MinAspect)
	assert.Equal(t, cfg.MaxAspect, rc.MaxAspect)
	assert.Equal(t, cfg.MinFaceSize, rc.MinSize)
	assert.Equal(t, cfg.MinStdDev, rc.MinStdDev)
	assert.Equal(t, cfg.RejectDisplays, rc.RejectDisplays)
}

func TestGetConfigJSONKeys(t *testing.T) {
	m := NewManager()
	js := m.GetConfigJSON()
	for _, key := range []string{"confidence_threshold", "dedup_iou", "min_face_size", "reject_displays"} {
		assert.Containsf(t, js, key, "serialized config missing %q", key)
	}
}
