// Package config provides configuration for go-facefind commands.
// Values come from the environment, with an optional .env file loaded first.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults used when the environment does not override them.
const (
	DefaultPort       = "8787"
	DefaultModelDir   = "models"
	DefaultConfidence = 0.3
	DefaultDedupIoU   = 0.3
	DefaultLogLevel   = "info"
)

// Config holds process-level settings resolved from the environment.
type Config struct {
	ModelDir     string  // FACEFIND_MODEL_DIR: directory holding model artifacts
	Port         string  // FACEFIND_PORT: HTTP service port
	Confidence   float64 // FACEFIND_CONFIDENCE: base acceptance threshold
	DedupIoU     float64 // FACEFIND_DEDUP_IOU: overlap ratio treated as duplicate
	PreferDNN    bool    // FACEFIND_PREFER_DNN: try deep-learning backends first
	Escalation   bool    // FACEFIND_ESCALATION: enable multi-scale escalation
	UseGPU       bool    // FACEFIND_GPU: enable accelerator preprocessing
	HighFidelity bool    // FACEFIND_HIFI_ENCODING: 96px equalized encoder input
	LogLevel     string  // FACEFIND_LOG_LEVEL
}

// Load resolves configuration from the environment.
// A .env file in the working directory is loaded first if present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ModelDir:     getString("FACEFIND_MODEL_DIR", DefaultModelDir),
		Port:         getString("FACEFIND_PORT", DefaultPort),
		Confidence:   getFloat("FACEFIND_CONFIDENCE", DefaultConfidence),
		DedupIoU:     getFloat("FACEFIND_DEDUP_IOU", DefaultDedupIoU),
		PreferDNN:    getBool("FACEFIND_PREFER_DNN", true),
		Escalation:   getBool("FACEFIND_ESCALATION", false),
		UseGPU:       getBool("FACEFIND_GPU", false),
		HighFidelity: getBool("FACEFIND_HIFI_ENCODING", false),
		LogLevel:     getString("FACEFIND_LOG_LEVEL", DefaultLogLevel),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
