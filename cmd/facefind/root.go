package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-facefind/internal/config"
	"github.com/teslashibe/go-facefind/internal/log"
	"github.com/teslashibe/go-facefind/pkg/detect"
	"github.com/teslashibe/go-facefind/pkg/web"
)

// envCfg seeds flag defaults so environment variables and .env files
// keep working when no flag is passed.
var envCfg = config.Load()

var (
	flagModelDir string
	flagLogLevel string
	flagDNN      bool
	flagGPU      bool
)

var rootCmd = &cobra.Command{
	Use:     "facefind",
	Short:   "Face detection service and image scanning toolkit",
	Version: web.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Init(flagLogLevel)
	},
}

func Execute() {
	// Ctrl+C and SIGTERM cancel the command context so serve and scan
	// can wind down instead of dying mid-write.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagModelDir, "models", envCfg.ModelDir, "Directory holding model artifacts")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", envCfg.LogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagDNN, "dnn", envCfg.PreferDNN, "Prefer deep-learning backends when their model files are present")
	rootCmd.PersistentFlags().BoolVar(&flagGPU, "gpu", envCfg.UseGPU, "Use accelerator preprocessing for encodings when available")
}

// newDetector builds an initialized detector from the persistent flags
// plus per-command overrides. The caller owns the Close.
func newDetector(confidence float64, escalate, hifi bool) (*detect.Detector, error) {
	cfg := detect.DefaultConfig()
	cfg.ConfidenceThreshold = confidence
	cfg.EnableEscalation = escalate
	cfg.Encoder.HighFidelity = hifi
	cfg.Encoder.UseAccelerator = flagGPU

	d := detect.New(cfg)
	if err := d.Initialize(flagModelDir, flagDNN); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}
