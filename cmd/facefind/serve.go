package main

import (
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-facefind/internal/log"
	"github.com/teslashibe/go-facefind/pkg/detect"
	"github.com/teslashibe/go-facefind/pkg/session"
	"github.com/teslashibe/go-facefind/pkg/stream"
	"github.com/teslashibe/go-facefind/pkg/tuning"
	"github.com/teslashibe/go-facefind/pkg/web"
)

var serveOpts struct {
	port      string
	streamURL string
	preset    string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the detection HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveOpts.port, "port", "p", envCfg.Port, "Port to listen on")
	serveCmd.Flags().StringVar(&serveOpts.streamURL, "stream", "", "WebSocket URL of a frame source to ingest continuously")
	serveCmd.Flags().StringVar(&serveOpts.preset, "preset", "", "Tuning preset to apply at startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command) error {
	cfg := detect.DefaultConfig()
	cfg.ConfidenceThreshold = envCfg.Confidence
	cfg.DedupIoU = envCfg.DedupIoU
	cfg.EnableEscalation = envCfg.Escalation
	cfg.Encoder.HighFidelity = envCfg.HighFidelity
	cfg.Encoder.UseAccelerator = flagGPU

	d := detect.New(cfg)
	if err := d.Initialize(flagModelDir, flagDNN); err != nil {
		d.Close()
		return err
	}
	defer d.Close()

	tuner := tuning.NewManager()
	srv := web.NewServer(web.Options{
		Port:     serveOpts.port,
		Detector: d,
		Tuner:    tuner,
		Store:    session.NewStore(),
		ModelDir: flagModelDir,
	})

	if serveOpts.preset != "" {
		if err := tuner.UpdateConfig(map[string]interface{}{"preset": serveOpts.preset}); err != nil {
			return err
		}
		log.Info("applied tuning preset", "preset", serveOpts.preset)
	}

	if serveOpts.streamURL != "" {
		client := stream.NewClient(stream.DefaultConfig(serveOpts.streamURL))
		client.OnFrame(srv.IngestFrame)
		go client.Run(cmd.Context())
		log.Info("ingesting frames", "url", serveOpts.streamURL)
	}

	srv.StartAsync()

	<-cmd.Context().Done()
	log.Info("shutting down")
	return srv.Shutdown()
}
