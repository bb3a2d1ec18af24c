// Package web exposes the detection service over HTTP: a JSON API for
// one-shot and asynchronous detection, runtime tuning endpoints, and
// websocket feeds for live results and frames.
package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-facefind/internal/log"
	"github.com/teslashibe/go-facefind/pkg/detect"
	"github.com/teslashibe/go-facefind/pkg/hub"
	"github.com/teslashibe/go-facefind/pkg/session"
	"github.com/teslashibe/go-facefind/pkg/stream"
	"github.com/teslashibe/go-facefind/pkg/tuning"
)

// Version is reported by the status endpoint.
const Version = "0.4.1"

// uploadLimit bounds request bodies; full-resolution JPEG frames stay
// comfortably inside it.
const uploadLimit = 25 * 1024 * 1024

// Event is pushed to results subscribers after every processed frame.
type Event struct {
	Type      string                 `json:"type"`
	JobID     string                 `json:"job_id,omitempty"`
	Source    string                 `json:"source,omitempty"`
	Result    detect.DetectionResult `json:"result"`
	Timestamp time.Time              `json:"timestamp"`
}

// Options wires the server to its collaborators. Detector is
// required; nil Tuner and Store get fresh defaults.
type Options struct {
	Port     string
	Detector *detect.Detector
	Tuner    *tuning.Manager
	Store    *session.Store
	ModelDir string
}

// Server is the detection service HTTP front end.
type Server struct {
	app  *fiber.App
	port string

	detector *detect.Detector
	tuner    *tuning.Manager
	store    *session.Store
	modelDir string

	resultsHub *hub.Hub
	framesHub  *hub.Hub

	started time.Time
}

// NewServer builds the service and its routes.
func NewServer(opts Options) *Server {
	s := &Server{
		port:       opts.Port,
		detector:   opts.Detector,
		tuner:      opts.Tuner,
		store:      opts.Store,
		modelDir:   opts.ModelDir,
		resultsHub: hub.New("results"),
		framesHub:  hub.New("frames"),
		started:    time.Now(),
	}
	if s.tuner == nil {
		s.tuner = tuning.NewManager()
	}
	if s.store == nil {
		s.store = session.NewStore()
	}
	s.tuner.OnConfigChange = s.applyTuning

	app := fiber.New(fiber.Config{
		AppName:               "facefind",
		DisableStartupMessage: true,
		BodyLimit:             uploadLimit,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/detect", s.handleDetect)
	api.Get("/jobs", s.handleListJobs)
	api.Get("/jobs/:id", s.handleGetJob)
	api.Get("/config", s.handleGetConfig)
	api.Patch("/config", s.handleUpdateConfig)
	api.Get("/presets", s.handleListPresets)
	api.Post("/presets/:name", s.handleApplyPreset)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/results", websocket.New(s.handleResultsWS))
	app.Get("/ws/frames", websocket.New(s.handleFramesWS))

	s.app = app
	return s
}

// Start runs the hubs and serves until Shutdown.
func (s *Server) Start() error {
	go s.resultsHub.Run()
	go s.framesHub.Run()

	log.Info("service listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("service stopped", "error", err)
		}
	}()
}

// Shutdown stops the listener and disconnects all subscribers.
func (s *Server) Shutdown() error {
	err := s.app.Shutdown()
	s.resultsHub.Stop()
	s.framesHub.Stop()
	return err
}

// IngestFrame runs detection on a streamed frame and publishes the
// result. Register it as a stream client callback; it hands the work
// to the detection pool and returns immediately.
func (s *Server) IngestFrame(f stream.Frame) {
	s.framesHub.BroadcastBinary(f.Data)

	job := s.store.Create(f.Source)
	s.store.MarkRunning(job.ID)
	handle := s.detector.DetectBufferAsync(f.Data)
	go func() {
		res := handle.Wait()
		s.store.Complete(job.ID, res)
		s.publish(job.ID, f.Source, res)
	}()
}

// applyTuning pushes a validated tuning config onto the live detector.
func (s *Server) applyTuning(cfg tuning.Config) error {
	s.detector.SetConfidenceThreshold(cfg.ConfidenceThreshold)
	s.detector.SetDeduplicationThreshold(cfg.DedupIoU)
	s.detector.SetEscalation(cfg.EnableEscalation)
	s.detector.SetEscalationMinFaces(cfg.EscalationMinFaces)
	s.detector.SetEscalationMinConfidence(cfg.EscalationMinConfidence)
	s.detector.SetHighFidelity(cfg.HighFidelity)
	s.detector.UpdateValidator(cfg.Region())
	log.Info("detection config applied",
		"confidence", cfg.ConfidenceThreshold,
		"escalation", cfg.EnableEscalation)
	return nil
}

func (s *Server) publish(jobID, source string, res detect.DetectionResult) {
	s.resultsHub.BroadcastJSON(Event{
		Type:      "detection",
		JobID:     jobID,
		Source:    source,
		Result:    res,
		Timestamp: time.Now(),
	})
}

// ResultsHub exposes the results hub for external publishers.
func (s *Server) ResultsHub() *hub.Hub {
	return s.resultsHub
}

// FramesHub exposes the frames hub for external publishers.
func (s *Server) FramesHub() *hub.Hub {
	return s.framesHub
}
