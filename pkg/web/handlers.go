package web

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-facefind/pkg/hub"
	"github.com/teslashibe/go-facefind/pkg/models"
	"github.com/teslashibe/go-facefind/pkg/tuning"
)

// StatusResponse is the health and configuration snapshot.
type StatusResponse struct {
	Service       string          `json:"service"`
	Version       string          `json:"version"`
	Initialized   bool            `json:"initialized"`
	Backend       string          `json:"backend"`
	Confidence    float64         `json:"confidence_threshold"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Jobs          int             `json:"jobs"`
	Subscribers   int             `json:"subscribers"`
	Models        []models.Status `json:"models,omitempty"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := StatusResponse{
		Service:       "facefind",
		Version:       Version,
		Initialized:   s.detector.IsInitialized(),
		Backend:       s.detector.BackendKind(),
		Confidence:    s.detector.GetConfidenceThreshold(),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Jobs:          s.store.Len(),
		Subscribers:   s.resultsHub.ClientCount(),
	}
	if s.modelDir != "" {
		resp.Models = models.Report(s.modelDir)
	}
	return c.JSON(resp)
}

// handleDetect accepts an image as a multipart "image" field or as
// the raw request body. With ?async=1 it queues the work and returns
// a job id immediately.
func (s *Server) handleDetect(c *fiber.Ctx) error {
	buf, source, err := imageFromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if c.QueryBool("async") {
		job := s.store.Create(source)
		s.store.MarkRunning(job.ID)
		handle := s.detector.DetectBufferAsync(buf)
		go func() {
			res := handle.Wait()
			s.store.Complete(job.ID, res)
			s.publish(job.ID, source, res)
		}()
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"job_id": job.ID,
			"state":  job.State,
		})
	}

	res := s.detector.DetectBuffer(buf)
	job := s.store.Create(source)
	s.store.Complete(job.ID, res)
	s.publish(job.ID, source, res)
	return c.JSON(res)
}

func (s *Server) handleListJobs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	return c.JSON(s.store.Recent(limit))
}

func (s *Server) handleGetJob(c *fiber.Ctx) error {
	job, ok := s.store.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	return c.JSON(job)
}

func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	return c.JSON(s.tuner.GetConfigJSON())
}

// handleUpdateConfig applies a partial update. Unknown fields are
// ignored; invalid values reject the whole update.
func (s *Server) handleUpdateConfig(c *fiber.Ctx) error {
	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := s.tuner.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.tuner.GetConfigJSON())
}

func (s *Server) handleListPresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"presets": tuning.PresetNames(),
		"configs": tuning.Presets(),
	})
}

func (s *Server) handleApplyPreset(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.tuner.UpdateConfig(map[string]interface{}{"preset": name}); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.tuner.GetConfigJSON())
}

// handleResultsWS streams detection events to a subscriber.
func (s *Server) handleResultsWS(c *websocket.Conn) {
	hub.NewClient(s.resultsHub, c).Run()
}

// handleFramesWS streams raw ingested frames to a subscriber.
func (s *Server) handleFramesWS(c *websocket.Conn) {
	hub.NewClient(s.framesHub, c).Run()
}

// imageFromRequest extracts image bytes from a multipart "image"
// field, falling back to the raw body.
func imageFromRequest(c *fiber.Ctx) ([]byte, string, error) {
	if file, err := c.FormFile("image"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", err
		}
		return data, file.Filename, nil
	}

	body := c.Body()
	if len(body) == 0 {
		return nil, "", errors.New(`no image provided: send a multipart "image" field or a raw body`)
	}
	return body, "body", nil
}
