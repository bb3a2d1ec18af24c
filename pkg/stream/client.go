package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-facefind/internal/log"
)

// framePollInterval is how often WaitForFrame rechecks the buffer.
const framePollInterval = 50 * time.Millisecond

// Client maintains a connection to a frame feed, reconnecting with
// backoff when it drops.
type Client struct {
	cfg Config

	mu       sync.RWMutex
	latest   []byte
	latestAt time.Time
	onFrame  func(Frame)
}

// NewClient creates a frame client. Call Run to start ingesting.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// OnFrame registers a callback invoked for every ingested frame. Set
// it before Run; the callback runs on the read loop, so it should
// hand work off rather than block.
func (c *Client) OnFrame(fn func(Frame)) {
	c.mu.Lock()
	c.onFrame = fn
	c.mu.Unlock()
}

// Run connects and ingests frames until ctx is cancelled, redialing
// with exponential backoff after failures. A connection that survived
// a while resets the backoff.
func (c *Client) Run(ctx context.Context) {
	backoff := c.cfg.ReconnectMin
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	for {
		start := time.Now()
		err := c.readOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if time.Since(start) > 10*time.Second {
			backoff = c.cfg.ReconnectMin
		}
		log.Warn("stream disconnected", "url", c.cfg.URL, "error", err, "retry_in", backoff.String())

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if limit := c.cfg.ReconnectMax; limit > 0 && backoff > limit {
			backoff = limit
		}
	}
}

// readOnce dials the feed and consumes frames until the connection
// drops or ctx is cancelled.
func (c *Client) readOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()
	log.Info("stream connected", "url", c.cfg.URL)

	// Closing the connection is what unblocks ReadMessage on cancel.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		if mt != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		c.ingest(data)
	}
}

func (c *Client) ingest(data []byte) {
	if c.cfg.MaxDimension > 0 {
		small, err := Downscale(data, c.cfg.MaxDimension, c.cfg.Quality)
		if err != nil {
			log.Debug("downscale failed, keeping original", "error", err)
		} else {
			data = small
		}
	}

	frame := Frame{Data: data, Source: c.cfg.URL, At: time.Now()}

	c.mu.Lock()
	c.latest = data
	c.latestAt = frame.At
	handler := c.onFrame
	c.mu.Unlock()

	if handler != nil {
		handler(frame)
	}
}

// LatestFrame returns a copy of the most recent frame.
func (c *Client) LatestFrame() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.latest == nil {
		return nil, fmt.Errorf("no frame available")
	}
	frame := make([]byte, len(c.latest))
	copy(frame, c.latest)
	return frame, nil
}

// LastFrameAt reports when the most recent frame arrived.
func (c *Client) LastFrameAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latestAt
}

// WaitForFrame polls until a frame is available or the timeout
// elapses.
func (c *Client) WaitForFrame(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		frame, err := c.LatestFrame()
		if err == nil {
			return frame, nil
		}
		time.Sleep(framePollInterval)
	}
	return nil, fmt.Errorf("timeout waiting for frame")
}
