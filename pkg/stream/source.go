// Package stream ingests frames from remote sources for continuous
// detection. A Client subscribes to a websocket frame feed, keeps the
// most recent frame available for polling, and hands every frame to
// an optional callback for pipeline submission.
package stream

import "time"

// Frame is one encoded image plus its origin.
type Frame struct {
	Data   []byte
	Source string
	At     time.Time
}

// Config holds the frame source settings.
type Config struct {
	// URL is the websocket endpoint publishing binary image frames.
	URL string

	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration

	// ReconnectMin and ReconnectMax bound the retry backoff after a
	// dropped connection.
	ReconnectMin time.Duration
	ReconnectMax time.Duration

	// MaxDimension downscales incoming frames so neither edge
	// exceeds it. Zero disables downscaling.
	MaxDimension int

	// Quality is the JPEG quality for re-encoded downscaled frames.
	Quality int
}

// DefaultConfig returns the standard ingest settings.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		HandshakeTimeout: 10 * time.Second,
		ReconnectMin:     500 * time.Millisecond,
		ReconnectMax:     15 * time.Second,
		MaxDimension:     1280,
		Quality:          85,
	}
}
