package stream

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
)

func TestDownscaleLargeFrame(t *testing.T) {
	big := encodeJPEG(t, testImage(2000, 1000))

	small, err := Downscale(big, 1280, 85)
	if err != nil {
		t.Fatalf("downscale: %v", err)
	}

	img, err := imaging.Decode(bytes.NewReader(small))
	if err != nil {
		t.Fatalf("decode downscaled: %v", err)
	}
	b := img.Bounds()
	if b.Dx() > 1280 || b.Dy() > 1280 {
		t.Errorf("downscaled to %dx%d, want both edges <= 1280", b.Dx(), b.Dy())
	}
	// Aspect ratio survives the fit.
	if b.Dx() != 2*b.Dy() {
		t.Errorf("aspect ratio lost: %dx%d", b.Dx(), b.Dy())
	}
}

func TestDownscalePassthroughWhenSmall(t *testing.T) {
	small := encodeJPEG(t, testImage(320, 240))

	out, err := Downscale(small, 1280, 85)
	if err != nil {
		t.Fatalf("downscale: %v", err)
	}
	if !bytes.Equal(out, small) {
		t.Error("in-bounds frame should pass through unchanged")
	}
}

func TestDownscaleCorruptFrame(t *testing.T) {
	if _, err := Downscale([]byte("not an image"), 1280, 85); err == nil {
		t.Error("corrupt frame should error")
	}
}

func TestClientIngestsFrames(t *testing.T) {
	payload := encodeJPEG(t, testImage(320, 240))

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < 3; i++ {
			if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	cfg := DefaultConfig("ws" + strings.TrimPrefix(srv.URL, "http"))
	cfg.MaxDimension = 0
	c := NewClient(cfg)

	var mu sync.Mutex
	var got []Frame
	c.OnFrame(func(f Frame) {
		mu.Lock()
		got = append(got, f)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	frame, err := c.WaitForFrame(2 * time.Second)
	if err != nil {
		t.Fatalf("wait for frame: %v", err)
	}
	if !bytes.Equal(frame, payload) {
		t.Error("latest frame does not match published payload")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 3 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) < 3 {
		t.Errorf("callback saw %d frames, want 3", len(got))
	}
	if got[0].Source != cfg.URL {
		t.Errorf("frame source = %q, want %q", got[0].Source, cfg.URL)
	}
}

func TestLatestFrameBeforeConnect(t *testing.T) {
	c := NewClient(DefaultConfig("ws://127.0.0.1:1/feed"))
	if _, err := c.LatestFrame(); err == nil {
		t.Error("latest frame before any ingest should error")
	}
}

func TestLatestFrameReturnsCopy(t *testing.T) {
	c := NewClient(DefaultConfig("ws://test"))
	c.cfg.MaxDimension = 0
	c.ingest([]byte{1, 2, 3})

	frame, err := c.LatestFrame()
	if err != nil {
		t.Fatalf("latest frame: %v", err)
	}
	frame[0] = 99

	again, _ := c.LatestFrame()
	if again[0] != 1 {
		t.Error("mutating a returned frame must not affect the buffer")
	}
}

func testImage(w, h int) *image.NRGBA {
	img := imaging.New(w, h, color.NRGBA{R: 90, G: 120, B: 170, A: 255})
	for x := 0; x < w; x += 10 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 20, G: 20, B: 20, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}
