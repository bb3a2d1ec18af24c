package stream

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Downscale re-encodes an image so neither edge exceeds maxDim,
// preserving aspect ratio. Images already within bounds pass through
// untouched.
func Downscale(data []byte, maxDim, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return data, nil
	}

	resized := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode downscaled frame: %w", err)
	}
	return buf.Bytes(), nil
}
