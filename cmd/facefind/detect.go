package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facefind/internal/config"
	"github.com/teslashibe/go-facefind/pkg/detect"
)

var detectOpts struct {
	input      string
	jsonPath   string
	annotated  string
	confidence float64
	escalate   bool
	hifi       bool
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect faces in a single image",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDetect()
	},
}

func init() {
	detectCmd.Flags().StringVarP(&detectOpts.input, "input", "i", "", "Path to the image file")
	detectCmd.Flags().StringVarP(&detectOpts.jsonPath, "json", "j", "", "Write the full result as JSON ('-' for stdout)")
	detectCmd.Flags().StringVarP(&detectOpts.annotated, "annotate", "a", "", "Write a copy of the image with detections drawn")
	detectCmd.Flags().Float64VarP(&detectOpts.confidence, "confidence", "c", config.DefaultConfidence, "Base acceptance threshold")
	detectCmd.Flags().BoolVar(&detectOpts.escalate, "escalate", false, "Rescan zoomed regions when the frame looks sparse")
	detectCmd.Flags().BoolVar(&detectOpts.hifi, "hifi", false, "High-fidelity encodings (slower)")

	detectCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(detectCmd)
}

func runDetect() error {
	img := gocv.IMRead(detectOpts.input, gocv.IMReadColor)
	if img.Empty() {
		return fmt.Errorf("cannot read image: %s", detectOpts.input)
	}
	defer img.Close()

	d, err := newDetector(detectOpts.confidence, detectOpts.escalate, detectOpts.hifi)
	if err != nil {
		return err
	}
	defer d.Close()

	res := d.Detect(img)
	if !res.Success {
		return fmt.Errorf("detection failed: %s", res.Error)
	}

	fmt.Fprintf(os.Stderr, "%d face(s) in %dms using the %s backend\n",
		len(res.Faces), res.ProcessingTimeMs, d.BackendKind())
	for i, f := range res.Faces {
		fmt.Fprintf(os.Stderr, "  %2d: %dx%d at (%d,%d), confidence %.2f\n",
			i+1, f.Box.Dx(), f.Box.Dy(), f.Box.Min.X, f.Box.Min.Y, f.Confidence)
	}

	if detectOpts.jsonPath != "" {
		if err := writeJSON(detectOpts.jsonPath, res); err != nil {
			return err
		}
	}
	if detectOpts.annotated != "" {
		drawDetections(&img, res.Faces)
		if ok := gocv.IMWrite(detectOpts.annotated, img); !ok {
			return fmt.Errorf("cannot write annotated image: %s", detectOpts.annotated)
		}
		fmt.Fprintf(os.Stderr, "annotated copy written to %s\n", detectOpts.annotated)
	}
	return nil
}

// writeJSON writes v indented to path, or to stdout when path is "-".
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// drawDetections marks each face box, its landmarks, and the
// confidence score on the image.
func drawDetections(img *gocv.Mat, faces []detect.DetectedFace) {
	green := color.RGBA{0, 255, 0, 255}
	for _, f := range faces {
		gocv.Rectangle(img, f.Box, green, 2)
		gocv.PutText(img, fmt.Sprintf("%.2f", f.Confidence),
			image.Pt(f.Box.Min.X, f.Box.Min.Y-6), gocv.FontHersheyPlain, 1.2, green, 2)
		for _, pt := range f.Landmarks {
			gocv.Circle(img, pt, 2, green, -1)
		}
	}
}
