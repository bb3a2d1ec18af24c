// Package models locates and fetches the detection model artifacts.
// Artifacts are discovered by conventional filename under a model
// directory; Haar cascades are additionally looked up in the usual
// OpenCV system locations.
package models

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/teslashibe/go-facefind/internal/httpc"
	"github.com/teslashibe/go-facefind/internal/log"
)

// Conventional artifact filenames.
const (
	SSDProto        = "deploy.prototxt"
	SSDWeights      = "res10_300x300_ssd_iter_140000.caffemodel"
	YuNetONNX       = "face_detection_yunet_2023mar.onnx"
	CascadeAlt      = "haarcascade_frontalface_alt.xml"
	CascadeDefault  = "haarcascade_frontalface_default.xml"
	Facefinder      = "facefinder"
	RecognitionONNX = "face_recognition_sface_2021dec.onnx"
)

// cascadeSystemDirs are tried, in order, after the model directory.
var cascadeSystemDirs = []string{
	"/usr/share/opencv4/haarcascades",
	"/usr/local/share/opencv4/haarcascades",
	"/opt/homebrew/share/opencv4/haarcascades",
}

// downloadURLs maps each artifact to its canonical upstream location.
var downloadURLs = map[string]string{
	SSDProto:        "https://raw.githubusercontent.com/opencv/opencv/master/samples/dnn/face_detector/deploy.prototxt",
	SSDWeights:      "https://raw.githubusercontent.com/opencv/opencv_3rdparty/dnn_samples_face_detector_20170830/res10_300x300_ssd_iter_140000.caffemodel",
	YuNetONNX:       "https://github.com/opencv/opencv_zoo/raw/main/models/face_detection_yunet/face_detection_yunet_2023mar.onnx",
	CascadeAlt:      "https://raw.githubusercontent.com/opencv/opencv/master/data/haarcascades/haarcascade_frontalface_alt.xml",
	CascadeDefault:  "https://raw.githubusercontent.com/opencv/opencv/master/data/haarcascades/haarcascade_frontalface_default.xml",
	Facefinder:      "https://raw.githubusercontent.com/esimov/pigo/master/cascade/facefinder",
	RecognitionONNX: "https://github.com/opencv/opencv_zoo/raw/main/models/face_recognition_sface/face_recognition_sface_2021dec.onnx",
}

// FindSSD returns the Caffe SSD prototxt and weights paths when both
// are present under dir.
func FindSSD(dir string) (proto, weights string, ok bool) {
	proto = filepath.Join(dir, SSDProto)
	weights = filepath.Join(dir, SSDWeights)
	if fileExists(proto) && fileExists(weights) {
		return proto, weights, true
	}
	return "", "", false
}

// FindYuNet returns the YuNet ONNX path when present under dir.
func FindYuNet(dir string) (string, bool) {
	p := filepath.Join(dir, YuNetONNX)
	if fileExists(p) {
		return p, true
	}
	return "", false
}

// FindCascade returns the first Haar cascade found, trying the alt then
// default cascade in the model directory and then the system locations.
func FindCascade(dir string) (string, bool) {
	names := []string{CascadeAlt, CascadeDefault}
	dirs := append([]string{dir}, cascadeSystemDirs...)
	for _, name := range names {
		for _, d := range dirs {
			p := filepath.Join(d, name)
			if fileExists(p) {
				return p, true
			}
		}
	}
	return "", false
}

// FindFacefinder returns the pigo cascade path when present under dir.
func FindFacefinder(dir string) (string, bool) {
	p := filepath.Join(dir, Facefinder)
	if fileExists(p) {
		return p, true
	}
	return "", false
}

// FindRecognition returns the recognition model path when present
// under dir.
func FindRecognition(dir string) (string, bool) {
	p := filepath.Join(dir, RecognitionONNX)
	if fileExists(p) {
		return p, true
	}
	return "", false
}

// Status describes one artifact's availability.
type Status struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Present bool   `json:"present"`
}

// Report lists the availability of every known artifact under dir.
func Report(dir string) []Status {
	out := make([]Status, 0, len(downloadURLs))
	for _, name := range []string{SSDProto, SSDWeights, YuNetONNX, CascadeAlt, CascadeDefault, Facefinder, RecognitionONNX} {
		p := filepath.Join(dir, name)
		if name == CascadeAlt || name == CascadeDefault {
			if found, ok := findInDirs(name, dir); ok {
				out = append(out, Status{Name: name, Path: found, Present: true})
				continue
			}
		}
		out = append(out, Status{Name: name, Path: p, Present: fileExists(p)})
	}
	return out
}

// Ensure downloads any of the named artifacts missing from dir. With no
// names it covers every known artifact.
func Ensure(dir string, names ...string) error {
	if len(names) == 0 {
		names = []string{SSDProto, SSDWeights, YuNetONNX, CascadeAlt, Facefinder}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	for _, name := range names {
		url, known := downloadURLs[name]
		if !known {
			return fmt.Errorf("unknown model artifact %q", name)
		}
		dest := filepath.Join(dir, name)
		if fileExists(dest) {
			continue
		}
		log.Info("downloading model artifact", "name", name, "url", url)
		if err := httpc.DownloadFile(url, dest); err != nil {
			return err
		}
	}
	return nil
}

func findInDirs(name, dir string) (string, bool) {
	for _, d := range append([]string{dir}, cascadeSystemDirs...) {
		p := filepath.Join(d, name)
		if fileExists(p) {
			return p, true
		}
	}
	return "", false
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
