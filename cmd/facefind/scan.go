package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-facefind/internal/config"
	"github.com/teslashibe/go-facefind/pkg/detect"
)

var scanOpts struct {
	dir        string
	jsonPath   string
	recursive  bool
	confidence float64
	escalate   bool
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a directory of images for faces",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd.Context())
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanOpts.dir, "dir", "d", "", "Directory of images to scan")
	scanCmd.Flags().StringVarP(&scanOpts.jsonPath, "json", "j", "", "Write a per-image JSON report ('-' for stdout)")
	scanCmd.Flags().BoolVarP(&scanOpts.recursive, "recursive", "r", false, "Descend into subdirectories")
	scanCmd.Flags().Float64VarP(&scanOpts.confidence, "confidence", "c", config.DefaultConfidence, "Base acceptance threshold")
	scanCmd.Flags().BoolVar(&scanOpts.escalate, "escalate", false, "Rescan zoomed regions of sparse frames")

	scanCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(scanCmd)
}

// imageExts lists the file extensions the scanner will read.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".webp": true,
}

func runScan(ctx context.Context) error {
	paths, err := collectImages(scanOpts.dir, scanOpts.recursive)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no images found under %s", scanOpts.dir)
	}

	d, err := newDetector(scanOpts.confidence, scanOpts.escalate, false)
	if err != nil {
		return err
	}
	defer d.Close()

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("scanning"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	type pending struct {
		path   string
		handle *detect.Handle
		err    error
	}

	// The submitter runs ahead of the consumer; the detector's own
	// queue applies backpressure once it fills.
	queue := make(chan pending, 8)
	go func() {
		defer close(queue)
		for _, p := range paths {
			if ctx.Err() != nil {
				return
			}
			buf, err := os.ReadFile(p)
			if err != nil {
				queue <- pending{path: p, err: err}
				continue
			}
			queue <- pending{path: p, handle: d.DetectBufferAsync(buf)}
		}
	}()

	report := make(map[string]detect.DetectionResult, len(paths))
	var withFaces, failed, totalFaces int
	for item := range queue {
		var res detect.DetectionResult
		if item.err != nil {
			res = detect.DetectionResult{Error: item.err.Error(), Faces: []detect.DetectedFace{}}
		} else {
			res = item.handle.Wait()
		}
		bar.Add(1)

		report[relPath(scanOpts.dir, item.path)] = res
		switch {
		case !res.Success:
			failed++
		case len(res.Faces) > 0:
			withFaces++
			totalFaces += len(res.Faces)
		}
	}
	bar.Finish()

	fmt.Fprintf(os.Stderr, "\n%d image(s) scanned: %d with faces, %d face(s) total, %d failed\n",
		len(report), withFaces, totalFaces, failed)

	var hits []string
	for rel, res := range report {
		if res.Success && len(res.Faces) > 0 {
			hits = append(hits, fmt.Sprintf("  %s: %d", rel, len(res.Faces)))
		}
	}
	sort.Strings(hits)
	for _, line := range hits {
		fmt.Fprintln(os.Stderr, line)
	}

	if scanOpts.jsonPath != "" {
		return writeJSON(scanOpts.jsonPath, report)
	}
	return nil
}

func collectImages(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if p != dir && !recursive {
				return fs.SkipDir
			}
			return nil
		}
		if imageExts[strings.ToLower(filepath.Ext(p))] {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func relPath(base, p string) string {
	if rel, err := filepath.Rel(base, p); err == nil {
		return rel
	}
	return p
}
