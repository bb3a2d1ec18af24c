//go:build cuda

package embedding

import (
	"image"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/cuda"
)

// AcceleratorAvailable reports whether a CUDA device is present.
func AcceleratorAvailable() bool {
	return cuda.GetCudaEnabledDeviceCount() > 0
}

// accelContext owns the device stream for one encoder. Every device
// memory operation for the instance goes through this single stream;
// the caller serializes access.
type accelContext struct {
	stream cuda.Stream
}

func newAccelContext() *accelContext {
	return &accelContext{stream: cuda.NewStream()}
}

func (a *accelContext) Close() {
	a.stream.Close()
}

// preprocess resizes and grayscales the face region on the device and
// downloads the result for the host feature pass. Blocks until the
// copy back completes.
func (a *accelContext) preprocess(face gocv.Mat, side int, dst *gocv.Mat) {
	src := cuda.NewGpuMat()
	defer src.Close()
	src.UploadWithStream(face, a.stream)

	resized := cuda.NewGpuMat()
	defer resized.Close()
	cuda.ResizeWithStream(src, &resized, image.Pt(side, side), 0, 0, gocv.InterpolationLinear, a.stream)

	gray := cuda.NewGpuMat()
	defer gray.Close()
	out := resized
	if face.Channels() > 1 {
		cuda.CvtColorWithStream(resized, &gray, gocv.ColorBGRToGray, a.stream)
		out = gray
	}

	out.DownloadWithStream(dst, a.stream)
	a.stream.WaitForCompletion()
}
