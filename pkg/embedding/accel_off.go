//go:build !cuda

package embedding

import "gocv.io/x/gocv"

// AcceleratorAvailable reports whether a CUDA device is present.
// Builds without the cuda tag never offer the accelerator path.
func AcceleratorAvailable() bool {
	return false
}

type accelContext struct{}

func newAccelContext() *accelContext {
	return nil
}

func (a *accelContext) Close() {}

func (a *accelContext) preprocess(face gocv.Mat, side int, dst *gocv.Mat) {}
