// Package opencv provides a sketch.Engine backed by OpenCV through gocv.
//
// The engine is only compiled with the gocv build tag, which needs a local
// OpenCV 4 installation:
//
//	go build -tags gocv ./...
//
// Without the tag this package is empty and callers fall back to
// sketch.GoEngine.
package opencv
