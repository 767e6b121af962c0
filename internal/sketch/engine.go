package sketch

import "image"

// Engine runs the numeric stages of the pipeline. The pure-Go GoEngine is
// the default; internal/sketch/opencv provides an OpenCV-backed engine for
// builds with the gocv tag.
//
// Implementations must not retain or mutate their inputs and must be safe
// for concurrent use, since the edge and shading branches call into the same
// engine from different goroutines.
type Engine interface {
	Name() string
	Grayscale(img *image.NRGBA) (*image.Gray, error)
	Enhance(gray *image.Gray, clipLimit float64, tiles image.Point) (*image.Gray, error)
	Smooth(gray *image.Gray, diameter int, sigmaColor, sigmaSpace float64) (*image.Gray, error)
	Canny(gray *image.Gray, low, high float64) (*image.Gray, error)
	Shade(gray *image.Gray, params ShadingParams) (*image.Gray, error)
}

// GoEngine implements Engine with the functions of this package.
type GoEngine struct{}

func (GoEngine) Name() string { return "go" }

func (GoEngine) Grayscale(img *image.NRGBA) (*image.Gray, error) {
	return ToGrayscale(img), nil
}

func (GoEngine) Enhance(gray *image.Gray, clipLimit float64, tiles image.Point) (*image.Gray, error) {
	return Enhance(gray, clipLimit, tiles)
}

func (GoEngine) Smooth(gray *image.Gray, diameter int, sigmaColor, sigmaSpace float64) (*image.Gray, error) {
	return Smooth(gray, diameter, sigmaColor, sigmaSpace), nil
}

func (GoEngine) Canny(gray *image.Gray, low, high float64) (*image.Gray, error) {
	return Canny(gray, low, high), nil
}

func (GoEngine) Shade(gray *image.Gray, params ShadingParams) (*image.Gray, error) {
	return SynthesizeShading(gray, params)
}
