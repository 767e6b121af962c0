//go:build gocv

package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/trace-sketch-mcp/internal/sketch"
)

// Engine runs the numeric stages through OpenCV.
type Engine struct{}

// New returns an OpenCV engine.
func New() Engine { return Engine{} }

func (Engine) Name() string { return "opencv" }

func (Engine) Grayscale(img *image.NRGBA) (*image.Gray, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	bgr := make([]byte, 0, w*h*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < w; x++ {
			bgr = append(bgr, row[4*x+2], row[4*x+1], row[4*x])
		}
	}
	src, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, bgr)
	if err != nil {
		return nil, fmt.Errorf("failed to create colour Mat: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	return toGray(dst, w, h)
}

func (Engine) Enhance(gray *image.Gray, clipLimit float64, tiles image.Point) (*image.Gray, error) {
	if tiles.X <= 0 || tiles.Y <= 0 || clipLimit < 0 {
		return nil, fmt.Errorf("%w: clip %g tiles %v", sketch.ErrDegenerateParameter, clipLimit, tiles)
	}
	return apply(gray, func(src gocv.Mat, dst *gocv.Mat) {
		clahe := gocv.NewCLAHEWithParams(clipLimit, tiles)
		defer clahe.Close()
		clahe.Apply(src, dst)
	})
}

func (Engine) Smooth(gray *image.Gray, diameter int, sigmaColor, sigmaSpace float64) (*image.Gray, error) {
	return apply(gray, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.BilateralFilter(src, dst, diameter, sigmaColor, sigmaSpace)
	})
}

func (Engine) Canny(gray *image.Gray, low, high float64) (*image.Gray, error) {
	return apply(gray, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.Canny(src, dst, float32(low), float32(high))
	})
}

func (Engine) Shade(gray *image.Gray, params sketch.ShadingParams) (*image.Gray, error) {
	k := params.KernelSize
	if k <= 0 || k%2 == 0 {
		return nil, fmt.Errorf("%w: blur kernel size %d", sketch.ErrDegenerateParameter, k)
	}
	blurred, err := apply(gray, func(src gocv.Mat, dst *gocv.Mat) {
		inv := gocv.NewMat()
		defer inv.Close()
		gocv.BitwiseNot(src, &inv)
		gocv.GaussianBlur(inv, dst, image.Pt(k, k), params.Sigma, params.Sigma, gocv.BorderDefault)
	})
	if err != nil {
		return nil, err
	}
	// cv::divide returns 0 on a zero denominator; DodgeBlend keeps the
	// page white there instead.
	dodged, err := sketch.DodgeBlend(gray, blurred)
	if err != nil {
		return nil, err
	}
	return apply(dodged, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.EqualizeHist(src, dst)
	})
}

// apply runs op on a single-channel Mat copy of gray.
func apply(gray *image.Gray, op func(src gocv.Mat, dst *gocv.Mat)) (*image.Gray, error) {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: raster %dx%d", sketch.ErrInvalidDimension, w, h)
	}
	buf := make([]byte, 0, w*h)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := gray.PixOffset(b.Min.X, y)
		buf = append(buf, gray.Pix[off:off+w]...)
	}
	src, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create gray Mat: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	op(src, &dst)
	return toGray(dst, w, h)
}

func toGray(m gocv.Mat, w, h int) (*image.Gray, error) {
	if m.Empty() || m.Rows() != h || m.Cols() != w || m.Channels() != 1 {
		return nil, fmt.Errorf("unexpected OpenCV output %dx%dx%d", m.Cols(), m.Rows(), m.Channels())
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	copy(out.Pix, m.ToBytes())
	return out, nil
}
