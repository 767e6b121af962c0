package sketch

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Layout describes how a source is placed on the canvas.
type Layout struct {
	// Scale is min(canvasW/srcW, canvasH/srcH).
	Scale float64 `json:"scale"`

	// ScaledWidth and ScaledHeight are the resampled content size.
	ScaledWidth  int `json:"scaled_width"`
	ScaledHeight int `json:"scaled_height"`

	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// Letterbox computes the aspect-preserving placement of a srcW x srcH source
// on the canvas.
//
// The scaled size is floor(src*scale). It is evaluated in integer arithmetic
// so the limiting dimension always lands exactly on the canvas edge. Padding
// is split with top = floor(rem/2) and left = floor(rem/2); an odd leftover
// pixel goes to the bottom or right. A scaled dimension that would round to
// zero is kept at one pixel.
func Letterbox(srcW, srcH int, spec CanvasSpec) (Layout, error) {
	if srcW <= 0 || srcH <= 0 {
		return Layout{}, fmt.Errorf("%w: source %dx%d", ErrInvalidDimension, srcW, srcH)
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return Layout{}, fmt.Errorf("%w: canvas %dx%d", ErrInvalidDimension, spec.Width, spec.Height)
	}

	sw, sh := int64(srcW), int64(srcH)
	tw, th := int64(spec.Width), int64(spec.Height)

	var w, h int64
	if tw*sh <= th*sw {
		w, h = tw, sh*tw/sw
	} else {
		w, h = sw*th/sh, th
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	l := Layout{
		Scale:        math.Min(float64(tw)/float64(sw), float64(th)/float64(sh)),
		ScaledWidth:  int(w),
		ScaledHeight: int(h),
	}
	remW := spec.Width - l.ScaledWidth
	remH := spec.Height - l.ScaledHeight
	l.Left = remW / 2
	l.Right = remW - l.Left
	l.Top = remH / 2
	l.Bottom = remH - l.Top
	return l, nil
}

// Normalize letterboxes src onto the canvas described by spec.
//
// Transparent source pixels are composited over spec.Fill first, so the
// result is always opaque. The output is exactly spec.Width x spec.Height.
func Normalize(src image.Image, spec CanvasSpec) (*image.NRGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidDimension)
	}
	b := src.Bounds()
	layout, err := Letterbox(b.Dx(), b.Dy(), spec)
	if err != nil {
		return nil, err
	}

	fill := spec.Fill
	fill.A = 255

	filter := spec.Resample
	if filter.Kernel == nil {
		filter = imaging.Linear
	}

	flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), fill), src, image.Pt(0, 0), 1.0)
	scaled := imaging.Resize(flat, layout.ScaledWidth, layout.ScaledHeight, filter)

	canvas := imaging.New(spec.Width, spec.Height, fill)
	return imaging.Paste(canvas, scaled, image.Pt(layout.Left, layout.Top)), nil
}
