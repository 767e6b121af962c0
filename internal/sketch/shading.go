package sketch

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/anthonynsimon/bild/parallel"
)

// SynthesizeShading turns a plain grayscale raster into a pencil-shading
// rendering: the raster is inverted, blurred, dodge-blended with the
// original and finally equalized.
//
// gray must be the luminance of the normalized canvas, not the contrast
// enhanced or smoothed raster used for edges.
func SynthesizeShading(gray *image.Gray, params ShadingParams) (*image.Gray, error) {
	blurred, err := GaussianBlur(Invert(gray), params.KernelSize, params.Sigma)
	if err != nil {
		return nil, err
	}
	dodged, err := DodgeBlend(gray, blurred)
	if err != nil {
		return nil, err
	}
	return EqualizeHist(dodged), nil
}

// DodgeBlend computes the colour-dodge of base with a blurred inverse:
//
//	out = clamp(round(base·256 / (255 - blurredInverse)), 0, 255)
//
// A zero denominator (blurredInverse = 255) yields 255.
func DodgeBlend(base, blurredInverse *image.Gray) (*image.Gray, error) {
	a, b := originGray(base), originGray(blurredInverse)
	if a.Rect.Size() != b.Rect.Size() {
		return nil, fmt.Errorf("%w: dodge operands %v and %v differ", ErrInvalidDimension, a.Rect.Size(), b.Rect.Size())
	}
	w, h := a.Rect.Dx(), a.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				den := 255 - int(b.Pix[y*b.Stride+x])
				if den == 0 {
					dst.Pix[y*dst.Stride+x] = 255
					continue
				}
				dst.Pix[y*dst.Stride+x] = saturate(float64(a.Pix[y*a.Stride+x]) * 256 / float64(den))
			}
		}
	})
	return dst, nil
}

// EqualizeHist applies global histogram equalization. The darkest present
// level maps to 0 and the cumulative distribution of the remaining pixels is
// stretched to 255. A raster with a single level is returned unchanged.
func EqualizeHist(gray *image.Gray) *image.Gray {
	src := originGray(gray)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	total := w * h
	if total == 0 {
		return image.NewGray(src.Rect)
	}

	bins := histogram.NewRGBAHistogram(src).R.Bins

	first := 0
	for first < len(bins) && bins[first] == 0 {
		first++
	}
	if bins[first] == total {
		return uniformGray(w, h, uint8(first))
	}

	var lut [histBins]uint8
	scale := float64(histBins-1) / float64(total-bins[first])
	sum := 0
	for i := first + 1; i < histBins; i++ {
		sum += bins[i]
		lut[i] = saturate(float64(sum) * scale)
	}

	dst := image.NewGray(src.Rect)
	for i, v := range src.Pix {
		dst.Pix[i] = lut[v]
	}
	return dst
}
