package sketch

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// Small binomial kernels used when the sigma is derived from the size.
var fixedGaussian = map[int][]float64{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// GaussianSigma returns the sigma implied by a kernel size when none is
// given: 0.3·((ksize-1)·0.5 - 1) + 0.8.
func GaussianSigma(ksize int) float64 {
	return 0.3*(float64(ksize-1)*0.5-1) + 0.8
}

// GaussianKernel returns a normalised 1-D Gaussian of odd length ksize.
// With sigma <= 0 the sigma comes from GaussianSigma, and sizes up to 7 use
// fixed binomial coefficients.
func GaussianKernel(ksize int, sigma float64) ([]float64, error) {
	if err := validateKernel(ksize); err != nil {
		return nil, err
	}
	if sigma <= 0 {
		if k, ok := fixedGaussian[ksize]; ok {
			return append([]float64(nil), k...), nil
		}
		sigma = GaussianSigma(ksize)
	}

	k := make([]float64, ksize)
	scale := -0.5 / (sigma * sigma)
	var sum float64
	for i := range k {
		x := float64(i - (ksize-1)/2)
		k[i] = math.Exp(scale * x * x)
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k, nil
}

// GaussianBlur convolves the raster with a square ksize x ksize Gaussian,
// separably, with reflect-101 borders.
func GaussianBlur(gray *image.Gray, ksize int, sigma float64) (*image.Gray, error) {
	kernel, err := GaussianKernel(ksize, sigma)
	if err != nil {
		return nil, err
	}
	src := originGray(gray)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst, nil
	}
	half := ksize / 2

	// Horizontal pass keeps full precision for the vertical one.
	tmp := make([]float64, w*h)
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < w; x++ {
				var sum float64
				for k, c := range kernel {
					sum += c * float64(row[reflect101(x+k-half, w)])
				}
				tmp[y*w+x] = sum
			}
		}
	})

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				var sum float64
				for k, c := range kernel {
					sum += c * tmp[reflect101(y+k-half, h)*w+x]
				}
				dst.Pix[y*dst.Stride+x] = saturate(sum)
			}
		}
	})
	return dst, nil
}
