package sketch

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// Smooth applies a bilateral filter: every pixel becomes the weighted mean of
// its circular neighbourhood, where each neighbour's weight is
//
//	exp(-d²/2σs²) · exp(-Δ²/2σc²)
//
// for spatial distance d and intensity difference Δ. Flat texture is
// averaged away while strong steps keep their contrast.
//
// The window radius is diameter/2. When diameter <= 0 the radius is
// round(1.5·sigmaSpace). Non-positive sigmas are treated as 1. Borders are
// mirrored (reflect-101).
func Smooth(gray *image.Gray, diameter int, sigmaColor, sigmaSpace float64) *image.Gray {
	src := originGray(gray)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	if sigmaColor <= 0 {
		sigmaColor = 1
	}
	if sigmaSpace <= 0 {
		sigmaSpace = 1
	}
	radius := diameter / 2
	if diameter <= 0 {
		radius = int(math.Round(sigmaSpace * 1.5))
	}
	if radius < 1 {
		radius = 1
	}

	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)

	var colorWeight [256]float64
	for i := range colorWeight {
		colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	type tap struct {
		dx, dy int
		weight float64
	}
	taps := make([]tap, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math.Sqrt(float64(dx*dx + dy*dy))
			if r > float64(radius) {
				continue
			}
			taps = append(taps, tap{dx: dx, dy: dy, weight: math.Exp(r * r * spaceCoeff)})
		}
	}

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			interior := y >= radius && y < h-radius
			for x := 0; x < w; x++ {
				center := int(src.Pix[y*src.Stride+x])
				var sum, wsum float64
				if interior && x >= radius && x < w-radius {
					base := y*src.Stride + x
					for _, t := range taps {
						v := int(src.Pix[base+t.dy*src.Stride+t.dx])
						wt := t.weight * colorWeight[absInt(v-center)]
						sum += float64(v) * wt
						wsum += wt
					}
				} else {
					for _, t := range taps {
						sy := reflect101(y+t.dy, h)
						sx := reflect101(x+t.dx, w)
						v := int(src.Pix[sy*src.Stride+sx])
						wt := t.weight * colorWeight[absInt(v-center)]
						sum += float64(v) * wt
						wsum += wt
					}
				}
				dst.Pix[y*dst.Stride+x] = saturate(sum / wsum)
			}
		}
	})
	return dst
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
