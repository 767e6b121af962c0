package sketch

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

const histBins = 256

// Enhance applies contrast-limited adaptive histogram equalization (CLAHE).
//
// The raster is split into tiles.X x tiles.Y tiles. When the size is not a
// multiple of the grid, the image is virtually extended at the bottom and
// right with reflect-101 borders. Each tile histogram is clipped at
// max(int(clipLimit*tileArea/256), 1) counts, the clipped mass is spread
// evenly over all bins (the remainder one count at a time, every
// 256/remainder bins) and turned into an equalization LUT. Output pixels
// blend the LUTs of the four nearest tile centres bilinearly.
//
// A clipLimit of zero disables clipping, which degrades to plain adaptive
// histogram equalization.
func Enhance(gray *image.Gray, clipLimit float64, tiles image.Point) (*image.Gray, error) {
	if err := validateTiles(clipLimit, tiles); err != nil {
		return nil, err
	}
	src := originGray(gray)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: raster %dx%d", ErrInvalidDimension, w, h)
	}

	tilesX, tilesY := tiles.X, tiles.Y
	extW, extH := w, h
	if r := w % tilesX; r != 0 {
		extW += tilesX - r
	}
	if r := h % tilesY; r != 0 {
		extH += tilesY - r
	}
	tileW, tileH := extW/tilesX, extH/tilesY
	tileArea := tileW * tileH

	clip := 0
	if clipLimit > 0 {
		clip = int(clipLimit * float64(tileArea) / histBins)
		if clip < 1 {
			clip = 1
		}
	}
	lutScale := float64(histBins-1) / float64(tileArea)

	luts := make([][histBins]uint8, tilesX*tilesY)
	parallel.Line(len(luts), func(start, end int) {
		var hist [histBins]int
		for t := start; t < end; t++ {
			for i := range hist {
				hist[i] = 0
			}
			x0, y0 := (t%tilesX)*tileW, (t/tilesX)*tileH
			for yy := y0; yy < y0+tileH; yy++ {
				row := src.Pix[reflect101(yy, h)*src.Stride:]
				for xx := x0; xx < x0+tileW; xx++ {
					hist[row[reflect101(xx, w)]]++
				}
			}
			if clip > 0 {
				clipHistogram(&hist, clip)
			}
			sum := 0
			for i, n := range hist {
				sum += n
				luts[t][i] = saturate(float64(sum) * lutScale)
			}
		}
	})

	// Per-column interpolation terms are the same on every row.
	colT1 := make([]int, w)
	colT2 := make([]int, w)
	colA := make([]float64, w)
	invTW := 1.0 / float64(tileW)
	for x := 0; x < w; x++ {
		colT1[x], colT2[x], colA[x] = tileSpan(float64(x)*invTW-0.5, tilesX)
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	invTH := 1.0 / float64(tileH)
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			ty1, ty2, ya := tileSpan(float64(y)*invTH-0.5, tilesY)
			ya1 := 1 - ya
			top, bottom := luts[ty1*tilesX:], luts[ty2*tilesX:]
			srow := src.Pix[y*src.Stride:]
			drow := dst.Pix[y*dst.Stride:]
			for x := 0; x < w; x++ {
				v := srow[x]
				t1, t2, xa := colT1[x], colT2[x], colA[x]
				xa1 := 1 - xa
				res := (float64(top[t1][v])*xa1+float64(top[t2][v])*xa)*ya1 +
					(float64(bottom[t1][v])*xa1+float64(bottom[t2][v])*xa)*ya
				drow[x] = saturate(res)
			}
		}
	})
	return dst, nil
}

// tileSpan returns the two tile indices around the fractional tile
// coordinate f, clamped to [0,n), and the weight of the second one.
func tileSpan(f float64, n int) (t1, t2 int, a float64) {
	t1 = int(math.Floor(f))
	t2 = t1 + 1
	a = f - float64(t1)
	if t1 < 0 {
		t1 = 0
	}
	if t2 >= n {
		t2 = n - 1
	}
	return t1, t2, a
}

// clipHistogram caps every bin at limit and redistributes the excess.
func clipHistogram(hist *[histBins]int, limit int) {
	clipped := 0
	for i, n := range hist {
		if n > limit {
			clipped += n - limit
			hist[i] = limit
		}
	}

	batch := clipped / histBins
	residual := clipped - batch*histBins
	for i := range hist {
		hist[i] += batch
	}
	if residual == 0 {
		return
	}
	step := histBins / residual
	if step < 1 {
		step = 1
	}
	for i := 0; i < histBins && residual > 0; i += step {
		hist[i]++
		residual--
	}
}
