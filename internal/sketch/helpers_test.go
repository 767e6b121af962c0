package sketch

import (
	"image"
	"image/color"
	"math"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createEdgeTestImage creates an image with a black rectangle on white background
// to create clear edges for testing
func createEdgeTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	for y := height / 4; y < 3*height/4; y++ {
		for x := width / 4; x < 3*width/4; x++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

// createPhotoLikeImage builds a deterministic colour image with smooth
// gradients, a few hard shapes and fine texture.
func createPhotoLikeImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			fx, fy := float64(x)/float64(width), float64(y)/float64(height)
			base := 60 + 120*fx + 40*math.Sin(fy*9)
			texture := 12 * math.Sin(float64(x)*1.7) * math.Cos(float64(y)*1.3)
			v := base + texture
			dx, dy := fx-0.5, fy-0.4
			if dx*dx+dy*dy < 0.04 {
				v = 230 + texture
			}
			if x > width*2/3 && y > height*2/3 {
				v = 20 + texture/2
			}
			img.Set(x, y, color.NRGBA{
				R: clampTest(v * 1.1),
				G: clampTest(v),
				B: clampTest(v * 0.8),
				A: 255,
			})
		}
	}
	return img
}

// createGray creates a gray raster from a per-pixel function.
func createGray(width, height int, f func(x, y int) uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.Pix[y*g.Stride+x] = f(x, y)
		}
	}
	return g
}

func constGray(width, height int, v uint8) *image.Gray {
	return createGray(width, height, func(int, int) uint8 { return v })
}

// countValue counts pixels equal to v.
func countValue(g *image.Gray, v uint8) int {
	n := 0
	for _, p := range g.Pix {
		if p == v {
			n++
		}
	}
	return n
}

// countDark counts pixels below the midpoint, i.e. lines on an inverted layer.
func countDark(g *image.Gray) int {
	n := 0
	for _, p := range g.Pix {
		if p < 128 {
			n++
		}
	}
	return n
}

func grayRange(g *image.Gray) (lo, hi uint8) {
	lo, hi = 255, 0
	for _, p := range g.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return lo, hi
}

func clampTest(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
