package sketch

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/parallel"
)

// BT.601 luminance weights in Q14 fixed point, the same integers OpenCV
// uses for COLOR_BGR2GRAY.
const (
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaShift = 14
	lumaRound = 1 << (lumaShift - 1)
)

// ToGrayscale converts a colour raster to single-channel luminance:
// Y = 0.299 R + 0.587 G + 0.114 B, rounded. Alpha is ignored.
func ToGrayscale(img *image.NRGBA) *image.Gray {
	src := originNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			si := y * src.Stride
			di := y * dst.Stride
			for x := 0; x < w; x++ {
				o := si + 4*x
				v := (int(src.Pix[o])*lumaR + int(src.Pix[o+1])*lumaG + int(src.Pix[o+2])*lumaB + lumaRound) >> lumaShift
				dst.Pix[di+x] = uint8(v)
			}
		}
	})
	return dst
}

// Invert returns 255 - v for every pixel.
func Invert(gray *image.Gray) *image.Gray {
	src := originGray(gray)
	dst := image.NewGray(src.Rect)
	for i, v := range src.Pix {
		dst.Pix[i] = 255 - v
	}
	return dst
}

// originNRGBA returns img with tightly packed rows and bounds at (0,0),
// copying only when necessary.
func originNRGBA(img *image.NRGBA) *image.NRGBA {
	if img.Rect.Min == (image.Point{}) && img.Stride == 4*img.Rect.Dx() {
		return img
	}
	out := image.NewNRGBA(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()))
	draw.Draw(out, out.Rect, img, img.Rect.Min, draw.Src)
	return out
}

// originGray is originNRGBA for single-channel rasters.
func originGray(img *image.Gray) *image.Gray {
	if img.Rect.Min == (image.Point{}) && img.Stride == img.Rect.Dx() {
		return img
	}
	out := image.NewGray(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()))
	draw.Draw(out, out.Rect, img, img.Rect.Min, draw.Src)
	return out
}

// uniformGray allocates a w x h raster filled with v.
func uniformGray(w, h int, v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	if v != 0 {
		draw.Draw(g, g.Rect, &image.Uniform{C: color.Gray{Y: v}}, image.Point{}, draw.Src)
	}
	return g
}
