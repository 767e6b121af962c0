package sketch

import (
	"image"
	"math"
	"sync"

	"github.com/anthonynsimon/bild/parallel"
)

// tan(22.5°) in Q15 fixed point.
const tan22Q15 = 13573

const (
	edgeNone uint8 = iota
	edgeWeak
	edgeStrong
)

// Canny detects edges in a grayscale raster and returns a map with edges at
// 255 and background at 0.
//
// # Algorithm
//
//  1. Gradients: 3x3 Sobel in X and Y with replicated borders. The magnitude
//     is the L1 norm |gx| + |gy|.
//
//  2. Non-maximum suppression: the gradient direction is quantised to
//     horizontal, vertical or one of the two diagonals (boundaries at
//     22.5° and 67.5°, computed in Q15 integers) and a pixel survives only
//     if its magnitude is a local maximum across the edge. Magnitudes
//     outside the raster count as zero.
//
//  3. Hysteresis: surviving pixels with magnitude > high are edges and seed
//     an 8-connected flood fill through surviving pixels with magnitude
//     > low. Everything else is suppressed.
//
// Thresholds are floored to integers. If low > high they are swapped.
// No smoothing is done here; callers pass an already denoised raster.
func Canny(gray *image.Gray, low, high float64) *image.Gray {
	src := originGray(gray)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	if low > high {
		low, high = high, low
	}
	lo, hi := int(math.Floor(low)), int(math.Floor(high))

	gx, gy, mag := sobel(src)
	magAt := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return int(mag[y*w+x])
	}

	state := make([]uint8, w*h)
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				m := int(mag[i])
				if m <= lo {
					continue
				}
				xs, ys := int(gx[i]), int(gy[i])
				ax := absInt(xs)
				ay := absInt(ys) << 15
				tg22x := ax * tan22Q15

				var keep bool
				if ay < tg22x {
					keep = m > magAt(x-1, y) && m >= magAt(x+1, y)
				} else if tg67x := tg22x + ax<<16; ay > tg67x {
					keep = m > magAt(x, y-1) && m >= magAt(x, y+1)
				} else {
					s := 1
					if xs^ys < 0 {
						s = -1
					}
					keep = m > magAt(x-s, y-1) && m > magAt(x+s, y+1)
				}
				if !keep {
					continue
				}
				if m > hi {
					state[i] = edgeStrong
				} else {
					state[i] = edgeWeak
				}
			}
		}
	})

	stack := make([]int, 0, 1024)
	for i, s := range state {
		if s == edgeStrong {
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out.Pix[(i/w)*out.Stride+i%w] = 255

		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			ny := y + dy
			if ny < 0 || ny >= h {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				nx := x + dx
				if nx < 0 || nx >= w {
					continue
				}
				j := ny*w + nx
				if state[j] == edgeWeak {
					state[j] = edgeStrong
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}

// sobel computes 3x3 Sobel derivatives with replicated borders and their
// L1 magnitude. Derivatives of 8-bit input stay within ±1020, so they fit
// int16; the magnitude is at most 2040.
func sobel(src *image.Gray) (gx, gy []int16, mag []int32) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	gx = make([]int16, w*h)
	gy = make([]int16, w*h)
	mag = make([]int32, w*h)

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			up := src.Pix[replicate(y-1, h)*src.Stride:]
			mid := src.Pix[y*src.Stride:]
			down := src.Pix[replicate(y+1, h)*src.Stride:]
			for x := 0; x < w; x++ {
				l, r := replicate(x-1, w), replicate(x+1, w)
				dx := int(up[r]) + 2*int(mid[r]) + int(down[r]) -
					int(up[l]) - 2*int(mid[l]) - int(down[l])
				dy := int(down[l]) + 2*int(down[x]) + int(down[r]) -
					int(up[l]) - 2*int(up[x]) - int(up[r])
				i := y*w + x
				gx[i], gy[i] = int16(dx), int16(dy)
				mag[i] = int32(absInt(dx) + absInt(dy))
			}
		}
	})
	return gx, gy, mag
}

// ExtractEdges runs one Canny pass per threshold pair over the smoothed
// raster and inverts each edge map so lines are dark on white. With the
// default pairs, layer1 (30,100) is the sparser sheet and layer2 (10,70)
// the denser one.
func ExtractEdges(smoothed *image.Gray, pairs [2]EdgeThresholdPair) (layer1, layer2 *image.Gray, err error) {
	for _, p := range pairs {
		if err := p.Validate(); err != nil {
			return nil, nil, err
		}
	}
	layers := runEdgePasses(smoothed, pairs, func(g *image.Gray, low, high float64) (*image.Gray, error) {
		return Canny(g, low, high), nil
	})
	if layers.err != nil {
		return nil, nil, layers.err
	}
	return layers.edges[0], layers.edges[1], nil
}

type edgePasses struct {
	edges [2]*image.Gray
	err   error
}

// runEdgePasses runs both detector passes concurrently and inverts them.
func runEdgePasses(smoothed *image.Gray, pairs [2]EdgeThresholdPair, detect func(*image.Gray, float64, float64) (*image.Gray, error)) edgePasses {
	var (
		res  edgePasses
		errs [2]error
		wg   sync.WaitGroup
	)
	for i := range pairs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := detect(smoothed, pairs[i].Low, pairs[i].High)
			if err != nil {
				errs[i] = err
				return
			}
			res.edges[i] = Invert(e)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			res.err = err
			break
		}
	}
	return res
}
