package sketch

import (
	"errors"
	"image"
	"runtime"
	"testing"
)

func TestCanny_UniformImage(t *testing.T) {
	// Uniform image should have no edges
	edges := Canny(constGray(50, 50, 128), 30, 100)
	if n := countValue(edges, 0); n != len(edges.Pix) {
		t.Errorf("uniform image produced %d edge pixels", len(edges.Pix)-n)
	}
}

func TestCanny_StrongEdge(t *testing.T) {
	src := createGray(100, 100, func(x, _ int) uint8 {
		if x < 50 {
			return 0
		}
		return 255
	})
	edges := Canny(src, 30, 100)

	for y := 0; y < 100; y++ {
		found := 0
		for x := 0; x < 100; x++ {
			if edges.GrayAt(x, y).Y == 255 {
				if x < 48 || x > 52 {
					t.Fatalf("edge far from the step at (%d,%d)", x, y)
				}
				found++
			}
		}
		// Non-maximum suppression keeps the line one pixel wide.
		if found != 1 {
			t.Fatalf("row %d: got %d edge pixels, want 1", y, found)
		}
	}
}

func TestCanny_BelowThreshold(t *testing.T) {
	// A step of 10 gives an L1 magnitude of 40, below the high threshold.
	src := createGray(40, 40, func(x, _ int) uint8 {
		if x < 20 {
			return 100
		}
		return 110
	})
	if n := 40*40 - countValue(Canny(src, 30, 100), 0); n != 0 {
		t.Errorf("weak step produced %d edge pixels at (30,100)", n)
	}
	if n := 40*40 - countValue(Canny(src, 10, 30), 0); n == 0 {
		t.Error("weak step produced no edges at (10,30)")
	}
}

func TestCanny_Hysteresis(t *testing.T) {
	// One strong step row-band and one weak step; the weak step touches the
	// strong one only through the shared column.
	src := createGray(60, 60, func(x, y int) uint8 {
		switch {
		case x < 30:
			return 50
		case y < 30:
			return 250 // strong step at x=30 in the upper half
		default:
			return 62 // weak step at x=30 in the lower half
		}
	})
	edges := Canny(src, 20, 100)

	// The weak lower half is linked through the strong upper half.
	if edges.GrayAt(29, 50).Y != 255 {
		t.Error("weak edge connected to a strong edge was not promoted")
	}

	isolated := createGray(60, 60, func(x, _ int) uint8 {
		if x < 30 {
			return 50
		}
		return 62
	})
	if n := 60*60 - countValue(Canny(isolated, 20, 100), 0); n != 0 {
		t.Errorf("isolated weak edge kept %d pixels", n)
	}
}

func TestCanny_SwapsThresholds(t *testing.T) {
	src := ToGrayscale(createEdgeTestImage(40, 40))
	a := Canny(src, 100, 30)
	b := Canny(src, 30, 100)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("pixel %d differs with swapped thresholds", i)
		}
	}
}

func TestCanny_LowerThresholdsAreDenser(t *testing.T) {
	gray := ToGrayscale(createPhotoLikeImage(160, 200))
	contrast, err := Enhance(gray, 2.0, image.Pt(8, 8))
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	smoothed := Smooth(contrast, 9, 75, 75)

	sparse := Canny(smoothed, 30, 100)
	dense := Canny(smoothed, 10, 70)

	for i := range sparse.Pix {
		if sparse.Pix[i] == 255 && dense.Pix[i] != 255 {
			t.Fatalf("pixel %d is an edge at (30,100) but not at (10,70)", i)
		}
	}
	if countValue(dense, 255) < countValue(sparse, 255) {
		t.Errorf("dense layer has fewer edges: %d < %d", countValue(dense, 255), countValue(sparse, 255))
	}
}

func TestCanny_SmallImage(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {1, 5}, {5, 1}, {2, 2}} {
		edges := Canny(constGray(size[0], size[1], 10), 10, 20)
		if edges.Bounds().Dx() != size[0] || edges.Bounds().Dy() != size[1] {
			t.Errorf("%v: got bounds %v", size, edges.Bounds())
		}
	}
}

func TestExtractEdges(t *testing.T) {
	src := ToGrayscale(createEdgeTestImage(80, 80))
	layer1, layer2, err := ExtractEdges(src, DefaultParams().Edges)
	if err != nil {
		t.Fatalf("ExtractEdges failed: %v", err)
	}

	for name, layer := range map[string]*image.Gray{"layer1": layer1, "layer2": layer2} {
		if layer.Bounds() != src.Bounds() {
			t.Errorf("%s bounds: got %v, want %v", name, layer.Bounds(), src.Bounds())
		}
		dark := countValue(layer, 0)
		light := countValue(layer, 255)
		if dark+light != len(layer.Pix) {
			t.Errorf("%s is not binary", name)
		}
		if dark == 0 {
			t.Errorf("%s has no lines", name)
		}
		if light < dark {
			t.Errorf("%s: lines (%d) should be dark on a light background (%d)", name, dark, light)
		}
	}
	if countDark(layer2) < countDark(layer1) {
		t.Errorf("layer2 (%d) sparser than layer1 (%d)", countDark(layer2), countDark(layer1))
	}
}

func TestExtractEdges_UniformIsBlank(t *testing.T) {
	layer1, layer2, err := ExtractEdges(constGray(30, 30, 255), DefaultParams().Edges)
	if err != nil {
		t.Fatalf("ExtractEdges failed: %v", err)
	}
	if countValue(layer1, 255) != 900 || countValue(layer2, 255) != 900 {
		t.Error("uniform input should give all-white layers")
	}
}

func TestExtractEdges_DegenerateParameter(t *testing.T) {
	tests := []struct {
		name  string
		pairs [2]EdgeThresholdPair
	}{
		{"high below low", [2]EdgeThresholdPair{{Low: 100, High: 30}, {Low: 10, High: 70}}},
		{"negative", [2]EdgeThresholdPair{{Low: 30, High: 100}, {Low: -1, High: 70}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ExtractEdges(constGray(8, 8, 0), tt.pairs)
			if !errors.Is(err, ErrDegenerateParameter) {
				t.Errorf("got %v, want ErrDegenerateParameter", err)
			}
		})
	}
}

func TestSobel_FullRangeStep(t *testing.T) {
	// Black left half, white right half: the steepest possible step.
	src := createGray(8, 4, func(x, _ int) uint8 {
		if x >= 4 {
			return 255
		}
		return 0
	})
	gx, gy, mag := sobel(src)
	for y := 0; y < 4; y++ {
		i := y*8 + 4
		if gx[i] != 1020 || gy[i] != 0 || mag[i] != 1020 {
			t.Errorf("row %d at the step: gx=%d gy=%d mag=%d, want 1020 0 1020", y, gx[i], gy[i], mag[i])
		}
	}

	// Inverted step gives the most negative derivative.
	gx, _, mag = sobel(Invert(src))
	if gx[4] != -1020 || mag[4] != 1020 {
		t.Errorf("inverted step: gx=%d mag=%d, want -1020 1020", gx[4], mag[4])
	}
}

func TestSobel_CompactBuffers(t *testing.T) {
	const w, h = 1000, 1000
	src := constGray(w, h, 128)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	sobel(src)
	runtime.ReadMemStats(&after)

	// Two int16 planes and one int32 plane: 8 bytes per pixel.
	if got, limit := after.TotalAlloc-before.TotalAlloc, uint64(12*w*h); got > limit {
		t.Errorf("sobel allocated %d bytes for %dx%d, want at most %d", got, w, h, limit)
	}
}
