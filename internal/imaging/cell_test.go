package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestCellBounds(t *testing.T) {
	size := image.Pt(2480, 3508)

	tests := []struct {
		name     string
		row, col int
		want     image.Rectangle
	}{
		{"first cell", 0, 0, image.Rect(0, 0, 118, 120)},
		{"second column", 0, 1, image.Rect(118, 0, 236, 120)},
		{"last cell", 28, 20, image.Rect(2361, 3387, 2480, 3508)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CellBounds(size, 29, 21, tt.row, tt.col)
			if err != nil {
				t.Fatalf("CellBounds failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCellBounds_Tiles(t *testing.T) {
	size := image.Pt(101, 67)
	rows, cols := 7, 5

	covered := 0
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			r, err := CellBounds(size, rows, cols, row, col)
			if err != nil {
				t.Fatalf("CellBounds(%d,%d) failed: %v", row, col, err)
			}
			covered += r.Dx() * r.Dy()
			if col+1 < cols {
				next, _ := CellBounds(size, rows, cols, row, col+1)
				if next.Min.X != r.Max.X {
					t.Errorf("gap between (%d,%d) and its right neighbour", row, col)
				}
			}
		}
	}
	if covered != size.X*size.Y {
		t.Errorf("cells cover %d pixels, want %d", covered, size.X*size.Y)
	}
}

func TestCellBounds_OutOfBounds(t *testing.T) {
	size := image.Pt(100, 100)
	for _, rc := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 3}} {
		if _, err := CellBounds(size, 4, 3, rc[0], rc[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("cell %v: got %v, want ErrOutOfBounds", rc, err)
		}
	}
	if _, err := CellBounds(size, 0, 3, 0, 0); err == nil {
		t.Error("expected error for empty grid")
	}
}

func TestCropCell(t *testing.T) {
	img := createQuadrantImage(100, 100)

	cell, err := CropCell(img, 2, 2, 1, 0, 1.0)
	if err != nil {
		t.Fatalf("CropCell failed: %v", err)
	}
	if cell.Bounds() != image.Rect(0, 0, 50, 50) {
		t.Errorf("bounds: got %v, want 50x50 at origin", cell.Bounds())
	}
	// Bottom-left quadrant is blue
	if c := cell.NRGBAAt(25, 25); c != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("center: got %v, want blue", c)
	}
}

func TestCropCell_WithScale(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		scale        float64
		wantW, wantH int
	}{
		{2.0, 100, 100},
		{0.5, 25, 25},
		{0, 50, 50},
		{0.001, 1, 1},
	}

	for _, tt := range tests {
		cell, err := CropCell(img, 2, 2, 0, 1, tt.scale)
		if err != nil {
			t.Fatalf("CropCell(scale=%g) failed: %v", tt.scale, err)
		}
		if cell.Bounds().Dx() != tt.wantW || cell.Bounds().Dy() != tt.wantH {
			t.Errorf("scale %g: got %dx%d, want %dx%d", tt.scale, cell.Bounds().Dx(), cell.Bounds().Dy(), tt.wantW, tt.wantH)
		}
	}
}

func TestCropCell_OffsetImage(t *testing.T) {
	full := createQuadrantImage(100, 100)
	sub := full.SubImage(image.Rect(50, 50, 100, 100))

	// The whole sub-image is the white quadrant.
	cell, err := CropCell(sub, 2, 2, 0, 0, 1.0)
	if err != nil {
		t.Fatalf("CropCell failed: %v", err)
	}
	if c := cell.NRGBAAt(5, 5); c != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("got %v, want white", c)
	}
}

func TestCropCell_Errors(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)

	if _, err := CropCell(img, 2, 2, 2, 0, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("row out of range: got %v, want ErrOutOfBounds", err)
	}
	if _, err := CropCell(img, 20, 20, 0, 0, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("empty cell: got %v, want ErrOutOfBounds", err)
	}
	if _, err := CropCell(img, 2, 2, 0, 0, -1); err == nil {
		t.Error("negative scale: expected error")
	}
}
