package imaging

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrOutOfBounds reports a grid cell outside the grid.
var ErrOutOfBounds = errors.New("cell out of bounds")

// CellBounds returns the pixel rectangle of cell (row, col) in a rows x cols
// grid laid over an image of the given size. row and col are 0-based.
//
// Cell edges sit at floor(i*size/n), the same positions OverlayGrid draws,
// so neighbouring cells tile the image without gaps or overlap.
func CellBounds(size image.Point, rows, cols, row, col int) (image.Rectangle, error) {
	if rows <= 0 || cols <= 0 {
		return image.Rectangle{}, fmt.Errorf("invalid grid %dx%d: rows and columns must be positive", rows, cols)
	}
	if row < 0 || row >= rows || col < 0 || col >= cols {
		return image.Rectangle{}, fmt.Errorf("%w: (%d,%d) in a %dx%d grid", ErrOutOfBounds, row, col, rows, cols)
	}
	return image.Rect(
		col*size.X/cols, row*size.Y/rows,
		(col+1)*size.X/cols, (row+1)*size.Y/rows,
	), nil
}

// CropCell extracts one grid cell of img, optionally zoomed.
//
// Parameters:
//   - img: The sheet layer to cut from.
//   - rows, cols: The grid dimensions.
//   - row, col: 0-based cell position.
//   - scale: Zoom factor applied with Lanczos resampling. 1.0 or 0 keeps
//     the native size; negative values are rejected.
func CropCell(img image.Image, rows, cols, row, col int, scale float64) (*image.NRGBA, error) {
	if scale < 0 {
		return nil, fmt.Errorf("invalid scale %g: must not be negative", scale)
	}
	bounds := img.Bounds()
	cell, err := CellBounds(bounds.Size(), rows, cols, row, col)
	if err != nil {
		return nil, err
	}
	if cell.Empty() {
		return nil, fmt.Errorf("%w: cell (%d,%d) is empty at %dx%d", ErrOutOfBounds, row, col, bounds.Dx(), bounds.Dy())
	}

	cropped := imaging.Crop(img, cell.Add(bounds.Min))

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}
	return cropped, nil
}
