package sketch

import "errors"

var (
	// ErrInvalidDimension reports an empty source raster or a canvas with a
	// non-positive width or height.
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrDegenerateParameter reports a parameter the pipeline cannot run
	// with: non-positive tile grid, bad blur kernel, inverted or negative
	// edge thresholds, non-positive grid rows/cols.
	ErrDegenerateParameter = errors.New("degenerate parameter")
)
