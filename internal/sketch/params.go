package sketch

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Default geometry: an A4 page at 300 DPI, padded with white.
const (
	DefaultCanvasWidth  = 2480
	DefaultCanvasHeight = 3508

	DefaultGridRows = 29
	DefaultGridCols = 21
)

// CanvasSpec is the fixed page every source is letterboxed onto.
type CanvasSpec struct {
	// Width and Height of the output canvas in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Fill is the padding colour. Alpha is ignored; the canvas is opaque.
	Fill color.NRGBA `json:"fill"`

	// Resample is the interpolation used to scale the source. A zero value
	// selects imaging.Linear.
	Resample imaging.ResampleFilter `json:"-"`
}

// EnhancementParams configures the contrast enhancer (CLAHE) and the
// edge-preserving smoother (bilateral filter) that feed edge extraction.
type EnhancementParams struct {
	// ClipLimit is the CLAHE clip factor relative to the mean bin count.
	// Zero disables clipping.
	ClipLimit float64 `json:"clip_limit"`

	// TileGrid is the number of CLAHE tiles along X and Y.
	TileGrid image.Point `json:"tile_grid"`

	// Diameter of the bilateral neighbourhood. Values <= 0 derive it from
	// SigmaSpace.
	Diameter int `json:"diameter"`

	SigmaColor float64 `json:"sigma_color"`
	SigmaSpace float64 `json:"sigma_space"`
}

// EdgeThresholdPair holds the hysteresis thresholds of one Canny pass,
// in units of L1 Sobel magnitude.
type EdgeThresholdPair struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ShadingParams configures the Gaussian blur of the dodge-blend shading.
type ShadingParams struct {
	// KernelSize is the odd, square blur kernel size.
	KernelSize int `json:"kernel_size"`

	// Sigma of the blur; values <= 0 derive it from KernelSize.
	Sigma float64 `json:"sigma"`
}

// Params is the full per-invocation parameter set. Nothing is read from
// global state; callers pass Params explicitly.
type Params struct {
	Canvas  CanvasSpec           `json:"canvas"`
	Enhance EnhancementParams    `json:"enhance"`
	Edges   [2]EdgeThresholdPair `json:"edges"`
	Shading ShadingParams        `json:"shading"`
}

// DefaultParams returns the parameters of the reference tracing sheet.
func DefaultParams() Params {
	return Params{
		Canvas: CanvasSpec{
			Width:    DefaultCanvasWidth,
			Height:   DefaultCanvasHeight,
			Fill:     color.NRGBA{R: 255, G: 255, B: 255, A: 255},
			Resample: imaging.Linear,
		},
		Enhance: EnhancementParams{
			ClipLimit:  2.0,
			TileGrid:   image.Pt(8, 8),
			Diameter:   9,
			SigmaColor: 75,
			SigmaSpace: 75,
		},
		Edges: [2]EdgeThresholdPair{
			{Low: 30, High: 100},
			{Low: 10, High: 70},
		},
		Shading: ShadingParams{
			KernelSize: 25,
		},
	}
}

// Validate reports the first parameter the pipeline cannot run with.
func (p Params) Validate() error {
	if p.Canvas.Width <= 0 || p.Canvas.Height <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalidDimension, p.Canvas.Width, p.Canvas.Height)
	}
	if err := validateTiles(p.Enhance.ClipLimit, p.Enhance.TileGrid); err != nil {
		return err
	}
	for i, pair := range p.Edges {
		if err := pair.Validate(); err != nil {
			return fmt.Errorf("layer%d: %w", i+1, err)
		}
	}
	return validateKernel(p.Shading.KernelSize)
}

// Validate checks that the pair is non-negative and ordered.
func (t EdgeThresholdPair) Validate() error {
	if t.Low < 0 || t.High < 0 {
		return fmt.Errorf("%w: negative threshold (%g,%g)", ErrDegenerateParameter, t.Low, t.High)
	}
	if t.High < t.Low {
		return fmt.Errorf("%w: high threshold %g below low threshold %g", ErrDegenerateParameter, t.High, t.Low)
	}
	return nil
}

// GridSpec is the tracing grid drawn by presentation collaborators. The
// pixel pipeline carries it through untouched.
type GridSpec struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// DefaultGrid returns the reference 29x21 tracing grid.
func DefaultGrid() GridSpec {
	return GridSpec{Rows: DefaultGridRows, Cols: DefaultGridCols}
}

// Validate rejects non-positive rows or columns.
func (g GridSpec) Validate() error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("%w: grid %dx%d", ErrDegenerateParameter, g.Rows, g.Cols)
	}
	return nil
}

func validateTiles(clipLimit float64, tiles image.Point) error {
	if tiles.X <= 0 || tiles.Y <= 0 {
		return fmt.Errorf("%w: tile grid %dx%d", ErrDegenerateParameter, tiles.X, tiles.Y)
	}
	if clipLimit < 0 {
		return fmt.Errorf("%w: clip limit %g", ErrDegenerateParameter, clipLimit)
	}
	return nil
}

func validateKernel(ksize int) error {
	if ksize <= 0 || ksize%2 == 0 {
		return fmt.Errorf("%w: blur kernel size %d must be positive and odd", ErrDegenerateParameter, ksize)
	}
	return nil
}
