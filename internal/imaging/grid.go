package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultGridColor is a semi-transparent red that stays visible on both the
// white edge layers and the dark areas of the shaded layer.
var DefaultGridColor = color.NRGBA{R: 255, G: 0, B: 0, A: 160}

// GridOptions controls how the tracing grid is drawn.
type GridOptions struct {
	// Rows and Cols are the number of grid cells along each axis.
	Rows int `json:"rows"`
	Cols int `json:"cols"`

	// Color of the grid lines. A nil Color selects DefaultGridColor.
	Color color.Color `json:"-"`

	// Thickness of each line in pixels. Values < 1 mean 1.
	Thickness int `json:"thickness"`

	// Labels draws 1-based column numbers along the top row and row numbers
	// down the left column.
	Labels bool `json:"labels"`
}

// OverlayGrid draws a Rows x Cols tracing grid over a copy of img.
//
// Line i of n along an axis of length L sits at floor(i*L/n), so cell
// boundaries match CellBounds exactly; the closing line is pulled inside
// the image. The source is not modified.
func OverlayGrid(img image.Image, opts GridOptions) (*image.NRGBA, error) {
	if opts.Rows <= 0 || opts.Cols <= 0 {
		return nil, fmt.Errorf("invalid grid %dx%d: rows and columns must be positive", opts.Rows, opts.Cols)
	}
	var lineColor color.Color = DefaultGridColor
	if opts.Color != nil {
		lineColor = opts.Color
	}
	thickness := opts.Thickness
	if thickness < 1 {
		thickness = 1
	}

	result := imaging.Clone(img)
	bounds := result.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	src := &image.Uniform{C: lineColor}

	// Vertical lines
	for i := 0; i <= opts.Cols; i++ {
		x := gridLine(i, opts.Cols, width, thickness)
		draw.Draw(result, image.Rect(x, 0, x+thickness, height), src, image.Point{}, draw.Over)
	}

	// Horizontal lines
	for i := 0; i <= opts.Rows; i++ {
		y := gridLine(i, opts.Rows, height, thickness)
		draw.Draw(result, image.Rect(0, y, width, y+thickness), src, image.Point{}, draw.Over)
	}

	if opts.Labels {
		drawGridLabels(result, opts, thickness)
	}
	return result, nil
}

func gridLine(i, n, length, thickness int) int {
	pos := i * length / n
	if pos > length-thickness {
		pos = length - thickness
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

const (
	labelPad     = 2
	glyphAdvance = 7
	glyphHeight  = 13
)

func drawGridLabels(dst *image.NRGBA, opts GridOptions, thickness int) {
	fg := color.NRGBA{255, 255, 255, 255}
	bg := color.NRGBA{0, 0, 0, 180}
	size := dst.Bounds().Size()

	for col := 0; col < opts.Cols; col++ {
		cell, err := CellBounds(size, opts.Rows, opts.Cols, 0, col)
		if err != nil {
			continue
		}
		drawLabel(dst, cell, strconv.Itoa(col+1), thickness, fg, bg)
	}
	// Row 1 is labelled by its column number; start below it.
	for row := 1; row < opts.Rows; row++ {
		cell, err := CellBounds(size, opts.Rows, opts.Cols, row, 0)
		if err != nil {
			continue
		}
		drawLabel(dst, cell, strconv.Itoa(row+1), thickness, fg, bg)
	}
}

// drawLabel writes text in the top-left corner of cell with basicfont,
// skipping cells too small to hold it.
func drawLabel(dst *image.NRGBA, cell image.Rectangle, text string, thickness int, fg, bg color.Color) {
	w := len(text)*glyphAdvance + 2*labelPad
	h := glyphHeight + 2*labelPad
	origin := cell.Min.Add(image.Pt(thickness, thickness))
	box := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}
	if !box.In(cell) {
		return
	}

	draw.Draw(dst, box, &image.Uniform{C: bg}, image.Point{}, draw.Over)
	d := &font.Drawer{
		Dst:  dst,
		Src:  &image.Uniform{C: fg},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(box.Min.X+labelPad, box.Min.Y+labelPad+basicfont.Face7x13.Ascent),
	}
	d.DrawString(text)
}

// ParseColor parses "#RRGGBB" or "#RRGGBBAA" (the leading # is optional).
func ParseColor(hex string) (color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if s == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}

	alpha := uint8(255)
	switch len(s) {
	case 6:
	case 8:
		a, err := strconv.ParseUint(s[6:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in color %q: %w", hex, err)
		}
		alpha = uint8(a)
		s = s[:6]
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length in %q", hex)
	}

	c, err := colorful.Hex("#" + s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}
