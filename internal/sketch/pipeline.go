package sketch

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Result holds the four rasters of one tracing sheet.
type Result struct {
	// Original is the letterboxed colour canvas.
	Original *image.NRGBA

	// Layer1 and Layer2 are the inverted edge maps of the high and low
	// threshold passes.
	Layer1 *image.Gray
	Layer2 *image.Gray

	// Shaded is the dodge-blend pencil rendering.
	Shaded *image.Gray

	// Layout records where the source landed on the canvas.
	Layout Layout

	// Grid is passed through for presentation; no stage reads it.
	Grid GridSpec
}

// Pipeline runs the sheet pipeline with a fixed, validated parameter set.
// A Pipeline holds no per-run state and may be shared between goroutines.
type Pipeline struct {
	params Params
	engine Engine
	log    zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for per-stage debug timings.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithEngine replaces the default GoEngine.
func WithEngine(e Engine) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.engine = e
		}
	}
}

// New validates params and returns a ready Pipeline.
func New(params Params, opts ...Option) (*Pipeline, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		params: params,
		engine: GoEngine{},
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Params returns the parameters the pipeline was built with.
func (p *Pipeline) Params() Params { return p.params }

// Engine returns the engine running the numeric stages.
func (p *Pipeline) Engine() Engine { return p.engine }

// Process is a one-shot New + Run.
func Process(src image.Image, params Params, grid GridSpec) (*Result, error) {
	p, err := New(params)
	if err != nil {
		return nil, err
	}
	return p.Run(src, grid)
}

// Run produces the normalized canvas, both edge layers and the shaded
// rendering for src. It returns either all four rasters or an error.
func (p *Pipeline) Run(src image.Image, grid GridSpec) (*Result, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidDimension)
	}
	b := src.Bounds()
	layout, err := Letterbox(b.Dx(), b.Dy(), p.params.Canvas)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	canvas, err := Normalize(src, p.params.Canvas)
	if err != nil {
		return nil, err
	}
	p.stageDone("normalize", start)

	start = time.Now()
	gray, err := p.engine.Grayscale(canvas)
	if err != nil {
		return nil, fmt.Errorf("grayscale: %w", err)
	}
	p.stageDone("grayscale", start)

	var (
		wg       sync.WaitGroup
		edges    edgePasses
		shaded   *image.Gray
		shadeErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		edges = p.edgeBranch(gray)
	}()
	go func() {
		defer wg.Done()
		start := time.Now()
		shaded, shadeErr = p.engine.Shade(gray, p.params.Shading)
		p.stageDone("shade", start)
	}()
	wg.Wait()

	if edges.err != nil {
		return nil, edges.err
	}
	if shadeErr != nil {
		return nil, fmt.Errorf("shade: %w", shadeErr)
	}

	p.log.Debug().
		Str("engine", p.engine.Name()).
		Int("width", canvas.Rect.Dx()).
		Int("height", canvas.Rect.Dy()).
		Float64("scale", layout.Scale).
		Msg("sheet complete")

	return &Result{
		Original: canvas,
		Layer1:   edges.edges[0],
		Layer2:   edges.edges[1],
		Shaded:   shaded,
		Layout:   layout,
		Grid:     grid,
	}, nil
}

// edgeBranch enhances and smooths gray, then runs both Canny passes.
func (p *Pipeline) edgeBranch(gray *image.Gray) edgePasses {
	e := p.params.Enhance

	start := time.Now()
	contrast, err := p.engine.Enhance(gray, e.ClipLimit, e.TileGrid)
	if err != nil {
		return edgePasses{err: fmt.Errorf("enhance: %w", err)}
	}
	p.stageDone("enhance", start)

	start = time.Now()
	smoothed, err := p.engine.Smooth(contrast, e.Diameter, e.SigmaColor, e.SigmaSpace)
	if err != nil {
		return edgePasses{err: fmt.Errorf("smooth: %w", err)}
	}
	p.stageDone("smooth", start)

	start = time.Now()
	res := runEdgePasses(smoothed, p.params.Edges, p.engine.Canny)
	if res.err != nil {
		res.err = fmt.Errorf("edges: %w", res.err)
	}
	p.stageDone("edges", start)
	return res
}

func (p *Pipeline) stageDone(stage string, start time.Time) {
	p.log.Debug().
		Str("stage", stage).
		Dur("elapsed", time.Since(start)).
		Msg("stage complete")
}
