package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/ironsheep/trace-sketch-mcp/internal/imaging"
	"github.com/ironsheep/trace-sketch-mcp/internal/sketch"
)

// errInvalidArgs marks tool failures caused by the caller's arguments.
// handleToolsCall reports them as -32602 instead of -32000.
var errInvalidArgs = errors.New("invalid arguments")

// Layer names accepted by the sheet tools.
const (
	LayerOriginal = "original"
	LayerEdges1   = "layer1"
	LayerEdges2   = "layer2"
	LayerShaded   = "shaded"
)

var allLayers = []string{LayerOriginal, LayerEdges1, LayerEdges2, LayerShaded}

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "sketch_generate", "image_load").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Argument errors return -32602; every other tool failure returns -32000
// with the wrapped error in data.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Error().Err(err).Str("tool", params.Name).Dur("elapsed", time.Since(start)).Msg("tool failed")
		if errors.Is(err, errInvalidArgs) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.log.Info().Str("tool", params.Name).Dur("elapsed", time.Since(start)).Msg("tool completed")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "sketch_generate":
		return s.handleSketchGenerate(args)
	case "sketch_save":
		return s.handleSketchSave(args)
	case "sketch_grid_cell":
		return s.handleSketchGridCell(args)
	case "sketch_defaults":
		return s.handleSketchDefaults(args)
	case "image_load":
		return s.handleImageLoad(args)
	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArgs, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{
		Code:    code,
		Message: message,
	}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

// === Sheet construction ===

// paramOverrides replaces individual pipeline parameters for one call.
// Pointer fields distinguish "unset" from a meaningful zero.
type paramOverrides struct {
	CanvasWidth  int                       `json:"canvas_width"`
	CanvasHeight int                       `json:"canvas_height"`
	Fill         string                    `json:"fill"`
	ClipLimit    *float64                  `json:"clip_limit"`
	TileGrid     int                       `json:"tile_grid"`
	Diameter     *int                      `json:"bilateral_diameter"`
	SigmaColor   *float64                  `json:"sigma_color"`
	SigmaSpace   *float64                  `json:"sigma_space"`
	Layer1       *sketch.EdgeThresholdPair `json:"layer1_thresholds"`
	Layer2       *sketch.EdgeThresholdPair `json:"layer2_thresholds"`
	BlurKernel   int                       `json:"blur_kernel"`
}

type sheetArgs struct {
	Path     string `json:"path"`
	GridRows int    `json:"grid_rows"`
	GridCols int    `json:"grid_cols"`
	paramOverrides
}

// resolve merges a with the configured defaults and validates the result.
func (s *Server) resolve(a sheetArgs) (sketch.Params, sketch.GridSpec, error) {
	p := s.cfg.Params
	grid := s.cfg.Grid

	if a.Path == "" {
		return p, grid, fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	if err := imaging.CheckExtension(a.Path, s.cfg.Extensions); err != nil {
		return p, grid, fmt.Errorf("%w: %w", errInvalidArgs, err)
	}

	if a.GridRows != 0 {
		grid.Rows = a.GridRows
	}
	if a.GridCols != 0 {
		grid.Cols = a.GridCols
	}

	o := a.paramOverrides
	if o.CanvasWidth != 0 {
		p.Canvas.Width = o.CanvasWidth
	}
	if o.CanvasHeight != 0 {
		p.Canvas.Height = o.CanvasHeight
	}
	if o.Fill != "" {
		fill, err := imaging.ParseColor(o.Fill)
		if err != nil {
			return p, grid, fmt.Errorf("%w: fill: %w", errInvalidArgs, err)
		}
		fill.A = 255
		p.Canvas.Fill = fill
	}
	if o.ClipLimit != nil {
		p.Enhance.ClipLimit = *o.ClipLimit
	}
	if o.TileGrid != 0 {
		p.Enhance.TileGrid = image.Pt(o.TileGrid, o.TileGrid)
	}
	if o.Diameter != nil {
		p.Enhance.Diameter = *o.Diameter
	}
	if o.SigmaColor != nil {
		p.Enhance.SigmaColor = *o.SigmaColor
	}
	if o.SigmaSpace != nil {
		p.Enhance.SigmaSpace = *o.SigmaSpace
	}
	if o.Layer1 != nil {
		p.Edges[0] = *o.Layer1
	}
	if o.Layer2 != nil {
		p.Edges[1] = *o.Layer2
	}
	if o.BlurKernel != 0 {
		p.Shading.KernelSize = o.BlurKernel
	}

	if err := p.Validate(); err != nil {
		return p, grid, fmt.Errorf("%w: %w", errInvalidArgs, err)
	}
	if err := grid.Validate(); err != nil {
		return p, grid, fmt.Errorf("%w: %w", errInvalidArgs, err)
	}
	return p, grid, nil
}

// sheet returns the finished sheet for a, from the result cache when the
// same source was already processed with the same parameters.
func (s *Server) sheet(a sheetArgs) (*sketch.Result, bool, error) {
	params, grid, err := s.resolve(a)
	if err != nil {
		return nil, false, err
	}

	key := mustMarshalJSON(struct {
		Path   string          `json:"path"`
		Params sketch.Params   `json:"params"`
		Grid   sketch.GridSpec `json:"grid"`
	}{a.Path, params, grid})
	if res, ok := s.results.get(key); ok {
		return res, true, nil
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, false, err
	}

	p, err := sketch.New(params, sketch.WithLogger(s.log), sketch.WithEngine(s.engine))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", errInvalidArgs, err)
	}
	start := time.Now()
	res, err := p.Run(img, grid)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build sheet for %s: %w", a.Path, err)
	}
	s.log.Debug().
		Str("path", a.Path).
		Str("engine", s.engine.Name()).
		Dur("elapsed", time.Since(start)).
		Msg("sheet built")

	s.results.put(key, res)
	return res, false, nil
}

// outputArgs selects encoding and grid drawing for returned or saved layers.
type outputArgs struct {
	Format        string `json:"format"`
	Quality       int    `json:"quality"`
	OverlayGrid   bool   `json:"overlay_grid"`
	GridColor     string `json:"grid_color"`
	GridThickness int    `json:"grid_thickness"`
	GridLabels    bool   `json:"grid_labels"`
}

func (s *Server) format(o outputArgs) (imaging.Format, int, error) {
	f := s.cfg.Format
	if o.Format != "" {
		var err error
		if f, err = imaging.ParseFormat(o.Format); err != nil {
			return "", 0, fmt.Errorf("%w: %w", errInvalidArgs, err)
		}
	}
	quality := s.cfg.JPEGQuality
	if o.Quality != 0 {
		if o.Quality < 1 || o.Quality > 100 {
			return "", 0, fmt.Errorf("%w: quality %d outside 1..100", errInvalidArgs, o.Quality)
		}
		quality = o.Quality
	}
	return f, quality, nil
}

// gridOptions returns the grid style requested by o, or nil when no grid
// should be drawn.
func gridOptions(o outputArgs, grid sketch.GridSpec) (*imaging.GridOptions, error) {
	if !o.OverlayGrid {
		return nil, nil
	}
	opts := &imaging.GridOptions{
		Rows:      grid.Rows,
		Cols:      grid.Cols,
		Thickness: o.GridThickness,
		Labels:    o.GridLabels,
	}
	if o.GridColor != "" {
		c, err := imaging.ParseColor(o.GridColor)
		if err != nil {
			return nil, fmt.Errorf("%w: grid_color: %w", errInvalidArgs, err)
		}
		opts.Color = c
	}
	return opts, nil
}

func layerImage(res *sketch.Result, name string) (image.Image, error) {
	switch name {
	case LayerOriginal:
		return res.Original, nil
	case LayerEdges1:
		return res.Layer1, nil
	case LayerEdges2:
		return res.Layer2, nil
	case LayerShaded:
		return res.Shaded, nil
	}
	return nil, fmt.Errorf("%w: unknown layer %q", errInvalidArgs, name)
}

// === Sheet Handlers ===

type sketchGenerateArgs struct {
	sheetArgs
	outputArgs

	// Layers restricts the response to the named layers. Empty means all.
	Layers []string `json:"layers"`
}

type sketchGenerateResult struct {
	Layers map[string]*imaging.EncodedImage `json:"layers"`
	Layout sketch.Layout                    `json:"layout"`
	Grid   sketch.GridSpec                  `json:"grid"`
	Engine string                           `json:"engine"`
	Cached bool                             `json:"cached"`
}

func (s *Server) handleSketchGenerate(args json.RawMessage) (interface{}, error) {
	var a sketchGenerateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	f, quality, err := s.format(a.outputArgs)
	if err != nil {
		return nil, err
	}
	layers := a.Layers
	if len(layers) == 0 {
		layers = allLayers
	}
	for _, name := range layers {
		if _, err := layerImage(&sketch.Result{}, name); err != nil {
			return nil, err
		}
	}

	res, cached, err := s.sheet(a.sheetArgs)
	if err != nil {
		return nil, err
	}
	grid, err := gridOptions(a.outputArgs, res.Grid)
	if err != nil {
		return nil, err
	}

	out := &sketchGenerateResult{
		Layers: make(map[string]*imaging.EncodedImage, len(layers)),
		Layout: res.Layout,
		Grid:   res.Grid,
		Engine: s.engine.Name(),
		Cached: cached,
	}
	for _, name := range layers {
		img, _ := layerImage(res, name)
		if grid != nil && name != LayerOriginal {
			if img, err = imaging.OverlayGrid(img, *grid); err != nil {
				return nil, err
			}
		}
		enc, err := imaging.EncodeBase64(img, f, quality)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", name, err)
		}
		out.Layers[name] = enc
	}
	return out, nil
}

type sketchSaveArgs struct {
	sheetArgs
	outputArgs

	// OutputDir overrides the configured output directory.
	OutputDir string `json:"output_dir"`

	// ID names the files; empty generates a random one.
	ID string `json:"id"`
}

type sketchSaveResult struct {
	*imaging.SavedSet
	Layout sketch.Layout   `json:"layout"`
	Grid   sketch.GridSpec `json:"grid"`
	Cached bool            `json:"cached"`
}

func (s *Server) handleSketchSave(args json.RawMessage) (interface{}, error) {
	var a sketchSaveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := imaging.ValidateID(a.ID); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidArgs, err)
	}
	f, quality, err := s.format(a.outputArgs)
	if err != nil {
		return nil, err
	}
	res, cached, err := s.sheet(a.sheetArgs)
	if err != nil {
		return nil, err
	}
	grid, err := gridOptions(a.outputArgs, res.Grid)
	if err != nil {
		return nil, err
	}

	dir := a.OutputDir
	if dir == "" {
		dir = s.cfg.OutputDir
	}
	store := &imaging.Store{Dir: dir, Format: f, Quality: quality, Grid: grid}
	set, err := store.SaveResult(a.ID, res)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("id", set.ID).Str("dir", dir).Msg("sheet saved")
	return &sketchSaveResult{SavedSet: set, Layout: res.Layout, Grid: res.Grid, Cached: cached}, nil
}

type sketchGridCellArgs struct {
	sheetArgs
	Layer   string  `json:"layer"`
	Row     int     `json:"row"`
	Col     int     `json:"col"`
	Scale   float64 `json:"scale"`
	Format  string  `json:"format"`
	Quality int     `json:"quality"`
}

type sketchGridCellResult struct {
	Layer  string `json:"layer"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Region struct {
		X1 int `json:"x1"`
		Y1 int `json:"y1"`
		X2 int `json:"x2"`
		Y2 int `json:"y2"`
	} `json:"region"`
	Image *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleSketchGridCell(args json.RawMessage) (interface{}, error) {
	var a sketchGridCellArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Layer == "" {
		a.Layer = LayerEdges1
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	f, quality, err := s.format(outputArgs{Format: a.Format, Quality: a.Quality})
	if err != nil {
		return nil, err
	}
	if _, err := layerImage(&sketch.Result{}, a.Layer); err != nil {
		return nil, err
	}

	res, _, err := s.sheet(a.sheetArgs)
	if err != nil {
		return nil, err
	}
	img, _ := layerImage(res, a.Layer)

	bounds, err := imaging.CellBounds(img.Bounds().Size(), res.Grid.Rows, res.Grid.Cols, a.Row, a.Col)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidArgs, err)
	}
	cell, err := imaging.CropCell(img, res.Grid.Rows, res.Grid.Cols, a.Row, a.Col, a.Scale)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidArgs, err)
	}
	enc, err := imaging.EncodeBase64(cell, f, quality)
	if err != nil {
		return nil, err
	}

	out := &sketchGridCellResult{Layer: a.Layer, Row: a.Row, Col: a.Col, Image: enc}
	out.Region.X1, out.Region.Y1 = bounds.Min.X, bounds.Min.Y
	out.Region.X2, out.Region.Y2 = bounds.Max.X, bounds.Max.Y
	return out, nil
}

type sketchDefaultsResult struct {
	Params      sketch.Params   `json:"params"`
	Grid        sketch.GridSpec `json:"grid"`
	Fill        string          `json:"fill"`
	Engine      string          `json:"engine"`
	Format      imaging.Format  `json:"format"`
	JPEGQuality int             `json:"jpeg_quality"`
	OutputDir   string          `json:"output_dir"`
	Extensions  []string        `json:"extensions"`
}

func (s *Server) handleSketchDefaults(args json.RawMessage) (interface{}, error) {
	var a struct{}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	extensions := s.cfg.Extensions
	if len(extensions) == 0 {
		extensions = imaging.DefaultExtensions
	}
	return &sketchDefaultsResult{
		Params:      s.cfg.Params,
		Grid:        s.cfg.Grid,
		Fill:        hexColor(s.cfg.Params.Canvas.Fill),
		Engine:      s.engine.Name(),
		Format:      s.cfg.Format,
		JPEGQuality: s.cfg.JPEGQuality,
		OutputDir:   s.cfg.OutputDir,
		Extensions:  extensions,
	}, nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

type imageLoadResult struct {
	*imaging.ImageInfo

	// Layout is where the image would land on the configured canvas.
	Layout sketch.Layout `json:"layout"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	layout, err := sketch.Letterbox(info.Width, info.Height, s.cfg.Params.Canvas)
	if err != nil {
		return nil, err
	}
	return &imageLoadResult{ImageInfo: info, Layout: layout}, nil
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
