package sketch

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func smallParams() Params {
	p := DefaultParams()
	p.Canvas.Width = 60
	p.Canvas.Height = 80
	return p
}

func TestPipeline_Run(t *testing.T) {
	p, err := New(smallParams())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	grid := GridSpec{Rows: 4, Cols: 3}

	res, err := p.Run(createPhotoLikeImage(90, 100), grid)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := image.Rect(0, 0, 60, 80)
	if res.Original.Bounds() != want {
		t.Errorf("original bounds: got %v, want %v", res.Original.Bounds(), want)
	}
	for name, layer := range map[string]*image.Gray{"layer1": res.Layer1, "layer2": res.Layer2, "shaded": res.Shaded} {
		if layer == nil {
			t.Fatalf("%s is nil", name)
		}
		if layer.Bounds() != want {
			t.Errorf("%s bounds: got %v, want %v", name, layer.Bounds(), want)
		}
	}
	if res.Grid != grid {
		t.Errorf("grid: got %v, want %v", res.Grid, grid)
	}
	if res.Layout.ScaledWidth != 60 || res.Layout.ScaledHeight != 66 {
		t.Errorf("layout: got %dx%d, want 60x66", res.Layout.ScaledWidth, res.Layout.ScaledHeight)
	}
	if countDark(res.Layer2) < countDark(res.Layer1) {
		t.Errorf("layer2 (%d dark) sparser than layer1 (%d dark)", countDark(res.Layer2), countDark(res.Layer1))
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	src := createPhotoLikeImage(70, 50)
	a, err := Process(src, smallParams(), DefaultGrid())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	b, err := Process(src, smallParams(), DefaultGrid())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	pairs := []struct {
		name string
		x, y []uint8
	}{
		{"original", a.Original.Pix, b.Original.Pix},
		{"layer1", a.Layer1.Pix, b.Layer1.Pix},
		{"layer2", a.Layer2.Pix, b.Layer2.Pix},
		{"shaded", a.Shaded.Pix, b.Shaded.Pix},
	}
	for _, pr := range pairs {
		if !bytes.Equal(pr.x, pr.y) {
			t.Errorf("%s differs between runs", pr.name)
		}
	}
}

func TestPipeline_CanvasSizedInputKeepsContent(t *testing.T) {
	src := createPhotoLikeImage(60, 80)
	res, err := Process(src, smallParams(), DefaultGrid())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	l := res.Layout
	if l.Top != 0 || l.Bottom != 0 || l.Left != 0 || l.Right != 0 {
		t.Errorf("canvas-sized input was padded: %+v", l)
	}
	again, err := Process(res.Original, smallParams(), DefaultGrid())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !bytes.Equal(res.Original.Pix, again.Original.Pix) {
		t.Error("normalizing a normalized canvas changed it")
	}
}

func TestPipeline_WhitePage(t *testing.T) {
	if testing.Short() {
		t.Skip("full-size canvas")
	}
	res, err := Process(createInMemoryImage(1000, 1500, color.White), DefaultParams(), DefaultGrid())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if res.Original.Bounds().Dx() != 2480 || res.Original.Bounds().Dy() != 3508 {
		t.Fatalf("canvas: got %v", res.Original.Bounds())
	}
	for name, layer := range map[string]*image.Gray{"layer1": res.Layer1, "layer2": res.Layer2, "shaded": res.Shaded} {
		if n := countValue(layer, 255); n != len(layer.Pix) {
			t.Errorf("%s: %d of %d pixels are not white", name, len(layer.Pix)-n, len(layer.Pix))
		}
	}
}

// spyEngine records what each stage receives.
type spyEngine struct {
	GoEngine

	mu         sync.Mutex
	gray       []uint8
	shadeInput []uint8
	thresholds [][2]float64
}

func (s *spyEngine) Grayscale(img *image.NRGBA) (*image.Gray, error) {
	g, err := s.GoEngine.Grayscale(img)
	s.mu.Lock()
	s.gray = append([]uint8(nil), g.Pix...)
	s.mu.Unlock()
	return g, err
}

func (s *spyEngine) Canny(gray *image.Gray, low, high float64) (*image.Gray, error) {
	s.mu.Lock()
	s.thresholds = append(s.thresholds, [2]float64{low, high})
	s.mu.Unlock()
	return s.GoEngine.Canny(gray, low, high)
}

func (s *spyEngine) Shade(gray *image.Gray, params ShadingParams) (*image.Gray, error) {
	s.mu.Lock()
	s.shadeInput = append([]uint8(nil), gray.Pix...)
	s.mu.Unlock()
	return s.GoEngine.Shade(gray, params)
}

func TestPipeline_BranchInputs(t *testing.T) {
	spy := &spyEngine{}
	p, err := New(smallParams(), WithEngine(spy))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := p.Run(createPhotoLikeImage(60, 80), DefaultGrid()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Shading works from the raw luminance, not the enhanced raster.
	if !bytes.Equal(spy.shadeInput, spy.gray) {
		t.Error("shading did not receive the plain grayscale canvas")
	}

	if len(spy.thresholds) != 2 {
		t.Fatalf("got %d Canny passes, want 2", len(spy.thresholds))
	}
	seen := map[[2]float64]bool{}
	for _, th := range spy.thresholds {
		seen[th] = true
	}
	if !seen[[2]float64{30, 100}] || !seen[[2]float64{10, 70}] {
		t.Errorf("thresholds: got %v", spy.thresholds)
	}
}

type failingEngine struct {
	GoEngine
}

var errSmoothFailed = errors.New("smoother unavailable")

func (failingEngine) Smooth(*image.Gray, int, float64, float64) (*image.Gray, error) {
	return nil, errSmoothFailed
}

func TestPipeline_EngineFailure(t *testing.T) {
	p, err := New(smallParams(), WithEngine(failingEngine{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := p.Run(createPhotoLikeImage(30, 30), DefaultGrid())
	if !errors.Is(err, errSmoothFailed) {
		t.Fatalf("got %v, want errSmoothFailed", err)
	}
	if !strings.HasPrefix(err.Error(), "smooth:") {
		t.Errorf("error %q missing stage prefix", err)
	}
	if res != nil {
		t.Error("partial result returned on failure")
	}
}

func TestPipeline_Errors(t *testing.T) {
	bad := smallParams()
	bad.Edges[0] = EdgeThresholdPair{Low: 100, High: 30}
	if _, err := New(bad); !errors.Is(err, ErrDegenerateParameter) {
		t.Errorf("bad params: got %v, want ErrDegenerateParameter", err)
	}

	p, err := New(smallParams())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := p.Run(image.NewNRGBA(image.Rect(0, 0, 0, 0)), DefaultGrid()); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("empty source: got %v, want ErrInvalidDimension", err)
	}
	if _, err := p.Run(nil, DefaultGrid()); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("nil source: got %v, want ErrInvalidDimension", err)
	}
	if _, err := p.Run(createPhotoLikeImage(10, 10), GridSpec{Rows: 0, Cols: 3}); !errors.Is(err, ErrDegenerateParameter) {
		t.Errorf("bad grid: got %v, want ErrDegenerateParameter", err)
	}
}

func TestPipeline_LogsStages(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(smallParams(), WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := p.Run(createPhotoLikeImage(20, 20), DefaultGrid()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	out := buf.String()
	for _, stage := range []string{"normalize", "grayscale", "enhance", "smooth", "edges", "shade"} {
		if !strings.Contains(out, `"stage":"`+stage+`"`) {
			t.Errorf("no log line for stage %s", stage)
		}
	}
	if !strings.Contains(out, `"engine":"go"`) {
		t.Error("completion log missing engine name")
	}
}

func TestWithEngine_NilIgnored(t *testing.T) {
	p, err := New(smallParams(), WithEngine(nil))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.Engine().Name() != "go" {
		t.Errorf("engine: got %s, want go", p.Engine().Name())
	}
}
