package sketch

import (
	"errors"
	"image"
	"testing"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	if p.Canvas.Width != 2480 || p.Canvas.Height != 3508 {
		t.Errorf("canvas: got %dx%d, want 2480x3508", p.Canvas.Width, p.Canvas.Height)
	}
	if p.Edges[0] != (EdgeThresholdPair{30, 100}) || p.Edges[1] != (EdgeThresholdPair{10, 70}) {
		t.Errorf("edges: got %v", p.Edges)
	}
	if p.Shading.KernelSize != 25 {
		t.Errorf("shading kernel: got %d, want 25", p.Shading.KernelSize)
	}
	if g := DefaultGrid(); g.Rows != 29 || g.Cols != 21 {
		t.Errorf("grid: got %dx%d, want 29x21", g.Rows, g.Cols)
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		want   error
	}{
		{"zero canvas width", func(p *Params) { p.Canvas.Width = 0 }, ErrInvalidDimension},
		{"negative canvas height", func(p *Params) { p.Canvas.Height = -5 }, ErrInvalidDimension},
		{"zero tiles", func(p *Params) { p.Enhance.TileGrid = image.Pt(0, 8) }, ErrDegenerateParameter},
		{"negative clip", func(p *Params) { p.Enhance.ClipLimit = -0.1 }, ErrDegenerateParameter},
		{"inverted layer1", func(p *Params) { p.Edges[0] = EdgeThresholdPair{100, 30} }, ErrDegenerateParameter},
		{"negative layer2", func(p *Params) { p.Edges[1].Low = -1 }, ErrDegenerateParameter},
		{"even kernel", func(p *Params) { p.Shading.KernelSize = 24 }, ErrDegenerateParameter},
		{"zero kernel", func(p *Params) { p.Shading.KernelSize = 0 }, ErrDegenerateParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if err := p.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEdgeThresholdPair_EqualIsValid(t *testing.T) {
	if err := (EdgeThresholdPair{50, 50}).Validate(); err != nil {
		t.Errorf("equal thresholds rejected: %v", err)
	}
}

func TestGridSpec_Validate(t *testing.T) {
	for _, g := range []GridSpec{{0, 21}, {29, 0}, {-1, -1}} {
		if err := g.Validate(); !errors.Is(err, ErrDegenerateParameter) {
			t.Errorf("%v: got %v, want ErrDegenerateParameter", g, err)
		}
	}
	if err := (GridSpec{1, 1}).Validate(); err != nil {
		t.Errorf("1x1 grid rejected: %v", err)
	}
}
