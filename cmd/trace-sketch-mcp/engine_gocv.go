//go:build gocv

package main

import (
	"github.com/ironsheep/trace-sketch-mcp/internal/sketch"
	"github.com/ironsheep/trace-sketch-mcp/internal/sketch/opencv"
)

func newEngine() sketch.Engine { return opencv.New() }
