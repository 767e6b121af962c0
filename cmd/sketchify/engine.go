//go:build !gocv

package main

import "github.com/ironsheep/trace-sketch-mcp/internal/sketch"

func newEngine() sketch.Engine { return sketch.GoEngine{} }
