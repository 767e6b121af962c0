// Package sketch implements the photo-to-tracing-sheet pipeline.
//
// A source photograph is letterboxed onto a fixed page canvas, reduced to
// luminance and then split into two branches:
//
//	canvas ─► gray ─┬─► CLAHE ─► bilateral ─► Canny(30,100) ─► invert ─► layer1
//	                │                      └─► Canny(10,70)  ─► invert ─► layer2
//	                └─► invert ─► Gaussian ─► dodge(gray) ─► equalize ─► shaded
//
// The edge branch works on the contrast-enhanced, smoothed raster while the
// shading branch works on the plain grayscale raster. The two branches are
// kept apart on purpose; tests pin the divergence.
//
// # Purity
//
// Every stage takes its inputs as read-only rasters and allocates a new
// output. Nothing in this package touches files, the network, globals or
// randomness, so two runs over the same input and Params produce
// byte-identical results. Decoding, encoding, persistence and grid drawing
// are left to callers (see internal/imaging).
//
// # Rasters
//
// Colour rasters are *image.NRGBA with opaque alpha; single-channel rasters
// are *image.Gray. All rasters returned by this package have bounds starting
// at (0,0).
//
// # Numeric compatibility
//
// Stage semantics follow OpenCV's cvtColor, CLAHE, bilateralFilter, Canny,
// GaussianBlur, divide and equalizeHist, including border handling and
// rounding. Bit-exactness with OpenCV is not promised; the
// internal/sketch/opencv engine (build tag gocv) can be used when it is
// required.
package sketch
