// Package imaging provides the file and presentation side of tracing sheets:
// loading sources, encoding and saving rasters, and drawing the tracing grid.
//
// The pixel pipeline itself lives in internal/sketch and never touches
// files. This package wraps it for the MCP server and the CLI.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based with (0,0) at the
// top-left corner. Grid cells are addressed as (row, col), also 0-based,
// and cover the half-open rectangle returned by CellBounds.
//
// # Supported Formats
//
// Sources decode from PNG, JPEG, GIF, BMP, TIFF and WebP; CheckExtension
// narrows what callers accept (PNG and JPEG by default). Sheets are written
// as JPEG or PNG.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless
// and never modify their input images.
package imaging
