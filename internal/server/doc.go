// Package server implements the MCP (Model Context Protocol) server for
// tracing sheet generation.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - sketch_generate: Build a sheet and return its layers as base64
//   - sketch_save: Build a sheet and write its layers to disk
//   - sketch_grid_cell: Return one grid cell of one layer
//   - sketch_defaults: Report default parameters and output settings
//   - image_load: Load an image and get metadata
//
// Every sheet tool accepts the source path, the grid size and optional
// per-call overrides of the pipeline parameters. Unset values fall back to
// the server's config.Config.
//
// # Caching
//
// Decoded sources are cached by path. Finished sheets are kept in a small
// LRU keyed by path, parameters and grid, sized by config.Config.ResultCache,
// so that sketch_generate followed by sketch_grid_cell runs the pipeline once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32602 for bad arguments, -32000 for tool failures, -32601 for
//     unknown methods
//   - message: Human-readable error description
//   - data: The wrapped Go error string
//
// # Usage
//
//	srv := server.New(cfg, server.WithLogger(log))
//	if err := srv.Run(); err != nil {
//	    log.Fatal().Err(err).Msg("server error")
//	}
package server
