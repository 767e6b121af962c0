package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

// sheetProperties are accepted by every tool that builds a sheet.
func sheetProperties() map[string]interface{} {
	return map[string]interface{}{
		"path":      prop("string", "Absolute path to the source photo"),
		"grid_rows": prop("integer", "Tracing grid rows (default: server setting)"),
		"grid_cols": prop("integer", "Tracing grid columns (default: server setting)"),

		"canvas_width":       prop("integer", "Canvas width in pixels (default: server setting)"),
		"canvas_height":      prop("integer", "Canvas height in pixels (default: server setting)"),
		"fill":               prop("string", "Padding colour as hex (default: server setting)"),
		"clip_limit":         prop("number", "CLAHE clip limit; 0 disables clipping (default: 2.0)"),
		"tile_grid":          prop("integer", "CLAHE tiles per axis (default: 8)"),
		"bilateral_diameter": prop("integer", "Bilateral filter diameter; <= 0 derives it from sigma_space (default: 9)"),
		"sigma_color":        prop("number", "Bilateral filter range sigma (default: 75)"),
		"sigma_space":        prop("number", "Bilateral filter spatial sigma (default: 75)"),
		"layer1_thresholds":  thresholdProperty("Canny thresholds of layer1 (default: 30/100)"),
		"layer2_thresholds":  thresholdProperty("Canny thresholds of layer2 (default: 10/70)"),
		"blur_kernel":        prop("integer", "Odd Gaussian kernel size of the shading blur (default: 25)"),
	}
}

func thresholdProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"low":  prop("number", "Hysteresis low threshold"),
			"high": prop("number", "Hysteresis high threshold"),
		},
		"required": []string{"low", "high"},
	}
}

// outputProperties control how layers are encoded and whether the grid is drawn.
func outputProperties() map[string]interface{} {
	return map[string]interface{}{
		"format":         prop("string", "Output encoding: jpeg or png (default: server setting)"),
		"quality":        prop("integer", "JPEG quality 1-100 (default: server setting)"),
		"overlay_grid":   prop("boolean", "Draw the tracing grid over layer1, layer2 and shaded (default: false)"),
		"grid_color":     prop("string", "Grid line colour as #RRGGBB or #RRGGBBAA (default: #FF0000A0)"),
		"grid_thickness": prop("integer", "Grid line thickness in pixels (default: 1)"),
		"grid_labels":    prop("boolean", "Number the columns along the top and the rows down the left (default: false)"),
	}
}

func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Sheet Operations
		{
			Name:        "sketch_generate",
			Description: "Turn a photo into a tracing sheet: the letterboxed original, two inverted edge layers (strong and fine lines) and a pencil-shaded layer, each returned as base64. Results are cached, so follow-up calls with the same parameters are cheap.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(sheetProperties(), outputProperties(), map[string]interface{}{
					"layers": map[string]interface{}{
						"type":        "array",
						"description": "Subset of layers to return: original, layer1, layer2, shaded (default: all)",
						"items": map[string]interface{}{
							"type": "string",
							"enum": allLayers,
						},
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "sketch_save",
			Description: "Build a tracing sheet and write its four layers to disk as <id>_original, <id>_layer1, <id>_layer2 and <id>_shaded. Returns the file paths.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(sheetProperties(), outputProperties(), map[string]interface{}{
					"output_dir": prop("string", "Directory to write into (default: server setting)"),
					"id":         prop("string", "File name prefix (default: random)"),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "sketch_grid_cell",
			Description: "Return one tracing grid cell of one sheet layer, optionally zoomed. Use this to inspect a square in detail while tracing.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(sheetProperties(), map[string]interface{}{
					"layer": map[string]interface{}{
						"type":        "string",
						"description": "Layer to cut from (default: layer1)",
						"enum":        allLayers,
					},
					"row":     prop("integer", "0-based grid row"),
					"col":     prop("integer", "0-based grid column"),
					"scale":   prop("number", "Zoom factor (default: 1.0)"),
					"format":  prop("string", "Output encoding: jpeg or png (default: server setting)"),
					"quality": prop("integer", "JPEG quality 1-100 (default: server setting)"),
				}),
				"required": []string{"path", "row", "col"},
			},
		},
		{
			Name:        "sketch_defaults",
			Description: "Report the default pipeline parameters, tracing grid and output settings of this server.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format, plus where it would land on the tracing canvas.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": prop("string", "Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
