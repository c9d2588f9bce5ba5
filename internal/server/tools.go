package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func noArguments() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Ingestion
		{
			Name:        "atlas_add_image",
			Description: "Load one image, normalize it (nine-patch extraction, whitespace trimming, scaling) and add it to the atlas. Identical pixels are registered as an alias of the existing rectangle.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Path to the image file. Must lie below the configured root directory, if any."),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "atlas_add_directory",
			Description: "Add every image file below a directory, in path order. Images are decoded in parallel. Returns counts of added, aliased and skipped images plus per-file failures.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": pathProperty("Directory to scan recursively. Hidden files and directories are skipped."),
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Optional number of decode workers. Defaults to the configured value.",
						"minimum":     0,
					},
				},
				"required": []string{"dir"},
			},
		},

		// Atlas state
		{
			Name:        "atlas_list",
			Description: "List the rectangles in the atlas with names, sizes, offsets, nine-patch insets and aliases.",
			InputSchema: noArguments(),
		},
		{
			Name:        "atlas_clear",
			Description: "Remove every rectangle and forget all content hashes. The scale factor is kept.",
			InputSchema: noArguments(),
		},
		{
			Name:        "atlas_set_scale",
			Description: "Set the scale factor applied to images added from now on. Rectangles already in the atlas keep their size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"scale": map[string]interface{}{
						"type":             "number",
						"description":      "Scale factor, e.g. 0.5 to halve every image",
						"exclusiveMinimum": 0,
					},
				},
				"required": []string{"scale"},
			},
		},
		{
			Name:        "atlas_export",
			Description: "Write every rectangle's processed pixels as PNG files named <name>[_<index>].png, plus a manifest.json describing the atlas.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"out_dir": pathProperty("Directory to write into. Created if missing."),
				},
				"required": []string{"out_dir"},
			},
		},

		// Watch mode
		{
			Name:        "atlas_watch",
			Description: "Ingest a directory and keep the atlas in sync with it. Whenever image files change the atlas is rebuilt and a notifications/message is sent.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": pathProperty("Directory to watch recursively"),
				},
				"required": []string{"dir"},
			},
		},
		{
			Name:        "atlas_unwatch",
			Description: "Stop watching the current directory. The atlas keeps its contents.",
			InputSchema: noArguments(),
		},

		// Inspection
		{
			Name:        "image_inspect",
			Description: "Decode an image file without adding it and report its dimensions, format, alpha channel, file size and content hash.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Path to the image file"),
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
