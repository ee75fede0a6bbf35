package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func thresholdProp(def int) map[string]any {
	return map[string]any{
		"type":        "integer",
		"minimum":     0,
		"maximum":     255,
		"default":     def,
		"description": "Pixels with luminance strictly greater than this are foreground",
	}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Images and masks
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and channel layout.",
			InputSchema: objectSchema(map[string]any{
				"path": stringProp("Absolute path to the image file"),
			}, "path"),
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: objectSchema(map[string]any{
				"path": stringProp("Absolute path to the image file"),
			}, "path"),
		},
		{
			Name:        "mask_coverage",
			Description: "Binarize a mask and report the percentage of foreground pixels.",
			InputSchema: objectSchema(map[string]any{
				"path":      stringProp("Absolute path to the mask image"),
				"threshold": thresholdProp(127),
			}, "path"),
		},
		{
			Name:        "mask_contours",
			Description: "Find the external contours of a binarized mask. Each contour comes with its bounding box [x, y, width, height], area in pixels and vertices.",
			InputSchema: objectSchema(map[string]any{
				"path":      stringProp("Absolute path to the mask image"),
				"threshold": thresholdProp(1),
				"normalize": map[string]any{
					"type":        "boolean",
					"description": "Return vertices divided by image width and height",
					"default":     false,
				},
			}, "path"),
		},

		// Datasets
		{
			Name:        "dataset_coco",
			Description: "Convert a directory of images and their masks (<class>_mask_<index>.png) into a COCO instance segmentation JSON file.",
			InputSchema: objectSchema(map[string]any{
				"images_dir": stringProp("Directory of <class>_..._<index> images"),
				"masks_dir":  stringProp("Directory of <class>_mask_<index> masks"),
				"output":     stringProp("Path of the COCO JSON file to write"),
				"threshold":  thresholdProp(1),
			}, "images_dir", "masks_dir", "output"),
		},
		{
			Name:        "dataset_yolo_labels",
			Description: "Write one YOLO segmentation label file per image, one normalized polygon per mask contour.",
			InputSchema: objectSchema(map[string]any{
				"images_dir": stringProp("Directory of images"),
				"masks_dir":  stringProp("Directory of masks"),
				"labels_dir": stringProp("Directory to write <image>.txt label files into"),
				"threshold":  thresholdProp(127),
			}, "images_dir", "masks_dir", "labels_dir"),
		},
		{
			Name:        "dataset_validate",
			Description: "Check that every annotation of a COCO file references an existing image and category and that ids are increasing.",
			InputSchema: objectSchema(map[string]any{
				"path": stringProp("Path of the COCO JSON file"),
			}, "path"),
		},
		{
			Name:        "dataset_summary",
			Description: "Summarize a COCO file: image and annotation counts per category and annotation area statistics.",
			InputSchema: objectSchema(map[string]any{
				"path": stringProp("Path of the COCO JSON file"),
			}, "path"),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]any{
			"tools": GetToolDefinitions(),
		},
	}
}
