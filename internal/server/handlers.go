package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/dataset-tools/internal/category"
	"github.com/ironsheep/dataset-tools/internal/coco"
	"github.com/ironsheep/dataset-tools/internal/contour"
	"github.com/ironsheep/dataset-tools/internal/imaging"
	"github.com/ironsheep/dataset-tools/internal/report"
	"github.com/ironsheep/dataset-tools/internal/yolo"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "dataset_coco").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Info("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (any, error) {
	switch name {
	// Images and masks
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "mask_coverage":
		return s.handleMaskCoverage(args)
	case "mask_contours":
		return s.handleMaskContours(args)

	// Datasets
	case "dataset_coco":
		return s.handleDatasetCOCO(args)
	case "dataset_yolo_labels":
		return s.handleDatasetYOLOLabels(args)
	case "dataset_validate":
		return s.handleDatasetValidate(args)
	case "dataset_summary":
		return s.handleDatasetSummary(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id any, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return errors.New("missing arguments")
	}
	return json.Unmarshal(args, v)
}

// threshold returns *t as a byte, or def when the argument was omitted.
func threshold(t *int, def uint8) (uint8, error) {
	if t == nil {
		return def, nil
	}
	if *t < 0 || *t > 255 {
		return 0, fmt.Errorf("threshold %d outside [0, 255]", *t)
	}
	return uint8(*t), nil
}

// === Image and Mask Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (any, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (any, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type maskArgs struct {
	Path      string `json:"path"`
	Threshold *int   `json:"threshold"`
	Normalize bool   `json:"normalize"`
}

// CoverageResult is returned by mask_coverage.
type CoverageResult struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Threshold uint8   `json:"threshold"`
	Percent   float64 `json:"percent"`
}

func (s *Server) handleMaskCoverage(args json.RawMessage) (any, error) {
	var a maskArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	th, err := threshold(a.Threshold, yolo.DefaultThreshold)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	mask := imaging.Binarize(img, th)
	b := mask.Bounds()
	return &CoverageResult{
		Width:     b.Dx(),
		Height:    b.Dy(),
		Threshold: th,
		Percent:   imaging.ForegroundFraction(mask) * 100,
	}, nil
}

// ContourResult describes one external contour.
type ContourResult struct {
	BBox   []float64 `json:"bbox"`
	Area   float64   `json:"area"`
	Points []float64 `json:"points"`
}

// ContoursResult is returned by mask_contours.
type ContoursResult struct {
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Count    int             `json:"count"`
	Contours []ContourResult `json:"contours"`
}

func (s *Server) handleMaskContours(args json.RawMessage) (any, error) {
	var a maskArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	th, err := threshold(a.Threshold, coco.DefaultThreshold)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	mask := imaging.Binarize(img, th)
	found, err := contour.FindExternal(mask)
	if err != nil {
		return nil, err
	}

	b := mask.Bounds()
	res := &ContoursResult{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Count:    len(found),
		Contours: make([]ContourResult, 0, len(found)),
	}
	for _, c := range found {
		r := contour.BoundingRect(c)
		points := contour.Flatten(c)
		if a.Normalize {
			points = contour.Normalize(c, b.Dx(), b.Dy())
		}
		res.Contours = append(res.Contours, ContourResult{
			BBox:   []float64{float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy())},
			Area:   contour.Area(c),
			Points: points,
		})
	}
	return res, nil
}

// === Dataset Handlers ===

type datasetCOCOArgs struct {
	ImagesDir string `json:"images_dir"`
	MasksDir  string `json:"masks_dir"`
	Output    string `json:"output"`
	Threshold *int   `json:"threshold"`
}

// COCOResult is returned by dataset_coco.
type COCOResult struct {
	Output string `json:"output"`
	coco.Stats
}

func (s *Server) handleDatasetCOCO(args json.RawMessage) (any, error) {
	var a datasetCOCOArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ImagesDir == "" || a.MasksDir == "" || a.Output == "" {
		return nil, errors.New("images_dir, masks_dir and output are required")
	}
	th, err := threshold(a.Threshold, coco.DefaultThreshold)
	if err != nil {
		return nil, err
	}
	ds, stats, err := coco.Convert(coco.Options{
		ImagesDir:  a.ImagesDir,
		MasksDir:   a.MasksDir,
		Categories: s.table,
		Threshold:  th,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := coco.WriteFile(a.Output, ds); err != nil {
		return nil, err
	}
	return &COCOResult{Output: a.Output, Stats: stats}, nil
}

type datasetYOLOArgs struct {
	ImagesDir string `json:"images_dir"`
	MasksDir  string `json:"masks_dir"`
	LabelsDir string `json:"labels_dir"`
	Threshold *int   `json:"threshold"`
}

func (s *Server) handleDatasetYOLOLabels(args json.RawMessage) (any, error) {
	var a datasetYOLOArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ImagesDir == "" || a.MasksDir == "" || a.LabelsDir == "" {
		return nil, errors.New("images_dir, masks_dir and labels_dir are required")
	}
	th, err := threshold(a.Threshold, yolo.DefaultThreshold)
	if err != nil {
		return nil, err
	}
	stats, err := yolo.Generate(yolo.Options{
		ImagesDir:  a.ImagesDir,
		MasksDir:   a.MasksDir,
		LabelsDir:  a.LabelsDir,
		Categories: s.table,
		Threshold:  th,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ValidateResult is returned by dataset_validate.
type ValidateResult struct {
	Valid       bool     `json:"valid"`
	Images      int      `json:"images"`
	Annotations int      `json:"annotations"`
	Problems    []string `json:"problems,omitempty"`
}

func (s *Server) handleDatasetValidate(args json.RawMessage) (any, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ds, err := coco.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res := &ValidateResult{
		Valid:       true,
		Images:      len(ds.Images),
		Annotations: len(ds.Annotations),
	}
	if err := ds.Validate(); err != nil {
		res.Valid = false
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				res.Problems = append(res.Problems, e.Error())
			}
		} else {
			res.Problems = []string{err.Error()}
		}
	}
	return res, nil
}

func (s *Server) handleDatasetSummary(args json.RawMessage) (any, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ds, err := coco.Load(a.Path)
	if err != nil {
		return nil, err
	}
	table, err := category.NewTable(ds.Categories)
	if err != nil {
		s.logger.Debug("dataset categories unusable, falling back to configured table", "error", err)
		table = s.table
	}
	return report.Summarize(ds, table), nil
}
