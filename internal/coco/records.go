package coco

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// BoxModeXYWHAbs marks boxes as absolute x, y, width, height, matching
// Detectron2's BoxMode.XYWH_ABS.
const BoxModeXYWHAbs = 1

// Record is one image in the list-of-dicts format Detectron2 datasets are
// registered with.
type Record struct {
	FileName    string             `json:"file_name"`
	ImageID     int                `json:"image_id"`
	Height      int                `json:"height"`
	Width       int                `json:"width"`
	Annotations []RecordAnnotation `json:"annotations"`
}

// RecordAnnotation is one instance inside a Record.
type RecordAnnotation struct {
	BBox         []float64   `json:"bbox"`
	BBoxMode     int         `json:"bbox_mode"`
	Segmentation [][]float64 `json:"segmentation"`
	CategoryID   int         `json:"category_id"`
}

// DatasetDicts converts d into Detectron2 records. File names are joined with
// imageDir; every image gets a record, with or without annotations.
func DatasetDicts(d *Dataset, imageDir string) []Record {
	byImage := make(map[int][]RecordAnnotation, len(d.Images))
	for _, a := range d.Annotations {
		byImage[a.ImageID] = append(byImage[a.ImageID], RecordAnnotation{
			BBox:         a.BBox,
			BBoxMode:     BoxModeXYWHAbs,
			Segmentation: a.Segmentation,
			CategoryID:   a.CategoryID,
		})
	}

	records := make([]Record, 0, len(d.Images))
	for _, img := range d.Images {
		anns := byImage[img.ID]
		if anns == nil {
			anns = []RecordAnnotation{}
		}
		records = append(records, Record{
			FileName:    filepath.Join(imageDir, img.FileName),
			ImageID:     img.ID,
			Height:      img.Height,
			Width:       img.Width,
			Annotations: anns,
		})
	}
	return records
}

// WriteRecords writes records as a JSON array at path.
func WriteRecords(path string, records []Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
