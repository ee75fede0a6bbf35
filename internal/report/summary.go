// Package report summarises a COCO dataset: per-category counts, annotation
// area statistics, a Markdown report and an area histogram.
package report

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/dataset-tools/internal/category"
	"github.com/ironsheep/dataset-tools/internal/coco"
)

// CategoryStats counts one category.
type CategoryStats struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	// Images is the number of images with at least one annotation of this
	// category.
	Images      int `json:"images"`
	Annotations int `json:"annotations"`
}

// AreaStats describes the distribution of annotation areas in pixels.
type AreaStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary is the result of Summarize.
type Summary struct {
	Description string          `json:"description"`
	Images      int             `json:"images"`
	Annotations int             `json:"annotations"`
	EmptyImages int             `json:"empty_images"`
	Categories  []CategoryStats `json:"categories"`
	Area        AreaStats       `json:"area"`
	// PerImage is the mean number of annotations per image.
	PerImage    float64 `json:"per_image"`
	MaxPerImage int     `json:"max_per_image"`
}

// Summarize computes dataset statistics. Categories are listed in table
// order, including those without annotations.
func Summarize(ds *coco.Dataset, table *category.Table) Summary {
	s := Summary{
		Description: ds.Info.Description,
		Images:      len(ds.Images),
		Annotations: len(ds.Annotations),
	}

	index := make(map[int]int)
	for i, c := range table.Categories() {
		index[c.ID] = i
		s.Categories = append(s.Categories, CategoryStats{ID: c.ID, Name: c.Name})
	}

	perImage := make(map[int]int, len(ds.Images))
	seen := make(map[[2]int]bool)
	areas := make([]float64, 0, len(ds.Annotations))
	for _, a := range ds.Annotations {
		perImage[a.ImageID]++
		areas = append(areas, a.Area)
		i, ok := index[a.CategoryID]
		if !ok {
			continue
		}
		s.Categories[i].Annotations++
		key := [2]int{a.ImageID, a.CategoryID}
		if !seen[key] {
			seen[key] = true
			s.Categories[i].Images++
		}
	}

	for _, img := range ds.Images {
		n := perImage[img.ID]
		if n == 0 {
			s.EmptyImages++
		}
		s.MaxPerImage = max(s.MaxPerImage, n)
	}
	if s.Images > 0 {
		s.PerImage = float64(s.Annotations) / float64(s.Images)
	}
	s.Area = areaStats(areas)
	return s
}

func areaStats(areas []float64) AreaStats {
	if len(areas) == 0 {
		return AreaStats{}
	}
	mean, std := stat.MeanStdDev(areas, nil)
	if len(areas) < 2 || math.IsNaN(std) {
		std = 0
	}
	return AreaStats{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(areas),
		Max:    floats.Max(areas),
	}
}
