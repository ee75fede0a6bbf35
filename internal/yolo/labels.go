// Package yolo writes YOLO segmentation labels and the data.yaml file that
// points a training run at them.
package yolo

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ironsheep/dataset-tools/internal/category"
	"github.com/ironsheep/dataset-tools/internal/contour"
	"github.com/ironsheep/dataset-tools/internal/imaging"
	"github.com/ironsheep/dataset-tools/internal/progress"
)

// DefaultThreshold splits masks at mid-grey.
const DefaultThreshold = 127

// MinPolygonPoints is the smallest polygon written to a label file.
const MinPolygonPoints = 3

// Options configures Generate.
type Options struct {
	ImagesDir string
	MasksDir  string
	// LabelsDir receives one .txt file per image; it is created if needed.
	LabelsDir string

	// Categories maps class names to identifiers. Nil means category.Default().
	Categories *category.Table

	// Threshold binarizes masks; a pixel is foreground when strictly greater.
	Threshold uint8

	// ImageExts selects input images. Defaults to .png and .jpg.
	ImageExts []string
	// MaskExt is the extension of mask files. Defaults to .png.
	MaskExt string

	Logger   *slog.Logger
	Progress progress.Reporter
}

// Stats summarises one label generation run.
type Stats struct {
	Listed   int `json:"listed"`
	Labels   int `json:"labels"`
	Polygons int `json:"polygons"`
	Skipped  int `json:"skipped"`
}

// Generate writes a label file for every image in opts.ImagesDir whose class
// is known and whose mask can be read.
//
// Coordinates are normalised by the mask size. Every problem with a single
// image (malformed name, unknown class, missing or unreadable mask) is logged
// and the image is skipped; only directory errors abort the run.
func Generate(opts Options) (Stats, error) {
	var stats Stats
	opts = opts.withDefaults()
	log := opts.Logger

	names, err := imaging.ListFiles(opts.ImagesDir, opts.ImageExts...)
	if err != nil {
		return stats, err
	}
	stats.Listed = len(names)
	if err := os.MkdirAll(opts.LabelsDir, 0o755); err != nil {
		return stats, fmt.Errorf("failed to create labels dir: %w", err)
	}

	for _, name := range names {
		_ = opts.Progress.Add(1)

		parsed, err := category.ParseFilename(name)
		if err != nil {
			log.Warn("skipping image", "file", name, "error", err)
			stats.Skipped++
			continue
		}
		classID := opts.Categories.ID(parsed.Class)
		if classID == category.Unknown {
			log.Warn("unknown class name, skipping", "file", name, "class", parsed.Class)
			stats.Skipped++
			continue
		}

		maskPath := filepath.Join(opts.MasksDir, category.MaskName(parsed.Class, parsed.Index, opts.MaskExt))
		mask, err := imaging.LoadMask(maskPath, opts.Threshold)
		if err != nil {
			log.Warn("could not read mask, skipping", "file", name, "mask", maskPath, "error", err)
			stats.Skipped++
			continue
		}
		contours, err := contour.FindExternal(mask)
		if err != nil {
			log.Warn("could not extract contours, skipping", "file", name, "error", err)
			stats.Skipped++
			continue
		}

		w, h := mask.Bounds().Dx(), mask.Bounds().Dy()
		var lines []string
		for _, c := range contours {
			if line, ok := FormatPolygon(classID, c, w, h); ok {
				lines = append(lines, line)
			}
		}

		labelPath := filepath.Join(opts.LabelsDir, strings.TrimSuffix(name, filepath.Ext(name))+".txt")
		if err := os.WriteFile(labelPath, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
			return stats, fmt.Errorf("failed to write label: %w", err)
		}
		stats.Labels++
		stats.Polygons += len(lines)
		log.Debug("label file created", "file", labelPath, "polygons", len(lines))
	}
	return stats, nil
}

// FormatPolygon renders one label line: the class id followed by the
// contour points divided by w and h, with six decimals. It reports false for
// contours with fewer than MinPolygonPoints points.
func FormatPolygon(classID int, c contour.Contour, w, h int) (string, bool) {
	if len(c) < MinPolygonPoints || w <= 0 || h <= 0 {
		return "", false
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(classID))
	for _, v := range contour.Normalize(c, w, h) {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(v, 'f', 6, 64))
	}
	return b.String(), true
}

func (o Options) withDefaults() Options {
	if o.Categories == nil {
		o.Categories = category.Default()
	}
	if len(o.ImageExts) == 0 {
		o.ImageExts = []string{".png", ".jpg"}
	}
	if o.MaskExt == "" {
		o.MaskExt = ".png"
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	o.Progress = progress.OrNop(o.Progress)
	return o
}
