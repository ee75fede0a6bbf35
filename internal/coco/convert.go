package coco

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ironsheep/dataset-tools/internal/category"
	"github.com/ironsheep/dataset-tools/internal/contour"
	"github.com/ironsheep/dataset-tools/internal/imaging"
	"github.com/ironsheep/dataset-tools/internal/progress"
)

// DefaultThreshold keeps every mask pixel brighter than 1.
const DefaultThreshold = 1

// Options configures Convert.
type Options struct {
	// ImagesDir holds the rendered images, MasksDir their masks.
	ImagesDir string
	MasksDir  string

	// Categories maps class names to identifiers. Nil means category.Default().
	Categories *category.Table

	// Threshold binarizes masks: a pixel is foreground when its luminance is
	// strictly greater than Threshold.
	Threshold uint8

	// ImageExt selects input images; MaskExt is the extension of their masks.
	// Both default to ".png".
	ImageExt string
	MaskExt  string

	// Info overrides the metadata block. Nil means DefaultInfo(time.Now()).
	Info *Info

	Logger   *slog.Logger
	Progress progress.Reporter
}

// Stats summarises one conversion run.
type Stats struct {
	Listed      int `json:"listed"`
	Images      int `json:"images"`
	Annotations int `json:"annotations"`
	Skipped     int `json:"skipped"`
}

// Convert builds a dataset from opts.ImagesDir and opts.MasksDir.
//
// Images whose class is not in the category table, and images without a
// mask, are skipped. A file name that cannot be split into class and index,
// or an image or mask that cannot be decoded, aborts the run.
func Convert(opts Options) (*Dataset, Stats, error) {
	var stats Stats
	opts = opts.withDefaults()
	log := opts.Logger

	names, err := imaging.ListFiles(opts.ImagesDir, opts.ImageExt)
	if err != nil {
		return nil, stats, err
	}
	stats.Listed = len(names)

	info := DefaultInfo(time.Now())
	if opts.Info != nil {
		info = *opts.Info
	}
	ds := New(info, opts.Categories)

	for _, name := range names {
		_ = opts.Progress.Add(1)

		parsed, err := category.ParseFilename(name)
		if err != nil {
			return nil, stats, err
		}
		categoryID := opts.Categories.ID(parsed.Class)
		if categoryID == category.Unknown {
			log.Debug("skipping image with unknown class", "file", name, "class", parsed.Class)
			stats.Skipped++
			continue
		}

		maskPath := filepath.Join(opts.MasksDir, category.MaskName(parsed.Class, parsed.Index, opts.MaskExt))
		if _, err := os.Stat(maskPath); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Debug("skipping image without mask", "file", name, "mask", filepath.Base(maskPath))
				stats.Skipped++
				continue
			}
			return nil, stats, fmt.Errorf("failed to stat mask: %w", err)
		}

		dims, err := imaging.DecodeDimensions(filepath.Join(opts.ImagesDir, name))
		if err != nil {
			return nil, stats, err
		}
		mask, err := imaging.LoadMask(maskPath, opts.Threshold)
		if err != nil {
			return nil, stats, err
		}
		contours, err := contour.FindExternal(mask)
		if err != nil {
			return nil, stats, fmt.Errorf("failed to extract contours from %s: %w", filepath.Base(maskPath), err)
		}

		img := ds.AddImage(name, dims.Width, dims.Height)
		for _, c := range contours {
			ds.AddAnnotation(img.ID, categoryID, c)
		}
		log.Debug("converted image", "file", name, "id", img.ID, "annotations", len(contours))
	}

	stats.Images = len(ds.Images)
	stats.Annotations = len(ds.Annotations)
	return ds, stats, nil
}

func (o Options) withDefaults() Options {
	if o.Categories == nil {
		o.Categories = category.Default()
	}
	if o.ImageExt == "" {
		o.ImageExt = ".png"
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
