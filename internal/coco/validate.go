package coco

import (
	"errors"
	"fmt"
)

var (
	// ErrDanglingImage means an annotation references an image id that is
	// not in the images array.
	ErrDanglingImage = errors.New("annotation references unknown image")

	// ErrDanglingCategory means an annotation references a category id that
	// is not in the categories array.
	ErrDanglingCategory = errors.New("annotation references unknown category")

	// ErrIDOrder means image or annotation ids are not strictly increasing.
	ErrIDOrder = errors.New("ids are not strictly increasing")
)

// Validate checks the referential integrity of d. Every problem found is
// reported; the returned error matches each sentinel that applies.
func (d *Dataset) Validate() error {
	var errs []error

	images := make(map[int]bool, len(d.Images))
	for i, img := range d.Images {
		if i > 0 && img.ID <= d.Images[i-1].ID {
			errs = append(errs, fmt.Errorf("%w: image %d follows %d", ErrIDOrder, img.ID, d.Images[i-1].ID))
		}
		images[img.ID] = true
	}

	categories := make(map[int]bool, len(d.Categories))
	for _, c := range d.Categories {
		categories[c.ID] = true
	}

	for i, ann := range d.Annotations {
		if i > 0 && ann.ID <= d.Annotations[i-1].ID {
			errs = append(errs, fmt.Errorf("%w: annotation %d follows %d", ErrIDOrder, ann.ID, d.Annotations[i-1].ID))
		}
		if !images[ann.ImageID] {
			errs = append(errs, fmt.Errorf("%w: annotation %d, image %d", ErrDanglingImage, ann.ID, ann.ImageID))
		}
		if !categories[ann.CategoryID] {
			errs = append(errs, fmt.Errorf("%w: annotation %d, category %d", ErrDanglingCategory, ann.ID, ann.CategoryID))
		}
	}
	return errors.Join(errs...)
}
