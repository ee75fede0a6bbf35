// Package coco builds COCO-style instance segmentation datasets from a
// directory of rendered images and their binary masks.
//
// The converter makes a single sequential pass over the image directory in
// name order: every image whose class is known and whose mask exists becomes
// one image entry, and every external contour of its mask becomes one
// annotation. Identifiers are assigned from zero in that order, so re-running
// on unchanged inputs reproduces the images and annotations arrays exactly.
package coco

import (
	"time"

	"github.com/ironsheep/dataset-tools/internal/category"
	"github.com/ironsheep/dataset-tools/internal/contour"
)

// Dataset is the top-level COCO document.
type Dataset struct {
	Info        Info                `json:"info"`
	Licenses    []License           `json:"licenses"`
	Images      []Image             `json:"images"`
	Annotations []Annotation        `json:"annotations"`
	Categories  []category.Category `json:"categories"`
}

// Info is the free-form metadata block.
type Info struct {
	Description string `json:"description"`
	Year        int    `json:"year"`
	Version     string `json:"version"`
	Contributor string `json:"contributor"`
	DateCreated string `json:"date_created"`
}

// License is kept for schema compatibility; generated datasets carry none.
type License struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Image describes one accepted input image.
type Image struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Annotation is one object instance, derived from one external contour.
type Annotation struct {
	ID         int `json:"id"`
	ImageID    int `json:"image_id"`
	CategoryID int `json:"category_id"`
	// BBox is x, y, width, height in pixels.
	BBox         []float64   `json:"bbox"`
	Area         float64     `json:"area"`
	Segmentation [][]float64 `json:"segmentation"`
	IsCrowd      int         `json:"iscrowd"`
}

// DefaultInfo returns the metadata block written when none is configured.
func DefaultInfo(now time.Time) Info {
	return Info{
		Description: "Generated COCO Dataset",
		Year:        now.Year(),
		Version:     "1.0",
		DateCreated: now.Format(time.DateOnly),
	}
}

// New returns an empty dataset carrying the categories of table.
func New(info Info, table *category.Table) *Dataset {
	return &Dataset{
		Info:        info,
		Licenses:    []License{},
		Images:      []Image{},
		Annotations: []Annotation{},
		Categories:  table.Categories(),
	}
}

// AddImage appends an image entry with the next image identifier.
func (d *Dataset) AddImage(fileName string, width, height int) Image {
	img := Image{
		ID:       nextID(len(d.Images), func(i int) int { return d.Images[i].ID }),
		FileName: fileName,
		Width:    width,
		Height:   height,
	}
	d.Images = append(d.Images, img)
	return img
}

// AddAnnotation appends an annotation for contour c with the next
// annotation identifier.
func (d *Dataset) AddAnnotation(imageID, categoryID int, c contour.Contour) Annotation {
	r := contour.BoundingRect(c)
	ann := Annotation{
		ID:           nextID(len(d.Annotations), func(i int) int { return d.Annotations[i].ID }),
		ImageID:      imageID,
		CategoryID:   categoryID,
		BBox:         []float64{float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy())},
		Area:         contour.Area(c),
		Segmentation: [][]float64{contour.Flatten(c)},
	}
	d.Annotations = append(d.Annotations, ann)
	return ann
}

// AnnotationsFor returns the annotations that belong to imageID, in
// annotation order.
func (d *Dataset) AnnotationsFor(imageID int) []Annotation {
	var out []Annotation
	for _, a := range d.Annotations {
		if a.ImageID == imageID {
			out = append(out, a)
		}
	}
	return out
}

// ImageByID returns the image entry with the given identifier.
func (d *Dataset) ImageByID(id int) (Image, bool) {
	for _, img := range d.Images {
		if img.ID == id {
			return img, true
		}
	}
	return Image{}, false
}

func nextID(n int, idAt func(int) int) int {
	if n == 0 {
		return 0
	}
	return idAt(n-1) + 1
}
