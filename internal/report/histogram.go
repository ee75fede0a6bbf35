package report

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/dataset-tools/internal/coco"
)

// HistogramBins is the number of bins of the area histogram.
const HistogramBins = 20

// WriteAreaHistogram plots the distribution of annotation areas. The image
// format follows the extension of path (png, svg, pdf, ...).
func WriteAreaHistogram(path string, ds *coco.Dataset) error {
	if len(ds.Annotations) == 0 {
		return errors.New("dataset has no annotations")
	}
	values := make(plotter.Values, len(ds.Annotations))
	for i, a := range ds.Annotations {
		values[i] = a.Area
	}

	p := plot.New()
	p.Title.Text = "Annotation area"
	p.X.Label.Text = "Area (px)"
	p.Y.Label.Text = "Annotations"

	h, err := plotter.NewHist(values, HistogramBins)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	p.Add(h)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save histogram: %w", err)
	}
	return nil
}
