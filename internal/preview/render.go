// Package preview draws COCO annotations over their images and serves the
// result over HTTP, so a converted dataset can be checked by eye before it is
// handed to a training framework.
package preview

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/dataset-tools/internal/category"
	"github.com/ironsheep/dataset-tools/internal/coco"
)

// fillAlpha is the opacity of the polygon fill.
const fillAlpha = 96

// Palette returns n evenly spaced, saturated colours.
func Palette(n int) []color.NRGBA {
	out := make([]color.NRGBA, n)
	for i := range out {
		c := colorful.Hsv(float64(i)*360/float64(max(n, 1)), 0.8, 0.95)
		r, g, b := c.RGB255()
		out[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// Render returns a copy of img with every annotation drawn on it: a
// translucent polygon fill, its outline, the bounding box and the class name.
// Colours are assigned per category in table order.
func Render(img image.Image, anns []coco.Annotation, table *category.Table) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	cats := table.Categories()
	palette := Palette(len(cats))
	colours := make(map[int]color.NRGBA, len(cats))
	for i, c := range cats {
		colours[c.ID] = palette[i]
	}

	gc := draw2dimg.NewGraphicContext(dst)
	gc.SetLineWidth(1)
	for _, a := range anns {
		col, ok := colours[a.CategoryID]
		if !ok {
			col = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
		}
		fill := col
		fill.A = fillAlpha

		gc.SetFillColor(fill)
		gc.SetStrokeColor(col)
		for _, poly := range a.Segmentation {
			if len(poly) < 6 {
				continue
			}
			gc.BeginPath()
			gc.MoveTo(poly[0], poly[1])
			for i := 2; i+1 < len(poly); i += 2 {
				gc.LineTo(poly[i], poly[i+1])
			}
			gc.Close()
			gc.FillStroke()
		}

		if len(a.BBox) == 4 {
			gc.BeginPath()
			draw2dkit.Rectangle(gc, a.BBox[0], a.BBox[1], a.BBox[0]+a.BBox[2], a.BBox[1]+a.BBox[3])
			gc.Stroke()

			name, _ := table.Name(a.CategoryID)
			drawLabel(dst, int(a.BBox[0]), int(a.BBox[1])-2, name, col)
		}
	}
	return dst
}

// drawLabel writes text with its baseline at (x, y), moved inside the image
// when the box touches the top edge.
func drawLabel(dst *image.RGBA, x, y int, text string, col color.Color) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	if y < face.Ascent {
		y = face.Ascent
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
