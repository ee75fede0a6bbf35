//go:build gocv

package contour

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// FindExternal returns the outer borders of the external foreground regions
// of bin using OpenCV (RETR_EXTERNAL, CHAIN_APPROX_SIMPLE). Any non-zero pixel
// is foreground. Points are reported in the coordinate space of bin.
func FindExternal(bin *image.Gray) ([]Contour, error) {
	if bin == nil {
		return nil, errors.New("contour: nil mask")
	}
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, nil
	}

	data := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(data[y*w:(y+1)*w], bin.Pix[y*bin.Stride:y*bin.Stride+w])
	}
	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, data)
	if err != nil {
		return nil, fmt.Errorf("contour: failed to build mat: %w", err)
	}
	defer mat.Close()

	found := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	contours := make([]Contour, 0, len(found))
	for _, pts := range found {
		c := make(Contour, len(pts))
		for i, p := range pts {
			c[i] = p.Add(b.Min)
		}
		contours = append(contours, c)
	}
	return contours, nil
}
