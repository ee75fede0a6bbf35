package contour

import (
	"image"
	"math"
)

// Contour is a closed polygon in pixel coordinates. The last point connects
// back to the first.
type Contour []image.Point

// BoundingRect returns the smallest rectangle containing every point of c.
// Pixel extents are inclusive, so a single point yields a 1x1 rectangle.
func BoundingRect(c Contour) image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: c[0], Max: c[0]}
	for _, p := range c[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	r.Max = r.Max.Add(image.Pt(1, 1))
	return r
}

// PolygonArea is the shoelace area of c treated as a polygon through pixel
// centres. A w x h rectangle of pixels has polygon area (w-1)(h-1).
func PolygonArea(c Contour) float64 {
	if len(c) < 3 {
		return 0
	}
	sum := 0
	for i, p := range c {
		q := c[(i+1)%len(c)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(sum)) / 2
}

// Area returns the number of pixels enclosed by c, boundary included.
//
// The polygon area through pixel centres misses half of every boundary pixel;
// adding half the lattice points on the boundary plus one restores them
// (Pick's theorem). The result is exact for any contour whose edges run along
// the traced border, so a solid w x h rectangle has area w*h and a single
// pixel has area 1.
func Area(c Contour) float64 {
	if len(c) == 0 {
		return 0
	}
	boundary := 0
	for i, p := range c {
		q := c[(i+1)%len(c)]
		boundary += gcd(abs(q.X-p.X), abs(q.Y-p.Y))
	}
	return PolygonArea(c) + float64(boundary)/2 + 1
}

// Flatten returns the points of c as x1, y1, x2, y2, ...
func Flatten(c Contour) []float64 {
	out := make([]float64, 0, 2*len(c))
	for _, p := range c {
		out = append(out, float64(p.X), float64(p.Y))
	}
	return out
}

// Normalize returns the points of c divided by the image size, as
// x1/w, y1/h, x2/w, y2/h, ...
func Normalize(c Contour, w, h int) []float64 {
	out := make([]float64, 0, 2*len(c))
	if w <= 0 || h <= 0 {
		return out
	}
	fw, fh := float64(w), float64(h)
	for _, p := range c {
		out = append(out, float64(p.X)/fw, float64(p.Y)/fh)
	}
	return out
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
