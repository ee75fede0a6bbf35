//go:build !gocv

package contour

import (
	"errors"
	"image"
)

// neighbours lists the eight moves around a pixel, clockwise on screen
// starting east.
var neighbours = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

const west = 4

// FindExternal returns the outer borders of the external foreground regions
// of bin, in raster order of each region's top-left pixel. Any non-zero pixel
// is foreground. Points are reported in the coordinate space of bin.
func FindExternal(bin *image.Gray) ([]Contour, error) {
	if bin == nil {
		return nil, errors.New("contour: nil mask")
	}
	g := newGrid(bin)
	if g.w == 0 || g.h == 0 {
		return nil, nil
	}

	outside := g.outsideBackground()
	visited := make([]bool, len(g.fg))
	var contours []Contour

	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			i := y*g.w + x
			if !g.fg[i] || visited[i] {
				continue
			}
			g.markComponent(x, y, visited)

			// The left neighbour of a region's first pixel lies in the
			// background that surrounds the region.
			if x > 0 && !outside[i-1] {
				continue
			}
			c := simplify(g.traceOuter(image.Pt(x, y)))
			for k := range c {
				c[k] = c[k].Add(g.origin)
			}
			contours = append(contours, c)
		}
	}
	return contours, nil
}

type grid struct {
	w, h   int
	origin image.Point
	fg     []bool
}

func newGrid(bin *image.Gray) *grid {
	b := bin.Bounds()
	g := &grid{w: b.Dx(), h: b.Dy(), origin: b.Min}
	g.fg = make([]bool, g.w*g.h)
	for y := 0; y < g.h; y++ {
		row := bin.Pix[(y)*bin.Stride : (y)*bin.Stride+g.w]
		for x, v := range row {
			g.fg[y*g.w+x] = v != 0
		}
	}
	return g
}

func (g *grid) at(p image.Point) bool {
	if p.X < 0 || p.Y < 0 || p.X >= g.w || p.Y >= g.h {
		return false
	}
	return g.fg[p.Y*g.w+p.X]
}

// outsideBackground marks background pixels 4-connected to the image frame.
func (g *grid) outsideBackground() []bool {
	outside := make([]bool, len(g.fg))
	var stack []int
	push := func(x, y int) {
		i := y*g.w + x
		if g.fg[i] || outside[i] {
			return
		}
		outside[i] = true
		stack = append(stack, i)
	}
	for x := 0; x < g.w; x++ {
		push(x, 0)
		push(x, g.h-1)
	}
	for y := 0; y < g.h; y++ {
		push(0, y)
		push(g.w-1, y)
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%g.w, i/g.w
		if x > 0 {
			push(x-1, y)
		}
		if x < g.w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < g.h-1 {
			push(x, y+1)
		}
	}
	return outside
}

// markComponent flags every pixel 8-connected to (x, y).
func (g *grid) markComponent(x, y int, visited []bool) {
	stack := []image.Point{{x, y}}
	visited[y*g.w+x] = true
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range neighbours {
			q := p.Add(d)
			if !g.at(q) || visited[q.Y*g.w+q.X] {
				continue
			}
			visited[q.Y*g.w+q.X] = true
			stack = append(stack, q)
		}
	}
}

// traceOuter follows the outer border that starts at the top-left pixel of a
// region, entering from its west neighbour. The walk keeps the region on the
// left-hand side, so a rectangle is visited top-left, bottom-left,
// bottom-right, top-right.
func (g *grid) traceOuter(start image.Point) Contour {
	// First foreground neighbour clockwise from west. It is the last pixel
	// the walk visits before returning to start.
	last := start
	found := false
	for k := 1; k < 8; k++ {
		q := start.Add(neighbours[(west+k)%8])
		if g.at(q) {
			last, found = q, true
			break
		}
	}
	if !found {
		return Contour{start}
	}

	c := Contour{start}
	prev, cur := last, start
	for {
		back := direction(cur, prev)
		next := cur
		for k := 1; k <= 8; k++ {
			q := cur.Add(neighbours[(back-k+8)%8])
			if g.at(q) {
				next = q
				break
			}
		}
		if next == start && cur == last {
			return c
		}
		c = append(c, next)
		prev, cur = cur, next
	}
}

func direction(from, to image.Point) int {
	d := to.Sub(from)
	for i, n := range neighbours {
		if n == d {
			return i
		}
	}
	return 0
}

// simplify keeps only the points where the walk changes direction. The first
// point is always kept.
func simplify(c Contour) Contour {
	n := len(c)
	if n < 3 {
		return c
	}
	out := Contour{c[0]}
	for i := 1; i < n; i++ {
		in := c[i].Sub(c[i-1])
		next := c[(i+1)%n].Sub(c[i])
		if in != next {
			out = append(out, c[i])
		}
	}
	return out
}
