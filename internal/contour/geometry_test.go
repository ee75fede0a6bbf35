package contour

import (
	"image"
	"math"
	"testing"
)

func TestBoundingRect(t *testing.T) {
	tests := []struct {
		name string
		c    Contour
		want image.Rectangle
	}{
		{"empty", nil, image.Rectangle{}},
		{"single point", Contour{{3, 4}}, image.Rect(3, 4, 4, 5)},
		{"rectangle corners", Contour{{2, 1}, {2, 5}, {9, 5}, {9, 1}}, image.Rect(2, 1, 10, 6)},
		{"line", Contour{{0, 0}, {4, 0}}, image.Rect(0, 0, 5, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BoundingRect(tt.c); got != tt.want {
				t.Errorf("BoundingRect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArea(t *testing.T) {
	tests := []struct {
		name string
		c    Contour
		want float64
	}{
		{"empty", nil, 0},
		{"single pixel", Contour{{5, 5}}, 1},
		{"two pixels", Contour{{0, 0}, {1, 0}}, 2},
		{"vertical line of five", Contour{{3, 0}, {3, 4}}, 5},
		{"3x2 rectangle", Contour{{0, 0}, {0, 1}, {2, 1}, {2, 0}}, 6},
		{"10x4 rectangle", Contour{{5, 5}, {5, 8}, {14, 8}, {14, 5}}, 40},
		// Diamond of radius 2: 1+3+5+3+1 pixels.
		{"diamond", Contour{{2, 0}, {0, 2}, {2, 4}, {4, 2}}, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Area(tt.c); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Area = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolygonArea(t *testing.T) {
	c := Contour{{0, 0}, {0, 1}, {2, 1}, {2, 0}}
	if got := PolygonArea(c); got != 2 {
		t.Errorf("PolygonArea = %v, want 2", got)
	}
	if got := PolygonArea(Contour{{0, 0}, {4, 0}}); got != 0 {
		t.Errorf("PolygonArea of a line = %v, want 0", got)
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten(Contour{{1, 2}, {3, 4}})
	want := []float64{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize(Contour{{0, 0}, {320, 120}, {639, 479}}, 640, 480)
	want := []float64{0, 0, 0.5, 0.25, 639.0 / 640, 479.0 / 480}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if len(Normalize(Contour{{1, 1}}, 0, 10)) != 0 {
		t.Error("zero width should produce no coordinates")
	}
}
