package imaging

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func newFilledRGBA(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestFit_Dimensions(t *testing.T) {
	tests := []struct {
		name          string
		srcW, srcH    int
		dstW, dstH    int
	}{
		{"landscape to square", 400, 200, 64, 64},
		{"portrait to square", 120, 300, 64, 64},
		{"upscale", 10, 10, 40, 40},
		{"non square target", 100, 100, 80, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFilledRGBA(tt.srcW, tt.srcH, color.RGBA{200, 100, 50, 255})
			out, err := Fit(src, tt.dstW, tt.dstH)
			if err != nil {
				t.Fatalf("Fit: %v", err)
			}
			if out.Bounds().Dx() != tt.dstW || out.Bounds().Dy() != tt.dstH {
				t.Errorf("got %dx%d, want %dx%d", out.Bounds().Dx(), out.Bounds().Dy(), tt.dstW, tt.dstH)
			}
		})
	}
}

func TestFit_CropsCentre(t *testing.T) {
	// Left and right thirds red, centre third green; fitting to a square
	// keeps only the centre.
	src := image.NewRGBA(image.Rect(0, 0, 300, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 300; x++ {
			c := color.RGBA{255, 0, 0, 255}
			if x >= 100 && x < 200 {
				c = color.RGBA{0, 255, 0, 255}
			}
			src.Set(x, y, c)
		}
	}

	out, err := Fit(src, 50, 50)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	r, g, _, _ := out.At(25, 25).RGBA()
	if g>>8 < 200 || r>>8 > 50 {
		t.Errorf("centre pixel should be green, got r=%d g=%d", r>>8, g>>8)
	}
}

func TestFit_Invalid(t *testing.T) {
	src := newFilledRGBA(10, 10, color.White)
	if _, err := Fit(src, 0, 10); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := Fit(image.NewRGBA(image.Rectangle{}), 10, 10); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestOpenOriented(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := SavePNG(path, newFilledRGBA(30, 20, color.White)); err != nil {
		t.Fatal(err)
	}
	img, err := OpenOriented(path)
	if err != nil {
		t.Fatalf("OpenOriented: %v", err)
	}
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 20 {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if _, err := OpenOriented(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
