package imaging

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
)

// Foreground and Background are the two pixel values of a binarized mask.
const (
	Foreground = 255
	Background = 0
)

// Binarize converts img to a two-level mask.
//
// Each pixel is reduced to its luminance (0.299R + 0.587G + 0.114B, rounded)
// and becomes Foreground when that value is strictly greater than threshold,
// Background otherwise. A threshold of 1 therefore keeps every pixel brighter
// than 1; 127 keeps the upper half of the range.
//
// The returned image always has its origin at (0, 0).
func Binarize(img image.Image, threshold uint8) *image.Gray {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := 0; y < bounds.Dy(); y++ {
		src := gray.Pix[y*gray.Stride : y*gray.Stride+bounds.Dx()*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+bounds.Dx()]
		for x := range dst {
			if src[x*4] > threshold {
				dst[x] = Foreground
			} else {
				dst[x] = Background
			}
		}
	}
	return out
}

// LoadMask decodes the mask at path and binarizes it with threshold.
func LoadMask(path string, threshold uint8) (*image.Gray, error) {
	img, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return Binarize(img, threshold), nil
}

// ForegroundFraction returns the share of non-zero pixels in mask, in [0, 1].
// An empty mask returns 0.
func ForegroundFraction(mask *image.Gray) float64 {
	bounds := mask.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}
	on := 0
	for y := 0; y < bounds.Dy(); y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+bounds.Dx()]
		for _, v := range row {
			if v != Background {
				on++
			}
		}
	}
	return float64(on) / float64(total)
}

// SavePNG encodes img as PNG at path, replacing any existing file.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
