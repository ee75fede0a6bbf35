package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Fit scales and crops img to exactly width x height.
//
// The image is scaled with the Lanczos filter until it covers the target size
// while keeping its aspect ratio, then the centred width x height region is
// kept. Nothing is letterboxed.
func Fit(img image.Image, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("cannot fit an empty image")
	}
	return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos), nil
}

// OpenOriented decodes the file at path and applies the EXIF orientation tag,
// so photographs taken in portrait come out upright.
func OpenOriented(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return img, nil
}
