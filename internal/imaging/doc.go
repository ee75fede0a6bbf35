// Package imaging loads dataset images and turns masks into binary images.
//
// Every converter in the repository reads masks through this package so that
// thresholding behaves identically everywhere: a pixel is foreground when its
// luminance is strictly greater than the threshold, otherwise background.
// Binarized masks are *image.Gray values holding only Foreground (255) and
// Background (0), with their origin at (0,0).
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward.
//
// # Supported Formats
//
// PNG, JPEG and GIF through the standard library; BMP, TIFF and WebP through
// golang.org/x/image. Resizing and EXIF orientation use
// github.com/disintegration/imaging.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless.
package imaging
