// Package contour extracts the outer borders of foreground regions in a
// binary mask and computes the geometry COCO and YOLO annotations need.
//
// FindExternal returns one closed polygon per 8-connected foreground region
// that is not enclosed by another region. Holes are not reported, and
// regions sitting inside a hole of another region are ignored. Polygons are
// compressed so that only the end points of horizontal, vertical and
// diagonal runs remain.
//
// The default build traces borders in pure Go. Building with -tags gocv
// delegates to OpenCV's findContours through gocv.io/x/gocv; both produce the
// same set of polygons, though the order of regions may differ.
package contour
