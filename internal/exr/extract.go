package exr

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/dataset-tools/internal/imaging"
	"github.com/ironsheep/dataset-tools/internal/progress"
)

// ExtractOptions configures ExtractRGBD.
type ExtractOptions struct {
	InputDir string
	RGBDir   string
	DepthDir string

	// Class is the leading token of output names. Defaults to "null".
	Class string
	// RGBChannels name the red, green and blue planes. Defaults to
	// RGB.R, RGB.G and RGB.B.
	RGBChannels [3]string
	// DepthChannel names the depth plane. Defaults to Depth.V.
	DepthChannel string

	Logger   *slog.Logger
	Progress progress.Reporter
}

// ExtractResult names the two images written for one input file.
type ExtractResult struct {
	Source string `json:"source"`
	RGB    string `json:"rgb"`
	Depth  string `json:"depth"`
}

// ExtractRGBD converts every .exr file of InputDir, in name order, into an
// 8-bit RGB image <class>_rgb_<n>.png and an inverted, normalised depth image
// <class>_depth_<n>.png, with n counting from 1.
func ExtractRGBD(opts ExtractOptions) ([]ExtractResult, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	names, err := imaging.ListFiles(opts.InputDir, ".exr")
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{opts.RGBDir, opts.DepthDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	results := make([]ExtractResult, 0, len(names))
	for i, name := range names {
		_ = opts.Progress.Add(1)
		im, err := DecodeFile(filepath.Join(opts.InputDir, name))
		if err != nil {
			return results, fmt.Errorf("%s: %w", name, err)
		}

		rgb, err := RGB(im, opts.RGBChannels)
		if err != nil {
			return results, fmt.Errorf("%s: %w", name, err)
		}
		depth, err := Depth(im, opts.DepthChannel)
		if err != nil {
			return results, fmt.Errorf("%s: %w", name, err)
		}

		res := ExtractResult{
			Source: name,
			RGB:    fmt.Sprintf("%s_rgb_%03d.png", opts.Class, i+1),
			Depth:  fmt.Sprintf("%s_depth_%03d.png", opts.Class, i+1),
		}
		if err := imaging.SavePNG(filepath.Join(opts.RGBDir, res.RGB), rgb); err != nil {
			return results, err
		}
		if err := imaging.SavePNG(filepath.Join(opts.DepthDir, res.Depth), depth); err != nil {
			return results, err
		}
		log.Debug("extracted exr", "file", name, "rgb", res.RGB, "depth", res.Depth)
		results = append(results, res)
	}
	return results, nil
}

// RGB builds an 8-bit image from three float planes, scaling by 255 and
// clipping to [0, 255].
func RGB(im *Image, channels [3]string) (*image.RGBA, error) {
	var planes [3][]float32
	for i, name := range channels {
		p, ok := im.Plane(name)
		if !ok {
			return nil, fmt.Errorf("missing channel %s", name)
		}
		planes[i] = p
	}
	w, h := im.Width(), im.Height()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		out.Pix[4*i] = toByte(float64(planes[0][i]) * 255)
		out.Pix[4*i+1] = toByte(float64(planes[1][i]) * 255)
		out.Pix[4*i+2] = toByte(float64(planes[2][i]) * 255)
		out.Pix[4*i+3] = 0xff
	}
	return out, nil
}

// Depth min-max normalises the named plane to [0, 255] and inverts it, so
// near surfaces are bright. A constant plane normalises to 0 and comes out
// white.
func Depth(im *Image, channel string) (*image.Gray, error) {
	plane, ok := im.Plane(channel)
	if !ok {
		return nil, fmt.Errorf("missing channel %s", channel)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range plane {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}

	w, h := im.Width(), im.Height()
	norm := image.NewGray(image.Rect(0, 0, w, h))
	if span := hi - lo; span > 0 && !math.IsInf(span, 0) {
		for i, v := range plane {
			norm.Pix[i] = toByte((float64(v) - lo) / span * 255)
		}
	}

	inverted := effect.Invert(norm)
	out := image.NewGray(norm.Bounds())
	draw.Draw(out, out.Bounds(), inverted, image.Point{}, draw.Src)
	return out, nil
}

// toByte clips v to [0, 255] and truncates it. NaN maps to 0.
func toByte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

func (o ExtractOptions) withDefaults() ExtractOptions {
	if o.Class == "" {
		o.Class = "null"
	}
	if o.RGBChannels == ([3]string{}) {
		o.RGBChannels = [3]string{"RGB.R", "RGB.G", "RGB.B"}
	}
	if o.DepthChannel == "" {
		o.DepthChannel = "Depth.V"
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	o.Progress = progress.OrNop(o.Progress)
	return o
}
