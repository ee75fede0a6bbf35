package prep

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ironsheep/dataset-tools/internal/imaging"
	"github.com/ironsheep/dataset-tools/internal/progress"
)

// ResizeOptions configures Resize.
type ResizeOptions struct {
	InputDir  string
	OutputDir string
	// Width and Height of every output image. Both default to 640.
	Width  int
	Height int
	// Prefix and Start form the output name <prefix>_<n>.png with n counting
	// up from Start. Defaults are "test" and 1.
	Prefix string
	Start  int

	Logger   *slog.Logger
	Progress progress.Reporter
}

// ResizeResult reports what happened to one input file.
type ResizeResult struct {
	Source string `json:"source"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Resize crops and scales every file of InputDir to Width x Height around the
// centre and saves it as an opaque PNG. Files that cannot be decoded or
// written are logged and skipped; the counter only advances on success.
func Resize(opts ResizeOptions) ([]ResizeResult, error) {
	if opts.Width == 0 {
		opts.Width = 640
	}
	if opts.Height == 0 {
		opts.Height = 640
	}
	if opts.Prefix == "" {
		opts.Prefix = "test"
	}
	if opts.Start == 0 {
		opts.Start = 1
	}
	if opts.Width < 0 || opts.Height < 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", opts.Width, opts.Height)
	}
	log := loggerOr(opts.Logger)
	prog := progress.OrNop(opts.Progress)

	names, err := imaging.ListFiles(opts.InputDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	results := make([]ResizeResult, 0, len(names))
	count := opts.Start
	for _, name := range names {
		_ = prog.Add(1)
		outName := fmt.Sprintf("%s_%03d.png", opts.Prefix, count)
		if err := resizeOne(filepath.Join(opts.InputDir, name), filepath.Join(opts.OutputDir, outName), opts.Width, opts.Height); err != nil {
			log.Warn("skipping file", "file", name, "error", err)
			results = append(results, ResizeResult{Source: name, Error: err.Error()})
			continue
		}
		log.Debug("resized", "file", name, "output", outName)
		results = append(results, ResizeResult{Source: name, Output: outName})
		count++
	}
	return results, nil
}

func resizeOne(src, dst string, w, h int) error {
	img, err := imaging.OpenOriented(src)
	if err != nil {
		return err
	}
	fitted, err := imaging.Fit(img, w, h)
	if err != nil {
		return err
	}
	return imaging.SavePNG(dst, opaque(fitted))
}

// opaque drops the alpha channel, keeping colour values as they are.
func opaque(img *image.NRGBA) *image.NRGBA {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}
