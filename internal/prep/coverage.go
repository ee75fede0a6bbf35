package prep

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ironsheep/dataset-tools/internal/imaging"
	"github.com/ironsheep/dataset-tools/internal/progress"
)

// CoverageOptions configures Coverage.
type CoverageOptions struct {
	InputDir  string
	OutputDir string
	// Object is the leading token of every output name.
	Object string
	// Threshold binarizes masks; a pixel is foreground when strictly greater.
	Threshold uint8

	Logger   *slog.Logger
	Progress progress.Reporter
}

// CoverageResult describes one written mask.
type CoverageResult struct {
	Source  string  `json:"source"`
	Output  string  `json:"output"`
	Percent float64 `json:"percent"`
}

// Coverage binarizes every mask in InputDir and writes it to OutputDir as
// <object>_<i>_<percent>.png, where i is the zero-based position of the file
// in name order and percent is the share of foreground pixels.
func Coverage(opts CoverageOptions) ([]CoverageResult, error) {
	if opts.Object == "" {
		return nil, fmt.Errorf("coverage needs an object name")
	}
	log := loggerOr(opts.Logger)
	prog := progress.OrNop(opts.Progress)

	names, err := imaging.ListFiles(opts.InputDir, ".png", ".jpg", ".jpeg")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	results := make([]CoverageResult, 0, len(names))
	for i, name := range names {
		_ = prog.Add(1)
		mask, err := imaging.LoadMask(filepath.Join(opts.InputDir, name), opts.Threshold)
		if err != nil {
			return results, err
		}
		pct := imaging.ForegroundFraction(mask) * 100
		out := CoverageName(opts.Object, i, pct)
		if err := imaging.SavePNG(filepath.Join(opts.OutputDir, out), mask); err != nil {
			return results, err
		}
		log.Debug("processed mask", "file", name, "output", out)
		results = append(results, CoverageResult{Source: name, Output: out, Percent: pct})
	}
	return results, nil
}

// CoverageName formats the output name for the i-th mask.
func CoverageName(object string, i int, percent float64) string {
	return fmt.Sprintf("%s_%04d_%.2f.png", object, i, percent)
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
