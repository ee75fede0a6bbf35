package prep

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ironsheep/dataset-tools/internal/imaging"
	"github.com/ironsheep/dataset-tools/internal/progress"
)

// RenameOptions configures Rename.
type RenameOptions struct {
	InputDir  string
	OutputDir string
	// Class and Prefix form the output name <class>_<prefix>_<n>.png.
	// They default to "null" and "rgb".
	Class  string
	Prefix string

	Logger   *slog.Logger
	Progress progress.Reporter
}

// Rename copies every .png file of InputDir into OutputDir under a sequential
// dataset name, numbering from 1 in name order. It returns the new names.
func Rename(opts RenameOptions) ([]string, error) {
	if opts.Class == "" {
		opts.Class = "null"
	}
	if opts.Prefix == "" {
		opts.Prefix = "rgb"
	}
	log := loggerOr(opts.Logger)
	prog := progress.OrNop(opts.Progress)

	names, err := imaging.ListFiles(opts.InputDir, ".png")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	out := make([]string, 0, len(names))
	for i, name := range names {
		_ = prog.Add(1)
		newName := fmt.Sprintf("%s_%s_%03d.png", opts.Class, opts.Prefix, i+1)
		if err := copyFile(filepath.Join(opts.InputDir, name), filepath.Join(opts.OutputDir, newName)); err != nil {
			return out, err
		}
		log.Debug("renamed", "from", name, "to", newName)
		out = append(out, newName)
	}
	return out, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
