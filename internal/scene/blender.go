package scene

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ironsheep/dataset-tools/internal/runner"
)

//go:embed driver/render_job.py
var driverScript []byte

// DriverName is the file name the embedded driver is written under.
const DriverName = "render_job.py"

// Blender locates the Blender executable and the scene it renders.
type Blender struct {
	// Binary defaults to "blender" on PATH.
	Binary string `yaml:"binary" json:"binary"`
	// BlendFile is the prepared scene with table, pivot, camera, lights and
	// compositor output nodes.
	BlendFile string `yaml:"blend_file" json:"blend_file"`
	// Script overrides the embedded driver.
	Script string `yaml:"script,omitempty" json:"script,omitempty"`
}

// Command returns the background render invocation for the job at jobPath,
// using script as the Python driver.
func (b Blender) Command(script, jobPath string) *runner.Command {
	bin := b.Binary
	if bin == "" {
		bin = "blender"
	}
	args := []string{"-b"}
	if b.BlendFile != "" {
		args = append(args, b.BlendFile)
	}
	args = append(args, "--python", script, "--", "--job", jobPath)
	return runner.New(bin, args...)
}

// PrepareScript returns the driver to run: b.Script when set, otherwise the
// embedded driver written into dir.
func (b Blender) PrepareScript(dir string) (string, error) {
	if b.Script != "" {
		if _, err := os.Stat(b.Script); err != nil {
			return "", fmt.Errorf("driver script: %w", err)
		}
		return b.Script, nil
	}
	path := filepath.Join(dir, DriverName)
	if err := os.WriteFile(path, driverScript, 0o644); err != nil {
		return "", fmt.Errorf("failed to write driver script: %w", err)
	}
	return path, nil
}

// Render writes job and the driver into workDir and runs Blender on them.
// Blender's stdout is copied to out.
func (b Blender) Render(ctx context.Context, job *Job, workDir string, out io.Writer) error {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	jobPath := filepath.Join(workDir, "job-"+job.ID+".json")
	if err := job.WriteFile(jobPath); err != nil {
		return err
	}
	script, err := b.PrepareScript(workDir)
	if err != nil {
		return err
	}
	cmd := b.Command(script, jobPath)
	cmd.Stdout = out
	return cmd.Run(ctx)
}
