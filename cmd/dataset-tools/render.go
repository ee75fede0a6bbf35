package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/dataset-tools/internal/scene"
	"github.com/ironsheep/dataset-tools/internal/store"
)

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render image and mask pairs with Blender",
		Long: `Drop an STL model onto the table of a prepared Blender scene, let the
physics settle and render it from every combination of X and Z angle, writing
an RGB image and an object index mask per shot.

The job is written as JSON next to a Python driver and Blender is started in
background mode. With --dry-run the job is written and the Blender command is
printed but not run.`,
		Args: cobra.NoArgs,
		RunE: runRenderCmd,
	}
	cmd.Flags().String("models", "", "Directory of STL models (overrides the configured value)")
	cmd.Flags().StringP("output", "o", "", "Directory for rendered images (overrides the configured value)")
	cmd.Flags().String("class", "", "Class token of the output names (overrides the configured value)")
	cmd.Flags().Int("model", -1, "Index of the model among the sorted STL files (overrides the configured value)")
	cmd.Flags().Int("iterations", 0, "Number of drops (overrides the configured value)")
	cmd.Flags().Uint64("seed", 0, "Seed of the distractor choices (overrides the configured value)")
	cmd.Flags().Bool("distractor", false, "Drop a second, distracting model into the scene")
	cmd.Flags().String("blend", "", "Prepared .blend scene (overrides the configured value)")
	cmd.Flags().String("work", "", "Directory for the job and driver files (default: a temporary directory)")
	cmd.Flags().Bool("dry-run", false, "Write the job and print the Blender command without running it")
	return cmd
}

func runRenderCmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	s := e.cfg.Scene
	flags := cmd.Flags()
	if flags.Changed("models") {
		s.Params.ModelsDir, _ = flags.GetString("models")
	}
	if flags.Changed("output") {
		s.Params.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("class") {
		s.Params.Class, _ = flags.GetString("class")
	}
	if flags.Changed("model") {
		s.Params.ModelIndex, _ = flags.GetInt("model")
	}
	if flags.Changed("iterations") {
		s.Params.Iterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("seed") {
		s.Params.Seed, _ = flags.GetUint64("seed")
	}
	if d, _ := flags.GetBool("distractor"); d && s.Params.Distractor == nil {
		s.Params.Distractor = scene.DefaultDistractor()
	}
	if flags.Changed("blend") {
		s.BlendFile, _ = flags.GetString("blend")
	}
	if s.Params.ModelsDir == "" || s.Params.OutputDir == "" {
		return fmt.Errorf("render needs a models directory and an output directory")
	}

	job, err := scene.NewJob(s.Params, nil)
	if err != nil {
		return err
	}

	workDir, _ := flags.GetString("work")
	if workDir == "" {
		workDir, err = os.MkdirTemp("", "dataset-tools-render-")
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if dry, _ := flags.GetBool("dry-run"); dry {
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return err
		}
		jobPath := filepath.Join(workDir, "job-"+job.ID+".json")
		if err := job.WriteFile(jobPath); err != nil {
			return err
		}
		script, err := s.PrepareScript(workDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d shots planned\n%s\n", len(job.Shots), s.Command(script, jobPath))
		return nil
	}

	if err := os.MkdirAll(s.Params.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	e.logger.Info("rendering", "job", job.ID, "shots", len(job.Shots), "work", workDir)

	run := store.Run{Tool: "render", StartedAt: time.Now(), Input: s.Params.ModelsDir, Output: s.Params.OutputDir}
	err = s.Render(cmd.Context(), job, workDir, e.stderr)
	run.Images = len(job.Shots)
	run.Finish(err)
	e.record(cmd.Context(), run)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d shots rendered into %s\n", len(job.Shots), s.Params.OutputDir)
	return nil
}
