package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/dataset-tools/internal/prep"
	"github.com/ironsheep/dataset-tools/internal/store"
)

// NewCoverageCmd creates the coverage command.
func NewCoverageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Binarize masks and name them by their foreground percentage",
		Long: `Binarize every .png mask of the input directory and save it as
<object>_<NNNN>_<percent>.png, where percent is the share of foreground pixels
with two decimals. Use it to spot masks where the object is barely visible.`,
		Args: cobra.NoArgs,
		RunE: runCoverageCmd,
	}
	cmd.Flags().StringP("input", "i", "", "Directory of masks (required)")
	cmd.Flags().StringP("output", "o", "", "Directory for the renamed masks (required)")
	cmd.Flags().String("object", "", "Object name prefixing every output (overrides the configured value)")
	cmd.Flags().IntP("threshold", "t", -1, "Mask threshold (overrides the configured value)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runCoverageCmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	c := e.cfg.Coverage
	if cmd.Flags().Changed("object") {
		c.Object, _ = cmd.Flags().GetString("object")
		e.cfg.Coverage.Object = c.Object
	}
	if c.Threshold, err = thresholdFlag(cmd, c.Threshold); err != nil {
		return err
	}
	if err := e.validate(); err != nil {
		return err
	}

	run := store.Run{Tool: "coverage", StartedAt: time.Now(), Input: input, Output: output}
	prog, done := e.progress("coverage", countFiles(input, ".png"))
	results, err := prep.Coverage(prep.CoverageOptions{
		InputDir:  input,
		OutputDir: output,
		Object:    c.Object,
		Threshold: c.Threshold,
		Logger:    e.logger,
		Progress:  prog,
	})
	done()
	run.Images = len(results)
	run.Finish(err)
	e.record(cmd.Context(), run)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%.2f%%\n", r.Source, r.Output, r.Percent)
	}
	return nil
}

// NewRenameCmd creates the rename command.
func NewRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Copy images under sequential dataset names",
		Long: `Copy every .png image of the input directory into the output directory
as <class>_<prefix>_<NNN>.png, numbered from 001 in name order.`,
		Args: cobra.NoArgs,
		RunE: runRenameCmd,
	}
	cmd.Flags().StringP("input", "i", "", "Directory of images (required)")
	cmd.Flags().StringP("output", "o", "", "Output directory (required)")
	cmd.Flags().String("class", "", "Class token (overrides the configured value)")
	cmd.Flags().String("prefix", "", "Middle token (overrides the configured value)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runRenameCmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	if cmd.Flags().Changed("class") {
		e.cfg.Rename.Class, _ = cmd.Flags().GetString("class")
	}
	if cmd.Flags().Changed("prefix") {
		e.cfg.Rename.Prefix, _ = cmd.Flags().GetString("prefix")
	}
	if err := e.validate(); err != nil {
		return err
	}

	run := store.Run{Tool: "rename", StartedAt: time.Now(), Input: input, Output: output}
	prog, done := e.progress("rename", countFiles(input, ".png"))
	names, err := prep.Rename(prep.RenameOptions{
		InputDir:  input,
		OutputDir: output,
		Class:     e.cfg.Rename.Class,
		Prefix:    e.cfg.Rename.Prefix,
		Logger:    e.logger,
		Progress:  prog,
	})
	done()
	run.Images = len(names)
	run.Finish(err)
	e.record(cmd.Context(), run)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d files copied to %s\n", len(names), output)
	return nil
}

// NewResizeCmd creates the resize command.
func NewResizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resize",
		Short: "Scale and centre-crop images to a fixed size",
		Long: `Scale every image of the input directory until it covers the target size,
crop the centre and save it as <prefix>_<N>.png. EXIF orientation is applied
first. A file that cannot be processed is reported and the next one is tried;
the counter only advances on success.`,
		Args: cobra.NoArgs,
		RunE: runResizeCmd,
	}
	cmd.Flags().StringP("input", "i", "", "Directory of images (required)")
	cmd.Flags().StringP("output", "o", "", "Output directory (required)")
	cmd.Flags().Int("width", 0, "Target width (overrides the configured value)")
	cmd.Flags().Int("height", 0, "Target height (overrides the configured value)")
	cmd.Flags().String("prefix", "", "Output name prefix (overrides the configured value)")
	cmd.Flags().Int("start", 0, "First output number (overrides the configured value)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runResizeCmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	r := &e.cfg.Resize
	if cmd.Flags().Changed("width") {
		r.Width, _ = cmd.Flags().GetInt("width")
	}
	if cmd.Flags().Changed("height") {
		r.Height, _ = cmd.Flags().GetInt("height")
	}
	if cmd.Flags().Changed("prefix") {
		r.Prefix, _ = cmd.Flags().GetString("prefix")
	}
	if cmd.Flags().Changed("start") {
		r.Start, _ = cmd.Flags().GetInt("start")
	}
	if err := e.validate(); err != nil {
		return err
	}

	run := store.Run{Tool: "resize", StartedAt: time.Now(), Input: input, Output: output}
	prog, done := e.progress("resize", countFiles(input))
	results, err := prep.Resize(prep.ResizeOptions{
		InputDir:  input,
		OutputDir: output,
		Width:     r.Width,
		Height:    r.Height,
		Prefix:    r.Prefix,
		Start:     r.Start,
		Logger:    e.logger,
		Progress:  prog,
	})
	done()

	failed := 0
	w := cmd.OutOrStdout()
	for _, res := range results {
		if res.Error != "" {
			failed++
			fmt.Fprintf(w, "%s\terror: %s\n", res.Source, res.Error)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", res.Source, res.Output)
	}
	run.Images = len(results) - failed
	run.Skipped = failed
	run.Finish(err)
	e.record(cmd.Context(), run)
	return err
}
