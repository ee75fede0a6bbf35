package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/dataset-tools/internal/store"
	"github.com/ironsheep/dataset-tools/internal/yolo"
)

// NewYOLOCmd creates the yolo command.
func NewYOLOCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yolo",
		Short: "Write YOLO segmentation label files from masks",
		Long: `Write one <image>.txt label file per image. Each line holds the class id
followed by the polygon of one mask contour, normalised by the mask size.

Problems with a single image (unknown class, missing or unreadable mask) are
logged and the image is skipped.`,
		Args: cobra.NoArgs,
		RunE: runYOLOCmd,
	}
	cmd.Flags().StringP("images", "i", "", "Directory of input images (required)")
	cmd.Flags().StringP("masks", "m", "", "Directory of masks (required)")
	cmd.Flags().StringP("labels", "l", "", "Directory to write label files into (required)")
	cmd.Flags().IntP("threshold", "t", -1, "Mask threshold; pixels strictly brighter are foreground (overrides the configured value)")
	_ = cmd.MarkFlagRequired("images")
	_ = cmd.MarkFlagRequired("masks")
	_ = cmd.MarkFlagRequired("labels")
	return cmd
}

func runYOLOCmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	images, _ := cmd.Flags().GetString("images")
	masks, _ := cmd.Flags().GetString("masks")
	labels, _ := cmd.Flags().GetString("labels")

	c := e.cfg.YOLO
	if c.Threshold, err = thresholdFlag(cmd, c.Threshold); err != nil {
		return err
	}

	run := store.Run{Tool: "yolo", StartedAt: time.Now(), Input: images, Output: labels}
	prog, done := e.progress("yolo", countFiles(images, c.ImageExts...))
	stats, err := yolo.Generate(yolo.Options{
		ImagesDir:  images,
		MasksDir:   masks,
		LabelsDir:  labels,
		Categories: e.table,
		Threshold:  c.Threshold,
		ImageExts:  c.ImageExts,
		MaskExt:    c.MaskExt,
		Logger:     e.logger,
		Progress:   prog,
	})
	done()

	run.Images, run.Annotations, run.Skipped = stats.Labels, stats.Polygons, stats.Skipped
	run.Finish(err)
	e.record(cmd.Context(), run)
	if err != nil {
		return err
	}

	e.logger.Info("YOLO labels written",
		"labels", labels, "files", stats.Labels, "polygons", stats.Polygons, "skipped", stats.Skipped)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d label files, %d polygons (%d skipped)\n",
		labels, stats.Labels, stats.Polygons, stats.Skipped)
	return nil
}

// NewYOLODataCmd creates the yolo-data command.
func NewYOLODataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yolo-data <dataset-root>",
		Short: "Write the data.yaml describing a YOLO dataset",
		Long: `Write data.yaml for a dataset laid out as <root>/train/images,
<root>/val/images and optionally <root>/test/images, with class names taken
from the category table.`,
		Args: cobra.ExactArgs(1),
		RunE: runYOLODataCmd,
	}
	cmd.Flags().StringP("output", "o", "", "File to write (default <root>/data.yaml)")
	cmd.Flags().Bool("test", false, "Include the test split")
	return cmd
}

func runYOLODataCmd(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = filepath.Join(root, "data.yaml")
	}
	withTest, _ := cmd.Flags().GetBool("test")

	spec := yolo.NewDataSpec(root, e.table)
	if withTest {
		spec.Test = "test/images"
	}
	if err := yolo.WriteDataYAML(output, spec); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}
