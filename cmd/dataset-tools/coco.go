package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/dataset-tools/internal/coco"
	"github.com/ironsheep/dataset-tools/internal/imaging"
	"github.com/ironsheep/dataset-tools/internal/store"
)

// NewCOCOCmd creates the coco command.
func NewCOCOCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coco",
		Short: "Convert images and masks into a COCO JSON file",
		Long: `Convert a directory of images and a directory of masks into one COCO
instance segmentation file.

Every external contour of a mask becomes one annotation. Images of an unknown
class and images without a mask are skipped; a file name without a class and
index, or an unreadable image or mask, stops the conversion.`,
		Args: cobra.NoArgs,
		RunE: runCOCOCmd,
	}
	cmd.Flags().StringP("images", "i", "", "Directory of input images (required)")
	cmd.Flags().StringP("masks", "m", "", "Directory of masks (required)")
	cmd.Flags().StringP("output", "o", "", "COCO JSON file to write (required)")
	cmd.Flags().IntP("threshold", "t", -1, "Mask threshold; pixels strictly brighter are foreground (overrides the configured value)")
	cmd.Flags().String("records", "", "Also write Detectron2 dataset dicts to this file")
	_ = cmd.MarkFlagRequired("images")
	_ = cmd.MarkFlagRequired("masks")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runCOCOCmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	images, _ := cmd.Flags().GetString("images")
	masks, _ := cmd.Flags().GetString("masks")
	output, _ := cmd.Flags().GetString("output")
	records, _ := cmd.Flags().GetString("records")

	c := e.cfg.COCO
	if c.Threshold, err = thresholdFlag(cmd, c.Threshold); err != nil {
		return err
	}

	info := coco.DefaultInfo(time.Now())
	info.Description = c.Description
	info.Contributor = c.Contributor

	run := store.Run{Tool: "coco", StartedAt: time.Now(), Input: images, Output: output}
	prog, done := e.progress("coco", countFiles(images, c.ImageExt))
	ds, stats, err := coco.Convert(coco.Options{
		ImagesDir:  images,
		MasksDir:   masks,
		Categories: e.table,
		Threshold:  c.Threshold,
		ImageExt:   c.ImageExt,
		MaskExt:    c.MaskExt,
		Info:       &info,
		Logger:     e.logger,
		Progress:   prog,
	})
	done()
	if err == nil {
		err = coco.WriteFile(output, ds)
	}
	if err == nil && records != "" {
		err = coco.WriteRecords(records, coco.DatasetDicts(ds, images))
	}

	run.Images, run.Annotations, run.Skipped = stats.Images, stats.Annotations, stats.Skipped
	run.Finish(err)
	e.record(cmd.Context(), run)
	if err != nil {
		return err
	}

	e.logger.Info("COCO dataset written",
		"output", output, "images", stats.Images, "annotations", stats.Annotations, "skipped", stats.Skipped)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d images, %d annotations (%d skipped)\n",
		output, stats.Images, stats.Annotations, stats.Skipped)
	return nil
}

// thresholdFlag returns the --threshold flag when it was given, def
// otherwise.
func thresholdFlag(cmd *cobra.Command, def uint8) (uint8, error) {
	if !cmd.Flags().Changed("threshold") {
		return def, nil
	}
	v, err := cmd.Flags().GetInt("threshold")
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("threshold %d outside [0, 255]", v)
	}
	return uint8(v), nil
}

// countFiles sizes progress bars; a listing error is reported by the command
// itself, so it counts as zero here.
func countFiles(dir string, exts ...string) int {
	names, err := imaging.ListFiles(dir, exts...)
	if err != nil {
		return 0
	}
	return len(names)
}
