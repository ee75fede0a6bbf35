package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/dataset-tools/internal/exr"
	"github.com/ironsheep/dataset-tools/internal/store"
)

// NewEXRCmd creates the exr command.
func NewEXRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exr",
		Short: "Split multi-layer EXR renders into RGB and depth PNGs",
		Long: `Read every .exr file of the input directory and write its colour layer as
<class>_rgb_<n>.png and its depth layer, normalised to the 0..255 range, as
<class>_depth_<n>.png. Files are numbered from 1 in name order.

Uncompressed, RLE, ZIPS and ZIP scanline files are supported.`,
		Args: cobra.NoArgs,
		RunE: runEXRCmd,
	}
	cmd.Flags().StringP("input", "i", "", "Directory of EXR files (required)")
	cmd.Flags().String("rgb", "", "Directory for RGB images (required)")
	cmd.Flags().String("depth", "", "Directory for depth images (required)")
	cmd.Flags().String("class", "", "Class token of the output names (overrides the configured value)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("rgb")
	_ = cmd.MarkFlagRequired("depth")
	return cmd
}

func runEXRCmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	input, _ := cmd.Flags().GetString("input")
	rgb, _ := cmd.Flags().GetString("rgb")
	depth, _ := cmd.Flags().GetString("depth")
	if cmd.Flags().Changed("class") {
		e.cfg.EXR.Class, _ = cmd.Flags().GetString("class")
	}
	if err := e.validate(); err != nil {
		return err
	}
	c := e.cfg.EXR

	run := store.Run{Tool: "exr", StartedAt: time.Now(), Input: input, Output: rgb}
	prog, done := e.progress("exr", countFiles(input, ".exr"))
	results, err := exr.ExtractRGBD(exr.ExtractOptions{
		InputDir:     input,
		RGBDir:       rgb,
		DepthDir:     depth,
		Class:        c.Class,
		RGBChannels:  c.RGBChannels,
		DepthChannel: c.DepthChannel,
		Logger:       e.logger,
		Progress:     prog,
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
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Source, r.RGB, r.Depth)
	}
	return nil
}
