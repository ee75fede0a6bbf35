package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/dataset-tools/internal/category"
	"github.com/ironsheep/dataset-tools/internal/coco"
	"github.com/ironsheep/dataset-tools/internal/preview"
)

// NewPreviewCmd creates the preview command.
func NewPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <coco.json>",
		Short: "Serve annotation previews over HTTP",
		Long: `Serve the images of a COCO dataset with their annotations drawn on them.

  GET /images                  the image entries
  GET /annotations?id=<image>  the annotations of one image
  GET /preview?id=<image>      the image with polygons, boxes and labels as PNG

The server stops on Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: runPreviewCmd,
	}
	cmd.Flags().StringP("images", "i", "", "Image directory of the dataset (required)")
	cmd.Flags().String("addr", "", "Listen address (overrides the configured value)")
	_ = cmd.MarkFlagRequired("images")
	return cmd
}

func runPreviewCmd(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	ds, err := coco.Load(args[0])
	if err != nil {
		return err
	}
	if err := ds.Validate(); err != nil {
		return err
	}
	table := e.table
	if t, err := category.NewTable(ds.Categories); err == nil {
		table = t
	}

	images, _ := cmd.Flags().GetString("images")
	addr := e.cfg.Preview.Addr
	if cmd.Flags().Changed("addr") {
		addr, _ = cmd.Flags().GetString("addr")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "serving %d images on http://%s\n", len(ds.Images), addr)
	return preview.NewServer(ds, table, images, e.logger).Serve(cmd.Context(), addr)
}
