package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/dataset-tools/internal/category"
	"github.com/ironsheep/dataset-tools/internal/coco"
	"github.com/ironsheep/dataset-tools/internal/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <coco.json>",
		Short: "Summarize a COCO dataset as Markdown",
		Long: `Validate a COCO file and write a Markdown summary: image and annotation
counts, annotations per category, the annotation area distribution and the
images without any annotation. Optionally plot a histogram of annotation areas.`,
		Args: cobra.ExactArgs(1),
		RunE: runReportCmd,
	}
	cmd.Flags().StringP("output", "o", "", "Markdown file to write (default stdout)")
	cmd.Flags().String("histogram", "", "Also plot the annotation areas into this PNG or SVG file")
	cmd.Flags().String("title", "", "Report title (default: the dataset description)")
	return cmd
}

func runReportCmd(cmd *cobra.Command, args []string) error {
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
	if len(ds.Categories) > 0 {
		if t, err := category.NewTable(ds.Categories); err == nil {
			table = t
		}
	}
	summary := report.Summarize(ds, table)

	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		title = summary.Description
	}
	if title == "" {
		title = "Dataset report"
	}

	var w io.Writer = cmd.OutOrStdout()
	output, _ := cmd.Flags().GetString("output")
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}
	if err := report.WriteMarkdown(w, title, summary); err != nil {
		return err
	}

	if hist, _ := cmd.Flags().GetString("histogram"); hist != "" {
		if err := report.WriteAreaHistogram(hist, ds); err != nil {
			return err
		}
		e.logger.Info("histogram written", "path", hist)
	}
	return nil
}
