package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/dataset-tools/internal/store"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Long: `List the runs recorded in the history database, newest first. Every
conversion and preparation command records its inputs, outputs, counts and
outcome there unless history is disabled in the configuration.`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}
	cmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
	cmd.Flags().Bool("json", false, "Print the runs as JSON")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	s, err := store.Open(e.cfg.HistoryDir())
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTOOL\tSTATUS\tIMAGES\tANNOTATIONS\tSKIPPED\tDURATION\tOUTPUT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Tool, r.Status,
			r.Images, r.Annotations, r.Skipped,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond), r.Output)
	}
	return tw.Flush()
}
