package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ironsheep/dataset-tools/internal/category"
	"github.com/ironsheep/dataset-tools/internal/config"
	"github.com/ironsheep/dataset-tools/internal/progress"
	"github.com/ironsheep/dataset-tools/internal/store"
)

// logLevelEnv selects debug logging without --verbose.
const logLevelEnv = "DATASET_TOOLS_LOG_LEVEL"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset-tools",
		Short: "Build instance segmentation datasets from rendered images and masks",
		Long: `dataset-tools converts rendered images and their binary masks into COCO
and YOLO training datasets.

Images are named <class>_..._<index>.png and masks <class>_mask_<index>.png.
The class token selects the category; the index pairs an image with its mask.

Besides the converters it offers the preparation steps around them (mask
coverage, renaming, resizing, EXR extraction), Blender render jobs, YOLO and
Detectron2 training and inference, dataset reports and previews.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file")
	cmd.PersistentFlags().Bool("no-progress", false, "Do not draw progress bars")

	cmd.AddCommand(NewCOCOCmd())
	cmd.AddCommand(NewYOLOCmd())
	cmd.AddCommand(NewYOLODataCmd())
	cmd.AddCommand(NewCoverageCmd())
	cmd.AddCommand(NewRenameCmd())
	cmd.AddCommand(NewResizeCmd())
	cmd.AddCommand(NewEXRCmd())
	cmd.AddCommand(NewRenderCmd())
	cmd.AddCommand(NewTrainCmd())
	cmd.AddCommand(NewPredictCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewPreviewCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every command needs once flags are parsed.
type env struct {
	cfg        *config.Config
	configPath string
	table      *category.Table
	logger     *slog.Logger
	stderr     io.Writer
	noProgress bool
}

// setupLogger returns a text logger on w. Debug is enabled by --verbose or
// DATASET_TOOLS_LOG_LEVEL=debug.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose || strings.EqualFold(os.Getenv(logLevelEnv), "debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadEnv reads the persistent flags and the configuration file.
func loadEnv(cmd *cobra.Command) (*env, error) {
	flags := cmd.Root().PersistentFlags()
	verbose, _ := flags.GetBool("verbose")
	configPath, _ := flags.GetString("config")
	noProgress, _ := flags.GetBool("no-progress")

	logger := setupLogger(cmd.ErrOrStderr(), verbose)

	cfg, path, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if path != "" {
		logger.Debug("loaded configuration", "path", path)
	}
	table, err := cfg.Table()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	return &env{
		cfg:        cfg,
		configPath: path,
		table:      table,
		logger:     logger,
		stderr:     cmd.ErrOrStderr(),
		noProgress: noProgress,
	}, nil
}

// validate checks the configuration after flags have been applied to it.
func (e *env) validate() error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	return nil
}

// bar is a progress.Reporter drawing on stderr.
type bar struct {
	*progressbar.ProgressBar
}

func (b bar) done() {
	if b.ProgressBar != nil {
		_ = b.Finish()
	}
}

// progress returns a progress bar over the files of dir, or a no-op reporter
// when bars are disabled.
func (e *env) progress(description string, total int) (progress.Reporter, func()) {
	if e.noProgress || total <= 0 {
		return progress.OrNop(nil), func() {}
	}
	b := bar{progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(e.stderr),
		progressbar.OptionShowCount(),
	)}
	return b, b.done
}

// record stores run in the history database. Failures are logged, never
// returned: the history is informational.
func (e *env) record(ctx context.Context, run store.Run) {
	if !e.cfg.History.Enabled {
		return
	}
	s, err := store.Open(e.cfg.HistoryDir())
	if err != nil {
		e.logger.Warn("run history unavailable", "error", err)
		return
	}
	defer s.Close()
	id, err := s.Record(ctx, run)
	if err != nil {
		e.logger.Warn("failed to record run", "error", err)
		return
	}
	e.logger.Debug("run recorded", "id", id, "tool", run.Tool)
}
