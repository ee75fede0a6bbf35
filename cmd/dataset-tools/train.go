package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/dataset-tools/internal/framework"
	"github.com/ironsheep/dataset-tools/internal/runner"
	"github.com/ironsheep/dataset-tools/internal/store"
	"github.com/ironsheep/dataset-tools/internal/yolo"
)

// NewTrainCmd creates the train command and its framework subcommands.
func NewTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a segmentation model on a generated dataset",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newTrainYOLOCmd())
	cmd.AddCommand(newTrainDetectron2Cmd())
	return cmd
}

// NewPredictCmd creates the predict command and its framework subcommands.
func NewPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run a trained segmentation model over images",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newPredictYOLOCmd())
	cmd.AddCommand(newPredictDetectron2Cmd())
	return cmd
}

func newTrainYOLOCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yolo",
		Short: "Train with the ultralytics yolo command",
		Long: `Run "yolo segment train" on a dataset. Pass --data for an existing
data.yaml, or --root to have one written for the conventional
train/images, val/images layout.`,
		Args: cobra.NoArgs,
		RunE: runTrainYOLOCmd,
	}
	cmd.Flags().String("data", "", "data.yaml of the dataset")
	cmd.Flags().String("root", "", "Dataset root; writes <root>/data.yaml")
	cmd.Flags().String("model", "", "Base model (overrides the configured value)")
	cmd.Flags().Int("epochs", 0, "Epochs (overrides the configured value)")
	cmd.Flags().String("device", "", "Device, e.g. 0 or cpu (overrides the configured value)")
	cmd.Flags().Bool("dry-run", false, "Print the command without running it")
	cmd.MarkFlagsOneRequired("data", "root")
	cmd.MarkFlagsMutuallyExclusive("data", "root")
	return cmd
}

func runTrainYOLOCmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	fw := e.cfg.YOLOFramework
	opts := fw.Train
	if flags.Changed("model") {
		opts.Model, _ = flags.GetString("model")
	}
	if flags.Changed("epochs") {
		opts.Epochs, _ = flags.GetInt("epochs")
	}
	if flags.Changed("device") {
		opts.Device, _ = flags.GetString("device")
	}

	data, _ := flags.GetString("data")
	if root, _ := flags.GetString("root"); root != "" {
		if root, err = filepath.Abs(root); err != nil {
			return err
		}
		data = filepath.Join(root, "data.yaml")
		if err := yolo.WriteDataYAML(data, yolo.NewDataSpec(root, e.table)); err != nil {
			return err
		}
		e.logger.Info("data.yaml written", "path", data)
	}

	c, err := fw.TrainCommand(data, opts)
	if err != nil {
		return err
	}
	return e.runFramework(cmd, "train-yolo", data, opts.Project, c)
}

func newPredictYOLOCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yolo",
		Short: "Predict with the ultralytics yolo command",
		Args:  cobra.NoArgs,
		RunE:  runPredictYOLOCmd,
	}
	cmd.Flags().String("weights", "", "Trained weights, e.g. runs/segment/train/weights/best.pt (required)")
	cmd.Flags().String("source", "", "Image, directory or video to predict on (required)")
	cmd.Flags().Float64("conf", 0, "Minimum confidence (overrides the configured value)")
	cmd.Flags().String("project", "", "Directory receiving the annotated results")
	cmd.Flags().Bool("dry-run", false, "Print the command without running it")
	_ = cmd.MarkFlagRequired("weights")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func runPredictYOLOCmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	fw := e.cfg.YOLOFramework
	if flags.Changed("conf") {
		fw.Confidence, _ = flags.GetFloat64("conf")
	}
	opts := framework.PredictOptions{Confidence: fw.Confidence}
	opts.Weights, _ = flags.GetString("weights")
	opts.Source, _ = flags.GetString("source")
	opts.Project, _ = flags.GetString("project")

	c, err := fw.PredictCommand(opts)
	if err != nil {
		return err
	}
	return e.runFramework(cmd, "predict-yolo", opts.Source, opts.Project, c)
}

func newTrainDetectron2Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detectron2",
		Short: "Train Mask R-CNN with Detectron2",
		Long: `Convert the training and validation COCO files into Detectron2 dataset
dicts, write the run configuration and the Python driver into the work
directory and start training. Excluded categories (null by default) are
removed and the remaining class ids renumbered from 0.`,
		Args: cobra.NoArgs,
		RunE: runTrainDetectron2Cmd,
	}
	cmd.Flags().String("train-coco", "", "COCO file of the training set (required)")
	cmd.Flags().String("train-images", "", "Image directory of the training set (required)")
	cmd.Flags().String("val-coco", "", "COCO file of the validation set (required)")
	cmd.Flags().String("val-images", "", "Image directory of the validation set (required)")
	cmd.Flags().String("work", "", "Directory for the generated files (default: a temporary directory)")
	cmd.Flags().Int("max-iter", 0, "Solver iterations (overrides the configured value)")
	cmd.Flags().String("output", "", "Training output directory (overrides the configured value)")
	cmd.Flags().Bool("dry-run", false, "Prepare the files and print the command without running it")
	for _, f := range []string{"train-coco", "train-images", "val-coco", "val-images"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func runTrainDetectron2Cmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	d := &e.cfg.Detectron2
	if flags.Changed("max-iter") {
		d.MaxIter, _ = flags.GetInt("max-iter")
	}
	if flags.Changed("output") {
		d.OutputDir, _ = flags.GetString("output")
	}
	if err := e.validate(); err != nil {
		return err
	}

	var train, val framework.DatasetSource
	train.Annotations, _ = flags.GetString("train-coco")
	train.Images, _ = flags.GetString("train-images")
	val.Annotations, _ = flags.GetString("val-coco")
	val.Images, _ = flags.GetString("val-images")

	workDir, err := workDirFlag(cmd, "dataset-tools-detectron2-")
	if err != nil {
		return err
	}
	c, err := d.PrepareTrain(train, val, e.table, workDir)
	if err != nil {
		return err
	}
	return e.runFramework(cmd, "train-detectron2", train.Annotations, d.OutputDir, c)
}

func newPredictDetectron2Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detectron2",
		Short: "Predict with a trained Detectron2 model",
		Long: `Run a trained Mask R-CNN over every image of the input directory and save
the images with their predicted masks drawn on them.`,
		Args: cobra.NoArgs,
		RunE: runPredictDetectron2Cmd,
	}
	cmd.Flags().String("weights", "", "Trained weights, e.g. output/model_final.pth (required)")
	cmd.Flags().StringP("input", "i", "", "Directory of images (required)")
	cmd.Flags().StringP("output", "o", "", "Directory for the annotated images (required)")
	cmd.Flags().String("work", "", "Directory for the generated files (default: a temporary directory)")
	cmd.Flags().Float64("score", 0, "Minimum score (overrides the configured value)")
	cmd.Flags().Bool("dry-run", false, "Prepare the files and print the command without running it")
	_ = cmd.MarkFlagRequired("weights")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runPredictDetectron2Cmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	d := &e.cfg.Detectron2
	if flags.Changed("score") {
		d.ScoreThresh, _ = flags.GetFloat64("score")
	}
	if err := e.validate(); err != nil {
		return err
	}
	weights, _ := flags.GetString("weights")
	input, _ := flags.GetString("input")
	output, _ := flags.GetString("output")

	workDir, err := workDirFlag(cmd, "dataset-tools-detectron2-")
	if err != nil {
		return err
	}
	c, err := d.PreparePredict(weights, input, output, e.table, workDir)
	if err != nil {
		return err
	}
	return e.runFramework(cmd, "predict-detectron2", input, output, c)
}

// workDirFlag returns --work, creating it, or a fresh temporary directory.
func workDirFlag(cmd *cobra.Command, pattern string) (string, error) {
	dir, _ := cmd.Flags().GetString("work")
	if dir == "" {
		return os.MkdirTemp("", pattern)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create work dir: %w", err)
	}
	return dir, nil
}

// runFramework prints c under --dry-run, otherwise runs it with its output
// streamed to the terminal and records the run.
func (e *env) runFramework(cmd *cobra.Command, tool, input, output string, c *runner.Command) error {
	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		fmt.Fprintln(cmd.OutOrStdout(), c.String())
		return nil
	}
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = e.stderr
	e.logger.Info("starting", "tool", tool, "command", c.String())

	run := store.Run{Tool: tool, StartedAt: time.Now(), Input: input, Output: output}
	err := c.Run(cmd.Context())
	run.Finish(err)
	e.record(cmd.Context(), run)
	return err
}
