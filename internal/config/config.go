package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/ironsheep/dataset-tools/internal/category"
	"github.com/ironsheep/dataset-tools/internal/coco"
	"github.com/ironsheep/dataset-tools/internal/framework"
	"github.com/ironsheep/dataset-tools/internal/scene"
	"github.com/ironsheep/dataset-tools/internal/yolo"
)

// AppName names the XDG directories.
const AppName = "dataset-tools"

// Config is the whole configuration file.
type Config struct {
	// Categories replaces the built-in four-class table when set.
	Categories []category.Category `yaml:"categories,omitempty"`

	COCO          COCO                 `yaml:"coco"`
	YOLO          YOLO                 `yaml:"yolo"`
	Coverage      Coverage             `yaml:"coverage"`
	Rename        Rename               `yaml:"rename"`
	Resize        Resize               `yaml:"resize"`
	EXR           EXR                  `yaml:"exr"`
	Scene         Scene                `yaml:"scene"`
	YOLOFramework YOLOFramework        `yaml:"yolo_framework"`
	Detectron2    framework.Detectron2 `yaml:"detectron2"`
	History       History              `yaml:"history"`
	Preview       Preview              `yaml:"preview"`
}

// COCO configures the COCO converter.
type COCO struct {
	Threshold   uint8  `yaml:"threshold"`
	ImageExt    string `yaml:"image_ext"`
	MaskExt     string `yaml:"mask_ext"`
	Description string `yaml:"description"`
	Contributor string `yaml:"contributor,omitempty"`
}

// YOLO configures the label generator.
type YOLO struct {
	Threshold uint8    `yaml:"threshold"`
	ImageExts []string `yaml:"image_exts"`
	MaskExt   string   `yaml:"mask_ext"`
}

// Coverage configures the mask coverage reporter.
type Coverage struct {
	Threshold uint8  `yaml:"threshold"`
	Object    string `yaml:"object"`
}

// Rename configures the copy-and-rename tool.
type Rename struct {
	Class  string `yaml:"class"`
	Prefix string `yaml:"prefix"`
}

// Resize configures the resize tool.
type Resize struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Prefix string `yaml:"prefix"`
	Start  int    `yaml:"start"`
}

// EXR configures the multi-layer EXR extractor.
type EXR struct {
	Class        string    `yaml:"class"`
	RGBChannels  [3]string `yaml:"rgb_channels"`
	DepthChannel string    `yaml:"depth_channel"`
}

// Scene configures Blender rendering.
type Scene struct {
	scene.Blender `yaml:",inline"`
	Params        scene.Params `yaml:",inline"`
}

// YOLOFramework configures the ultralytics CLI.
type YOLOFramework struct {
	framework.YOLO `yaml:",inline"`
	Train          framework.TrainOptions `yaml:"train"`
	Confidence     float64                `yaml:"confidence"`
}

// History configures the run history database.
type History struct {
	Enabled bool `yaml:"enabled"`
	// Dir defaults to the XDG data directory.
	Dir string `yaml:"dir,omitempty"`
}

// Preview configures the annotation preview server.
type Preview struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		COCO: COCO{
			Threshold:   coco.DefaultThreshold,
			ImageExt:    ".png",
			MaskExt:     ".png",
			Description: "Generated COCO Dataset",
		},
		YOLO: YOLO{
			Threshold: yolo.DefaultThreshold,
			ImageExts: []string{".png", ".jpg"},
			MaskExt:   ".png",
		},
		Coverage: Coverage{
			Threshold: yolo.DefaultThreshold,
			Object:    "bolt",
		},
		Rename: Rename{Class: "null", Prefix: "rgb"},
		Resize: Resize{Width: 640, Height: 640, Prefix: "test", Start: 1},
		EXR: EXR{
			Class:        "null",
			RGBChannels:  [3]string{"RGB.R", "RGB.G", "RGB.B"},
			DepthChannel: "Depth.V",
		},
		Scene: Scene{
			Blender: scene.Blender{Binary: "blender"},
			Params:  scene.DefaultParams(),
		},
		YOLOFramework: YOLOFramework{
			YOLO:       framework.YOLO{Binary: "yolo"},
			Train:      framework.DefaultTrainOptions(),
			Confidence: framework.DefaultConfidence,
		},
		Detectron2: framework.DefaultDetectron2(),
		History:    History{Enabled: true},
		Preview:    Preview{Addr: "127.0.0.1:8093"},
	}
}

// Table returns the category table: the configured list, or the built-in
// table when none is set.
func (c *Config) Table() (*category.Table, error) {
	if len(c.Categories) == 0 {
		return category.Default(), nil
	}
	t, err := category.NewTable(c.Categories)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCategories, err)
	}
	return t, nil
}

// HistoryDir returns the directory of the run history database.
func (c *Config) HistoryDir() string {
	if c.History.Dir != "" {
		return c.History.Dir
	}
	return XDGDataDir()
}

// XDGDataDir returns the XDG data directory of the tools.
// On Linux: ~/.local/share/dataset-tools
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory of the tools.
// On Linux: ~/.config/dataset-tools
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the values that would otherwise fail deep inside a run.
// It returns the first problem found.
func (c *Config) Validate() error {
	if _, err := c.Table(); err != nil {
		return err
	}
	if c.Resize.Width <= 0 || c.Resize.Height <= 0 {
		return ErrInvalidSize
	}
	if c.Resize.Start < 0 {
		return ErrInvalidStart
	}
	for _, name := range []string{c.Rename.Class, c.Rename.Prefix, c.EXR.Class, c.Coverage.Object} {
		if name == "" || strings.Contains(name, "_") {
			return fmt.Errorf("%w: %q", ErrEmptyName, name)
		}
	}
	if c.YOLOFramework.Confidence < 0 || c.YOLOFramework.Confidence > 1 {
		return ErrInvalidConfidence
	}
	d := c.Detectron2
	if d.NumWorkers <= 0 || d.ImsPerBatch <= 0 || d.BaseLR <= 0 || d.MaxIter <= 0 || d.EvalPeriod <= 0 {
		return ErrInvalidSolver
	}
	if d.ScoreThresh < 0 || d.ScoreThresh > 1 {
		return ErrInvalidScoreThreshold
	}
	if c.Preview.Addr == "" {
		return ErrNoAddress
	}
	return nil
}
