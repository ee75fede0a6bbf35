package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/dataset-tools/internal/category"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, uint8(1), cfg.COCO.Threshold)
	assert.Equal(t, uint8(127), cfg.YOLO.Threshold)
	assert.Equal(t, uint8(127), cfg.Coverage.Threshold)
	assert.Equal(t, 640, cfg.Resize.Width)
	assert.Equal(t, 640, cfg.Resize.Height)
	assert.Equal(t, "test", cfg.Resize.Prefix)
	assert.Equal(t, "rgb", cfg.Rename.Prefix)
	assert.Equal(t, "Depth.V", cfg.EXR.DepthChannel)
	assert.Equal(t, 0.25, cfg.YOLOFramework.Confidence)
	assert.Equal(t, 3000, cfg.Detectron2.MaxIter)
	assert.Equal(t, []string{"null"}, cfg.Detectron2.Exclude)
	assert.Equal(t, 4, cfg.Scene.Params.Iterations)
	assert.True(t, cfg.History.Enabled)

	require.NoError(t, cfg.Validate())

	table, err := cfg.Table()
	require.NoError(t, err)
	assert.Equal(t, category.Default().Names(), table.Names())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero width", func(c *Config) { c.Resize.Width = 0 }, ErrInvalidSize},
		{"negative start", func(c *Config) { c.Resize.Start = -1 }, ErrInvalidStart},
		{"rename class with underscore", func(c *Config) { c.Rename.Class = "t_shape" }, ErrEmptyName},
		{"empty exr class", func(c *Config) { c.EXR.Class = "" }, ErrEmptyName},
		{"confidence", func(c *Config) { c.YOLOFramework.Confidence = 2 }, ErrInvalidConfidence},
		{"max iter", func(c *Config) { c.Detectron2.MaxIter = 0 }, ErrInvalidSolver},
		{"score threshold", func(c *Config) { c.Detectron2.ScoreThresh = -0.5 }, ErrInvalidScoreThreshold},
		{"preview addr", func(c *Config) { c.Preview.Addr = "" }, ErrNoAddress},
		{"duplicate category", func(c *Config) {
			c.Categories = []category.Category{{ID: 0, Name: "a"}, {ID: 1, Name: "a"}}
		}, ErrInvalidCategories},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset-tools.yaml")
	content := `
categories:
  - {id: 0, name: washer}
  - {id: 1, name: nut}
coco:
  threshold: 10
resize:
  width: 320
exr:
  rgb_channels: [View.R, View.G, View.B]
scene:
  binary: /opt/blender/blender
  class: tshape
  iterations: 9
  iteration_offset: 33
yolo_framework:
  binary: /venv/bin/yolo
  train:
    epochs: 5
detectron2:
  max_iter: 100
  exclude: []
history:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, uint8(10), cfg.COCO.Threshold)
	assert.Equal(t, ".png", cfg.COCO.ImageExt, "unset keys keep defaults")
	assert.Equal(t, 320, cfg.Resize.Width)
	assert.Equal(t, 640, cfg.Resize.Height)
	assert.Equal(t, [3]string{"View.R", "View.G", "View.B"}, cfg.EXR.RGBChannels)
	assert.Equal(t, "/opt/blender/blender", cfg.Scene.Binary)
	assert.Equal(t, "tshape", cfg.Scene.Params.Class)
	assert.Equal(t, 9, cfg.Scene.Params.Iterations)
	assert.Equal(t, 33, cfg.Scene.Params.IterationOffset)
	assert.Equal(t, 0.15, cfg.Scene.Params.TargetSize)
	assert.Equal(t, "/venv/bin/yolo", cfg.YOLOFramework.Binary)
	assert.Equal(t, 5, cfg.YOLOFramework.Train.Epochs)
	assert.Equal(t, 100, cfg.Detectron2.MaxIter)
	assert.Equal(t, 8, cfg.Detectron2.ImsPerBatch)
	assert.Empty(t, cfg.Detectron2.Exclude)
	assert.False(t, cfg.History.Enabled)

	table, err := cfg.Table()
	require.NoError(t, err)
	assert.Equal(t, []string{"washer", "nut"}, table.Names())
	require.NoError(t, cfg.Validate())
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resize: [not, a, map]\n"), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, path, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, Default(), cfg)

	_, _, err = Load(filepath.Join(dir, "nope.yaml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)

	require.NoError(t, os.WriteFile(DefaultConfigFile, []byte("preview:\n  addr: \":9000\"\n"), 0o644))
	cfg, path, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigFile, filepath.Base(path))
	assert.Equal(t, ":9000", cfg.Preview.Addr)
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Resize.Prefix = "train"
	require.NoError(t, Write(path, cfg))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestHistoryDir(t *testing.T) {
	cfg := Default()
	assert.Equal(t, XDGDataDir(), cfg.HistoryDir())
	cfg.History.Dir = "/tmp/h"
	assert.Equal(t, "/tmp/h", cfg.HistoryDir())
}
