package framework

import (
	"fmt"
	"strconv"

	"github.com/ironsheep/dataset-tools/internal/runner"
)

// DefaultConfidence is the minimum score of predictions kept by YOLO
// inference.
const DefaultConfidence = 0.25

// YOLO locates the ultralytics command line tool.
type YOLO struct {
	// Binary defaults to "yolo".
	Binary string `yaml:"binary" json:"binary"`
}

// TrainOptions configures a segmentation training run.
type TrainOptions struct {
	Model     string `yaml:"model" json:"model"`
	Epochs    int    `yaml:"epochs" json:"epochs"`
	ImageSize int    `yaml:"image_size" json:"image_size"`
	Batch     int    `yaml:"batch" json:"batch"`
	Device    string `yaml:"device,omitempty" json:"device,omitempty"`
	Project   string `yaml:"project,omitempty" json:"project,omitempty"`
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`
}

// DefaultTrainOptions matches the 640x640 images the resize tool produces.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Model:     "yolov8n-seg.pt",
		Epochs:    100,
		ImageSize: 640,
		Batch:     16,
		Project:   "runs/segment",
		Name:      "train",
	}
}

// PredictOptions configures a segmentation inference run.
type PredictOptions struct {
	Weights    string  `yaml:"weights" json:"weights"`
	Source     string  `yaml:"source" json:"source"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
	Project    string  `yaml:"project,omitempty" json:"project,omitempty"`
	Name       string  `yaml:"name,omitempty" json:"name,omitempty"`
}

func (y YOLO) binary() string {
	if y.Binary == "" {
		return "yolo"
	}
	return y.Binary
}

// TrainCommand returns `yolo segment train` for the data.yaml at data.
func (y YOLO) TrainCommand(data string, o TrainOptions) (*runner.Command, error) {
	if data == "" {
		return nil, fmt.Errorf("training needs a data.yaml path")
	}
	if o.Model == "" {
		return nil, fmt.Errorf("training needs a model")
	}
	args := []string{"segment", "train", "data=" + data, "model=" + o.Model}
	args = appendInt(args, "epochs", o.Epochs)
	args = appendInt(args, "imgsz", o.ImageSize)
	args = appendInt(args, "batch", o.Batch)
	args = appendString(args, "device", o.Device)
	args = appendString(args, "project", o.Project)
	args = appendString(args, "name", o.Name)
	return runner.New(y.binary(), args...), nil
}

// PredictCommand returns `yolo segment predict` saving annotated images.
func (y YOLO) PredictCommand(o PredictOptions) (*runner.Command, error) {
	if o.Weights == "" || o.Source == "" {
		return nil, fmt.Errorf("prediction needs weights and a source")
	}
	conf := o.Confidence
	if conf == 0 {
		conf = DefaultConfidence
	}
	if conf < 0 || conf > 1 {
		return nil, fmt.Errorf("confidence %g outside [0, 1]", conf)
	}
	args := []string{
		"segment", "predict",
		"model=" + o.Weights,
		"source=" + o.Source,
		"conf=" + strconv.FormatFloat(conf, 'f', -1, 64),
		"save=True",
	}
	args = appendString(args, "project", o.Project)
	args = appendString(args, "name", o.Name)
	return runner.New(y.binary(), args...), nil
}

func appendInt(args []string, key string, v int) []string {
	if v <= 0 {
		return args
	}
	return append(args, key+"="+strconv.Itoa(v))
}

func appendString(args []string, key, v string) []string {
	if v == "" {
		return args
	}
	return append(args, key+"="+v)
}
