package framework

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/ironsheep/dataset-tools/internal/category"
	"github.com/ironsheep/dataset-tools/internal/coco"
	"github.com/ironsheep/dataset-tools/internal/runner"
)

//go:embed driver/detectron2_driver.py
var detectron2Driver []byte

// Detectron2DriverName is the file name the embedded driver is written under.
const Detectron2DriverName = "detectron2_driver.py"

// Detectron2 holds the solver settings of a Mask R-CNN run.
type Detectron2 struct {
	// Python defaults to "python3".
	Python string `yaml:"python" json:"-"`
	// Script overrides the embedded driver.
	Script string `yaml:"script,omitempty" json:"-"`

	BaseConfig   string   `yaml:"base_config" json:"base_config"`
	TrainDataset string   `yaml:"train_dataset" json:"train_dataset"`
	ValDataset   string   `yaml:"val_dataset" json:"val_dataset"`
	NumWorkers   int      `yaml:"num_workers" json:"num_workers"`
	ImsPerBatch  int      `yaml:"ims_per_batch" json:"ims_per_batch"`
	BaseLR       float64  `yaml:"base_lr" json:"base_lr"`
	WeightDecay  float64  `yaml:"weight_decay" json:"weight_decay"`
	MaxIter      int      `yaml:"max_iter" json:"max_iter"`
	EvalPeriod   int      `yaml:"eval_period" json:"eval_period"`
	ScoreThresh  float64  `yaml:"score_thresh" json:"score_thresh"`
	OutputDir    string   `yaml:"output_dir" json:"output_dir"`
	// Exclude lists categories that are not objects, such as empty-table
	// images. They are dropped from the class list and their annotations
	// from the dataset dicts.
	Exclude []string `yaml:"exclude" json:"-"`
}

// DefaultDetectron2 returns the Mask R-CNN R50-FPN 3x schedule used for the
// rendered datasets.
func DefaultDetectron2() Detectron2 {
	return Detectron2{
		Python:       "python3",
		BaseConfig:   "COCO-InstanceSegmentation/mask_rcnn_R_50_FPN_3x.yaml",
		TrainDataset: "my_dataset",
		ValDataset:   "my_validation_dataset",
		NumWorkers:   2,
		ImsPerBatch:  8,
		BaseLR:       0.0001,
		WeightDecay:  0.0001,
		MaxIter:      3000,
		EvalPeriod:   500,
		ScoreThresh:  0.5,
		OutputDir:    "output",
		Exclude:      []string{"null"},
	}
}

// DatasetSource pairs a COCO file with the directory of its images.
type DatasetSource struct {
	Annotations string
	Images      string
}

// RunConfig is the JSON document the driver reads.
type RunConfig struct {
	Detectron2
	Mode         string   `json:"mode"`
	ThingClasses []string `json:"thing_classes"`
	NumClasses   int      `json:"num_classes"`
	Weights      string   `json:"weights,omitempty"`
	TrainDicts   string   `json:"train_dicts,omitempty"`
	ValDicts     string   `json:"val_dicts,omitempty"`
	Input        string   `json:"input,omitempty"`
	PredictDir   string   `json:"predict_dir,omitempty"`
}

// ThingClasses returns the object classes of table in id order, skipping
// excluded names, and the mapping from category id to contiguous class
// index.
func ThingClasses(table *category.Table, exclude []string) ([]string, map[int]int) {
	cats := table.Categories()
	slices.SortFunc(cats, func(a, b category.Category) int { return a.ID - b.ID })

	var names []string
	remap := make(map[int]int)
	for _, c := range cats {
		if slices.Contains(exclude, c.Name) {
			continue
		}
		remap[c.ID] = len(names)
		names = append(names, c.Name)
	}
	return names, remap
}

// RemapRecords rewrites category ids through remap and drops annotations
// whose category is not in it.
func RemapRecords(records []coco.Record, remap map[int]int) []coco.Record {
	out := make([]coco.Record, len(records))
	for i, r := range records {
		anns := make([]coco.RecordAnnotation, 0, len(r.Annotations))
		for _, a := range r.Annotations {
			id, ok := remap[a.CategoryID]
			if !ok {
				continue
			}
			a.CategoryID = id
			anns = append(anns, a)
		}
		r.Annotations = anns
		out[i] = r
	}
	return out
}

// PrepareTrain writes the dataset dicts, run configuration and driver into
// workDir and returns the training command.
func (d Detectron2) PrepareTrain(train, val DatasetSource, table *category.Table, workDir string) (*runner.Command, error) {
	classes, remap := ThingClasses(table, d.Exclude)
	if len(classes) == 0 {
		return nil, errors.New("no object classes left after exclusions")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}

	cfg := RunConfig{
		Detectron2:   d,
		Mode:         "train",
		ThingClasses: classes,
		NumClasses:   len(classes),
		TrainDicts:   filepath.Join(workDir, "train_dicts.json"),
		ValDicts:     filepath.Join(workDir, "val_dicts.json"),
	}
	for _, ds := range []struct {
		src  DatasetSource
		path string
	}{{train, cfg.TrainDicts}, {val, cfg.ValDicts}} {
		if err := writeDicts(ds.src, remap, ds.path); err != nil {
			return nil, err
		}
	}
	return d.command(cfg, workDir)
}

// PreparePredict writes the run configuration and driver into workDir and
// returns the inference command. Annotated images are written to outputDir.
func (d Detectron2) PreparePredict(weights, input, outputDir string, table *category.Table, workDir string) (*runner.Command, error) {
	if weights == "" || input == "" || outputDir == "" {
		return nil, errors.New("prediction needs weights, an input directory and an output directory")
	}
	classes, _ := ThingClasses(table, d.Exclude)
	if len(classes) == 0 {
		return nil, errors.New("no object classes left after exclusions")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	cfg := RunConfig{
		Detectron2:   d,
		Mode:         "predict",
		ThingClasses: classes,
		NumClasses:   len(classes),
		Weights:      weights,
		Input:        input,
		PredictDir:   outputDir,
	}
	return d.command(cfg, workDir)
}

func writeDicts(src DatasetSource, remap map[int]int, path string) error {
	ds, err := coco.Load(src.Annotations)
	if err != nil {
		return err
	}
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("%s: %w", src.Annotations, err)
	}
	return coco.WriteRecords(path, RemapRecords(coco.DatasetDicts(ds, src.Images), remap))
}

func (d Detectron2) command(cfg RunConfig, workDir string) (*runner.Command, error) {
	cfgPath := filepath.Join(workDir, "detectron2_"+cfg.Mode+".json")
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode run config: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write run config: %w", err)
	}

	script := d.Script
	if script == "" {
		script = filepath.Join(workDir, Detectron2DriverName)
		if err := os.WriteFile(script, detectron2Driver, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write driver script: %w", err)
		}
	}
	python := d.Python
	if python == "" {
		python = "python3"
	}
	return runner.New(python, "-u", script, "--config", cfgPath), nil
}
