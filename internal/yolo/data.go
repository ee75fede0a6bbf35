package yolo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/dataset-tools/internal/category"
)

// DataSpec is the dataset description consumed by `yolo segment train`.
type DataSpec struct {
	// Path is the dataset root; Train, Val and Test are relative to it.
	Path  string         `yaml:"path"`
	Train string         `yaml:"train"`
	Val   string         `yaml:"val"`
	Test  string         `yaml:"test,omitempty"`
	Names map[int]string `yaml:"names"`
}

// NewDataSpec returns a spec for the conventional train/val/test layout with
// class names taken from table.
func NewDataSpec(root string, table *category.Table) DataSpec {
	names := make(map[int]string, table.Len())
	for _, c := range table.Categories() {
		names[c.ID] = c.Name
	}
	return DataSpec{
		Path:  root,
		Train: "train/images",
		Val:   "val/images",
		Names: names,
	}
}

// WriteDataYAML writes spec to path.
func WriteDataYAML(path string, spec DataSpec) error {
	if spec.Train == "" || spec.Val == "" {
		return fmt.Errorf("data spec needs train and val sets")
	}
	if len(spec.Names) == 0 {
		return fmt.Errorf("data spec has no class names")
	}
	data, err := yaml.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to encode data spec: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadDataYAML loads a data.yaml file.
func ReadDataYAML(path string) (DataSpec, error) {
	var spec DataSpec
	data, err := os.ReadFile(path)
	if err != nil {
		return spec, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return spec, nil
}
