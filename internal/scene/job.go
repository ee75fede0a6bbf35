package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ironsheep/dataset-tools/internal/imaging"
)

// ErrNoModels is returned when the models directory holds no STL files.
var ErrNoModels = errors.New("no STL files found")

// Placement is a model dropped into the scene.
type Placement struct {
	Model     string     `json:"model"`
	Scale     float64    `json:"target_size"`
	Location  [3]float64 `json:"location"`
	PassIndex int        `json:"pass_index"`
}

// Job is the complete, self-contained description of one render batch.
type Job struct {
	ID         string     `json:"id"`
	Params     Params     `json:"params"`
	Primary    Placement  `json:"primary"`
	Distractor *Placement `json:"distractor,omitempty"`
	Shots      []Shot     `json:"shots"`
}

// NewJob resolves the model files for p and plans every shot. Random choices
// (the distractor model and its drop point) come from rng; nil seeds one from
// p.Seed so a job is reproducible from its parameters.
func NewJob(p Params, rng *rand.Rand) (*Job, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	models, err := imaging.ListFiles(p.ModelsDir, ".stl")
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoModels, p.ModelsDir)
	}
	if p.ModelIndex >= len(models) {
		return nil, fmt.Errorf("model index %d out of range, %d STL files found", p.ModelIndex, len(models))
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
	}

	job := &Job{
		ID:     uuid.NewString(),
		Params: p,
		Primary: Placement{
			Model:     filepath.Join(p.ModelsDir, models[p.ModelIndex]),
			Scale:     p.TargetSize,
			Location:  [3]float64{0, 0, p.Table.Height + p.DropHeight},
			PassIndex: p.PassIndex,
		},
		Shots: Plan(p),
	}

	if d := p.Distractor; d != nil {
		idx := d.Candidates[rng.IntN(len(d.Candidates))]
		if idx < 0 || idx >= len(models) {
			return nil, fmt.Errorf("distractor index %d out of range, %d STL files found", idx, len(models))
		}
		scale := d.TargetSize
		if s, ok := d.Scales[idx]; ok {
			scale = s
		}
		job.Distractor = &Placement{
			Model: filepath.Join(p.ModelsDir, models[idx]),
			Scale: scale,
			Location: [3]float64{
				d.Offsets[rng.IntN(len(d.Offsets))],
				d.Offsets[rng.IntN(len(d.Offsets))],
				p.Table.Height + d.DropHeight,
			},
			PassIndex: d.PassIndex,
		}
	}
	return job, nil
}

// WriteFile writes the job as JSON for the Blender driver.
func (j *Job) WriteFile(path string) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadJob loads a job file.
func ReadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &j, nil
}
