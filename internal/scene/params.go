// Package scene plans synthetic render jobs for Blender.
//
// A job drops one CAD model (and optionally a second distractor model) onto a
// table with rigid-body physics, lets the simulation settle, then renders the
// scene from every combination of camera pivot angles. Go decides everything
// that can be decided ahead of time: which model files to use, the random
// choices, and the full list of output names. The embedded Python driver only
// replays that plan inside Blender.
package scene

import (
	"errors"
	"fmt"
	"strings"
)

// Table describes the passive surface models fall onto.
type Table struct {
	Object   string  `yaml:"object" json:"object"`
	Length   float64 `yaml:"length" json:"length"`
	Width    float64 `yaml:"width" json:"width"`
	Height   float64 `yaml:"height" json:"height"`
	Friction float64 `yaml:"friction" json:"friction"`
}

// RigidBody holds the physics settings of a dropped model.
type RigidBody struct {
	Mass           float64 `yaml:"mass" json:"mass"`
	Friction       float64 `yaml:"friction" json:"friction"`
	Restitution    float64 `yaml:"restitution" json:"restitution"`
	CollisionShape string  `yaml:"collision_shape" json:"collision_shape"`
	Margin         float64 `yaml:"margin" json:"margin"`
}

// Distractor adds a second model to every shot.
type Distractor struct {
	// Candidates are indexes into the sorted model list; one is picked per job.
	Candidates []int `yaml:"candidates" json:"candidates"`
	// Scales overrides TargetSize for specific candidate indexes.
	Scales     map[int]float64 `yaml:"scales,omitempty" json:"scales,omitempty"`
	TargetSize float64         `yaml:"target_size" json:"target_size"`
	// Offsets are the x and y positions the drop point is chosen from.
	Offsets    []float64 `yaml:"offsets" json:"offsets"`
	DropHeight float64   `yaml:"drop_height" json:"drop_height"`
	PassIndex  int       `yaml:"pass_index" json:"pass_index"`
}

// Params is everything a render job needs.
type Params struct {
	ModelsDir  string `yaml:"models_dir" json:"models_dir"`
	ModelIndex int    `yaml:"model_index" json:"model_index"`
	// Class is the category name that prefixes every output.
	Class     string `yaml:"class" json:"class"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// TargetSize is the largest dimension of the model after scaling.
	TargetSize float64 `yaml:"target_size" json:"target_size"`
	// DropHeight is measured from the table top.
	DropHeight float64   `yaml:"drop_height" json:"drop_height"`
	Table      Table     `yaml:"table" json:"table"`
	Body       RigidBody `yaml:"body" json:"body"`
	PassIndex  int       `yaml:"pass_index" json:"pass_index"`
	Material   string    `yaml:"material" json:"material"`
	Collection string    `yaml:"collection" json:"collection"`

	StopFrame  int `yaml:"stop_frame" json:"stop_frame"`
	Iterations int `yaml:"iterations" json:"iterations"`
	// IterationOffset is added to the iteration number in output names, so
	// several batches can share an output directory.
	IterationOffset int `yaml:"iteration_offset" json:"iteration_offset"`

	// XAngles (outer loop) and ZAngles (inner loop) are pivot rotations in
	// degrees.
	XAngles []float64 `yaml:"x_angles" json:"x_angles"`
	ZAngles []float64 `yaml:"z_angles" json:"z_angles"`

	Pivot    string `yaml:"pivot" json:"pivot"`
	MainNode string `yaml:"main_node" json:"main_node"`
	MaskNode string `yaml:"mask_node" json:"mask_node"`

	Distractor *Distractor `yaml:"distractor,omitempty" json:"distractor,omitempty"`
	Seed       uint64      `yaml:"seed" json:"seed"`
}

// DefaultParams returns the settings of the single-object scene.
func DefaultParams() Params {
	return Params{
		ModelIndex: 3,
		Class:      "null",
		TargetSize: 0.15,
		DropHeight: 0.6,
		Table: Table{
			Object:   "Table",
			Length:   1.12,
			Width:    0.816,
			Height:   0.6,
			Friction: 1.0,
		},
		Body: RigidBody{
			Mass:           1.0,
			Friction:       0.8,
			Restitution:    0.3,
			CollisionShape: "CONVEX_HULL",
			Margin:         0.001,
		},
		PassIndex:  1,
		Material:   "resin",
		Collection: "Scene Collection",
		StopFrame:  25,
		Iterations: 4,
		XAngles:    []float64{40, 30, 0, -30, -60, -90},
		ZAngles:    []float64{0, 45, 90, 135, 180, 225, 270, 315},
		Pivot:      "Empty",
		MainNode:   "MainOutput",
		MaskNode:   "MaskOutput",
	}
}

// DefaultDistractor returns the second-object settings of the cluttered
// scene.
func DefaultDistractor() *Distractor {
	return &Distractor{
		Candidates: []int{0, 3, 4},
		Scales:     map[int]float64{4: 0.27},
		TargetSize: 0.15,
		Offsets:    []float64{0.1, -0.1},
		DropHeight: 1.0,
		PassIndex:  9,
	}
}

// Validate reports settings that would produce an empty or ambiguous plan.
func (p Params) Validate() error {
	var errs []error
	if p.Class == "" || strings.Contains(p.Class, "_") {
		errs = append(errs, fmt.Errorf("class %q must be non-empty and free of underscores", p.Class))
	}
	if p.Iterations < 1 {
		errs = append(errs, fmt.Errorf("iterations must be at least 1, got %d", p.Iterations))
	}
	if p.IterationOffset < 0 {
		errs = append(errs, fmt.Errorf("iteration offset must not be negative"))
	}
	if len(p.XAngles) == 0 || len(p.ZAngles) == 0 {
		errs = append(errs, errors.New("x and z angle lists must not be empty"))
	}
	if len(p.XAngles) > 9 || len(p.ZAngles) > 9 {
		errs = append(errs, errors.New("at most 9 x and 9 z angles keep output names unambiguous"))
	}
	if p.TargetSize <= 0 {
		errs = append(errs, fmt.Errorf("target size must be positive, got %g", p.TargetSize))
	}
	if p.StopFrame < 0 {
		errs = append(errs, fmt.Errorf("stop frame must not be negative"))
	}
	if p.ModelIndex < 0 {
		errs = append(errs, fmt.Errorf("model index must not be negative"))
	}
	if d := p.Distractor; d != nil {
		if len(d.Candidates) == 0 || len(d.Offsets) == 0 {
			errs = append(errs, errors.New("distractor needs candidates and offsets"))
		}
		if d.TargetSize <= 0 {
			errs = append(errs, errors.New("distractor target size must be positive"))
		}
	}
	return errors.Join(errs...)
}
