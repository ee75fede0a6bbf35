package scene

import (
	"fmt"
	"path/filepath"
)

// Shot is one render of a settled scene.
type Shot struct {
	Iteration int     `json:"iteration"`
	XIndex    int     `json:"x_index"`
	ZIndex    int     `json:"z_index"`
	XAngle    float64 `json:"x_angle"`
	ZAngle    float64 `json:"z_angle"`
	// Output is the base path of the main output node; Mask is the file slot
	// path of the mask node.
	Output string `json:"output"`
	Mask   string `json:"mask"`
}

// Plan lists every shot in render order: iterations, then X angles, then Z
// angles. Iteration and angle indexes start at 1.
func Plan(p Params) []Shot {
	shots := make([]Shot, 0, p.Iterations*len(p.XAngles)*len(p.ZAngles))
	for it := 1; it <= p.Iterations; it++ {
		for xi, x := range p.XAngles {
			for zi, z := range p.ZAngles {
				tag := fmt.Sprintf("%d%d%d", it+p.IterationOffset, xi+1, zi+1)
				shots = append(shots, Shot{
					Iteration: it,
					XIndex:    xi + 1,
					ZIndex:    zi + 1,
					XAngle:    x,
					ZAngle:    z,
					Output:    filepath.Join(p.OutputDir, p.Class+"_"+tag),
					Mask:      p.Class + "_m" + tag,
				})
			}
		}
	}
	return shots
}
