package referenceframe

import (
	"math"

	"github.com/golang/geo/r3"

	spatial "go.viam.com/manipulation/spatialmath"
)

// pandaTCPOffset is the distance from the last joint axis to the grasp point between the
// gripper fingers, the flange offset plus the hand length.
const pandaTCPOffset = 0.107 + 0.1034

// NewPandaModel returns the kinematic model of a 7 DoF Franka Emika Panda arm with the
// standard two finger gripper attached.
func NewPandaModel() *Model {
	dhParams := []DHParam{
		{A: 0, D: 0.333, Alpha: 0},
		{A: 0, D: 0, Alpha: -math.Pi / 2},
		{A: 0, D: 0.316, Alpha: math.Pi / 2},
		{A: 0.0825, D: 0, Alpha: math.Pi / 2},
		{A: -0.0825, D: 0.384, Alpha: -math.Pi / 2},
		{A: 0, D: 0, Alpha: math.Pi / 2},
		{A: 0.088, D: 0, Alpha: math.Pi / 2},
	}
	limits := []Limit{
		{Min: -2.9671, Max: 2.9671},
		{Min: -1.8326, Max: 1.8326},
		{Min: -2.9671, Max: 2.9671},
		{Min: -3.1416, Max: 0.0},
		{Min: -2.9671, Max: 2.9671},
		{Min: -0.0873, Max: 3.8223},
		{Min: -2.9671, Max: 2.9671},
	}
	tool := spatial.NewPoseFromPoint(r3.Vector{Z: pandaTCPOffset})
	model, err := NewModel("panda", dhParams, limits, tool)
	if err != nil {
		// lengths above are hardcoded and equal
		panic(err)
	}
	return model
}

// PandaHomePosition is a neutral ready configuration for the Panda arm, elbow bent and
// the gripper pointing down over the workspace.
func PandaHomePosition() []Input {
	return FloatsToInputs([]float64{0, -math.Pi / 4, 0, -3 * math.Pi / 4, 0, math.Pi / 2, math.Pi / 4})
}
