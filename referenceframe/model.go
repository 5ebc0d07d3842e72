package referenceframe

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	spatial "go.viam.com/manipulation/spatialmath"
)

// jacobianPerturbation is the joint perturbation used when differencing the forward
// kinematics to build the Jacobian.
const jacobianPerturbation = 1e-6

// DHParam is a modified Denavit-Hartenberg parameter row for one revolute joint. Alpha
// and A describe the transform from the previous joint axis, D the offset along the
// current one.
type DHParam struct {
	A     float64
	D     float64
	Alpha float64
}

// Model is a serial kinematic chain of revolute joints described by modified DH
// parameters, with a fixed tool transform appended after the last joint.
type Model struct {
	name          string
	dhParams      []DHParam
	limits        []Limit
	toolTransform spatial.Pose
}

// NewModel creates a serial chain Frame from the given DH parameters and joint limits.
func NewModel(name string, dhParams []DHParam, limits []Limit, toolTransform spatial.Pose) (*Model, error) {
	if len(dhParams) != len(limits) {
		return nil, NewIncorrectInputLengthError(len(limits), len(dhParams))
	}
	if toolTransform == nil {
		toolTransform = spatial.NewZeroPose()
	}
	return &Model{
		name:          name,
		dhParams:      dhParams,
		limits:        limits,
		toolTransform: toolTransform,
	}, nil
}

// Name returns the name of the model.
func (m *Model) Name() string {
	return m.name
}

// DoF returns the number of degrees of freedom within a model.
func (m *Model) DoF() []Limit {
	return m.limits
}

// Transform takes a model and a list of joint angles in radians and computes the pose of
// the end effector, checking for out-of-bounds inputs.
func (m *Model) Transform(inputs []Input) (spatial.Pose, error) {
	if err := m.validInputs(inputs); err != nil {
		return nil, err
	}
	return m.transform(inputs), nil
}

// LinkPositions returns the world-frame origin of each joint frame plus the end effector
// point, in order from base to tool. These are the points used for collision checking.
func (m *Model) LinkPositions(inputs []Input) ([]r3.Vector, error) {
	if err := m.validInputs(inputs); err != nil {
		return nil, err
	}
	positions := make([]r3.Vector, 0, len(m.dhParams)+1)
	pose := spatial.NewZeroPose()
	for i, dh := range m.dhParams {
		pose = spatial.Compose(pose, jointTransform(dh, inputs[i].Value))
		positions = append(positions, pose.Point())
	}
	positions = append(positions, spatial.Compose(pose, m.toolTransform).Point())
	return positions, nil
}

// Jacobian returns the 6xN kinematic Jacobian of the end effector pose at the given
// inputs, found by finite differencing. Rows are linear velocity then rotation vector
// rate. Inputs are not bounds checked so the matrix is usable at the edge of the limits.
func (m *Model) Jacobian(inputs []Input) (*mat.Dense, error) {
	if len(inputs) != len(m.dhParams) {
		return nil, NewIncorrectInputLengthError(len(inputs), len(m.dhParams))
	}
	base := m.transform(inputs)
	jacobian := mat.NewDense(6, len(inputs), nil)
	perturbed := make([]Input, len(inputs))
	for j := range inputs {
		copy(perturbed, inputs)
		perturbed[j] = Input{inputs[j].Value + jacobianPerturbation}
		delta := spatial.PoseDelta(base, m.transform(perturbed))
		for i := 0; i < 6; i++ {
			jacobian.Set(i, j, delta[i]/jacobianPerturbation)
		}
	}
	return jacobian, nil
}

// transform computes the end effector pose without input validation.
func (m *Model) transform(inputs []Input) spatial.Pose {
	pose := spatial.NewZeroPose()
	for i, dh := range m.dhParams {
		pose = spatial.Compose(pose, jointTransform(dh, inputs[i].Value))
	}
	return spatial.Compose(pose, m.toolTransform)
}

// jointTransform is the modified DH transform for one joint,
// RotX(alpha) * TransX(a) * RotZ(theta) * TransZ(d).
func jointTransform(dh DHParam, theta float64) spatial.Pose {
	pose := spatial.NewPoseFromOrientation(spatial.NewOrientationFromAxisAngle(r3.Vector{X: 1}, dh.Alpha))
	pose = spatial.Compose(pose, spatial.NewPoseFromPoint(r3.Vector{X: dh.A}))
	pose = spatial.Compose(pose, spatial.NewPoseFromOrientation(spatial.NewOrientationFromAxisAngle(r3.Vector{Z: 1}, theta)))
	return spatial.Compose(pose, spatial.NewPoseFromPoint(r3.Vector{Z: dh.D}))
}

func (m *Model) validInputs(inputs []Input) error {
	if len(inputs) != len(m.dhParams) {
		return NewIncorrectInputLengthError(len(inputs), len(m.dhParams))
	}
	for i, input := range inputs {
		if input.Value < m.limits[i].Min || input.Value > m.limits[i].Max {
			return NewLimitViolationError(i, input.Value, m.limits[i].Min, m.limits[i].Max)
		}
	}
	return nil
}
