package grasp

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	spatial "go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/utils"
)

const (
	// Number of candidate poses sampled per invocation.
	defaultSampleBudget = 2000

	// Total score a candidate must exceed to be considered safe to execute.
	defaultScoreThreshold = 1.0

	// Number of containment rays cast per finger plane.
	defaultRaysPerPlane = 50

	// Minimum distance between any gripper sample point and the object surface for a
	// candidate to be collision free.
	defaultCollisionClearance = 0.002
)

type generatorOptions struct {
	// Number of candidate poses sampled per invocation.
	SampleBudget int `json:"sample_budget"`

	// Total score a candidate must exceed to be considered safe to execute.
	ScoreThreshold float64 `json:"score_threshold"`

	// Number of containment rays cast per finger plane.
	RaysPerPlane int `json:"rays_per_plane"`

	// Minimum clearance between gripper sample points and the object surface.
	CollisionClearance float64 `json:"collision_clearance"`
}

// newGeneratorOptions creates a struct controlling a single generator invocation.
// All values are pre-set to reasonable defaults, but can be tweaked if needed.
func newGeneratorOptions(extra map[string]interface{}) (*generatorOptions, error) {
	opts := &generatorOptions{
		SampleBudget:       defaultSampleBudget,
		ScoreThreshold:     defaultScoreThreshold,
		RaysPerPlane:       defaultRaysPerPlane,
		CollisionClearance: defaultCollisionClearance,
	}
	// convert map to json
	jsonString, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(jsonString, opts)
	if err != nil {
		return nil, err
	}
	return opts, nil
}

// Generator samples grasp candidates over an object's bounding box, scores each one,
// and returns the best. Best-of-N selection only, there is no convergence guarantee.
type Generator struct {
	gripper  *Gripper
	logger   golog.Logger
	opts     *generatorOptions
	randseed *rand.Rand
}

// NewGenerator creates a grasp generator for the given gripper. Parameters may be
// overridden through the extra map.
func NewGenerator(gripper *Gripper, logger golog.Logger, extra map[string]interface{}) (*Generator, error) {
	//nolint:gosec
	return NewGeneratorWithSeed(gripper, rand.New(rand.NewSource(1)), logger, extra)
}

// NewGeneratorWithSeed creates a grasp generator with a user specified random seed.
func NewGeneratorWithSeed(
	gripper *Gripper,
	seed *rand.Rand,
	logger golog.Logger,
	extra map[string]interface{},
) (*Generator, error) {
	opts, err := newGeneratorOptions(extra)
	if err != nil {
		return nil, err
	}
	return &Generator{
		gripper:  gripper,
		logger:   logger,
		opts:     opts,
		randseed: seed,
	}, nil
}

// Generate samples candidate grasp centers inside the object's bounding box, scores
// each candidate, and returns the winning pose set and its candidate. Returns
// ErrNoFeasibleGrasp when no candidate clears the safety threshold.
func (g *Generator) Generate(ctx context.Context, obj *Object) (*PoseSet, *Candidate, error) {
	if err := obj.Validate(); err != nil {
		return nil, nil, err
	}
	mesh := obj.rayMesh()
	orientation, frameAxes := graspFrame(obj.Box)

	var best *Candidate
	totals := make([]float64, 0, g.opts.SampleBudget)
	for i := 0; i < g.opts.SampleBudget; i++ {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		center := g.sampleCenter(obj.Box, frameAxes)
		candidate := g.score(spatial.NewPose(center, orientation), obj, mesh)
		if candidate == nil {
			continue
		}
		totals = append(totals, candidate.Total)
		if best == nil || candidate.Total > best.Total {
			best = candidate
		}
	}

	if len(totals) > 0 {
		mean, _ := stats.Mean(totals)
		g.logger.Debugf("scored %d/%d candidates, mean total %.3f, best %s",
			len(totals), g.opts.SampleBudget, mean, best)
	}
	if best == nil || best.Total < g.opts.ScoreThreshold {
		return nil, nil, errors.Wrapf(ErrNoFeasibleGrasp,
			"%d candidates sampled, %d scored", g.opts.SampleBudget, len(totals))
	}
	return NewPoseSet(best.Pose, g.gripper.Standoff), best, nil
}

// graspAxes are the bounding box axes expressed in the sampling frame of a grasp: the
// opening axis along the shorter horizontal edge, the width axis along the longer one,
// and the vertical axis pointing up.
type graspAxes struct {
	opening  r3.Vector
	width    r3.Vector
	vertical r3.Vector

	halfOpening  float64
	halfWidth    float64
	halfVertical float64
}

// graspFrame fixes the candidate orientation for a box: approach axis straight down,
// opening axis parallel to the box's shorter horizontal edge.
func graspFrame(box *spatial.Box) (spatial.Orientation, *graspAxes) {
	dims := box.Dims()
	halves := []float64{dims.X / 2, dims.Y / 2, dims.Z / 2}

	// the box axis most aligned with gravity is the vertical one
	vertical := 0
	for i := 1; i < 3; i++ {
		if math.Abs(box.Axis(i).Z) > math.Abs(box.Axis(vertical).Z) {
			vertical = i
		}
	}
	opening, width := (vertical+1)%3, (vertical+2)%3
	if halves[width] < halves[opening] {
		opening, width = width, opening
	}

	axes := &graspAxes{
		opening:      horizontalUnit(box.Axis(opening)),
		width:        horizontalUnit(box.Axis(width)),
		vertical:     r3.Vector{Z: 1},
		halfOpening:  halves[opening],
		halfWidth:    halves[width],
		halfVertical: halves[vertical],
	}
	// gripper x along the opening direction, z pointing down at the object
	zAxis := r3.Vector{Z: -1}
	xAxis := axes.opening
	yAxis := zAxis.Cross(xAxis)
	orientation := spatial.NewRotationMatrixFromAxes(xAxis, yAxis, zAxis).Quaternion()
	return spatial.NewOrientationFromQuaternion(orientation), axes
}

// sampleCenter draws one grasp center: tightly distributed about the box center along
// the opening and width axes, biased toward the top of the box vertically.
func (g *Generator) sampleCenter(box *spatial.Box, axes *graspAxes) r3.Vector {
	alongOpening := utils.SampleTruncatedNormal(
		0, axes.halfOpening/3, -axes.halfOpening, axes.halfOpening, g.randseed)
	alongWidth := utils.SampleTruncatedNormal(
		0, axes.halfWidth/3, -axes.halfWidth, axes.halfWidth, g.randseed)
	alongVertical := utils.SampleTruncatedNormal(
		axes.halfVertical/2, axes.halfVertical/2, -axes.halfVertical, axes.halfVertical, g.randseed)

	return box.Pose().Point().
		Add(axes.opening.Mul(alongOpening)).
		Add(axes.width.Mul(alongWidth)).
		Add(axes.vertical.Mul(alongVertical))
}

// horizontalUnit projects a vector onto the horizontal plane and normalizes it.
func horizontalUnit(v r3.Vector) r3.Vector {
	flat := r3.Vector{X: v.X, Y: v.Y}
	if flat.Norm() == 0 {
		return r3.Vector{X: 1}
	}
	return flat.Normalize()
}
