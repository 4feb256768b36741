package factorgraph

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/MarineRoboticsGroup/go-factor-graph/spatialmath"
)

// Pose holds the parameters of a rigid transform as they appear in a PyFG record: a heading
// for 2D poses, a quaternion for 3D poses.
type Pose struct {
	Dim         Dimension
	Translation r3.Vector
	// Theta is the heading in radians of a 2D pose.
	Theta float64
	// Rotation is the orientation of a 3D pose. It need not be exactly unit length.
	Rotation quat.Number
}

// NewPose2D returns the planar pose (x, y, theta).
func NewPose2D(x, y, theta float64) Pose {
	return Pose{Dim: Dim2, Translation: r3.Vector{X: x, Y: y}, Theta: theta}
}

// NewPose3D returns the 3D pose with the given translation and rotation.
func NewPose3D(translation r3.Vector, rotation quat.Number) Pose {
	return Pose{Dim: Dim3, Translation: translation, Rotation: rotation}
}

// Validate checks that the pose describes a rigid transform.
func (p Pose) Validate() error {
	switch p.Dim {
	case Dim2:
		if p.Translation.Z != 0 {
			return errors.New("2D pose cannot have a z translation")
		}
	case Dim3:
		if quat.Abs(p.Rotation) == 0 {
			return errors.New("3D pose rotation is the zero quaternion")
		}
	default:
		return errors.Errorf("pose must be 2D or 3D but is %s", p.Dim)
	}
	return nil
}

// Transform returns the homogeneous transform of the pose: 3x3 in 2D and 4x4 in 3D.
func (p Pose) Transform() *mat.Dense {
	if p.Dim == Dim2 {
		return spatialmath.TransformFromPose2(p.Translation.X, p.Translation.Y, p.Theta)
	}
	return spatialmath.TransformFromPose3(p.Translation, p.Rotation)
}

// PoseVariable is a robot pose at one point along its trajectory. It is immutable once built.
type PoseVariable struct {
	name      string
	robot     rune
	index     int
	timestamp Timestamp
	pose      Pose
	transform *mat.Dense
}

// NewPoseVariable builds a pose variable. The name must be a pose name such as "A0".
func NewPoseVariable(name string, timestamp Timestamp, pose Pose) (*PoseVariable, error) {
	robot, index, err := ParseFrameName(name)
	if err != nil {
		return nil, err
	}
	if err := pose.Validate(); err != nil {
		return nil, errors.Wrapf(err, "pose variable %q", name)
	}
	return &PoseVariable{
		name:      name,
		robot:     robot,
		index:     index,
		timestamp: timestamp,
		pose:      pose,
		transform: pose.Transform(),
	}, nil
}

// NewPoseVariable2D builds a planar pose variable.
func NewPoseVariable2D(name string, timestamp Timestamp, x, y, theta float64) (*PoseVariable, error) {
	return NewPoseVariable(name, timestamp, NewPose2D(x, y, theta))
}

// NewPoseVariable3D builds a 3D pose variable.
func NewPoseVariable3D(name string, timestamp Timestamp, translation r3.Vector, rotation quat.Number) (*PoseVariable, error) {
	return NewPoseVariable(name, timestamp, NewPose3D(translation, rotation))
}

// Name returns the pose name, e.g. "A0".
func (pv *PoseVariable) Name() string {
	return pv.name
}

// Robot returns the robot character.
func (pv *PoseVariable) Robot() rune {
	return pv.robot
}

// Index returns the pose index encoded in the name.
func (pv *PoseVariable) Index() int {
	return pv.index
}

// Timestamp returns the pose's timestamp, which may be absent.
func (pv *PoseVariable) Timestamp() Timestamp {
	return pv.timestamp
}

// Dimension returns whether the pose is 2D or 3D.
func (pv *PoseVariable) Dimension() Dimension {
	return pv.pose.Dim
}

// Pose returns the pose parameters as given at construction.
func (pv *PoseVariable) Pose() Pose {
	return pv.pose
}

// Transform returns a copy of the pose's homogeneous transform.
func (pv *PoseVariable) Transform() *mat.Dense {
	return mat.DenseCopyOf(pv.transform)
}

// LandmarkVariable is a static point landmark.
type LandmarkVariable struct {
	Name     string
	Dim      Dimension
	Position r3.Vector
}
