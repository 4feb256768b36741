package factorgraph

import (
	"gonum.org/v1/gonum/mat"
)

// TrajectoryKind distinguishes a robot's true poses from the poses obtained by chaining its
// odometry measurements.
type TrajectoryKind int

const (
	// GroundTruth is the sequence of a robot's pose variables.
	GroundTruth TrajectoryKind = iota
	// MeasuredOdometry is the robot's first pose composed with each odometry measurement in turn.
	MeasuredOdometry
)

func (k TrajectoryKind) String() string {
	switch k {
	case GroundTruth:
		return "ground truth"
	case MeasuredOdometry:
		return "measured odometry"
	}
	return "unknown"
}

// Trajectory is an ordered map from pose name to transform for one robot. Iteration always
// follows insertion order, which is the order poses were declared or measured.
type Trajectory struct {
	robot      rune
	kind       TrajectoryKind
	names      []string
	transforms []*mat.Dense
	index      map[string]int
}

func newTrajectory(robot rune, kind TrajectoryKind) *Trajectory {
	return &Trajectory{robot: robot, kind: kind, index: map[string]int{}}
}

// append adds an entry; the caller guarantees name is not already present.
func (t *Trajectory) append(name string, transform *mat.Dense) {
	t.index[name] = len(t.names)
	t.names = append(t.names, name)
	t.transforms = append(t.transforms, transform)
}

// Robot returns the robot the trajectory belongs to.
func (t *Trajectory) Robot() rune {
	return t.robot
}

// Kind returns the trajectory kind.
func (t *Trajectory) Kind() TrajectoryKind {
	return t.kind
}

// Len returns the number of entries.
func (t *Trajectory) Len() int {
	return len(t.names)
}

// Names returns the pose names in order.
func (t *Trajectory) Names() []string {
	return append([]string(nil), t.names...)
}

// Has reports whether the pose is on the trajectory.
func (t *Trajectory) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Transform returns a copy of the transform stored for the named pose.
func (t *Trajectory) Transform(name string) (*mat.Dense, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return mat.DenseCopyOf(t.transforms[i]), true
}

// Iterate calls fn for each entry in order until fn returns false. The transform passed to fn
// must not be modified.
func (t *Trajectory) Iterate(fn func(i int, name string, transform mat.Matrix) bool) {
	for i, name := range t.names {
		if !fn(i, name, t.transforms[i]) {
			return
		}
	}
}
