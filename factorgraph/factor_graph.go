// Package factorgraph holds the in-memory form of a multi-robot pose graph: pose and
// landmark variables, priors and measurements, and the per-robot trajectories derived from them.
package factorgraph

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/MarineRoboticsGroup/go-factor-graph/spatialmath"
)

// FactorGraphData owns every record of a factor graph. Records are kept in the order they were
// added, which is the order they serialize in. Consumers must treat a built graph as read-only.
type FactorGraphData struct {
	dim       Dimension
	records   []Record
	poses     map[string]*PoseVariable
	poseOrder []*PoseVariable
	landmarks map[string]*LandmarkVariable
	robots    map[rune]struct{}
}

// NewFactorGraphData returns an empty graph. With DimUnknown the dimension is taken from the
// first dimensional record added.
func NewFactorGraphData(dim Dimension) *FactorGraphData {
	return &FactorGraphData{
		dim:       dim,
		poses:     map[string]*PoseVariable{},
		landmarks: map[string]*LandmarkVariable{},
		robots:    map[rune]struct{}{},
	}
}

// Dimension returns the dimension of the graph's records.
func (g *FactorGraphData) Dimension() Dimension {
	return g.dim
}

func (g *FactorGraphData) checkDimension(name string, dim Dimension) error {
	if !dim.Valid() {
		return errors.Errorf("%s: dimension must be 2D or 3D but is %s", name, dim)
	}
	if g.dim != DimUnknown && g.dim != dim {
		return NewUnsupportedDimensionError(name, g.dim, dim)
	}
	return nil
}

// add appends a validated record, fixing the graph's dimension if it is not set yet.
func (g *FactorGraphData) add(r Record, dim Dimension) {
	if g.dim == DimUnknown {
		g.dim = dim
	}
	g.records = append(g.records, r)
}

// AddPoseVariable adds a pose and registers its robot.
func (g *FactorGraphData) AddPoseVariable(pv *PoseVariable) error {
	if err := g.checkDimension(pv.RecordName(), pv.Dimension()); err != nil {
		return err
	}
	if _, ok := g.poses[pv.name]; ok {
		return errors.Errorf("duplicate pose variable %q", pv.name)
	}
	g.poses[pv.name] = pv
	g.poseOrder = append(g.poseOrder, pv)
	g.robots[pv.robot] = struct{}{}
	g.add(pv, pv.Dimension())
	return nil
}

// AddLandmarkVariable adds a landmark.
func (g *FactorGraphData) AddLandmarkVariable(l *LandmarkVariable) error {
	if _, err := ParseLandmarkName(l.Name); err != nil {
		return err
	}
	if err := g.checkDimension(l.RecordName(), l.Dim); err != nil {
		return err
	}
	if _, ok := g.landmarks[l.Name]; ok {
		return errors.Errorf("duplicate landmark variable %q", l.Name)
	}
	g.landmarks[l.Name] = l
	g.add(l, l.Dim)
	return nil
}

// AddPosePrior adds an absolute measurement of a pose.
func (g *FactorGraphData) AddPosePrior(p *PosePrior) error {
	if _, _, err := ParseFrameName(p.Name); err != nil {
		return err
	}
	if err := p.Pose.Validate(); err != nil {
		return errors.Wrap(err, p.RecordName())
	}
	if err := g.checkDimension(p.RecordName(), p.Pose.Dim); err != nil {
		return err
	}
	if err := checkCovariance(p.Covariance, PoseCovarianceSize(p.Pose.Dim)); err != nil {
		return errors.Wrap(err, p.RecordName())
	}
	g.add(p, p.Pose.Dim)
	return nil
}

// AddLandmarkPrior adds an absolute measurement of a landmark.
func (g *FactorGraphData) AddLandmarkPrior(p *LandmarkPrior) error {
	if _, err := ParseLandmarkName(p.Name); err != nil {
		return err
	}
	if err := g.checkDimension(p.RecordName(), p.Dim); err != nil {
		return err
	}
	if err := checkCovariance(p.Covariance, PointCovarianceSize(p.Dim)); err != nil {
		return errors.Wrap(err, p.RecordName())
	}
	g.add(p, p.Dim)
	return nil
}

// AddPoseMeasurement adds an odometry or loop closure measurement.
func (g *FactorGraphData) AddPoseMeasurement(m *PoseMeasurement) error {
	for _, name := range []string{m.From, m.To} {
		if _, _, err := ParseFrameName(name); err != nil {
			return err
		}
	}
	if err := m.Pose.Validate(); err != nil {
		return errors.Wrap(err, m.RecordName())
	}
	if err := g.checkDimension(m.RecordName(), m.Pose.Dim); err != nil {
		return err
	}
	if err := checkCovariance(m.Covariance, PoseCovarianceSize(m.Pose.Dim)); err != nil {
		return errors.Wrap(err, m.RecordName())
	}
	g.add(m, m.Pose.Dim)
	return nil
}

// AddPoseLandmarkMeasurement adds a measurement of a landmark from a pose.
func (g *FactorGraphData) AddPoseLandmarkMeasurement(m *PoseLandmarkMeasurement) error {
	if _, _, err := ParseFrameName(m.Pose); err != nil {
		return err
	}
	if _, err := ParseLandmarkName(m.Landmark); err != nil {
		return err
	}
	if err := g.checkDimension(m.RecordName(), m.Dim); err != nil {
		return err
	}
	if err := checkCovariance(m.Covariance, PointCovarianceSize(m.Dim)); err != nil {
		return errors.Wrap(err, m.RecordName())
	}
	g.add(m, m.Dim)
	return nil
}

// AddRangeMeasurement adds a range measurement. Ranges carry no dimension.
func (g *FactorGraphData) AddRangeMeasurement(m *RangeMeasurement) error {
	if m.Distance < 0 {
		return errors.Errorf("%s: negative distance %v", m.RecordName(), m.Distance)
	}
	if m.Stddev < 0 {
		return errors.Errorf("%s: negative standard deviation %v", m.RecordName(), m.Stddev)
	}
	g.records = append(g.records, m)
	return nil
}

// Records returns every record in insertion order.
func (g *FactorGraphData) Records() []Record {
	return slices.Clone(g.records)
}

// PoseVariables returns every pose variable in insertion order.
func (g *FactorGraphData) PoseVariables() []*PoseVariable {
	return slices.Clone(g.poseOrder)
}

// PoseVariable looks a pose up by name.
func (g *FactorGraphData) PoseVariable(name string) (*PoseVariable, bool) {
	pv, ok := g.poses[name]
	return pv, ok
}

// LandmarkVariable looks a landmark up by name.
func (g *FactorGraphData) LandmarkVariable(name string) (*LandmarkVariable, bool) {
	l, ok := g.landmarks[name]
	return l, ok
}

// NumLandmarks returns the number of landmark variables.
func (g *FactorGraphData) NumLandmarks() int {
	return len(g.landmarks)
}

// RobotChars returns the distinct robot characters in sorted order.
func (g *FactorGraphData) RobotChars() []rune {
	robots := lo.Keys(g.robots)
	slices.Sort(robots)
	return robots
}

// PoseMeasurements returns every pose to pose measurement in insertion order.
func (g *FactorGraphData) PoseMeasurements() []*PoseMeasurement {
	var out []*PoseMeasurement
	for _, r := range g.records {
		if m, ok := r.(*PoseMeasurement); ok {
			out = append(out, m)
		}
	}
	return out
}

// TrueTrajectories returns each robot's pose variables in insertion order.
func (g *FactorGraphData) TrueTrajectories() map[rune]*Trajectory {
	out := make(map[rune]*Trajectory, len(g.robots))
	for _, pv := range g.poseOrder {
		traj, ok := out[pv.robot]
		if !ok {
			traj = newTrajectory(pv.robot, GroundTruth)
			out[pv.robot] = traj
		}
		traj.append(pv.name, pv.transform)
	}
	return out
}

// OdometryTrajectories returns, for each robot, its first pose variable followed by the poses
// reached by composing each odometry measurement in insertion order. It fails when an odometry
// measurement starts from a pose not yet on the measured trajectory or ends at an undeclared pose.
func (g *FactorGraphData) OdometryTrajectories() (map[rune]*Trajectory, error) {
	out := make(map[rune]*Trajectory, len(g.robots))
	for _, pv := range g.poseOrder {
		if _, ok := out[pv.robot]; !ok {
			traj := newTrajectory(pv.robot, MeasuredOdometry)
			traj.append(pv.name, pv.transform)
			out[pv.robot] = traj
		}
	}

	for _, m := range g.PoseMeasurements() {
		if !m.IsOdometry() {
			continue
		}
		robot, _, _ := ParseFrameName(m.From)
		traj, ok := out[robot]
		if !ok {
			return nil, errors.Errorf("%s: robot %q has no pose variables", m.RecordName(), robot)
		}
		prev, ok := traj.index[m.From]
		if !ok {
			return nil, errors.Errorf("%s: %q is not on robot %q's measured trajectory", m.RecordName(), m.From, robot)
		}
		if _, ok := g.poses[m.To]; !ok {
			return nil, errors.Errorf("%s: unknown pose variable %q", m.RecordName(), m.To)
		}
		if traj.Has(m.To) {
			return nil, errors.Errorf("%s: %q is already on robot %q's measured trajectory", m.RecordName(), m.To, robot)
		}
		next, err := spatialmath.ComposeTransforms(traj.transforms[prev], m.Pose.Transform())
		if err != nil {
			return nil, errors.Wrap(err, m.RecordName())
		}
		traj.append(m.To, next)
	}
	return out, nil
}

// Trajectories returns the trajectories of the given kind keyed by robot.
func (g *FactorGraphData) Trajectories(kind TrajectoryKind) (map[rune]*Trajectory, error) {
	switch kind {
	case GroundTruth:
		return g.TrueTrajectories(), nil
	case MeasuredOdometry:
		return g.OdometryTrajectories()
	default:
		return nil, errors.Errorf("unknown trajectory kind %d", int(kind))
	}
}
