package factorgraph

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/MarineRoboticsGroup/go-factor-graph/spatialmath"
)

func mustPose2D(t *testing.T, name string, ts float64, x, y, theta float64) *PoseVariable {
	t.Helper()
	pv, err := NewPoseVariable2D(name, ExplicitTimestamp(ts), x, y, theta)
	test.That(t, err, test.ShouldBeNil)
	return pv
}

func identityCov(t *testing.T, n int) *mat.SymDense {
	t.Helper()
	upper := make([]float64, 0, UpperTriangleLen(n))
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if i == j {
				upper = append(upper, 1)
			} else {
				upper = append(upper, 0)
			}
		}
	}
	cov, err := NewCovarianceFromUpperTriangle(n, upper)
	test.That(t, err, test.ShouldBeNil)
	return cov
}

func odometry2D(t *testing.T, from, to string, x, y, theta float64) *PoseMeasurement {
	t.Helper()
	return &PoseMeasurement{From: from, To: to, Pose: NewPose2D(x, y, theta), Covariance: identityCov(t, 3)}
}

// twoRobotGraph holds robots A and B, each with three planar poses, with B's poses declared
// before A's.
func twoRobotGraph(t *testing.T) *FactorGraphData {
	t.Helper()
	g := NewFactorGraphData(DimUnknown)
	for _, pv := range []*PoseVariable{
		mustPose2D(t, "B0", 0, 5, 5, 0),
		mustPose2D(t, "B1", 1, 6, 5, 0),
		mustPose2D(t, "A0", 0, 0, 0, 0),
		mustPose2D(t, "A1", 1, 1, 0, math.Pi/2),
		mustPose2D(t, "A2", 2, 1, 1, math.Pi/2),
		mustPose2D(t, "B2", 2, 7, 5, 0),
	} {
		test.That(t, g.AddPoseVariable(pv), test.ShouldBeNil)
	}
	for _, m := range []*PoseMeasurement{
		odometry2D(t, "A0", "A1", 1, 0, math.Pi/2),
		odometry2D(t, "B0", "B1", 1, 0, 0),
		odometry2D(t, "A1", "A2", 1, 0, 0),
		odometry2D(t, "A2", "B2", 0, 0, 0),
		odometry2D(t, "B1", "B2", 1, 0, 0),
	} {
		test.That(t, g.AddPoseMeasurement(m), test.ShouldBeNil)
	}
	return g
}

func TestParseFrameName(t *testing.T) {
	robot, index, err := ParseFrameName("A12")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, robot, test.ShouldEqual, 'A')
	test.That(t, index, test.ShouldEqual, 12)
	test.That(t, PoseName('c', 7), test.ShouldEqual, "c7")

	for _, bad := range []string{"", "A", "0A", "A-1", "A1.5", "L3", "AB1", "Ä1"} {
		_, _, err := ParseFrameName(bad)
		test.That(t, err, test.ShouldNotBeNil)
	}

	index, err = ParseLandmarkName("L3")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, index, test.ShouldEqual, 3)
	test.That(t, LandmarkName(3), test.ShouldEqual, "L3")
	_, err = ParseLandmarkName("A3")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPoseVariable(t *testing.T) {
	pv := mustPose2D(t, "B4", 2.5, 1, 2, math.Pi/4)
	test.That(t, pv.Name(), test.ShouldEqual, "B4")
	test.That(t, pv.Robot(), test.ShouldEqual, 'B')
	test.That(t, pv.Index(), test.ShouldEqual, 4)
	test.That(t, pv.Dimension(), test.ShouldEqual, Dim2)
	seconds, ok := pv.Timestamp().Seconds()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, seconds, test.ShouldEqual, 2.5)

	tf := pv.Transform()
	r, _ := tf.Dims()
	test.That(t, r, test.ShouldEqual, 3)
	// the returned transform is a copy
	tf.Set(0, 2, 100)
	test.That(t, pv.Transform().At(0, 2), test.ShouldEqual, 1)

	t.Run("3d", func(t *testing.T) {
		pv, err := NewPoseVariable3D("A0", NoTimestamp(), r3.Vector{X: 1, Y: 2, Z: 3}, spatialmath.QuatFromXYZW(0, 0, 0.6, 0.8))
		test.That(t, err, test.ShouldBeNil)
		rows, _ := pv.Transform().Dims()
		test.That(t, rows, test.ShouldEqual, 4)
		_, ok := pv.Timestamp().Seconds()
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := NewPoseVariable3D("A0", NoTimestamp(), r3.Vector{}, spatialmath.QuatFromXYZW(0, 0, 0, 0))
		test.That(t, err, test.ShouldNotBeNil)
		_, err = NewPoseVariable2D("L0", NoTimestamp(), 0, 0, 0)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = NewPoseVariable("A0", NoTimestamp(), Pose{Dim: DimUnknown})
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestRobotChars(t *testing.T) {
	g := twoRobotGraph(t)
	test.That(t, g.RobotChars(), test.ShouldResemble, []rune{'A', 'B'})
	test.That(t, g.Dimension(), test.ShouldEqual, Dim2)
	test.That(t, g.Records(), test.ShouldHaveLength, 11)
	test.That(t, g.PoseMeasurements(), test.ShouldHaveLength, 5)
}

func TestTrueTrajectories(t *testing.T) {
	trajs := twoRobotGraph(t).TrueTrajectories()
	test.That(t, trajs, test.ShouldHaveLength, 2)
	test.That(t, trajs['A'].Names(), test.ShouldResemble, []string{"A0", "A1", "A2"})
	test.That(t, trajs['B'].Names(), test.ShouldResemble, []string{"B0", "B1", "B2"})
	test.That(t, trajs['B'].Kind(), test.ShouldEqual, GroundTruth)
	test.That(t, trajs['B'].Robot(), test.ShouldEqual, 'B')

	var visited []string
	trajs['A'].Iterate(func(i int, name string, transform mat.Matrix) bool {
		visited = append(visited, name)
		return i < 1
	})
	test.That(t, visited, test.ShouldResemble, []string{"A0", "A1"})
}

func TestOdometryTrajectories(t *testing.T) {
	g := twoRobotGraph(t)
	trajs, err := g.OdometryTrajectories()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, trajs['A'].Names(), test.ShouldResemble, []string{"A0", "A1", "A2"})
	test.That(t, trajs['B'].Names(), test.ShouldResemble, []string{"B0", "B1", "B2"})
	test.That(t, trajs['A'].Kind(), test.ShouldEqual, MeasuredOdometry)

	// A1 is reached by driving 1m then turning left, A2 by driving 1m along the new heading
	a2, ok := trajs['A'].Transform("A2")
	test.That(t, ok, test.ShouldBeTrue)
	v, err := spatialmath.Translation3(a2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v.X, test.ShouldAlmostEqual, 1)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1)
	test.That(t, spatialmath.ThetaFromRotationMatrix(a2.Slice(0, 2, 0, 2)), test.ShouldAlmostEqual, math.Pi/2)

	b2, ok := trajs['B'].Transform("B2")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, b2.At(0, 2), test.ShouldAlmostEqual, 7)

	t.Run("by kind", func(t *testing.T) {
		gt, err := g.Trajectories(GroundTruth)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, gt['A'].Kind(), test.ShouldEqual, GroundTruth)
		meas, err := g.Trajectories(MeasuredOdometry)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, meas['A'].Kind(), test.ShouldEqual, MeasuredOdometry)
		_, err = g.Trajectories(TrajectoryKind(9))
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestOdometryTrajectoryErrors(t *testing.T) {
	t.Run("source not reached", func(t *testing.T) {
		g := NewFactorGraphData(Dim2)
		test.That(t, g.AddPoseVariable(mustPose2D(t, "A0", 0, 0, 0, 0)), test.ShouldBeNil)
		test.That(t, g.AddPoseVariable(mustPose2D(t, "A1", 1, 0, 0, 0)), test.ShouldBeNil)
		test.That(t, g.AddPoseVariable(mustPose2D(t, "A2", 2, 0, 0, 0)), test.ShouldBeNil)
		test.That(t, g.AddPoseMeasurement(odometry2D(t, "A1", "A2", 1, 0, 0)), test.ShouldBeNil)
		_, err := g.OdometryTrajectories()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, `"A1" is not on robot 'A'`)
	})

	t.Run("unknown target", func(t *testing.T) {
		g := NewFactorGraphData(Dim2)
		test.That(t, g.AddPoseVariable(mustPose2D(t, "A0", 0, 0, 0, 0)), test.ShouldBeNil)
		test.That(t, g.AddPoseMeasurement(odometry2D(t, "A0", "A1", 1, 0, 0)), test.ShouldBeNil)
		_, err := g.OdometryTrajectories()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, `unknown pose variable "A1"`)
	})
}

func TestAddErrors(t *testing.T) {
	g := NewFactorGraphData(Dim2)
	test.That(t, g.AddPoseVariable(mustPose2D(t, "A0", 0, 0, 0, 0)), test.ShouldBeNil)

	err := g.AddPoseVariable(mustPose2D(t, "A0", 1, 0, 0, 0))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "duplicate")

	pv3, err := NewPoseVariable3D("A1", NoTimestamp(), r3.Vector{}, spatialmath.QuatFromXYZW(0, 0, 0, 1))
	test.That(t, err, test.ShouldBeNil)
	err = g.AddPoseVariable(pv3)
	var dimErr *UnsupportedDimensionError
	test.That(t, errors.As(err, &dimErr), test.ShouldBeTrue)
	test.That(t, dimErr.Want, test.ShouldEqual, Dim2)
	test.That(t, dimErr.Got, test.ShouldEqual, Dim3)

	err = g.AddPoseMeasurement(&PoseMeasurement{From: "A0", To: "A1", Pose: NewPose2D(1, 0, 0), Covariance: identityCov(t, 6)})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "3x3")

	err = g.AddLandmarkVariable(&LandmarkVariable{Name: "A5", Dim: Dim2})
	test.That(t, err, test.ShouldNotBeNil)

	err = g.AddRangeMeasurement(&RangeMeasurement{First: "A0", Second: "L0", Distance: -1})
	test.That(t, err, test.ShouldNotBeNil)

	// rejected records do not change the graph
	test.That(t, g.Records(), test.ShouldHaveLength, 1)
}

func TestDimensionFixedByFirstRecord(t *testing.T) {
	g := NewFactorGraphData(DimUnknown)
	test.That(t, g.AddRangeMeasurement(&RangeMeasurement{First: "A0", Second: "B0", Distance: 1}), test.ShouldBeNil)
	test.That(t, g.Dimension(), test.ShouldEqual, DimUnknown)
	test.That(t, g.AddLandmarkVariable(&LandmarkVariable{Name: "L0", Dim: Dim3}), test.ShouldBeNil)
	test.That(t, g.Dimension(), test.ShouldEqual, Dim3)
	err := g.AddPoseVariable(mustPose2D(t, "A0", 0, 0, 0, 0))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIsOdometry(t *testing.T) {
	test.That(t, (&PoseMeasurement{From: "A3", To: "A4"}).IsOdometry(), test.ShouldBeTrue)
	test.That(t, (&PoseMeasurement{From: "A3", To: "A5"}).IsOdometry(), test.ShouldBeFalse)
	test.That(t, (&PoseMeasurement{From: "A3", To: "B4"}).IsOdometry(), test.ShouldBeFalse)
	test.That(t, (&PoseMeasurement{From: "A4", To: "A3"}).IsOdometry(), test.ShouldBeFalse)
}

func TestCovarianceUpperTriangle(t *testing.T) {
	upper := []float64{1, 2, 3, 4, 5, 6}
	cov, err := NewCovarianceFromUpperTriangle(3, upper)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cov.At(2, 0), test.ShouldEqual, 3)
	test.That(t, cov.At(1, 2), test.ShouldEqual, 5)
	test.That(t, UpperTriangle(cov), test.ShouldResemble, upper)

	_, err = NewCovarianceFromUpperTriangle(6, upper)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, UpperTriangleLen(6), test.ShouldEqual, 21)
}

func TestResolveTime(t *testing.T) {
	explicit := mustPose2D(t, "A7", 3.25, 0, 0, 0)
	seconds, source := ResolveTime(explicit, 2, true)
	test.That(t, seconds, test.ShouldEqual, 3.25)
	test.That(t, source, test.ShouldEqual, TimeFromTimestamp)

	absent, err := NewPoseVariable2D("A7", NoTimestamp(), 0, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	seconds, source = ResolveTime(absent, 2, true)
	test.That(t, seconds, test.ShouldEqual, 7)
	test.That(t, source, test.ShouldEqual, TimeFromPoseIndex)

	seconds, source = ResolveTime(absent, 2, false)
	test.That(t, seconds, test.ShouldEqual, 2)
	test.That(t, source, test.ShouldEqual, TimeFromOrdinal)
	test.That(t, source.String(), test.ShouldEqual, "ordinal")
}
