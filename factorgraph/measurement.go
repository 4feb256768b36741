package factorgraph

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Record is any entry of a factor graph: a variable, a prior or a measurement.
type Record interface {
	// RecordName returns a short human readable identifier for error messages.
	RecordName() string
}

// PoseMeasurement is a noisy relative transform from one pose to another.
type PoseMeasurement struct {
	Timestamp  float64
	From       string
	To         string
	Pose       Pose
	Covariance *mat.SymDense
}

// IsOdometry reports whether the measurement connects consecutive poses of the same robot.
// Every other pose to pose measurement is a loop closure.
func (m *PoseMeasurement) IsOdometry() bool {
	fromRobot, fromIndex, err := ParseFrameName(m.From)
	if err != nil {
		return false
	}
	toRobot, toIndex, err := ParseFrameName(m.To)
	if err != nil {
		return false
	}
	return fromRobot == toRobot && toIndex == fromIndex+1
}

// PosePrior is an absolute measurement of a pose.
type PosePrior struct {
	Timestamp  float64
	Name       string
	Pose       Pose
	Covariance *mat.SymDense
}

// LandmarkPrior is an absolute measurement of a landmark position.
type LandmarkPrior struct {
	Timestamp  float64
	Name       string
	Dim        Dimension
	Position   r3.Vector
	Covariance *mat.SymDense
}

// PoseLandmarkMeasurement is the position of a landmark measured in the frame of a pose.
type PoseLandmarkMeasurement struct {
	Timestamp   float64
	Pose        string
	Landmark    string
	Dim         Dimension
	Translation r3.Vector
	Covariance  *mat.SymDense
}

// RangeMeasurement is a distance measured between two variables.
type RangeMeasurement struct {
	Timestamp float64
	First     string
	Second    string
	Distance  float64
	Stddev    float64
}

// RecordName implements Record.
func (pv *PoseVariable) RecordName() string { return "pose " + pv.name }

// RecordName implements Record.
func (l *LandmarkVariable) RecordName() string { return "landmark " + l.Name }

// RecordName implements Record.
func (m *PoseMeasurement) RecordName() string { return "pose measurement " + m.From + "->" + m.To }

// RecordName implements Record.
func (p *PosePrior) RecordName() string { return "pose prior " + p.Name }

// RecordName implements Record.
func (p *LandmarkPrior) RecordName() string { return "landmark prior " + p.Name }

// RecordName implements Record.
func (m *PoseLandmarkMeasurement) RecordName() string {
	return "landmark measurement " + m.Pose + "->" + m.Landmark
}

// RecordName implements Record.
func (m *RangeMeasurement) RecordName() string { return "range " + m.First + "-" + m.Second }

// PoseCovarianceSize is the side of a pose covariance matrix: 3 in 2D and 6 in 3D.
func PoseCovarianceSize(dim Dimension) int {
	if dim == Dim2 {
		return 3
	}
	return 6
}

// PointCovarianceSize is the side of a point covariance matrix.
func PointCovarianceSize(dim Dimension) int {
	return int(dim)
}

// UpperTriangleLen is the number of entries in the upper triangle of an nxn matrix.
func UpperTriangleLen(n int) int {
	return n * (n + 1) / 2
}

// NewCovarianceFromUpperTriangle builds an nxn symmetric matrix from its upper triangle given
// row by row.
func NewCovarianceFromUpperTriangle(n int, upper []float64) (*mat.SymDense, error) {
	if len(upper) != UpperTriangleLen(n) {
		return nil, errors.Errorf("a %dx%d covariance needs %d upper triangle entries but got %d",
			n, n, UpperTriangleLen(n), len(upper))
	}
	cov := mat.NewSymDense(n, nil)
	k := 0
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, upper[k])
			k++
		}
	}
	return cov, nil
}

// UpperTriangle returns the upper triangle of a symmetric matrix row by row.
func UpperTriangle(cov mat.Symmetric) []float64 {
	n := cov.SymmetricDim()
	out := make([]float64, 0, UpperTriangleLen(n))
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out = append(out, cov.At(i, j))
		}
	}
	return out
}

func checkCovariance(cov *mat.SymDense, n int) error {
	if cov == nil {
		return errors.New("missing covariance")
	}
	if got := cov.SymmetricDim(); got != n {
		return errors.Errorf("expected a %dx%d covariance but got %dx%d", n, n, got, got)
	}
	return nil
}
