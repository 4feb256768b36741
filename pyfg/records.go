package pyfg

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/MarineRoboticsGroup/go-factor-graph/factorgraph"
	"github.com/MarineRoboticsGroup/go-factor-graph/spatialmath"
)

// addLine builds the record described by l and adds it to fg.
func addLine(fg *factorgraph.FactorGraphData, l *line) error {
	dim := grammars[l.tag].dim
	c := &cursor{values: l.values}
	switch l.tag {
	case TagPose2D, TagPose3D:
		ts := c.next()
		pv, err := factorgraph.NewPoseVariable(l.names[0], factorgraph.ExplicitTimestamp(ts), poseFromValues(dim, c))
		if err != nil {
			return err
		}
		return fg.AddPoseVariable(pv)

	case TagLandmark2D, TagLandmark3D:
		return fg.AddLandmarkVariable(&factorgraph.LandmarkVariable{
			Name:     l.names[0],
			Dim:      dim,
			Position: pointFromValues(dim, c),
		})

	case TagPosePrior2D, TagPosePrior3D:
		p := &factorgraph.PosePrior{Timestamp: c.next(), Name: l.names[0], Pose: poseFromValues(dim, c)}
		cov, err := covarianceFromValues(factorgraph.PoseCovarianceSize(dim), c)
		if err != nil {
			return err
		}
		p.Covariance = cov
		return fg.AddPosePrior(p)

	case TagLandmarkPrior2D, TagLandmarkPrior3D:
		p := &factorgraph.LandmarkPrior{Timestamp: c.next(), Name: l.names[0], Dim: dim, Position: pointFromValues(dim, c)}
		cov, err := covarianceFromValues(factorgraph.PointCovarianceSize(dim), c)
		if err != nil {
			return err
		}
		p.Covariance = cov
		return fg.AddLandmarkPrior(p)

	case TagRelativePose2D, TagRelativePose3D:
		m := &factorgraph.PoseMeasurement{Timestamp: c.next(), From: l.names[0], To: l.names[1], Pose: poseFromValues(dim, c)}
		cov, err := covarianceFromValues(factorgraph.PoseCovarianceSize(dim), c)
		if err != nil {
			return err
		}
		m.Covariance = cov
		return fg.AddPoseMeasurement(m)

	case TagPoseLandmark2D, TagPoseLandmark3D:
		m := &factorgraph.PoseLandmarkMeasurement{
			Timestamp:   c.next(),
			Pose:        l.names[0],
			Landmark:    l.names[1],
			Dim:         dim,
			Translation: pointFromValues(dim, c),
		}
		cov, err := covarianceFromValues(factorgraph.PointCovarianceSize(dim), c)
		if err != nil {
			return err
		}
		m.Covariance = cov
		return fg.AddPoseLandmarkMeasurement(m)

	case TagRange:
		return fg.AddRangeMeasurement(&factorgraph.RangeMeasurement{
			Timestamp: c.next(),
			First:     l.names[0],
			Second:    l.names[1],
			Distance:  c.next(),
			Stddev:    c.next(),
		})
	}
	return errors.Wrap(ErrUnknownTag, string(l.tag))
}

func poseFromValues(dim factorgraph.Dimension, c *cursor) factorgraph.Pose {
	if dim == factorgraph.Dim2 {
		v := c.take(3)
		return factorgraph.NewPose2D(v[0], v[1], v[2])
	}
	v := c.take(7)
	return factorgraph.NewPose3D(r3.Vector{X: v[0], Y: v[1], Z: v[2]}, spatialmath.QuatFromXYZW(v[3], v[4], v[5], v[6]))
}

func pointFromValues(dim factorgraph.Dimension, c *cursor) r3.Vector {
	if dim == factorgraph.Dim2 {
		v := c.take(2)
		return r3.Vector{X: v[0], Y: v[1]}
	}
	v := c.take(3)
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

func covarianceFromValues(n int, c *cursor) (*mat.SymDense, error) {
	return factorgraph.NewCovarianceFromUpperTriangle(n, c.take(factorgraph.UpperTriangleLen(n)))
}

// recordLine is the inverse of addLine.
func recordLine(r factorgraph.Record) (*line, error) {
	switch r := r.(type) {
	case *factorgraph.PoseVariable:
		// an absent timestamp is written as the pose index
		ts, _ := factorgraph.ResolveTime(r, 0, true)
		p := r.Pose()
		return &line{
			tag:    pick(p.Dim, TagPose2D, TagPose3D),
			names:  []string{r.Name()},
			values: append([]float64{ts}, poseValues(p)...),
		}, nil

	case *factorgraph.LandmarkVariable:
		return &line{
			tag:    pick(r.Dim, TagLandmark2D, TagLandmark3D),
			names:  []string{r.Name},
			values: pointValues(r.Dim, r.Position),
		}, nil

	case *factorgraph.PosePrior:
		values := append([]float64{r.Timestamp}, poseValues(r.Pose)...)
		return &line{
			tag:    pick(r.Pose.Dim, TagPosePrior2D, TagPosePrior3D),
			names:  []string{r.Name},
			values: append(values, factorgraph.UpperTriangle(r.Covariance)...),
		}, nil

	case *factorgraph.LandmarkPrior:
		values := append([]float64{r.Timestamp}, pointValues(r.Dim, r.Position)...)
		return &line{
			tag:    pick(r.Dim, TagLandmarkPrior2D, TagLandmarkPrior3D),
			names:  []string{r.Name},
			values: append(values, factorgraph.UpperTriangle(r.Covariance)...),
		}, nil

	case *factorgraph.PoseMeasurement:
		values := append([]float64{r.Timestamp}, poseValues(r.Pose)...)
		return &line{
			tag:    pick(r.Pose.Dim, TagRelativePose2D, TagRelativePose3D),
			names:  []string{r.From, r.To},
			values: append(values, factorgraph.UpperTriangle(r.Covariance)...),
		}, nil

	case *factorgraph.PoseLandmarkMeasurement:
		values := append([]float64{r.Timestamp}, pointValues(r.Dim, r.Translation)...)
		return &line{
			tag:    pick(r.Dim, TagPoseLandmark2D, TagPoseLandmark3D),
			names:  []string{r.Pose, r.Landmark},
			values: append(values, factorgraph.UpperTriangle(r.Covariance)...),
		}, nil

	case *factorgraph.RangeMeasurement:
		return &line{
			tag:    TagRange,
			names:  []string{r.First, r.Second},
			values: []float64{r.Timestamp, r.Distance, r.Stddev},
		}, nil
	}
	return nil, errors.Errorf("cannot encode record of type %T", r)
}

func pick(dim factorgraph.Dimension, tag2D, tag3D Tag) Tag {
	if dim == factorgraph.Dim2 {
		return tag2D
	}
	return tag3D
}

func poseValues(p factorgraph.Pose) []float64 {
	if p.Dim == factorgraph.Dim2 {
		return []float64{p.Translation.X, p.Translation.Y, p.Theta}
	}
	x, y, z, w := spatialmath.QuatXYZW(p.Rotation)
	return []float64{p.Translation.X, p.Translation.Y, p.Translation.Z, x, y, z, w}
}

func pointValues(dim factorgraph.Dimension, v r3.Vector) []float64 {
	if dim == factorgraph.Dim2 {
		return []float64{v.X, v.Y}
	}
	return []float64{v.X, v.Y, v.Z}
}
