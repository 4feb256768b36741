package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// NewTransform assembles an (n+1)x(n+1) homogeneous transform from an nxn rotation and
// an n element translation.
func NewTransform(r mat.Matrix, t []float64) (*mat.Dense, error) {
	rows, cols := r.Dims()
	if rows != cols {
		return nil, errors.Errorf("rotation must be square but got %dx%d", rows, cols)
	}
	if len(t) != rows {
		return nil, errors.Errorf("translation has %d components but rotation is %dx%d", len(t), rows, cols)
	}
	n := rows
	out := mat.NewDense(n+1, n+1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, r.At(i, j))
		}
		out.Set(i, n, t[i])
	}
	out.Set(n, n, 1)
	return out, nil
}

// TransformFromPose2 returns the 3x3 transform of a planar pose.
func TransformFromPose2(x, y, theta float64) *mat.Dense {
	// shapes are fixed so this cannot fail
	//nolint:errcheck
	out, _ := NewTransform(RotationMatrixFromTheta(theta), []float64{x, y})
	return out
}

// TransformFromPose3 returns the 4x4 transform of a 3D pose.
func TransformFromPose3(t r3.Vector, q quat.Number) *mat.Dense {
	//nolint:errcheck
	out, _ := NewTransform(RotationMatrixFromQuat(q), []float64{t.X, t.Y, t.Z})
	return out
}

// DecomposeTransform splits an (n+1)x(n+1) transform into its nxn rotation block and n
// element translation. Only 2D and 3D transforms are accepted.
func DecomposeTransform(t mat.Matrix) (*mat.Dense, []float64, error) {
	n, err := transformDim(t)
	if err != nil {
		return nil, nil, err
	}
	r := mat.NewDense(n, n, nil)
	trans := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r.Set(i, j, t.At(i, j))
		}
		trans[i] = t.At(i, n)
	}
	return r, trans, nil
}

// Translation3 returns the translation of a 2D or 3D transform as a 3 vector; a 2D
// translation gets a zero z.
func Translation3(t mat.Matrix) (r3.Vector, error) {
	_, trans, err := DecomposeTransform(t)
	if err != nil {
		return r3.Vector{}, err
	}
	if len(trans) == 2 {
		trans = append(trans, 0)
	}
	return r3.Vector{X: trans[0], Y: trans[1], Z: trans[2]}, nil
}

// QuatFromTransform returns the rotation of a 2D or 3D transform as a quaternion.
func QuatFromTransform(t mat.Matrix) (quat.Number, error) {
	r, _, err := DecomposeTransform(t)
	if err != nil {
		return quat.Number{}, err
	}
	return QuatFromRotationMatrix(r)
}

// ComposeTransforms returns a*b.
func ComposeTransforms(a, b mat.Matrix) (*mat.Dense, error) {
	na, err := transformDim(a)
	if err != nil {
		return nil, err
	}
	nb, err := transformDim(b)
	if err != nil {
		return nil, err
	}
	if na != nb {
		return nil, errors.Errorf("cannot compose a %dD transform with a %dD transform", na, nb)
	}
	var out mat.Dense
	out.Mul(a, b)
	return &out, nil
}

func transformDim(t mat.Matrix) (int, error) {
	rows, cols := t.Dims()
	if rows != cols || (rows != 3 && rows != 4) {
		return 0, errors.Errorf("expected a 3x3 or 4x4 transform but got %dx%d", rows, cols)
	}
	return rows - 1, nil
}
