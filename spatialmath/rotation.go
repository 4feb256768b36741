// Package spatialmath defines the rotation and rigid transform operations used to move
// poses between the PyFG and TUM parameterizations.
package spatialmath

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrixFromTheta returns the 2x2 planar rotation matrix for heading theta.
// Theta does not need to be normalized.
func RotationMatrixFromTheta(theta float64) *mat.Dense {
	s, c := math.Sincos(theta)
	return mat.NewDense(2, 2, []float64{
		c, -s,
		s, c,
	})
}

// ThetaFromRotationMatrix returns the heading in [-pi, pi] of a 2x2 rotation matrix.
func ThetaFromRotationMatrix(r mat.Matrix) float64 {
	return math.Atan2(r.At(1, 0), r.At(0, 0))
}

// QuatFromRotationMatrix converts a 2x2 or 3x3 rotation matrix to a quaternion. A 2x2
// matrix is treated as a rotation about the z axis. The largest of w, x, y and z is
// recovered first so that no division is by a value near zero; that component comes out
// positive and ties favor w. The sign is otherwise not canonicalized.
func QuatFromRotationMatrix(r mat.Matrix) (quat.Number, error) {
	m, err := asRotation3(r)
	if err != nil {
		return quat.Number{}, err
	}
	m00, m01, m02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m10, m11, m12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)
	trace := m00 + m11 + m22

	switch {
	case trace >= m00 && trace >= m11 && trace >= m22:
		s := 2 * math.Sqrt(1+trace)
		return quat.Number{
			Real: 0.25 * s,
			Imag: (m21 - m12) / s,
			Jmag: (m02 - m20) / s,
			Kmag: (m10 - m01) / s,
		}, nil
	case m00 >= m11 && m00 >= m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		return quat.Number{
			Real: (m21 - m12) / s,
			Imag: 0.25 * s,
			Jmag: (m01 + m10) / s,
			Kmag: (m02 + m20) / s,
		}, nil
	case m11 >= m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		return quat.Number{
			Real: (m02 - m20) / s,
			Imag: (m01 + m10) / s,
			Jmag: 0.25 * s,
			Kmag: (m12 + m21) / s,
		}, nil
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		return quat.Number{
			Real: (m10 - m01) / s,
			Imag: (m02 + m20) / s,
			Jmag: (m12 + m21) / s,
			Kmag: 0.25 * s,
		}, nil
	}
}

// asRotation3 embeds a 2x2 rotation into 3x3 and passes a 3x3 rotation through.
func asRotation3(r mat.Matrix) (mat.Matrix, error) {
	rows, cols := r.Dims()
	switch {
	case rows == 2 && cols == 2:
		return mat.NewDense(3, 3, []float64{
			r.At(0, 0), r.At(0, 1), 0,
			r.At(1, 0), r.At(1, 1), 0,
			0, 0, 1,
		}), nil
	case rows == 3 && cols == 3:
		return r, nil
	default:
		return nil, errors.Errorf("expected a 2x2 or 3x3 rotation matrix but got %dx%d", rows, cols)
	}
}

// RotationMatrixFromQuat returns the 3x3 rotation matrix of q. The quaternion is
// normalized first so slightly non-unit input still produces a rotation.
func RotationMatrixFromQuat(q quat.Number) *mat.Dense {
	if n := quat.Abs(q); n != 0 && n != 1 {
		q = quat.Scale(1/n, q)
	}
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w),
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w),
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y),
	})
}

// QuatXYZW returns the components of q in x, y, z, w order.
func QuatXYZW(q quat.Number) (x, y, z, w float64) {
	return q.Imag, q.Jmag, q.Kmag, q.Real
}

// QuatFromXYZW builds a quaternion from components in x, y, z, w order.
func QuatFromXYZW(x, y, z, w float64) quat.Number {
	return quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}
}

// QuaternionAlmostEqual compares every component of two quaternions with tol.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	return math.Abs(a.Real-b.Real) <= tol &&
		math.Abs(a.Imag-b.Imag) <= tol &&
		math.Abs(a.Jmag-b.Jmag) <= tol &&
		math.Abs(a.Kmag-b.Kmag) <= tol
}

// QuatAlmostEqualUpToSign is like QuaternionAlmostEqual but also accepts -b, since q
// and -q describe the same rotation.
func QuatAlmostEqualUpToSign(a, b quat.Number, tol float64) bool {
	return QuaternionAlmostEqual(a, b, tol) || QuaternionAlmostEqual(a, quat.Scale(-1, b), tol)
}
