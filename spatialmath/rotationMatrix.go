package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates the rotation matrix from a slice of floats in row major order.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, newRotationMatrixInputError(m)
	}
	mat := [9]float64{m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8]}
	return &RotationMatrix{mat}, nil
}

// NewRotationMatrixFromAxes creates a rotation matrix whose columns are the given
// (assumed orthonormal) basis vectors.
func NewRotationMatrixFromAxes(x, y, z r3.Vector) *RotationMatrix {
	return &RotationMatrix{[9]float64{
		x.X, y.X, z.X,
		x.Y, y.Y, z.Y,
		x.Z, y.Z, z.Z,
	}}
}

// Quaternion returns the orientation in quaternion representation.
func (rm *RotationMatrix) Quaternion() quat.Number {
	var q quat.Number
	m := rm.mat

	// converting to quaternion form involves taking the square root of the trace and depending on the value of the
	// trace, the calculation changes to ensure numerical stability
	tr := m[0] + m[4] + m[8]
	switch {
	case tr > 0:
		s := 0.5 / math.Sqrt(tr+1.0)
		q = quat.Number{Real: 0.25 / s, Imag: (m[7] - m[5]) * s, Jmag: (m[2] - m[6]) * s, Kmag: (m[3] - m[1]) * s}
	case m[0] > m[4] && m[0] > m[8]:
		s := 2.0 * math.Sqrt(1.0+m[0]-m[4]-m[8])
		q = quat.Number{Real: (m[7] - m[5]) / s, Imag: 0.25 * s, Jmag: (m[1] + m[3]) / s, Kmag: (m[2] + m[6]) / s}
	case m[4] > m[8]:
		s := 2.0 * math.Sqrt(1.0+m[4]-m[0]-m[8])
		q = quat.Number{Real: (m[2] - m[6]) / s, Imag: (m[1] + m[3]) / s, Jmag: 0.25 * s, Kmag: (m[5] + m[7]) / s}
	default:
		s := 2.0 * math.Sqrt(1.0+m[8]-m[0]-m[4])
		q = quat.Number{Real: (m[3] - m[1]) / s, Imag: (m[2] + m[6]) / s, Jmag: (m[5] + m[7]) / s, Kmag: 0.25 * s}
	}
	return Normalize(q)
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (rm *RotationMatrix) RotationMatrix() *RotationMatrix {
	return rm
}

// QuatToRotationMatrix converts a quat to a rotation matrix.
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	mat := [9]float64{
		1 - 2*y*y - 2*z*z, 2*x*y - 2*z*w, 2*x*z + 2*y*w,
		2*x*y + 2*z*w, 1 - 2*x*x - 2*z*z, 2*y*z - 2*x*w,
		2*x*z - 2*y*w, 2*y*z + 2*x*w, 1 - 2*x*x - 2*y*y,
	}
	return &RotationMatrix{mat}
}

// Row returns the a vector with the indicated row of the matrix.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{
		X: rm.mat[3*row],
		Y: rm.mat[3*row+1],
		Z: rm.mat[3*row+2],
	}
}

// Col returns the a vector with the indicated column of the matrix.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{
		X: rm.mat[col],
		Y: rm.mat[3+col],
		Z: rm.mat[6+col],
	}
}

// At returns the float corresponding to the element at the specified location.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}

// Mul returns the product of the rotation matrix with an r3 vector.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm.mat[0]*v.X + rm.mat[1]*v.Y + rm.mat[2]*v.Z,
		Y: rm.mat[3]*v.X + rm.mat[4]*v.Y + rm.mat[5]*v.Z,
		Z: rm.mat[6]*v.X + rm.mat[7]*v.Y + rm.mat[8]*v.Z,
	}
}
