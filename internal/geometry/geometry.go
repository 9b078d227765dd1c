package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// degenerateNorm is the norm below which a direction has no usable 2D projection.
const degenerateNorm = 1e-6

// #region conversions
// QuaternionToEuler decomposes q into ZYX intrinsic (yaw, pitch, roll).
// The asin argument is clamped to [-1, 1] so drift past unit norm cannot produce NaN.
func QuaternionToEuler(q Quaternion) Euler {
	x, y, z, w := q.X, q.Y, q.Z, q.W

	yaw := math.Atan2(2.0*(w*z+x*y), 1.0-2.0*(y*y+z*z))
	pitch := math.Asin(clamp(2.0*(w*y-z*x), -1.0, 1.0))
	roll := math.Atan2(2.0*(w*x+y*z), 1.0-2.0*(x*x+y*y))

	return Euler{Yaw: yaw, Pitch: pitch, Roll: roll}
}

// EulerToQuaternion is the inverse of QuaternionToEuler.
func EulerToQuaternion(e Euler) Quaternion {
	cy, sy := math.Cos(e.Yaw/2), math.Sin(e.Yaw/2)
	cp, sp := math.Cos(e.Pitch/2), math.Sin(e.Pitch/2)
	cr, sr := math.Cos(e.Roll/2), math.Sin(e.Roll/2)

	return Quaternion{
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
		W: cr*cp*cy + sr*sp*sy,
	}
}

// Dot returns the 4D inner product of a and b. |Dot| == 1 for unit quaternions
// describing the same rotation.
func Dot(a, b Quaternion) float64 {
	p := quat.Mul(toNumber(a), quat.Conj(toNumber(b)))
	return p.Real
}

// Norm returns the quaternion modulus.
func Norm(q Quaternion) float64 {
	return quat.Abs(toNumber(q))
}

func toNumber(q Quaternion) quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

// #endregion conversions

// #region angles
// WrapAngle maps a to (-pi, pi] as the shortest signed angle.
func WrapAngle(a float64) float64 {
	return math.Atan2(math.Sin(a), math.Cos(a))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// #endregion angles

// #region rotation
// EulerToRotationMatrix builds the 3x3 rotation Rz·Ry·Rx.
func EulerToRotationMatrix(e Euler) *mat.Dense {
	cy, sy := math.Cos(e.Yaw), math.Sin(e.Yaw)
	cp, sp := math.Cos(e.Pitch), math.Sin(e.Pitch)
	cr, sr := math.Cos(e.Roll), math.Sin(e.Roll)

	rz := mat.NewDense(3, 3, []float64{
		cy, -sy, 0,
		sy, cy, 0,
		0, 0, 1,
	})
	ry := mat.NewDense(3, 3, []float64{
		cp, 0, sp,
		0, 1, 0,
		-sp, 0, cp,
	})
	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cr, -sr,
		0, sr, cr,
	})

	var zy, r mat.Dense
	zy.Mul(rz, ry)
	r.Mul(&zy, rx)
	return &r
}

func rotate(e Euler, v []float64) []float64 {
	var out mat.VecDense
	out.MulVec(EulerToRotationMatrix(e), mat.NewVecDense(3, v))
	return []float64{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// #endregion rotation

// #region projection
// ProjectPointTo2D rotates the vector from current to target into the view and
// keeps its screen-plane components. With normalized set the vector is scaled to
// unit length first. A near-zero delta projects to the zero vector.
func ProjectPointTo2D(e Euler, target, current Vec3, normalized bool) Vec2 {
	delta := []float64{target[0] - current[0], target[1] - current[1], target[2] - current[2]}
	norm := floats.Norm(delta, 2)
	if norm < degenerateNorm {
		return Vec2{}
	}
	if normalized {
		floats.Scale(1/norm, delta)
	}
	p := rotate(e, delta)
	return Vec2{p[0], p[1]}
}

// ProjectZAxisTo2D returns the unit screen direction of the data z axis. The
// screen y axis points down in the viewer, hence the sign flip. When the z axis
// faces the camera the projection is degenerate and the zero vector is returned.
func ProjectZAxisTo2D(e Euler) Vec2 {
	z := rotate(e, []float64{0, 0, 1})
	p := []float64{-z[0], -z[1]}
	norm := floats.Norm(p, 2)
	if norm < degenerateNorm {
		return Vec2{}
	}
	return Vec2{p[0] / norm, p[1] / norm}
}

// #endregion projection
