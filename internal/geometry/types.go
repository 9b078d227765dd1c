package geometry

// #region quaternion
// Quaternion is an orientation in the viewer's [x, y, z, w] component order.
type Quaternion struct {
	X, Y, Z, W float64
}

// Identity is the viewer's default projection orientation.
var Identity = Quaternion{X: 0, Y: 0, Z: 0, W: 1}

// QuaternionFromSlice reads [x, y, z, w]. ok is false when v has the wrong length.
func QuaternionFromSlice(v []float64) (Quaternion, bool) {
	if len(v) != 4 {
		return Quaternion{}, false
	}
	return Quaternion{X: v[0], Y: v[1], Z: v[2], W: v[3]}, true
}

// Slice returns the components as [x, y, z, w].
func (q Quaternion) Slice() []float64 {
	return []float64{q.X, q.Y, q.Z, q.W}
}

// #endregion quaternion

// #region euler
// Euler holds ZYX intrinsic angles in radians.
type Euler struct {
	Yaw   float64 // about Z
	Pitch float64 // about Y
	Roll  float64 // about X
}

// EulerFromSlice reads [yaw, pitch, roll].
func EulerFromSlice(v []float64) (Euler, bool) {
	if len(v) != 3 {
		return Euler{}, false
	}
	return Euler{Yaw: v[0], Pitch: v[1], Roll: v[2]}, true
}

// Slice returns the angles as [yaw, pitch, roll].
func (e Euler) Slice() []float64 {
	return []float64{e.Yaw, e.Pitch, e.Roll}
}

// #endregion euler

// Vec3 is a point or direction in viewer coordinates.
type Vec3 [3]float64

// Vec2 is a point or direction in the screen plane.
type Vec2 [2]float64
