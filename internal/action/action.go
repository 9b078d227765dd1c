package action

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/geometry"
	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

// MaxProjectionScale caps projectionScale on the continuous path. There is no
// matching floor.
const MaxProjectionScale = 500000

// #region decode
// Decode unpacks a continuous action vector. Flags are truthy when non-zero and
// resolve in the order left click, right click, double click, json_change.
func Decode(vec []float64, l Layout) (Continuous, error) {
	if len(vec) != l.Len() {
		return Continuous{}, fmt.Errorf("%w: %s layout wants %d values, got %d", ErrMalformedAction, l, l.Len(), len(vec))
	}
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Continuous{}, fmt.Errorf("%w: value %d is %v", ErrMalformedAction, i, v)
		}
	}

	n := l.OrientationLen()
	orient := make([]float64, n)
	copy(orient, vec[idxOrientation:idxOrientation+n])

	c := Continuous{
		X: vec[idxX],
		Y: vec[idxY],
		Modifiers: Modifiers{
			Shift: vec[idxShift] != 0,
			Ctrl:  vec[idxCtrl] != 0,
			Alt:   vec[idxAlt] != 0,
		},
		Delta: Delta{
			Position:          [3]float64{vec[idxPositionX], vec[idxPositionY], vec[idxPositionZ]},
			CrossSectionScale: vec[idxCrossSectionScale],
			Orientation:       orient,
			ProjectionScale:   vec[len(vec)-1],
		},
	}

	switch {
	case vec[idxLeftClick] != 0:
		c.Kind = KindLeftClick
	case vec[idxRightClick] != 0:
		c.Kind = KindRightClick
	case vec[idxDoubleClick] != 0:
		c.Kind = KindDoubleClick
	case vec[idxJSONChange] != 0:
		c.Kind = KindJSONChange
	}
	return c, nil
}

// Encode is the inverse of Decode for a single-kind action.
func Encode(c Continuous, l Layout) []float64 {
	vec := make([]float64, l.Len())
	switch c.Kind {
	case KindLeftClick:
		vec[idxLeftClick] = 1
	case KindRightClick:
		vec[idxRightClick] = 1
	case KindDoubleClick:
		vec[idxDoubleClick] = 1
	case KindJSONChange:
		vec[idxJSONChange] = 1
	}
	vec[idxX], vec[idxY] = c.X, c.Y
	vec[idxShift], vec[idxCtrl], vec[idxAlt] = truth(c.Modifiers.Shift), truth(c.Modifiers.Ctrl), truth(c.Modifiers.Alt)
	copy(vec[idxPositionX:], c.Delta.Position[:])
	vec[idxCrossSectionScale] = c.Delta.CrossSectionScale
	copy(vec[idxOrientation:idxOrientation+l.OrientationLen()], c.Delta.Orientation)
	vec[len(vec)-1] = c.Delta.ProjectionScale
	return vec
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Denormalize scales an actor's output vector into physical units: the pointer by
// the image size and each delta by its catalog delta factor. Flags pass through.
func Denormalize(n catalog.Normalization, vec []float64, l Layout) ([]float64, error) {
	if len(vec) != l.Len() {
		return nil, fmt.Errorf("%w: %s layout wants %d values, got %d", ErrMalformedAction, l, l.Len(), len(vec))
	}
	out := make([]float64, len(vec))
	copy(out, vec)

	out[idxX] *= n.Factors.MouseX
	out[idxY] *= n.Factors.MouseY
	for i := range 3 {
		out[idxPositionX+i] *= n.Deltas.Position[i]
	}
	out[idxCrossSectionScale] *= n.Deltas.CrossSectionScale
	for i := range l.OrientationLen() {
		out[idxOrientation+i] *= n.Deltas.Orientation[i]
	}
	out[len(out)-1] *= n.Deltas.ProjectionScale
	return out, nil
}

// #endregion decode

// #region apply-delta
// ApplyDelta is a pure function returning vs moved by d. In quaternion layout the
// orientation is updated per component and not renormalized. In Euler layout it is
// converted to yaw/pitch/roll, shifted, and converted back.
func ApplyDelta(vs viewstate.ViewState, d Delta, l Layout) viewstate.ViewState {
	out := vs
	for i := range out.Position {
		out.Position[i] += d.Position[i]
	}
	out.CrossSectionScale += d.CrossSectionScale

	if l == LayoutEuler {
		var de geometry.Euler
		if e, ok := geometry.EulerFromSlice(d.Orientation); ok {
			de = e
		}
		e := geometry.QuaternionToEuler(vs.ProjectionOrientation)
		e.Yaw += de.Yaw
		e.Pitch += de.Pitch
		e.Roll += de.Roll
		out.ProjectionOrientation = geometry.EulerToQuaternion(e)
	} else {
		var dq [4]float64
		copy(dq[:], d.Orientation)
		out.ProjectionOrientation.X += dq[0]
		out.ProjectionOrientation.Y += dq[1]
		out.ProjectionOrientation.Z += dq[2]
		out.ProjectionOrientation.W += dq[3]
	}

	out.ProjectionScale = math.Min(MaxProjectionScale, vs.ProjectionScale+d.ProjectionScale)
	return out
}

// #endregion apply-delta

// #region apply-discrete
// ApplyDiscrete resolves one catalog token against the pointer and view state.
// Mouse tokens clamp the pointer to the image. Orientation tokens in Euler layout
// map q1 to roll, q2 to yaw and q3 to pitch; yaw and roll wrap, pitch is clamped
// to [-pi/2, pi/2]. Projection-scale tokens clamp to the catalog bounds.
func ApplyDiscrete(c *catalog.Catalog, index int, p Pointer, vs viewstate.ViewState, l Layout) (Outcome, error) {
	a, err := c.Action(index)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrMalformedAction, err)
	}

	out := Outcome{Action: a, Pointer: p, State: vs}
	geom := c.Geometry()

	switch a.Kind {
	case catalog.KindLeftClick, catalog.KindRightClick, catalog.KindDoubleClick:
		out.Effect = EffectClick
		out.Click = clickKind(a.Kind)

	case catalog.KindMoveToCell:
		out.Effect = EffectPointer
		out.Pointer = Pointer{X: float64(a.CellX), Y: float64(a.CellY)}

	case catalog.KindIncrement:
		switch a.Field {
		case catalog.FieldMouseX:
			out.Effect = EffectPointer
			out.Pointer.X = clamp(p.X+a.Magnitude, 0, float64(geom.ImageWidth))
		case catalog.FieldMouseY:
			out.Effect = EffectPointer
			out.Pointer.Y = clamp(p.Y+a.Magnitude, 0, float64(geom.ImageHeight))
		default:
			out.Effect = EffectState
			out.State = applyIncrement(c, a, vs, l)
		}

	default:
		return Outcome{}, fmt.Errorf("%w: %q has no effect", ErrMalformedAction, a.Name)
	}
	return out, nil
}

func applyIncrement(c *catalog.Catalog, a catalog.Action, vs viewstate.ViewState, l Layout) viewstate.ViewState {
	out := vs
	switch a.Field {
	case catalog.FieldPositionX:
		out.Position[0] += a.Magnitude
	case catalog.FieldPositionY:
		out.Position[1] += a.Magnitude
	case catalog.FieldPositionZ:
		out.Position[2] += a.Magnitude
	case catalog.FieldCrossSectionScale:
		out.CrossSectionScale += a.Magnitude
	case catalog.FieldOrientation1, catalog.FieldOrientation2, catalog.FieldOrientation3:
		out.ProjectionOrientation = rotate(vs.ProjectionOrientation, a, l)
	case catalog.FieldProjectionScale:
		out.ProjectionScale = c.Normalization().Bounds.ClampProjectionScale(vs.ProjectionScale + a.Magnitude)
	}
	return out
}

func rotate(q geometry.Quaternion, a catalog.Action, l Layout) geometry.Quaternion {
	if l == LayoutQuaternion {
		switch a.Field {
		case catalog.FieldOrientation1:
			q.X += a.Magnitude
		case catalog.FieldOrientation2:
			q.Y += a.Magnitude
		case catalog.FieldOrientation3:
			q.Z += a.Magnitude
		}
		return q
	}

	e := geometry.QuaternionToEuler(q)
	switch a.Field {
	case catalog.FieldOrientation1:
		e.Roll = geometry.WrapAngle(e.Roll + a.Magnitude)
	case catalog.FieldOrientation2:
		e.Yaw = geometry.WrapAngle(e.Yaw + a.Magnitude)
	case catalog.FieldOrientation3:
		e.Pitch = clamp(e.Pitch+a.Magnitude, -math.Pi/2, math.Pi/2)
	}
	return geometry.EulerToQuaternion(e)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// #endregion apply-discrete
