package viewstate

import (
	"errors"

	"github.com/danielpatrickdp/ngl-gym/internal/geometry"
)

// ErrInvalidState is returned when a viewer document lacks a required field.
var ErrInvalidState = errors.New("invalid view state")

// #region view-state
// ViewState is the camera configuration the environment controls.
type ViewState struct {
	Position              [3]float64
	CrossSectionScale     float64
	ProjectionOrientation geometry.Quaternion
	ProjectionScale       float64
}

// #endregion view-state

// #region pos-state
// PosState is the agent-facing position observation. Orientation holds either the
// quaternion [x, y, z, w] or Euler [yaw, pitch, roll], depending on how it was built.
type PosState struct {
	Position          [3]float64 `json:"position"`
	CrossSectionScale float64    `json:"cross_section_scale"`
	Orientation       []float64  `json:"orientation"`
	ProjectionScale   float64    `json:"projection_scale"`
}

// Euler reports whether Orientation holds Euler angles.
func (p PosState) Euler() bool {
	return len(p.Orientation) == 3
}

// FromViewState builds the observation, converting the orientation to Euler when asked.
func FromViewState(vs ViewState, euler bool) PosState {
	orient := vs.ProjectionOrientation.Slice()
	if euler {
		orient = geometry.QuaternionToEuler(vs.ProjectionOrientation).Slice()
	}
	return PosState{
		Position:          vs.Position,
		CrossSectionScale: vs.CrossSectionScale,
		Orientation:       orient,
		ProjectionScale:   vs.ProjectionScale,
	}
}

// Flatten lays the state out as [x, y, z, css, orientation..., projectionScale].
func (p PosState) Flatten() []float64 {
	out := make([]float64, 0, 5+len(p.Orientation))
	out = append(out, p.Position[:]...)
	out = append(out, p.CrossSectionScale)
	out = append(out, p.Orientation...)
	return append(out, p.ProjectionScale)
}

// Unflatten is the inverse of Flatten. ok is false when v has neither the Euler
// (8) nor the quaternion (9) length.
func Unflatten(v []float64) (PosState, bool) {
	if len(v) != 8 && len(v) != 9 {
		return PosState{}, false
	}
	n := len(v) - 5
	orient := make([]float64, n)
	copy(orient, v[4:4+n])
	return PosState{
		Position:          [3]float64{v[0], v[1], v[2]},
		CrossSectionScale: v[3],
		Orientation:       orient,
		ProjectionScale:   v[len(v)-1],
	}, true
}

// #endregion pos-state

// #region observation
// Frame is an encoded capture of the viewer canvas.
type Frame struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   []byte `json:"data"`
}

// Observation is what the agent sees after a step.
type Observation struct {
	Pos   PosState `json:"pos"`
	Frame Frame    `json:"-"`
}

// #endregion observation
