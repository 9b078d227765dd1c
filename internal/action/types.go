package action

import (
	"errors"
	"strings"

	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

// ErrMalformedAction is returned for a vector of the wrong length, a non-finite
// entry, or a discrete index outside the catalog.
var ErrMalformedAction = errors.New("malformed action")

// #region layout
// Layout selects the continuous vector shape and the orientation update rule.
type Layout int

const (
	// LayoutQuaternion carries four orientation deltas added per component.
	LayoutQuaternion Layout = iota
	// LayoutEuler carries yaw, pitch and roll deltas.
	LayoutEuler
)

// Vector positions shared by both layouts.
const (
	idxLeftClick = iota
	idxRightClick
	idxDoubleClick
	idxX
	idxY
	idxShift
	idxCtrl
	idxAlt
	idxJSONChange
	idxPositionX
	idxPositionY
	idxPositionZ
	idxCrossSectionScale
	idxOrientation
)

// LayoutFor maps the euler_angles option to a layout.
func LayoutFor(euler bool) Layout {
	if euler {
		return LayoutEuler
	}
	return LayoutQuaternion
}

// OrientationLen is the number of orientation deltas in the vector.
func (l Layout) OrientationLen() int {
	if l == LayoutEuler {
		return 3
	}
	return 4
}

// Len is the full vector length: 17 for Euler, 18 for quaternion.
func (l Layout) Len() int { return idxOrientation + l.OrientationLen() + 1 }

func (l Layout) String() string {
	if l == LayoutEuler {
		return "euler"
	}
	return "quaternion"
}

// #endregion layout

// #region continuous
// Kind is the single effect a continuous action resolves to.
type Kind int

const (
	KindNone Kind = iota
	KindLeftClick
	KindRightClick
	KindDoubleClick
	KindJSONChange
)

func (k Kind) String() string {
	switch k {
	case KindLeftClick:
		return "left_click"
	case KindRightClick:
		return "right_click"
	case KindDoubleClick:
		return "double_click"
	case KindJSONChange:
		return "json_change"
	}
	return "none"
}

// IsClick reports whether k dispatches a pointer event.
func (k Kind) IsClick() bool {
	return k == KindLeftClick || k == KindRightClick || k == KindDoubleClick
}

// clickKind maps a catalog click entry to the pointer event it produces.
func clickKind(k catalog.Kind) Kind {
	switch k {
	case catalog.KindLeftClick:
		return KindLeftClick
	case catalog.KindRightClick:
		return KindRightClick
	case catalog.KindDoubleClick:
		return KindDoubleClick
	}
	return KindNone
}

// Modifiers are the keys held during a pointer event.
type Modifiers struct {
	Shift bool `json:"shift"`
	Ctrl  bool `json:"ctrl"`
	Alt   bool `json:"alt"`
}

// String renders the held keys as "Shift, Ctrl, Alt", or "" when none are held.
func (m Modifiers) String() string {
	keys := make([]string, 0, 3)
	if m.Shift {
		keys = append(keys, "Shift")
	}
	if m.Ctrl {
		keys = append(keys, "Ctrl")
	}
	if m.Alt {
		keys = append(keys, "Alt")
	}
	return strings.Join(keys, ", ")
}

// Delta is the view-state change carried by a json_change action. Orientation has
// three entries (yaw, pitch, roll) or four (x, y, z, w).
type Delta struct {
	Position          [3]float64 `json:"position"`
	CrossSectionScale float64    `json:"cross_section_scale"`
	Orientation       []float64  `json:"orientation"`
	ProjectionScale   float64    `json:"projection_scale"`
}

// Continuous is a decoded action vector with exactly one resolved Kind.
type Continuous struct {
	Kind      Kind      `json:"kind"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Modifiers Modifiers `json:"modifiers"`
	Delta     Delta     `json:"delta"`
}

// #endregion continuous

// #region discrete
// Pointer is the environment's notion of where the mouse is.
type Pointer struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Effect says what a discrete token changed.
type Effect int

const (
	EffectNone Effect = iota
	// EffectClick dispatches Click at the current pointer.
	EffectClick
	// EffectPointer moved the pointer only.
	EffectPointer
	// EffectState changed the view state.
	EffectState
)

func (e Effect) String() string {
	switch e {
	case EffectClick:
		return "click"
	case EffectPointer:
		return "pointer"
	case EffectState:
		return "state"
	}
	return "none"
}

// Outcome is the result of applying one discrete token.
type Outcome struct {
	Action  catalog.Action
	Effect  Effect
	Click   Kind
	Pointer Pointer
	State   viewstate.ViewState
}

// #endregion discrete

// #region taken
// Taken is the action an environment step applied: a decoded vector or a
// catalog token, never both.
type Taken struct {
	Continuous *Continuous     `json:"continuous,omitempty"`
	Token      *catalog.Action `json:"token,omitempty"`
}

// Label names the action for logs and the transition log.
func (t Taken) Label() string {
	switch {
	case t.Continuous != nil:
		return t.Continuous.Kind.String()
	case t.Token != nil:
		return t.Token.Name
	}
	return "none"
}

// KindLabel groups the action into a small fixed set for metric labels:
// the continuous kind, the token kind, or "increment_<field>" for increments.
func (t Taken) KindLabel() string {
	switch {
	case t.Continuous != nil:
		return t.Continuous.Kind.String()
	case t.Token != nil && t.Token.Kind == catalog.KindIncrement:
		return "increment_" + t.Token.Field.String()
	case t.Token != nil:
		return t.Token.Kind.String()
	}
	return "none"
}

// #endregion taken
