package catalog

import "errors"

// #region errors
var (
	// ErrUnknownAction is returned for names or indices the catalog does not hold.
	ErrUnknownAction = errors.New("unknown action")
	// ErrOutOfRange is returned when a grid cell or coordinate has no catalog entry.
	ErrOutOfRange = errors.New("out of range")
)

// #endregion errors

// #region variant
// Variant selects one of the two action vocabularies.
type Variant int

const (
	// Free positions the mouse with incremental moves.
	Free Variant = iota
	// Grid snaps the mouse to a fixed cell grid with one token per cell.
	Grid
)

func (v Variant) String() string {
	switch v {
	case Free:
		return "free"
	case Grid:
		return "grid"
	}
	return "unknown"
}

// ParseVariant accepts "free" or "grid".
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "free":
		return Free, nil
	case "grid":
		return Grid, nil
	}
	return 0, errors.New("catalog variant must be free or grid")
}

// #endregion variant

// #region kind
// Kind is the effect family of a discrete action.
type Kind int

const (
	KindLeftClick Kind = iota
	KindRightClick
	KindDoubleClick
	KindIncrement
	KindMoveToCell
)

func (k Kind) String() string {
	switch k {
	case KindLeftClick:
		return "left_click"
	case KindRightClick:
		return "right_click"
	case KindDoubleClick:
		return "double_click"
	case KindIncrement:
		return "increment"
	case KindMoveToCell:
		return "move_to_cell"
	}
	return "unknown"
}

// IsClick reports whether k dispatches a pointer click.
func (k Kind) IsClick() bool {
	return k == KindLeftClick || k == KindRightClick || k == KindDoubleClick
}

// #endregion kind

// #region field
// Field is the controlled quantity an increment action moves.
type Field int

const (
	FieldNone Field = iota
	FieldMouseX
	FieldMouseY
	FieldPositionX
	FieldPositionY
	FieldPositionZ
	FieldCrossSectionScale
	FieldOrientation1
	FieldOrientation2
	FieldOrientation3
	FieldProjectionScale
)

// String returns the name fragment used in action names.
func (f Field) String() string {
	switch f {
	case FieldMouseX:
		return "mouse_x"
	case FieldMouseY:
		return "mouse_y"
	case FieldPositionX:
		return "position_x"
	case FieldPositionY:
		return "position_y"
	case FieldPositionZ:
		return "position_z"
	case FieldCrossSectionScale:
		return "crossSectionScale"
	case FieldOrientation1:
		return "projectionOrientation_q1"
	case FieldOrientation2:
		return "projectionOrientation_q2"
	case FieldOrientation3:
		return "projectionOrientation_q3"
	case FieldProjectionScale:
		return "projectionScale"
	}
	return "none"
}

// PositionFields lists the camera position axes in decomposition order.
var PositionFields = [3]Field{FieldPositionX, FieldPositionY, FieldPositionZ}

// #endregion field

// #region action
// Action is one entry of a catalog.
type Action struct {
	Index     int
	Name      string
	Kind      Kind
	Field     Field   // FieldNone for clicks and cell moves
	Magnitude float64 // signed; zero for clicks and cell moves
	CellX     int     // cell origin in pixels, KindMoveToCell only
	CellY     int
}

// Tier is one (magnitude, increase, decrease) rung of a decomposition ladder.
type Tier struct {
	Magnitude float64
	Increase  int
	Decrease  int
}

// #endregion action

// #region geometry
// Geometry fixes the image and grid dimensions a catalog is built for.
type Geometry struct {
	ImageWidth       int `json:"image_width" yaml:"image_width"`
	ImageHeight      int `json:"image_height" yaml:"image_height"`
	GridSizeX        int `json:"grid_size_x" yaml:"grid_size_x"`
	GridSizeY        int `json:"grid_size_y" yaml:"grid_size_y"`
	MarginTop        int `json:"margin_top" yaml:"margin_top"`
	ModelImageWidth  int `json:"model_image_width" yaml:"model_image_width"`
	ModelImageHeight int `json:"model_image_height" yaml:"model_image_height"`
}

// DefaultGeometry is the 1800x900 capture with 25px cells.
func DefaultGeometry() Geometry {
	return Geometry{
		ImageWidth:       1800,
		ImageHeight:      900,
		GridSizeX:        25,
		GridSizeY:        25,
		MarginTop:        20,
		ModelImageWidth:  960,
		ModelImageHeight: 540,
	}
}

// NumXCells is the number of whole cells across the image.
func (g Geometry) NumXCells() int { return g.ImageWidth / g.GridSizeX }

// NumYCells is the number of whole cells down the image.
func (g Geometry) NumYCells() int { return g.ImageHeight / g.GridSizeY }

// #endregion geometry
