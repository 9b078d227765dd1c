package catalog

import (
	"fmt"
	"math"
)

// #region ladders
// rung is one magnitude of a field ladder. label is the magnitude exactly as it
// appears in the action name.
type rung struct {
	label string
	value float64
}

type ladder struct {
	field Field
	rungs []rung
}

var (
	mouseRungs = []rung{{"500", 500}, {"100", 100}, {"50", 50}, {"10", 10}, {"5", 5}, {"1", 1}}

	freePositionRungs = []rung{{"200", 200}, {"50", 50}, {"5", 5}, {"1", 1}}
	gridPositionRungs = []rung{{"1000", 1000}, {"100", 100}, {"5", 5}, {"1", 1}}

	crossSectionRungs = []rung{{"1", 1}, {"0.1", 0.1}}

	freeOrientationRungs = []rung{{"0.3", 0.3}, {"0.1", 0.1}}
	gridOrientationRungs = []rung{{"1.0", 1.0}, {"0.2", 0.2}}

	projectionScaleRungs = []rung{{"5000", 5000}, {"1000", 1000}, {"100", 100}}
)

func laddersFor(v Variant) []ladder {
	switch v {
	case Free:
		return []ladder{
			{FieldMouseX, mouseRungs},
			{FieldMouseY, mouseRungs},
			{FieldPositionX, freePositionRungs},
			{FieldPositionY, freePositionRungs},
			{FieldPositionZ, freePositionRungs},
			{FieldCrossSectionScale, crossSectionRungs},
			{FieldOrientation1, freeOrientationRungs},
			{FieldOrientation2, freeOrientationRungs},
			{FieldOrientation3, freeOrientationRungs},
			{FieldProjectionScale, projectionScaleRungs},
		}
	case Grid:
		return []ladder{
			{FieldPositionX, gridPositionRungs},
			{FieldPositionY, gridPositionRungs},
			{FieldPositionZ, gridPositionRungs},
			{FieldCrossSectionScale, crossSectionRungs},
			{FieldOrientation1, gridOrientationRungs},
			{FieldOrientation2, gridOrientationRungs},
			{FieldOrientation3, gridOrientationRungs},
			{FieldProjectionScale, projectionScaleRungs},
		}
	}
	return nil
}

// #endregion ladders

// #region catalog
// Catalog is an immutable action vocabulary. Build it once and share the pointer.
type Catalog struct {
	variant Variant
	geom    Geometry
	norm    Normalization
	actions []Action
	byName  map[string]int
	tiers   map[Field][]Tier
	static  int
}

// New builds the catalog for a variant and geometry.
func New(v Variant, geom Geometry) (*Catalog, error) {
	if v != Free && v != Grid {
		return nil, fmt.Errorf("build catalog: unknown variant %d", v)
	}
	if geom.ImageWidth <= 0 || geom.ImageHeight <= 0 {
		return nil, fmt.Errorf("build catalog: image size %dx%d must be positive", geom.ImageWidth, geom.ImageHeight)
	}
	if geom.GridSizeX <= 0 || geom.GridSizeY <= 0 {
		return nil, fmt.Errorf("build catalog: grid size %dx%d must be positive", geom.GridSizeX, geom.GridSizeY)
	}

	c := &Catalog{
		variant: v,
		geom:    geom,
		norm:    DefaultNormalization(geom),
		byName:  map[string]int{},
		tiers:   map[Field][]Tier{},
	}

	c.add(Action{Name: "Left click", Kind: KindLeftClick})
	c.add(Action{Name: "Right click", Kind: KindRightClick})
	c.add(Action{Name: "Double click", Kind: KindDoubleClick})

	for _, l := range laddersFor(v) {
		first := len(c.actions)
		for _, r := range l.rungs {
			c.add(Action{
				Name:      fmt.Sprintf("incr_%s_%s", l.field, r.label),
				Kind:      KindIncrement,
				Field:     l.field,
				Magnitude: r.value,
			})
		}
		for _, r := range l.rungs {
			c.add(Action{
				Name:      fmt.Sprintf("decr_%s_%s", l.field, r.label),
				Kind:      KindIncrement,
				Field:     l.field,
				Magnitude: -r.value,
			})
		}
		tiers := make([]Tier, len(l.rungs))
		for i, r := range l.rungs {
			tiers[i] = Tier{Magnitude: r.value, Increase: first + i, Decrease: first + len(l.rungs) + i}
		}
		c.tiers[l.field] = tiers
	}
	c.static = len(c.actions)

	if v == Grid {
		// Row-major with x outer: index = static + x*numYCells + y.
		for x := 0; x < geom.NumXCells(); x++ {
			for y := 0; y < geom.NumYCells(); y++ {
				cx, cy := x*geom.GridSizeX, y*geom.GridSizeY
				c.add(Action{
					Name:  cellName(cx, cy),
					Kind:  KindMoveToCell,
					CellX: cx,
					CellY: cy,
				})
			}
		}
	}

	return c, nil
}

// MustNew is New for static configuration that cannot fail.
func MustNew(v Variant, geom Geometry) *Catalog {
	c, err := New(v, geom)
	if err != nil {
		panic(err)
	}
	return c
}

// NewFree returns the free-mouse catalog with default geometry.
func NewFree() *Catalog { return MustNew(Free, DefaultGeometry()) }

// NewGrid returns the grid catalog with default geometry.
func NewGrid() *Catalog { return MustNew(Grid, DefaultGeometry()) }

func (c *Catalog) add(a Action) {
	a.Index = len(c.actions)
	c.actions = append(c.actions, a)
	c.byName[a.Name] = a.Index
}

func cellName(x, y int) string {
	return fmt.Sprintf("move_to_box_%d_%d", x, y)
}

// #endregion catalog

// #region lookups
// Variant returns the catalog variant.
func (c *Catalog) Variant() Variant { return c.variant }

// Geometry returns the image and grid dimensions.
func (c *Catalog) Geometry() Geometry { return c.geom }

// Normalization returns the normalization constants.
func (c *Catalog) Normalization() Normalization { return c.norm }

// Len is the number of actions; valid indices are [0, Len()).
func (c *Catalog) Len() int { return len(c.actions) }

// StaticLen is the number of entries before the synthesized cell moves.
func (c *Catalog) StaticLen() int { return c.static }

// NumCells is the number of move_to_box entries (zero for Free).
func (c *Catalog) NumCells() int { return len(c.actions) - c.static }

// IndexOf resolves an action name.
func (c *Catalog) IndexOf(name string) (int, error) {
	i, ok := c.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q in %s catalog", ErrUnknownAction, name, c.variant)
	}
	return i, nil
}

// NameOf is the inverse of IndexOf.
func (c *Catalog) NameOf(index int) (string, error) {
	a, err := c.Action(index)
	if err != nil {
		return "", err
	}
	return a.Name, nil
}

// Action returns the entry at index.
func (c *Catalog) Action(index int) (Action, error) {
	if index < 0 || index >= len(c.actions) {
		return Action{}, fmt.Errorf("%w: index %d outside [0, %d)", ErrUnknownAction, index, len(c.actions))
	}
	return c.actions[index], nil
}

// Tiers returns the ladder for a field, largest magnitude first. The slice is a copy.
func (c *Catalog) Tiers(f Field) []Tier {
	t := c.tiers[f]
	out := make([]Tier, len(t))
	copy(out, t)
	return out
}

// ClickLimitIndex is the last index whose effect is purely on the pointer.
func (c *Catalog) ClickLimitIndex() int {
	if c.variant == Free {
		return c.byName["decr_mouse_y_1"]
	}
	return c.byName["Double click"]
}

// #endregion lookups

// #region grid
// MapToGrid clamps (x, y) into the image and floors it to the enclosing cell origin.
func (c *Catalog) MapToGrid(x, y float64) (int, int) {
	x = math.Min(math.Max(0, x), float64(c.geom.ImageWidth))
	y = math.Min(math.Max(0, y), float64(c.geom.ImageHeight))
	col := int(math.Floor(x / float64(c.geom.GridSizeX)))
	row := int(math.Floor(y / float64(c.geom.GridSizeY)))
	return col * c.geom.GridSizeX, row * c.geom.GridSizeY
}

// ClickToActionIndex returns the move_to_box index for the cell holding (x, y).
// Points on the far image edge map to a cell that has no entry.
func (c *Catalog) ClickToActionIndex(x, y float64) (int, error) {
	gx, gy := c.MapToGrid(x, y)
	i, ok := c.byName[cellName(gx, gy)]
	if !ok {
		return 0, fmt.Errorf("%w: no cell %d,%d in %s catalog", ErrOutOfRange, gx, gy, c.variant)
	}
	return i, nil
}

// CellIndex is the grid-only index of the cell holding (x, y), in [0, NumCells()).
func (c *Catalog) CellIndex(x, y float64) (int, error) {
	i, err := c.ClickToActionIndex(x, y)
	if err != nil {
		return 0, err
	}
	return i - c.static, nil
}

// #endregion grid
