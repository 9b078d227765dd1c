package decompose

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/geometry"
)

// #region validation
func validateTiers(tiers []catalog.Tier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: empty ladder", ErrInvalidTiers)
	}
	for i, t := range tiers {
		if !(t.Magnitude > 0) || math.IsInf(t.Magnitude, 0) {
			return fmt.Errorf("%w: tier %d magnitude %v", ErrInvalidTiers, i, t.Magnitude)
		}
		if i > 0 && t.Magnitude >= tiers[i-1].Magnitude {
			return fmt.Errorf("%w: tier %d (%v) not below tier %d (%v)", ErrInvalidTiers, i, t.Magnitude, i-1, tiers[i-1].Magnitude)
		}
	}
	return nil
}

func finite(vs ...float64) error {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %v", ErrNonFinite, v)
		}
	}
	return nil
}

// #endregion validation

// #region greedy
// greedy walks the ladder largest-first. For each tier it keeps emitting the
// token matching the sign of the remaining difference until the difference is
// smaller than the tier. step receives the token and the signed amount applied.
// The residual, smaller than the last tier, is returned uncorrected.
func greedy(diff float64, tiers []catalog.Tier, step func(token int, delta float64)) float64 {
	for _, t := range tiers {
		for math.Abs(diff) >= t.Magnitude {
			if diff > 0 {
				diff -= t.Magnitude
				step(t.Increase, t.Magnitude)
			} else {
				diff += t.Magnitude
				step(t.Decrease, -t.Magnitude)
			}
		}
	}
	return diff
}

// Scalar decomposes a single value from current to target.
func Scalar(current, target float64, tiers []catalog.Tier) (Plan[float64], error) {
	if err := validateTiers(tiers); err != nil {
		return Plan[float64]{}, err
	}
	if err := finite(current, target); err != nil {
		return Plan[float64]{}, err
	}

	plan := newPlan(current)
	value := current
	greedy(target-current, tiers, func(token int, delta float64) {
		value += delta
		plan.push(token, value)
	})
	return plan, nil
}

// CrossSectionScale decomposes a cross-section scale change.
func CrossSectionScale(c *catalog.Catalog, current, target float64) (Plan[float64], error) {
	return Scalar(current, target, c.Tiers(catalog.FieldCrossSectionScale))
}

// ProjectionScale decomposes a projection scale change.
func ProjectionScale(c *catalog.Catalog, current, target float64) (Plan[float64], error) {
	return Scalar(current, target, c.Tiers(catalog.FieldProjectionScale))
}

// #endregion greedy

// #region position
// Position decomposes a camera move axis by axis in x, y, z order.
func Position(c *catalog.Catalog, current, target [3]float64) (Plan[[3]float64], error) {
	if err := finite(current[0], current[1], current[2], target[0], target[1], target[2]); err != nil {
		return Plan[[3]float64]{}, err
	}
	ladders := make([][]catalog.Tier, 3)
	for axis, f := range catalog.PositionFields {
		ladders[axis] = c.Tiers(f)
		if err := validateTiers(ladders[axis]); err != nil {
			return Plan[[3]float64]{}, fmt.Errorf("%s: %w", f, err)
		}
	}

	plan := newPlan(current)
	pos := current
	for axis := range pos {
		greedy(target[axis]-current[axis], ladders[axis], func(token int, delta float64) {
			pos[axis] += delta
			plan.push(token, pos)
		})
	}
	return plan, nil
}

// #endregion position

// #region mouse
// Mouse decomposes a pointer move. The free catalog walks x then y through the
// mouse ladders. The grid catalog snaps both ends to their cells and jumps to the
// target cell with its single move_to_box token.
func Mouse(c *catalog.Catalog, current, target [2]float64) (Plan[[2]float64], error) {
	if err := finite(current[0], current[1], target[0], target[1]); err != nil {
		return Plan[[2]float64]{}, err
	}
	if c.Variant() == catalog.Grid {
		return gridMouse(c, current, target)
	}

	xs, ys := c.Tiers(catalog.FieldMouseX), c.Tiers(catalog.FieldMouseY)
	if err := validateTiers(xs); err != nil {
		return Plan[[2]float64]{}, fmt.Errorf("mouse x: %w", err)
	}
	if err := validateTiers(ys); err != nil {
		return Plan[[2]float64]{}, fmt.Errorf("mouse y: %w", err)
	}

	plan := newPlan(current)
	pos := current
	greedy(target[0]-current[0], xs, func(token int, delta float64) {
		pos[0] += delta
		plan.push(token, pos)
	})
	greedy(target[1]-current[1], ys, func(token int, delta float64) {
		pos[1] += delta
		plan.push(token, pos)
	})
	return plan, nil
}

func gridMouse(c *catalog.Catalog, current, target [2]float64) (Plan[[2]float64], error) {
	plan := newPlan(current)

	fromX, fromY := c.MapToGrid(current[0], current[1])
	toX, toY := c.MapToGrid(target[0], target[1])
	if fromX == toX && fromY == toY {
		return plan, nil
	}

	token, err := c.ClickToActionIndex(target[0], target[1])
	if err != nil {
		return Plan[[2]float64]{}, err
	}
	plan.push(token, [2]float64{float64(toX), float64(toY)})
	return plan, nil
}

// #endregion mouse

// #region orientation
// Orientation decomposes a rotation in Euler space: yaw, then pitch, then roll.
// Yaw and roll take the shortest way round and stay in (-pi, pi]; pitch is
// bounded upstream and is not wrapped.
func Orientation(c *catalog.Catalog, current, target geometry.Euler) (Plan[geometry.Euler], error) {
	if err := finite(current.Yaw, current.Pitch, current.Roll, target.Yaw, target.Pitch, target.Roll); err != nil {
		return Plan[geometry.Euler]{}, err
	}
	yawTiers := c.Tiers(catalog.FieldOrientation2)
	pitchTiers := c.Tiers(catalog.FieldOrientation3)
	rollTiers := c.Tiers(catalog.FieldOrientation1)
	for _, l := range [][]catalog.Tier{yawTiers, pitchTiers, rollTiers} {
		if err := validateTiers(l); err != nil {
			return Plan[geometry.Euler]{}, fmt.Errorf("orientation: %w", err)
		}
	}

	plan := newPlan(current)
	cur := current

	angular(&cur.Yaw, target.Yaw, yawTiers, true, func(token int) { plan.push(token, cur) })
	angular(&cur.Pitch, target.Pitch, pitchTiers, false, func(token int) { plan.push(token, cur) })
	angular(&cur.Roll, target.Roll, rollTiers, true, func(token int) { plan.push(token, cur) })

	return plan, nil
}

// angular runs the greedy ladder on one angle. The difference is recomputed at
// the start of each tier. A step is only taken when a full tier does not carry
// the difference past zero.
func angular(angle *float64, target float64, tiers []catalog.Tier, wrap bool, emit func(token int)) {
	for _, t := range tiers {
		diff := target - *angle
		if wrap {
			diff = geometry.WrapAngle(diff)
		}
		for math.Abs(diff) >= t.Magnitude {
			switch {
			case diff > 0 && diff-t.Magnitude >= 0:
				diff -= t.Magnitude
				*angle += t.Magnitude
				if wrap {
					*angle = wrapStep(*angle)
				}
				emit(t.Increase)
			case diff < 0 && diff+t.Magnitude <= 0:
				diff += t.Magnitude
				*angle -= t.Magnitude
				if wrap {
					*angle = wrapStep(*angle)
				}
				emit(t.Decrease)
			default:
				// Unreachable while |diff| >= magnitude; stops the tier rather than spin.
				diff = 0
			}
		}
	}
}

// wrapStep brings an angle that moved by at most one tier back into (-pi, pi].
func wrapStep(a float64) float64 {
	switch {
	case a <= -math.Pi:
		return a + 2*math.Pi
	case a > math.Pi:
		return a - 2*math.Pi
	}
	return a
}

// #endregion orientation
