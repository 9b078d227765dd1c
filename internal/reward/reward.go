package reward

import (
	"github.com/danielpatrickdp/ngl-gym/internal/action"
	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

// #region func
// Func scores a transition and says whether the episode is over.
type Func func(state viewstate.Observation, act action.Taken, prev viewstate.Observation) (float64, bool)

// Default rewards movement along the depth axis and never terminates.
func Default(state viewstate.Observation, _ action.Taken, prev viewstate.Observation) (float64, bool) {
	return state.Pos.Position[2] - prev.Pos.Position[2], false
}

// Scaled is Default multiplied by factor.
func Scaled(factor float64) Func {
	return func(state viewstate.Observation, act action.Taken, prev viewstate.Observation) (float64, bool) {
		r, done := Default(state, act, prev)
		return r * factor, done
	}
}

// FromCatalog scores depth change with the catalog's delta-z reward factor.
func FromCatalog(c *catalog.Catalog) Func {
	n := c.Normalization()
	return func(state viewstate.Observation, _ action.Taken, prev viewstate.Observation) (float64, bool) {
		return n.RewardFromPosStateDelta(prev.Pos, state.Pos), false
	}
}

// #endregion func
