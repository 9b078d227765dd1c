package reward

import (
	"testing"

	"github.com/danielpatrickdp/ngl-gym/internal/action"
	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

func obs(z float64) viewstate.Observation {
	return viewstate.Observation{Pos: viewstate.PosState{Position: [3]float64{100, 200, z}}}
}

func TestDefaultRewardsDepth(t *testing.T) {
	r, done := Default(obs(4700), action.Taken{}, obs(4661))
	if r != 39 {
		t.Errorf("reward = %v, want 39", r)
	}
	if done {
		t.Error("default reward must never terminate")
	}

	r, _ = Default(obs(4600), action.Taken{}, obs(4661))
	if r != -61 {
		t.Errorf("reward = %v, want -61", r)
	}
}

func TestScaled(t *testing.T) {
	r, _ := Scaled(0.5)(obs(10), action.Taken{}, obs(4))
	if r != 3 {
		t.Errorf("reward = %v, want 3", r)
	}
}

func TestFromCatalogMatchesNormalization(t *testing.T) {
	c := catalog.NewFree()
	f := FromCatalog(c)
	prev, next := obs(4000), obs(5000)

	r, done := f(next, action.Taken{}, prev)
	want := c.Normalization().RewardFromPosStateDelta(prev.Pos, next.Pos)
	if r != want {
		t.Errorf("reward = %v, want %v", r, want)
	}
	if r != 1 {
		t.Errorf("reward = %v, want 1 (1000 * 0.001)", r)
	}
	if done {
		t.Error("catalog reward must not terminate")
	}
}
