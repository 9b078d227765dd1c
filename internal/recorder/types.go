package recorder

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/ngl-gym/internal/action"
	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
)

// #region episode
// Episode is one reset-to-reset run.
type Episode struct {
	ID        string
	Catalog   string
	Geometry  catalog.Geometry
	Euler     bool
	StartedAt time.Time
	Steps     int // transitions after the reset row
}

// BuildCatalog rebuilds the catalog the episode was recorded with.
func (e Episode) BuildCatalog() (*catalog.Catalog, error) {
	v, err := catalog.ParseVariant(e.Catalog)
	if err != nil {
		return nil, fmt.Errorf("episode %s: %w", e.ID, err)
	}
	return catalog.New(v, e.Geometry)
}

// #endregion episode

// #region record
// Record kinds.
const (
	KindReset      = "reset"
	KindContinuous = "continuous"
	KindDiscrete   = "discrete"
)

// Record is one stored transition. ViewState is the viewer JSON as returned after
// the step.
type Record struct {
	EpisodeID string
	Step      int
	Kind      string
	Action    action.Taken
	Reward    float64
	Done      bool
	Pointer   action.Pointer
	ViewState string
	CreatedAt time.Time
}

// #endregion record
