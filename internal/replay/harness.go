package replay

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/decompose"
	"github.com/danielpatrickdp/ngl-gym/internal/geometry"
	"github.com/danielpatrickdp/ngl-gym/internal/metrics"
	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

// ErrTooFewFrames is returned when a demonstration has no transition to convert.
var ErrTooFewFrames = errors.New("demonstration needs at least two frames")

// #region types
// Plan groups, in token order.
const (
	GroupMouse             = "mouse"
	GroupPosition          = "position"
	GroupCrossSectionScale = "cross_section_scale"
	GroupOrientation       = "orientation"
	GroupProjectionScale   = "projection_scale"
)

// Groups lists the plan groups in the order Convert concatenates them.
var Groups = []string{GroupMouse, GroupPosition, GroupCrossSectionScale, GroupOrientation, GroupProjectionScale}

// Frame is one recorded demonstration sample: pointer location and camera state.
type Frame struct {
	Mouse     [2]float64
	ViewState viewstate.ViewState
}

// Options controls a conversion run.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// Transition is the discrete token sequence reproducing one frame-to-frame move.
type Transition struct {
	Index    int
	Tokens   []int
	Counts   map[string]int
	Residual float64 // summed |target - reached| over the view-state fields
}

// Summary provides aggregate stats from a conversion run.
type Summary struct {
	Transitions int
	Tokens      int
	Counts      map[string]int
	Residual    float64
}

// #endregion types

// #region convert
// Convert turns consecutive frame pairs into token sequences. Each transition
// starts from the recorded frame, not from where the previous plan ended.
func Convert(cat *catalog.Catalog, frames []Frame, opts Options) ([]Transition, error) {
	if len(frames) < 2 {
		return nil, ErrTooFewFrames
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	out := make([]Transition, 0, len(frames)-1)
	for i := 1; i < len(frames); i++ {
		tr, err := convertPair(cat, frames[i-1], frames[i])
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i-1, err)
		}
		tr.Index = i - 1
		if opts.Metrics != nil {
			for _, g := range Groups {
				opts.Metrics.RecordPlan(g, tr.Counts[g])
			}
		}
		logger.Debug("transition converted",
			zap.Int("index", tr.Index),
			zap.Int("tokens", len(tr.Tokens)),
			zap.Float64("residual", tr.Residual),
		)
		out = append(out, tr)
	}
	return out, nil
}

func convertPair(cat *catalog.Catalog, from, to Frame) (Transition, error) {
	tr := Transition{Tokens: []int{}, Counts: make(map[string]int, len(Groups))}
	add := func(group string, tokens []int) {
		tr.Tokens = append(tr.Tokens, tokens...)
		tr.Counts[group] += len(tokens)
	}

	mouse, err := decompose.Mouse(cat, from.Mouse, to.Mouse)
	if err != nil {
		return tr, fmt.Errorf("mouse: %w", err)
	}
	add(GroupMouse, mouse.Tokens)

	a, b := from.ViewState, to.ViewState
	pos, err := decompose.Position(cat, a.Position, b.Position)
	if err != nil {
		return tr, fmt.Errorf("position: %w", err)
	}
	add(GroupPosition, pos.Tokens)

	css, err := decompose.CrossSectionScale(cat, a.CrossSectionScale, b.CrossSectionScale)
	if err != nil {
		return tr, fmt.Errorf("cross-section scale: %w", err)
	}
	add(GroupCrossSectionScale, css.Tokens)

	fromAngles := geometry.QuaternionToEuler(a.ProjectionOrientation)
	toAngles := geometry.QuaternionToEuler(b.ProjectionOrientation)
	orient, err := decompose.Orientation(cat, fromAngles, toAngles)
	if err != nil {
		return tr, fmt.Errorf("orientation: %w", err)
	}
	add(GroupOrientation, orient.Tokens)

	ps, err := decompose.ProjectionScale(cat, a.ProjectionScale, b.ProjectionScale)
	if err != nil {
		return tr, fmt.Errorf("projection scale: %w", err)
	}
	add(GroupProjectionScale, ps.Tokens)

	reached := pos.Final()
	for axis := range reached {
		tr.Residual += math.Abs(b.Position[axis] - reached[axis])
	}
	tr.Residual += math.Abs(b.CrossSectionScale - css.Final())
	tr.Residual += math.Abs(b.ProjectionScale - ps.Final())
	got := orient.Final()
	tr.Residual += math.Abs(geometry.WrapAngle(toAngles.Yaw - got.Yaw))
	tr.Residual += math.Abs(toAngles.Pitch - got.Pitch)
	tr.Residual += math.Abs(geometry.WrapAngle(toAngles.Roll - got.Roll))
	return tr, nil
}

// #endregion convert

// #region summarize
// Summarize computes aggregate stats from converted transitions.
func Summarize(transitions []Transition) Summary {
	s := Summary{
		Transitions: len(transitions),
		Counts:      make(map[string]int, len(Groups)),
	}
	for _, tr := range transitions {
		s.Tokens += len(tr.Tokens)
		s.Residual += tr.Residual
		for g, n := range tr.Counts {
			s.Counts[g] += n
		}
	}
	return s
}

// Names resolves tokens to action names for display.
func Names(cat *catalog.Catalog, tokens []int) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		name, err := cat.NameOf(tok)
		if err != nil {
			name = fmt.Sprintf("#%d", tok)
		}
		out[i] = name
	}
	return out
}

// #endregion summarize
