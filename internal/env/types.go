package env

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/ngl-gym/internal/action"
	"github.com/danielpatrickdp/ngl-gym/internal/driver"
	"github.com/danielpatrickdp/ngl-gym/internal/metrics"
	"github.com/danielpatrickdp/ngl-gym/internal/reward"
	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

// ErrNotReset is returned by Step and StepDiscrete before the first Reset.
var ErrNotReset = errors.New("environment not reset")

// #region driver
// Driver is the remote viewer. Calls block until the viewer has applied the
// change or the context ends.
type Driver interface {
	GetViewState(ctx context.Context) (*viewstate.Document, error)
	SetViewState(ctx context.Context, doc *viewstate.Document) error
	DispatchPointerEvent(ctx context.Context, ev driver.PointerEvent) error
	CaptureFrame(ctx context.Context) (viewstate.Frame, error)
}

// #endregion driver

// #region transition
// Transition is the result of one step. Reset produces Step 0 with no action.
type Transition struct {
	Step     int
	State    viewstate.Observation
	Action   action.Taken
	Reward   float64
	Done     bool
	Document *viewstate.Document
	Pointer  action.Pointer
}

// #endregion transition

// #region options
// Options configures an Environment. Zero values are usable.
type Options struct {
	// EulerAngles selects the 17-value layout and Euler observations.
	EulerAngles bool
	// Timeout bounds each driver call; zero leaves the caller's context alone.
	Timeout time.Duration
	// Reward defaults to reward.Default.
	Reward reward.Func
	// MaxSteps ends the episode once a step reaches it, counted from the last
	// Reset. Zero or negative disables the limit.
	MaxSteps int
	// OnTransition sees every completed step, after history is updated.
	OnTransition func(Transition) error
	// OnReset sees every completed reset as a step-0 transition.
	OnReset func(Transition) error
	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// Observation is an alias kept for callers that only import env.
type Observation = viewstate.Observation

// #endregion options

type phase int

const (
	phaseIdle phase = iota
	phaseAwaitingObservation
)

func (p phase) String() string {
	if p == phaseAwaitingObservation {
		return "awaiting_observation"
	}
	return "idle"
}
