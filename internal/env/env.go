package env

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/ngl-gym/internal/action"
	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/driver"
	"github.com/danielpatrickdp/ngl-gym/internal/logging"
	"github.com/danielpatrickdp/ngl-gym/internal/reward"
	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

// #region environment
// Environment runs agent actions against a Driver. It keeps only the last
// observation and document; each step overwrites them. Not safe for concurrent use.
type Environment struct {
	drv    Driver
	cat    *catalog.Catalog
	layout action.Layout
	opts   Options
	logger *zap.Logger

	phase   phase
	ready   bool
	step    int
	pointer action.Pointer
	lastObs viewstate.Observation
	lastDoc *viewstate.Document
}

// New binds an environment to a driver and a catalog. The catalog is used by
// StepDiscrete and must not change for the life of the environment.
func New(drv Driver, cat *catalog.Catalog, opts Options) *Environment {
	if opts.Reward == nil {
		opts.Reward = reward.Default
	}
	return &Environment{
		drv:    drv,
		cat:    cat,
		layout: action.LayoutFor(opts.EulerAngles),
		opts:   opts,
		logger: logging.OrNop(opts.Logger).Named("env"),
	}
}

// Layout is the continuous vector layout Step expects.
func (e *Environment) Layout() action.Layout { return e.layout }

// Catalog is the discrete vocabulary StepDiscrete resolves against.
func (e *Environment) Catalog() *catalog.Catalog { return e.cat }

// Pointer is where the environment believes the mouse is.
func (e *Environment) Pointer() action.Pointer { return e.pointer }

// Last returns the single-slot history. ok is false before the first Reset.
func (e *Environment) Last() (viewstate.Observation, *viewstate.Document, bool) {
	if !e.ready {
		return viewstate.Observation{}, nil, false
	}
	return e.lastObs, e.lastDoc.Clone(), true
}

// #endregion environment

// #region reset
// Reset pushes start to the viewer when it is non-nil, then records the first
// observation. The pointer returns to the origin.
func (e *Environment) Reset(ctx context.Context, start *viewstate.Document) (viewstate.Observation, error) {
	if start != nil {
		if err := e.call(ctx, "set_view_state", func(ctx context.Context) error {
			return e.drv.SetViewState(ctx, start)
		}); err != nil {
			return viewstate.Observation{}, err
		}
	}

	obs, doc, err := e.observe(ctx)
	if err != nil {
		return viewstate.Observation{}, err
	}

	e.lastObs, e.lastDoc = obs, doc
	e.pointer = action.Pointer{}
	e.step = 0
	e.ready = true
	e.phase = phaseIdle

	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordReset()
	}
	e.logger.Info("reset", logging.ViewState("state", doc.ViewState()), zap.Bool("orientation_defaulted", doc.OrientationDefaulted()))

	if e.opts.OnReset != nil {
		if err := e.opts.OnReset(Transition{State: obs, Document: doc.Clone()}); err != nil {
			return obs, fmt.Errorf("reset hook: %w", err)
		}
	}
	return obs, nil
}

// #endregion reset

// #region step
// Step applies a continuous action vector. Clicks are dispatched at the vector's
// x, y; json_change pushes the last document moved by the deltas; a vector with
// no flag set only observes.
func (e *Environment) Step(ctx context.Context, vec []float64) (Transition, error) {
	if !e.ready {
		return Transition{}, ErrNotReset
	}
	c, err := action.Decode(vec, e.layout)
	if err != nil {
		return Transition{}, err
	}
	e.logger.Debug("decided", zap.Stringer("kind", c.Kind), zap.Float64("x", c.X), zap.Float64("y", c.Y), zap.Stringer("keys", c.Modifiers))

	e.phase = phaseAwaitingObservation
	defer func() { e.phase = phaseIdle }()

	switch {
	case c.Kind.IsClick():
		ev := driver.PointerEvent{X: c.X, Y: c.Y, Kind: driver.PointerKindFor(c.Kind), Modifiers: c.Modifiers}
		if err := e.call(ctx, "dispatch_pointer_event", func(ctx context.Context) error {
			return e.drv.DispatchPointerEvent(ctx, ev)
		}); err != nil {
			return Transition{}, err
		}
		e.pointer = action.Pointer{X: c.X, Y: c.Y}

	case c.Kind == action.KindJSONChange:
		next := action.ApplyDelta(e.lastDoc.ViewState(), c.Delta, e.layout)
		if err := e.push(ctx, next); err != nil {
			return Transition{}, err
		}
	}

	return e.finish(ctx, action.Taken{Continuous: &c}, "continuous")
}

// StepDiscrete applies one catalog token. Clicks fire at the current pointer,
// pointer tokens move it and send a move event, every other token pushes a new
// view state.
func (e *Environment) StepDiscrete(ctx context.Context, index int) (Transition, error) {
	if !e.ready {
		return Transition{}, ErrNotReset
	}
	out, err := action.ApplyDiscrete(e.cat, index, e.pointer, e.lastDoc.ViewState(), e.layout)
	if err != nil {
		return Transition{}, err
	}
	e.logger.Debug("decided", zap.Int("index", index), zap.String("name", out.Action.Name), zap.Stringer("effect", out.Effect))

	e.phase = phaseAwaitingObservation
	defer func() { e.phase = phaseIdle }()

	switch out.Effect {
	case action.EffectClick, action.EffectPointer:
		ev := driver.PointerEvent{X: out.Pointer.X, Y: out.Pointer.Y, Kind: driver.PointerKindFor(out.Click)}
		if err := e.call(ctx, "dispatch_pointer_event", func(ctx context.Context) error {
			return e.drv.DispatchPointerEvent(ctx, ev)
		}); err != nil {
			return Transition{}, err
		}
		e.pointer = out.Pointer
	case action.EffectState:
		if err := e.push(ctx, out.State); err != nil {
			return Transition{}, err
		}
	}

	tok := out.Action
	return e.finish(ctx, action.Taken{Token: &tok}, "discrete")
}

func (e *Environment) push(ctx context.Context, vs viewstate.ViewState) error {
	doc := e.lastDoc.WithViewState(vs)
	return e.call(ctx, "set_view_state", func(ctx context.Context) error {
		return e.drv.SetViewState(ctx, doc)
	})
}

// finish reads back the viewer, scores the step and overwrites the history.
func (e *Environment) finish(ctx context.Context, taken action.Taken, mode string) (Transition, error) {
	obs, doc, err := e.observe(ctx)
	if err != nil {
		return Transition{}, err
	}

	r, done := e.opts.Reward(obs, taken, e.lastObs)
	e.step++
	if e.opts.MaxSteps > 0 && e.step >= e.opts.MaxSteps {
		done = true
	}
	tr := Transition{
		Step:     e.step,
		State:    obs,
		Action:   taken,
		Reward:   r,
		Done:     done,
		Document: doc,
		Pointer:  e.pointer,
	}
	e.lastObs, e.lastDoc = obs, doc

	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordStep(mode, taken.KindLabel(), r)
	}
	e.logger.Debug("stepped",
		zap.Int("step", e.step),
		zap.String("action", taken.Label()),
		zap.Float64("reward", r),
		zap.Bool("done", done),
		logging.ViewState("state", doc.ViewState()),
	)

	if e.opts.OnTransition != nil {
		if err := e.opts.OnTransition(tr); err != nil {
			return tr, fmt.Errorf("transition hook: %w", err)
		}
	}
	return tr, nil
}

// #endregion step

// #region observe
// Observe reads the viewer without stepping. History is not touched.
func (e *Environment) Observe(ctx context.Context) (viewstate.Observation, error) {
	obs, _, err := e.observe(ctx)
	return obs, err
}

func (e *Environment) observe(ctx context.Context) (viewstate.Observation, *viewstate.Document, error) {
	var doc *viewstate.Document
	if err := e.call(ctx, "get_view_state", func(ctx context.Context) error {
		var err error
		doc, err = e.drv.GetViewState(ctx)
		return err
	}); err != nil {
		return viewstate.Observation{}, nil, err
	}

	var frame viewstate.Frame
	if err := e.call(ctx, "capture_frame", func(ctx context.Context) error {
		var err error
		frame, err = e.drv.CaptureFrame(ctx)
		return err
	}); err != nil {
		return viewstate.Observation{}, nil, err
	}

	return viewstate.Observation{
		Pos:   viewstate.FromViewState(doc.ViewState(), e.opts.EulerAngles),
		Frame: frame,
	}, doc, nil
}

// #endregion observe

// #region driver-calls
// call runs fn under the configured timeout. Errors come back exactly as the
// driver returned them.
func (e *Environment) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	err := fn(ctx)
	if err == nil {
		return nil
	}

	class := "communication"
	if errors.Is(err, driver.ErrTimeout) {
		class = "timeout"
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordDriverError(op, class)
	}
	e.logger.Warn("driver call failed", zap.String("op", op), zap.String("class", class), zap.Stringer("phase", e.phase), zap.Error(err))
	return err
}

// #endregion driver-calls
