package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielpatrickdp/ngl-gym/internal/action"
	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

var (
	// ErrTimeout is returned when a driver call misses its deadline.
	ErrTimeout = errors.New("driver timeout")
	// ErrCommunication covers every other transport or protocol failure.
	ErrCommunication = errors.New("driver communication failure")
)

// #region pointer
// PointerKind is the DOM-level event the driver should synthesize.
type PointerKind int

const (
	PointerMove PointerKind = iota
	PointerLeftClick
	PointerRightClick
	PointerDoubleClick
)

var pointerNames = map[PointerKind]string{
	PointerMove:        "move",
	PointerLeftClick:   "left_click",
	PointerRightClick:  "right_click",
	PointerDoubleClick: "double_click",
}

func (k PointerKind) String() string {
	if s, ok := pointerNames[k]; ok {
		return s
	}
	return fmt.Sprintf("pointer(%d)", int(k))
}

// ParsePointerKind is the inverse of String.
func ParsePointerKind(s string) (PointerKind, error) {
	for k, name := range pointerNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown pointer kind %q", s)
}

// PointerKindFor maps a resolved click to its event. Non-click kinds map to a move.
func PointerKindFor(k action.Kind) PointerKind {
	switch k {
	case action.KindLeftClick:
		return PointerLeftClick
	case action.KindRightClick:
		return PointerRightClick
	case action.KindDoubleClick:
		return PointerDoubleClick
	}
	return PointerMove
}

// PointerEvent is one pointer action in viewer pixel coordinates.
type PointerEvent struct {
	X         float64
	Y         float64
	Kind      PointerKind
	Modifiers action.Modifiers
}

// #endregion pointer

// #region backend
// Backend is the set of viewer operations a server exposes. Memory satisfies it.
type Backend interface {
	GetViewState(ctx context.Context) (*viewstate.Document, error)
	SetViewState(ctx context.Context, doc *viewstate.Document) error
	DispatchPointerEvent(ctx context.Context, ev PointerEvent) error
	CaptureFrame(ctx context.Context) (viewstate.Frame, error)
}

// #endregion backend
