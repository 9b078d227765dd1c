package driver

import (
	"context"
	"sync"

	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

// #region memory
// Memory is an in-process viewer stand-in. It stores the last document it was
// given, records pointer events, and returns a fixed frame.
type Memory struct {
	mu     sync.Mutex
	doc    *viewstate.Document
	frame  viewstate.Frame
	events []PointerEvent
	sets   int
	fail   error
}

// NewMemory starts from doc with a blank frame of the given size.
func NewMemory(doc *viewstate.Document, width, height int) *Memory {
	return &Memory{
		doc:   doc.Clone(),
		frame: viewstate.Frame{Format: "raw", Width: width, Height: height},
	}
}

// FailNext makes the next call return err.
func (m *Memory) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *Memory) takeFailure() error {
	err := m.fail
	m.fail = nil
	return err
}

// GetViewState returns a copy of the stored document.
func (m *Memory) GetViewState(ctx context.Context) (*viewstate.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, classify("memory", err)
	}
	return m.doc.Clone(), nil
}

// SetViewState replaces the stored document.
func (m *Memory) SetViewState(ctx context.Context, doc *viewstate.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return classify("memory", err)
	}
	m.doc = doc.Clone()
	m.sets++
	return nil
}

// DispatchPointerEvent records ev.
func (m *Memory) DispatchPointerEvent(ctx context.Context, ev PointerEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return classify("memory", err)
	}
	m.events = append(m.events, ev)
	return nil
}

// CaptureFrame returns the fixed frame.
func (m *Memory) CaptureFrame(ctx context.Context) (viewstate.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return viewstate.Frame{}, err
	}
	if err := ctx.Err(); err != nil {
		return viewstate.Frame{}, classify("memory", err)
	}
	return m.frame, nil
}

// Events returns the pointer events seen so far.
func (m *Memory) Events() []PointerEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PointerEvent(nil), m.events...)
}

// Sets counts SetViewState calls.
func (m *Memory) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// #endregion memory
