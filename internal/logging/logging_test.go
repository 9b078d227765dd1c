package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/danielpatrickdp/ngl-gym/internal/geometry"
	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

func TestNew(t *testing.T) {
	for _, cfg := range []Config{
		DefaultConfig(),
		{Level: "debug", Format: "console"},
		{},
	} {
		l, err := New(cfg)
		require.NoError(t, err, "%+v", cfg)
		assert.NotNil(t, l)
	}
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
	_, err = New(Config{Format: "xml"})
	assert.Error(t, err)
}

func TestNew_Level(t *testing.T) {
	l, err := New(Config{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}

func TestFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core)

	vs := viewstate.ViewState{
		Position:              [3]float64{1, 2, 3},
		CrossSectionScale:     0.5,
		ProjectionOrientation: geometry.Identity,
		ProjectionScale:       1890,
	}
	l.Debug("step", ViewState("state", vs), Plan("plan", []int{27, 27, 35}))

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()

	state := ctx["state"].(map[string]any)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, state["position"])
	assert.Equal(t, 1890.0, state["projection_scale"])

	plan := ctx["plan"].(map[string]any)
	assert.Equal(t, 3, plan["len"])
	assert.Equal(t, []any{27, 27, 35}, plan["tokens"])
}
