package main

import (
	"bytes"
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/driver"
	"github.com/danielpatrickdp/ngl-gym/internal/env"
)

func newSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()
	mem := driver.NewMemory(defaultDocument(), 1800, 900)
	var out bytes.Buffer
	return &session{env: env.New(mem, catalog.NewGrid(), env.Options{EulerAngles: true}), out: &out}, &out
}

func TestSession_Commands(t *testing.T) {
	s, out := newSession(t)
	ctx := context.Background()

	_, err := s.handle(ctx, "plan 1 2 3")
	assert.ErrorIs(t, err, env.ErrNotReset)

	quit, err := s.handle(ctx, "reset")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Contains(t, out.String(), "[reset]")

	idx, err := s.env.Catalog().IndexOf("incr_position_x_1000")
	require.NoError(t, err)
	_, err = s.handle(ctx, strconv.Itoa(idx))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "action=incr_position_x_1000")

	out.Reset()
	_, err = s.handle(ctx, "plan 1205 0 0")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[plan] 3 tokens")

	_, err = s.handle(ctx, "c 0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0")
	require.NoError(t, err)

	quit, err = s.handle(ctx, "quit")
	require.NoError(t, err)
	assert.True(t, quit)
}

func TestSession_BadInput(t *testing.T) {
	s, _ := newSession(t)
	ctx := context.Background()

	for _, line := range []string{"bogus", "c", "plan 1 2", "3 4"} {
		_, err := s.handle(ctx, line)
		assert.ErrorIs(t, err, errUsage, line)
	}
	_, err := s.handle(ctx, "c 1,x")
	assert.Error(t, err)

	quit, err := s.handle(ctx, "   ")
	assert.NoError(t, err)
	assert.False(t, quit)
}
