package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/ngl-gym/internal/decompose"
	"github.com/danielpatrickdp/ngl-gym/internal/env"
	"github.com/danielpatrickdp/ngl-gym/internal/replay"
)

var errUsage = errors.New("usage: reset | <index> | c v1,v2,... | plan x y z | quit")

// session runs REPL commands against one environment.
type session struct {
	env *env.Environment
	out io.Writer
}

// handle runs one input line. quit is true when the loop should stop.
func (s *session) handle(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "quit", "exit":
		return true, nil
	case "reset":
		obs, err := s.env.Reset(ctx, nil)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "[reset] state=%v\n", obs.Pos.Flatten())
		return false, nil
	case "c":
		if len(fields) != 2 {
			return false, errUsage
		}
		vec, err := parseFloats(fields[1], ",")
		if err != nil {
			return false, err
		}
		tr, err := s.env.Step(ctx, vec)
		if err != nil {
			return false, err
		}
		s.printTransition(tr)
		return false, nil
	case "plan":
		return false, s.plan(fields[1:])
	}

	index, err := strconv.Atoi(fields[0])
	if err != nil || len(fields) != 1 {
		return false, errUsage
	}
	tr, err := s.env.StepDiscrete(ctx, index)
	if err != nil {
		return false, err
	}
	s.printTransition(tr)
	return false, nil
}

func (s *session) plan(args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	target, err := parseFloats(strings.Join(args, " "), " ")
	if err != nil {
		return err
	}
	_, doc, ok := s.env.Last()
	if !ok {
		return env.ErrNotReset
	}
	cur := doc.ViewState().Position
	p, err := decompose.Position(s.env.Catalog(), cur, [3]float64{target[0], target[1], target[2]})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "[plan] %d tokens, reaches %v\n", p.Len(), p.Final())
	for i, name := range replay.Names(s.env.Catalog(), p.Tokens) {
		fmt.Fprintf(s.out, "  %3d  %-32s %v\n", p.Tokens[i], name, p.Trajectory[i+1])
	}
	return nil
}

func (s *session) printTransition(tr env.Transition) {
	fmt.Fprintf(s.out, "[step %d] action=%s reward=%.4f done=%t pointer=(%.0f,%.0f)\n",
		tr.Step, tr.Action.Label(), tr.Reward, tr.Done, tr.Pointer.X, tr.Pointer.Y)
	fmt.Fprintf(s.out, "  state=%v\n", tr.State.Pos.Flatten())
}

func parseFloats(s, sep string) ([]float64, error) {
	parts := strings.Split(s, sep)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
