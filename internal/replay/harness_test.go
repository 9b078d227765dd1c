package replay

import (
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/decompose"
	"github.com/danielpatrickdp/ngl-gym/internal/geometry"
	"github.com/danielpatrickdp/ngl-gym/internal/metrics"
	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

// helper: frame at a position with identity orientation.
func frameAt(mx, my float64, pos [3]float64) Frame {
	return Frame{
		Mouse: [2]float64{mx, my},
		ViewState: viewstate.ViewState{
			Position:              pos,
			CrossSectionScale:     1,
			ProjectionOrientation: geometry.Quaternion{W: 1},
			ProjectionScale:       1000,
		},
	}
}

// 1. Tokens are concatenated mouse first, then position.
func TestConvert_GroupOrder(t *testing.T) {
	cat := catalog.NewGrid()
	frames := []Frame{frameAt(10, 10, [3]float64{}), frameAt(37, 10, [3]float64{1205, 0, 0})}

	out, err := Convert(cat, frames, Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(out))
	}
	got := Names(cat, out[0].Tokens)
	want := []string{
		"move_to_box_25_0",
		"incr_position_x_1000", "incr_position_x_100", "incr_position_x_100", "incr_position_x_5",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if out[0].Counts[GroupMouse] != 1 || out[0].Counts[GroupPosition] != 4 {
		t.Errorf("unexpected counts: %v", out[0].Counts)
	}
	if out[0].Residual != 0 {
		t.Errorf("expected zero residual, got %f", out[0].Residual)
	}
}

// 2. Each transition starts from its recorded frame.
func TestConvert_StartsFromRecordedFrame(t *testing.T) {
	cat := catalog.NewGrid()
	frames := []Frame{
		frameAt(10, 10, [3]float64{0, 0, 0}),
		frameAt(10, 10, [3]float64{0.5, 0, 0}), // below the smallest tier
		frameAt(10, 10, [3]float64{1.5, 0, 0}),
	}
	out, err := Convert(cat, frames, Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(out[0].Tokens) != 0 {
		t.Errorf("expected no tokens for sub-tier move, got %d", len(out[0].Tokens))
	}
	if math.Abs(out[0].Residual-0.5) > 1e-9 {
		t.Errorf("expected residual 0.5, got %f", out[0].Residual)
	}
	if len(out[1].Tokens) != 1 || out[1].Index != 1 {
		t.Errorf("expected one token from 0.5 to 1.5, got %v", out[1].Tokens)
	}
}

// 3. Orientation changes go through Euler angles.
func TestConvert_Orientation(t *testing.T) {
	cat := catalog.NewGrid()
	a := frameAt(10, 10, [3]float64{})
	b := a
	b.ViewState.ProjectionOrientation = geometry.EulerToQuaternion(geometry.Euler{Yaw: 1.2})

	out, err := Convert(cat, []Frame{a, b}, Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if n := out[0].Counts[GroupOrientation]; n == 0 {
		t.Fatal("expected orientation tokens")
	}
	if out[0].Counts[GroupPosition] != 0 || out[0].Counts[GroupMouse] != 0 {
		t.Errorf("unexpected counts: %v", out[0].Counts)
	}
}

// 4. Fewer than two frames is an error.
func TestConvert_TooFewFrames(t *testing.T) {
	_, err := Convert(catalog.NewGrid(), []Frame{frameAt(0, 0, [3]float64{})}, Options{})
	if !errors.Is(err, ErrTooFewFrames) {
		t.Fatalf("expected ErrTooFewFrames, got %v", err)
	}
}

// 5. Decomposer errors carry the transition index.
func TestConvert_PropagatesDecomposeError(t *testing.T) {
	cat := catalog.NewGrid()
	bad := frameAt(10, 10, [3]float64{math.NaN(), 0, 0})
	_, err := Convert(cat, []Frame{frameAt(10, 10, [3]float64{}), bad}, Options{})
	if !errors.Is(err, decompose.ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}
}

// 6. Plan lengths are observed per group.
func TestConvert_RecordsMetrics(t *testing.T) {
	m := metrics.NewCollector("test", nil)
	frames := []Frame{frameAt(10, 10, [3]float64{}), frameAt(37, 10, [3]float64{1205, 0, 0})}
	if _, err := Convert(catalog.NewGrid(), frames, Options{Metrics: m}); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if n := testutil.CollectAndCount(m.Registry(), "test_plan_tokens"); n != len(Groups) {
		t.Errorf("expected %d plan series, got %d", len(Groups), n)
	}
}

// 7. Summarize adds transitions up.
func TestSummarize(t *testing.T) {
	trs := []Transition{
		{Tokens: []int{1, 2}, Counts: map[string]int{GroupPosition: 2}, Residual: 0.25},
		{Tokens: []int{3}, Counts: map[string]int{GroupMouse: 1}, Residual: 0.5},
	}
	s := Summarize(trs)
	if s.Transitions != 2 || s.Tokens != 3 {
		t.Errorf("unexpected totals: %+v", s)
	}
	if s.Counts[GroupPosition] != 2 || s.Counts[GroupMouse] != 1 {
		t.Errorf("unexpected counts: %v", s.Counts)
	}
	if s.Residual != 0.75 {
		t.Errorf("expected residual 0.75, got %f", s.Residual)
	}
}

// 8. Unknown tokens render as their index.
func TestNames_Unknown(t *testing.T) {
	got := Names(catalog.NewGrid(), []int{-1})
	if got[0] != "#-1" {
		t.Errorf("expected #-1, got %s", got[0])
	}
}
