package replay

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/recorder"
	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string            `json:"description"`
	Catalog     string            `json:"catalog"`
	Geometry    *catalog.Geometry `json:"geometry,omitempty"`
	Frames      []FixtureFrame    `json:"frames"`
	Expected    FixtureExpected   `json:"expected"`
}

// FixtureFrame carries the viewer document verbatim so unknown keys survive export.
type FixtureFrame struct {
	Mouse     [2]float64      `json:"mouse"`
	ViewState json.RawMessage `json:"view_state"`
}

// FixtureExpected pins the token counts a conversion must reproduce.
type FixtureExpected struct {
	TokensPerTransition []int          `json:"tokens_per_transition"`
	Counts              map[string]int `json:"counts"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Save writes the fixture as indented JSON.
func (f *Fixture) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// Variant parses the fixture's catalog name.
func (f *Fixture) Variant() (catalog.Variant, error) {
	return catalog.ParseVariant(f.Catalog)
}

// BuildCatalog builds the fixture's catalog from its geometry, or the default
// geometry when the fixture does not carry one.
func (f *Fixture) BuildCatalog() (*catalog.Catalog, error) {
	v, err := f.Variant()
	if err != nil {
		return nil, err
	}
	geom := catalog.DefaultGeometry()
	if f.Geometry != nil {
		geom = *f.Geometry
	}
	return catalog.New(v, geom)
}

// ToFrames parses every frame's viewer document.
func (f *Fixture) ToFrames() ([]Frame, error) {
	out := make([]Frame, len(f.Frames))
	for i, ff := range f.Frames {
		doc, err := viewstate.Parse(ff.ViewState)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		out[i] = Frame{Mouse: ff.Mouse, ViewState: doc.ViewState()}
	}
	return out, nil
}

// Check compares a conversion against the expected counts and returns one line
// per mismatch.
func (f *Fixture) Check(transitions []Transition) []string {
	var diffs []string
	exp := f.Expected
	if exp.TokensPerTransition != nil {
		if len(exp.TokensPerTransition) != len(transitions) {
			diffs = append(diffs, fmt.Sprintf("expected %d transitions, got %d", len(exp.TokensPerTransition), len(transitions)))
		} else {
			for i, want := range exp.TokensPerTransition {
				if got := len(transitions[i].Tokens); got != want {
					diffs = append(diffs, fmt.Sprintf("transition %d: expected %d tokens, got %d", i, want, got))
				}
			}
		}
	}
	sum := Summarize(transitions)
	for _, g := range slices.Sorted(maps.Keys(exp.Counts)) {
		if got := sum.Counts[g]; got != exp.Counts[g] {
			diffs = append(diffs, fmt.Sprintf("%s: expected %d tokens, got %d", g, exp.Counts[g], got))
		}
	}
	return diffs
}

// #endregion fixture-loader

// #region fixture-export

// NewFixture builds a fixture from frames and pins the counts the current
// decomposer produces for them.
func NewFixture(description string, cat *catalog.Catalog, frames []FixtureFrame) (*Fixture, error) {
	geom := cat.Geometry()
	f := &Fixture{Description: description, Catalog: cat.Variant().String(), Geometry: &geom, Frames: frames}
	parsed, err := f.ToFrames()
	if err != nil {
		return nil, err
	}
	transitions, err := Convert(cat, parsed, Options{})
	if err != nil {
		return nil, err
	}
	sum := Summarize(transitions)
	f.Expected.TokensPerTransition = make([]int, len(transitions))
	for i, tr := range transitions {
		f.Expected.TokensPerTransition[i] = len(tr.Tokens)
	}
	f.Expected.Counts = sum.Counts
	return f, nil
}

// FramesFromRecords turns a recorded episode into fixture frames, one per row,
// using the pointer and viewer document stored with each step.
func FramesFromRecords(recs []recorder.Record) []FixtureFrame {
	out := make([]FixtureFrame, len(recs))
	for i, rec := range recs {
		out[i] = FixtureFrame{
			Mouse:     [2]float64{rec.Pointer.X, rec.Pointer.Y},
			ViewState: json.RawMessage(rec.ViewState),
		}
	}
	return out
}

// #endregion fixture-export
