package replay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/ngl-gym/internal/action"
	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/recorder"
)

// #region fixture-tests

// TestFixture_GridWalk loads the grid_walk fixture, converts it, and compares
// the token counts against the pinned expectations.
func TestFixture_GridWalk(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "grid_walk.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	v, err := f.Variant()
	if err != nil {
		t.Fatalf("Variant: %v", err)
	}
	frames, err := f.ToFrames()
	if err != nil {
		t.Fatalf("ToFrames: %v", err)
	}

	transitions, err := Convert(catalog.MustNew(v, catalog.DefaultGeometry()), frames, Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	for _, d := range f.Check(transitions) {
		t.Error(d)
	}
}

func TestFixture_CheckReportsMismatch(t *testing.T) {
	f := &Fixture{Expected: FixtureExpected{
		TokensPerTransition: []int{2},
		Counts:              map[string]int{GroupPosition: 2},
	}}
	diffs := f.Check([]Transition{{Tokens: []int{1}, Counts: map[string]int{GroupPosition: 1}}})
	if len(diffs) != 2 {
		t.Fatalf("expected 2 mismatches, got %v", diffs)
	}

	diffs = f.Check(nil)
	if len(diffs) != 2 {
		t.Fatalf("expected transition count and group mismatch, got %v", diffs)
	}
}

func TestLoadFixture_Errors(t *testing.T) {
	if _, err := LoadFixture(filepath.Join("testdata", "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0o644)
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for malformed fixture")
	}
}

func TestToFrames_InvalidViewState(t *testing.T) {
	f := &Fixture{Frames: []FixtureFrame{{ViewState: json.RawMessage(`{"position": [1, 2]}`)}}}
	if _, err := f.ToFrames(); err == nil {
		t.Fatal("expected error for short position")
	}
}

// #endregion fixture-tests

// #region export-tests

func TestNewFixture_RoundTrip(t *testing.T) {
	src, err := LoadFixture(filepath.Join("testdata", "grid_walk.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	cat := catalog.NewGrid()

	f, err := NewFixture("exported", cat, src.Frames)
	if err != nil {
		t.Fatalf("NewFixture: %v", err)
	}
	if f.Catalog != "grid" {
		t.Errorf("expected grid catalog, got %s", f.Catalog)
	}
	if f.Geometry == nil || *f.Geometry != cat.Geometry() {
		t.Errorf("expected the catalog geometry to be pinned, got %+v", f.Geometry)
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := f.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	frames, _ := loaded.ToFrames()
	transitions, err := Convert(cat, frames, Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if diffs := loaded.Check(transitions); len(diffs) != 0 {
		t.Fatalf("exported fixture does not check: %v", diffs)
	}
	if diffs := src.Check(transitions); len(diffs) != 0 {
		t.Fatalf("exported counts differ from the pinned ones: %v", diffs)
	}
}

func TestFixtureBuildCatalog(t *testing.T) {
	geom := catalog.DefaultGeometry()
	geom.GridSizeX, geom.GridSizeY = 50, 50

	custom := &Fixture{Catalog: "grid", Geometry: &geom}
	cat, err := custom.BuildCatalog()
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}
	if cat.Geometry() != geom || cat.NumCells() != 36*18 {
		t.Fatalf("expected the fixture geometry, got %+v with %d cells", cat.Geometry(), cat.NumCells())
	}

	legacy := &Fixture{Catalog: "grid"}
	cat, err = legacy.BuildCatalog()
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}
	if cat.Geometry() != catalog.DefaultGeometry() {
		t.Fatalf("expected default geometry without one pinned, got %+v", cat.Geometry())
	}

	if _, err := (&Fixture{Catalog: "hex"}).BuildCatalog(); err == nil {
		t.Fatal("expected error for unknown catalog")
	}
}

func TestFramesFromRecords(t *testing.T) {
	recs := []recorder.Record{
		{Step: 0, Pointer: action.Pointer{X: 10, Y: 10}, ViewState: `{"position": [0, 0, 0], "crossSectionScale": 1, "projectionScale": 1000}`},
		{Step: 1, Pointer: action.Pointer{X: 37, Y: 10}, ViewState: `{"position": [5, 0, 0], "crossSectionScale": 1, "projectionScale": 1000}`},
	}
	ff := FramesFromRecords(recs)
	f := &Fixture{Frames: ff}
	frames, err := f.ToFrames()
	if err != nil {
		t.Fatalf("ToFrames: %v", err)
	}
	if frames[1].Mouse != [2]float64{37, 10} || frames[1].ViewState.Position[0] != 5 {
		t.Fatalf("unexpected frame: %+v", frames[1])
	}
	out, err := Convert(catalog.NewGrid(), frames, Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(out[0].Tokens) != 2 {
		t.Fatalf("expected cell jump and one x token, got %v", Names(catalog.NewGrid(), out[0].Tokens))
	}
}

// #endregion export-tests
