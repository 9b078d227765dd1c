package recorder

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/ngl-gym/internal/action"
	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/driver"
	"github.com/danielpatrickdp/ngl-gym/internal/env"
	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func startDoc(t *testing.T) *viewstate.Document {
	t.Helper()
	doc, err := viewstate.Parse([]byte(`{"position": [100, 200, 300], "crossSectionScale": 1, "projectionScale": 1000}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestBeginEpisodeAndAppend(t *testing.T) {
	s := tempDB(t)
	doc := startDoc(t)

	ep, err := s.BeginEpisode(catalog.NewGrid(), true, env.Transition{Document: doc})
	if err != nil {
		t.Fatalf("BeginEpisode: %v", err)
	}
	if ep.ID == "" {
		t.Fatal("expected non-empty episode ID")
	}

	tok := catalog.Action{Index: 5, Name: "incr_position_x_1000", Kind: catalog.KindIncrement, Field: catalog.FieldPositionX, Magnitude: 1000}
	tr := env.Transition{
		Step:     1,
		Action:   action.Taken{Token: &tok},
		Reward:   0.5,
		Document: doc,
		Pointer:  action.Pointer{X: 10, Y: 20},
	}
	if err := s.Append(ep.ID, tr); err != nil {
		t.Fatalf("Append: %v", err)
	}

	recs, err := s.Transitions(ep.ID)
	if err != nil {
		t.Fatalf("Transitions: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(recs))
	}
	if recs[0].Kind != KindReset || recs[0].Step != 0 {
		t.Fatalf("expected reset row first, got %s/%d", recs[0].Kind, recs[0].Step)
	}
	if recs[0].Action.Token != nil || recs[0].Action.Continuous != nil {
		t.Fatal("reset row should carry no action")
	}

	got := recs[1]
	if got.Kind != KindDiscrete {
		t.Fatalf("expected discrete, got %s", got.Kind)
	}
	if got.Action.Token == nil || got.Action.Token.Name != "incr_position_x_1000" {
		t.Fatalf("action not restored: %+v", got.Action)
	}
	if got.Reward != 0.5 || got.Pointer != (action.Pointer{X: 10, Y: 20}) {
		t.Fatalf("unexpected reward/pointer: %f %+v", got.Reward, got.Pointer)
	}

	restored, err := viewstate.Parse([]byte(got.ViewState))
	if err != nil {
		t.Fatalf("Parse stored view state: %v", err)
	}
	if restored.ViewState().Position != [3]float64{100, 200, 300} {
		t.Fatalf("unexpected stored position: %v", restored.ViewState().Position)
	}
}

func TestAppendDuplicateStep(t *testing.T) {
	s := tempDB(t)
	ep, err := s.BeginEpisode(catalog.NewFree(), false, env.Transition{})
	if err != nil {
		t.Fatalf("BeginEpisode: %v", err)
	}
	if err := s.Append(ep.ID, env.Transition{Step: 0}); err == nil {
		t.Fatal("expected error for duplicate step 0")
	}
}

func TestAppendUnknownEpisode(t *testing.T) {
	s := tempDB(t)
	if err := s.Append("missing", env.Transition{Step: 1}); err == nil {
		t.Fatal("expected foreign key violation")
	}
}

func TestListEpisodes(t *testing.T) {
	s := tempDB(t)
	first, _ := s.BeginEpisode(catalog.NewGrid(), true, env.Transition{})
	second, _ := s.BeginEpisode(catalog.NewFree(), false, env.Transition{})
	for i := 1; i <= 3; i++ {
		if err := s.Append(second.ID, env.Transition{Step: i}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	eps, err := s.ListEpisodes(10)
	if err != nil {
		t.Fatalf("ListEpisodes: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(eps))
	}
	byID := map[string]Episode{}
	for _, ep := range eps {
		byID[ep.ID] = ep
	}
	if byID[first.ID].Steps != 0 || byID[second.ID].Steps != 3 {
		t.Fatalf("unexpected step counts: %+v", eps)
	}
	if byID[second.ID].Catalog != "free" || byID[second.ID].Euler {
		t.Fatalf("unexpected episode metadata: %+v", byID[second.ID])
	}

	limited, _ := s.ListEpisodes(1)
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestListEpisodes_NewestFirst(t *testing.T) {
	s := tempDB(t)
	var ids []string
	for i := 0; i < 3; i++ {
		ep, err := s.BeginEpisode(catalog.NewFree(), false, env.Transition{})
		if err != nil {
			t.Fatalf("BeginEpisode: %v", err)
		}
		ids = append(ids, ep.ID)
	}

	eps, err := s.ListEpisodes(10)
	if err != nil {
		t.Fatalf("ListEpisodes: %v", err)
	}
	want := []string{ids[2], ids[1], ids[0]}
	for i := range want {
		if eps[i].ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], eps[i].ID)
		}
	}
}

func TestTimeLayout_SortsAsText(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{
		base,
		base.Add(100 * time.Millisecond),
		base.Add(120 * time.Millisecond),
		base.Add(time.Second),
	}
	var prev string
	for i, ts := range times {
		got := ts.Format(timeLayout)
		if len(got) != len("2026-03-01T12:00:00.000000000Z") {
			t.Fatalf("%d: unexpected width %q", i, got)
		}
		if i > 0 && got <= prev {
			t.Fatalf("%q should sort after %q", got, prev)
		}
		parsed, err := time.Parse(timeLayout, got)
		if err != nil || !parsed.Equal(ts) {
			t.Fatalf("%d: round trip gave %v (%v)", i, parsed, err)
		}
		prev = got
	}
}

func TestStoredTimestampsFixedWidth(t *testing.T) {
	s := tempDB(t)
	ep, err := s.BeginEpisode(catalog.NewGrid(), false, env.Transition{})
	if err != nil {
		t.Fatalf("BeginEpisode: %v", err)
	}
	if err := s.Append(ep.ID, env.Transition{Step: 1}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var started string
	if err := s.DB().QueryRow(`SELECT started_at FROM episodes WHERE episode_id = ?`, ep.ID).Scan(&started); err != nil {
		t.Fatalf("select started_at: %v", err)
	}
	rows, err := s.DB().Query(`SELECT created_at FROM transitions WHERE episode_id = ?`, ep.ID)
	if err != nil {
		t.Fatalf("select created_at: %v", err)
	}
	defer rows.Close()
	stamps := []string{started}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			t.Fatalf("scan: %v", err)
		}
		stamps = append(stamps, c)
	}
	for _, ts := range stamps {
		if len(ts) != len("2026-03-01T12:00:00.000000000Z") {
			t.Fatalf("timestamp %q is not fixed width", ts)
		}
	}
}

func TestEpisodeKeepsGeometry(t *testing.T) {
	s := tempDB(t)
	geom := catalog.DefaultGeometry()
	geom.GridSizeX = 50
	geom.GridSizeY = 50
	cat, err := catalog.New(catalog.Grid, geom)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	ep, err := s.BeginEpisode(cat, false, env.Transition{})
	if err != nil {
		t.Fatalf("BeginEpisode: %v", err)
	}
	got, err := s.GetEpisode(ep.ID)
	if err != nil {
		t.Fatalf("GetEpisode: %v", err)
	}
	if got.Geometry != geom {
		t.Fatalf("geometry not restored: %+v", got.Geometry)
	}

	rebuilt, err := got.BuildCatalog()
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}
	if rebuilt.Variant() != catalog.Grid || rebuilt.Len() != cat.Len() {
		t.Fatalf("rebuilt catalog differs: %s/%d vs %d", rebuilt.Variant(), rebuilt.Len(), cat.Len())
	}
	if rebuilt.Len() == catalog.NewGrid().Len() {
		t.Fatal("rebuilt catalog should not use the default geometry")
	}
}

func TestGetEpisodeNotFound(t *testing.T) {
	s := tempDB(t)
	if _, err := s.GetEpisode("nonexistent-id"); err == nil {
		t.Fatal("expected error for nonexistent episode")
	}
}

func TestAttachRecordsEpisode(t *testing.T) {
	s := tempDB(t)
	cat := catalog.NewGrid()
	mem := driver.NewMemory(startDoc(t), 1800, 900)

	var seen int
	opts := env.Options{
		EulerAngles:  true,
		OnTransition: func(env.Transition) error { seen++; return nil },
	}
	s.Attach(&opts, cat)
	e := env.New(mem, cat, opts)

	ctx := context.Background()
	if _, err := e.Reset(ctx, nil); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	idx, err := cat.IndexOf("incr_position_x_1000")
	if err != nil {
		t.Fatalf("IndexOf: %v", err)
	}
	if _, err := e.StepDiscrete(ctx, idx); err != nil {
		t.Fatalf("StepDiscrete: %v", err)
	}
	if _, err := e.Step(ctx, make([]float64, e.Layout().Len())); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if seen != 2 {
		t.Fatalf("expected chained hook to run twice, got %d", seen)
	}

	eps, err := s.ListEpisodes(5)
	if err != nil || len(eps) != 1 {
		t.Fatalf("expected one episode, got %d (%v)", len(eps), err)
	}
	if eps[0].Steps != 2 || eps[0].Catalog != "grid" || !eps[0].Euler {
		t.Fatalf("unexpected episode: %+v", eps[0])
	}

	recs, err := s.Transitions(eps[0].ID)
	if err != nil {
		t.Fatalf("Transitions: %v", err)
	}
	kinds := []string{recs[0].Kind, recs[1].Kind, recs[2].Kind}
	want := []string{KindReset, KindDiscrete, KindContinuous}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("row %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
	after, _ := viewstate.Parse([]byte(recs[1].ViewState))
	if after.ViewState().Position[0] != 1100 {
		t.Fatalf("expected x=1100 after token, got %v", after.ViewState().Position[0])
	}

	// A second reset opens a new episode.
	if _, err := e.Reset(ctx, nil); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	eps, _ = s.ListEpisodes(5)
	if len(eps) != 2 {
		t.Fatalf("expected two episodes, got %d", len(eps))
	}
}

func TestAttachWithoutResetFails(t *testing.T) {
	s := tempDB(t)
	opts := env.Options{}
	s.Attach(&opts, catalog.NewFree())
	if err := opts.OnTransition(env.Transition{Step: 1}); err == nil {
		t.Fatal("expected error when no episode is open")
	}
}

func TestNewStoreInvalidPath(t *testing.T) {
	_, err := NewStore(filepath.Join(string(os.PathSeparator), "nonexistent", "deep", "path", "test.db"))
	if err == nil {
		t.Fatal("expected error for invalid path")
	}
}

func TestNewStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.db")
	if err := os.WriteFile(path, []byte("this is not a sqlite database at all, just junk bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(path); err == nil {
		t.Fatal("expected error for corrupt database")
	}
}

func TestClosedDB(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "closed.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s.Close()

	if _, err := s.BeginEpisode(catalog.NewGrid(), true, env.Transition{}); err == nil {
		t.Fatal("expected error on closed db")
	}
	if _, err := s.ListEpisodes(1); err == nil {
		t.Fatal("expected error on closed db")
	}
	if _, err := s.Transitions("x"); err == nil {
		t.Fatal("expected error on closed db")
	}
}

func TestNewStoreWithDB(t *testing.T) {
	dir := t.TempDir()
	db, err := sql.Open("sqlite", filepath.Join(dir, "shared.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("schema: %v", err)
	}
	s := NewStoreWithDB(db)
	if s.DB() != db {
		t.Fatal("expected the wrapped connection")
	}
	if _, err := s.BeginEpisode(catalog.NewGrid(), true, env.Transition{}); err != nil {
		t.Fatalf("BeginEpisode: %v", err)
	}
}
