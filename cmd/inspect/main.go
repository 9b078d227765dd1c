package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/config"
	"github.com/danielpatrickdp/ngl-gym/internal/recorder"
)

// #region main

func main() {
	catalogName := flag.String("catalog", "", "print the action table of a catalog (free|grid)")
	cells := flag.Bool("cells", false, "include move_to_box cells in the catalog table")
	configPath := flag.String("config", "", "YAML config whose catalog geometry the table is built with")
	dbPath := flag.String("db", "", "path to a recorder database")
	last := flag.Int("last", 20, "show N most recent episodes")
	episode := flag.String("episode", "", "show the transitions of one episode")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	var err error
	switch {
	case *catalogName != "":
		err = runCatalogMode(*catalogName, *configPath, *cells, *jsonOut)
	case *dbPath != "":
		err = runDBMode(*dbPath, *last, *episode, *jsonOut)
	default:
		fmt.Fprintln(os.Stderr, "usage: inspect --catalog free|grid [--config path] [--cells] [--json]")
		fmt.Fprintln(os.Stderr, "       inspect --db path/to/nglenv.db [--last N] [--episode id] [--json]")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region catalog-mode

type actionRow struct {
	Index     int     `json:"index"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Magnitude float64 `json:"magnitude,omitempty"`
}

func runCatalogMode(name, configPath string, cells, jsonOut bool) error {
	v, err := catalog.ParseVariant(name)
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cat, err := catalog.New(v, cfg.Catalog)
	if err != nil {
		return err
	}

	limit := cat.StaticLen()
	if cells {
		limit = cat.Len()
	}
	rows := make([]actionRow, 0, limit)
	for i := 0; i < limit; i++ {
		a, err := cat.Action(i)
		if err != nil {
			return err
		}
		rows = append(rows, actionRow{Index: a.Index, Name: a.Name, Kind: a.Kind.String(), Magnitude: a.Magnitude})
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-6s  %-40s  %-14s  %s\n", "Index", "Name", "Kind", "Magnitude")
	fmt.Printf("%-6s+-%-40s+-%-14s+-%s\n", "------", "----------------------------------------", "--------------", "---------")
	for _, r := range rows {
		fmt.Printf("%-6d  %-40s  %-14s  %g\n", r.Index, r.Name, r.Kind, r.Magnitude)
	}
	fmt.Printf("\n%s catalog: %d actions (%d static, %d cells)\n", cat.Variant(), cat.Len(), cat.StaticLen(), cat.NumCells())
	return nil
}

// #endregion catalog-mode

// #region db-mode

type episodeRow struct {
	EpisodeID string `json:"episode_id"`
	Catalog   string `json:"catalog"`
	Euler     bool   `json:"euler"`
	Steps     int    `json:"steps"`
	StartedAt string `json:"started_at"`
}

type transitionRow struct {
	Step      int     `json:"step"`
	Kind      string  `json:"kind"`
	Action    string  `json:"action"`
	Reward    float64 `json:"reward"`
	Done      bool    `json:"done"`
	PointerX  float64 `json:"pointer_x"`
	PointerY  float64 `json:"pointer_y"`
	ViewState string  `json:"view_state"`
}

func runDBMode(dbPath string, last int, episodeID string, jsonOut bool) error {
	store, err := recorder.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	if episodeID != "" {
		return runEpisodeDetail(store, episodeID, jsonOut)
	}

	eps, err := store.ListEpisodes(last)
	if err != nil {
		return err
	}
	if len(eps) == 0 {
		fmt.Fprintln(os.Stderr, "no episodes found")
		return nil
	}

	rows := make([]episodeRow, len(eps))
	for i, ep := range eps {
		rows[i] = episodeRow{
			EpisodeID: ep.ID,
			Catalog:   ep.Catalog,
			Euler:     ep.Euler,
			Steps:     ep.Steps,
			StartedAt: ep.StartedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-7s  %-5s  %6s  %s\n", "Episode", "Catalog", "Euler", "Steps", "Started")
	fmt.Printf("%-12s+-%-7s+-%-5s+-%6s+-%s\n", "------------", "-------", "-----", "------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-12s  %-7s  %-5t  %6d  %s\n", shortID(r.EpisodeID), r.Catalog, r.Euler, r.Steps, r.StartedAt)
	}
	return nil
}

func runEpisodeDetail(store *recorder.Store, id string, jsonOut bool) error {
	ep, err := store.GetEpisode(id)
	if err != nil {
		return err
	}
	recs, err := store.Transitions(ep.ID)
	if err != nil {
		return err
	}

	rows := make([]transitionRow, len(recs))
	total := 0.0
	for i, r := range recs {
		rows[i] = transitionRow{
			Step:      r.Step,
			Kind:      r.Kind,
			Action:    r.Action.Label(),
			Reward:    r.Reward,
			Done:      r.Done,
			PointerX:  r.Pointer.X,
			PointerY:  r.Pointer.Y,
			ViewState: r.ViewState,
		}
		total += r.Reward
	}
	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("Episode:  %s\n", ep.ID)
	fmt.Printf("Catalog:  %s (euler=%t)\n", ep.Catalog, ep.Euler)
	fmt.Printf("Started:  %s\n", ep.StartedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Printf("Steps:    %d  Return: %.4f\n\n", ep.Steps, total)

	fmt.Printf("%-5s  %-10s  %-36s  %9s  %-5s  %s\n", "Step", "Kind", "Action", "Reward", "Done", "Pointer")
	fmt.Printf("%-5s+-%-10s+-%-36s+-%9s+-%-5s+-%s\n", "-----", "----------", "------------------------------------", "---------", "-----", "-----------")
	for _, r := range rows {
		fmt.Printf("%-5d  %-10s  %-36s  %9.4f  %-5t  (%.0f,%.0f)\n", r.Step, r.Kind, r.Action, r.Reward, r.Done, r.PointerX, r.PointerY)
	}
	return nil
}

// #endregion db-mode

// #region helpers

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// #endregion helpers
