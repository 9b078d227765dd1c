package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/ngl-gym/internal/recorder"
	"github.com/danielpatrickdp/ngl-gym/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to a recorder database")
	episode := flag.String("episode", "", "episode ID to export (default: latest)")
	last := flag.Int("last", 0, "export only the N most recent rows (0 = all)")
	outPath := flag.String("out", "", "output fixture JSON path")
	description := flag.String("description", "", "fixture description")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --out path/to/fixture.json [--episode id] [--last N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *episode, *last, *outPath, *description); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, episodeID string, last int, outPath, description string) error {
	store, err := recorder.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	if episodeID == "" {
		eps, err := store.ListEpisodes(1)
		if err != nil {
			return err
		}
		if len(eps) == 0 {
			return fmt.Errorf("no episodes recorded")
		}
		episodeID = eps[0].ID
	}
	ep, err := store.GetEpisode(episodeID)
	if err != nil {
		return err
	}
	recs, err := store.Transitions(ep.ID)
	if err != nil {
		return err
	}
	if last > 0 && last < len(recs) {
		recs = recs[len(recs)-last:]
	}

	cat, err := ep.BuildCatalog()
	if err != nil {
		return fmt.Errorf("episode catalog: %w", err)
	}
	if description == "" {
		description = fmt.Sprintf("exported from episode %s (%d rows)", ep.ID, len(recs))
	}

	f, err := replay.NewFixture(description, cat, replay.FramesFromRecords(recs))
	if err != nil {
		return fmt.Errorf("build fixture: %w", err)
	}
	if err := f.Save(outPath); err != nil {
		return err
	}

	fmt.Printf("Exported %d frames (%d transitions) to %s\n", len(f.Frames), len(f.Expected.TokensPerTransition), outPath)
	return nil
}

// #endregion export
