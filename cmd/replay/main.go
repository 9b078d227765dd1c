package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/recorder"
	"github.com/danielpatrickdp/ngl-gym/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to a recorder database (DB mode)")
	episode := flag.String("episode", "", "episode ID to convert (DB mode, default: latest)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	verbose := flag.Bool("v", false, "print token names per transition")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/nglenv.db [--episode id]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, *verbose)
	} else {
		exitCode = runDBMode(*dbPath, *episode, *verbose)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

func runDBMode(dbPath, episodeID string, verbose bool) int {
	store, err := recorder.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	var ep recorder.Episode
	if episodeID != "" {
		ep, err = store.GetEpisode(episodeID)
	} else {
		var eps []recorder.Episode
		eps, err = store.ListEpisodes(1)
		if err == nil && len(eps) == 0 {
			err = fmt.Errorf("no episodes recorded")
		}
		if err == nil {
			ep = eps[0]
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "find episode: %v\n", err)
		return 2
	}

	recs, err := store.Transitions(ep.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load transitions: %v\n", err)
		return 2
	}
	cat, err := ep.BuildCatalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "episode catalog: %v\n", err)
		return 2
	}

	f := &replay.Fixture{Catalog: ep.Catalog, Frames: replay.FramesFromRecords(recs)}
	frames, err := f.ToFrames()
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse frames: %v\n", err)
		return 2
	}
	transitions, err := replay.Convert(cat, frames, replay.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "convert: %v\n", err)
		return 1
	}

	fmt.Printf("Episode %s (%s, %d steps)\n\n", ep.ID, ep.Catalog, ep.Steps)
	printTransitions(cat, transitions, nil, verbose)
	return 0
}

// #endregion db-mode

// #region fixture-mode

func runFixtureMode(path string, verbose bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	cat, err := f.BuildCatalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture catalog: %v\n", err)
		return 2
	}
	frames, err := f.ToFrames()
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse frames: %v\n", err)
		return 2
	}

	transitions, err := replay.Convert(cat, frames, replay.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "convert: %v\n", err)
		return 1
	}

	if f.Description != "" {
		fmt.Printf("%s\n\n", f.Description)
	}
	printTransitions(cat, transitions, f.Expected.TokensPerTransition, verbose)

	diffs := f.Check(transitions)
	for _, d := range diffs {
		fmt.Printf("DIFF %s\n", d)
	}
	if len(diffs) > 0 {
		return 1
	}
	return 0
}

// #endregion fixture-mode

// #region output

// printTransitions outputs a per-transition table and the summary. expected may
// be nil.
func printTransitions(cat *catalog.Catalog, transitions []replay.Transition, expected []int, verbose bool) {
	fmt.Printf("%-6s| %-8s| %-8s| %-10s| %s\n", "Trans", "Expected", "Tokens", "Residual", "Match")
	fmt.Printf("%-6s+%-9s+%-9s+%-11s+%s\n", "------", "---------", "---------", "-----------", "------")

	for i, tr := range transitions {
		exp, match := "-", "-"
		if i < len(expected) {
			exp = fmt.Sprint(expected[i])
			match = "DIFF"
			if expected[i] == len(tr.Tokens) {
				match = "OK"
			}
		}
		fmt.Printf("%-6d| %-8s| %-8d| %-10.4f| %s\n", tr.Index, exp, len(tr.Tokens), tr.Residual, match)
		if verbose {
			for _, name := range replay.Names(cat, tr.Tokens) {
				fmt.Printf("        %s\n", name)
			}
		}
	}

	sum := replay.Summarize(transitions)
	fmt.Printf("\nSummary: %d transitions, %d tokens, residual %.4f\n", sum.Transitions, sum.Tokens, sum.Residual)
	groups := make([]string, 0, len(sum.Counts))
	for g := range sum.Counts {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		fmt.Printf("  %-20s %d\n", g, sum.Counts[g])
	}
}

// #endregion output
