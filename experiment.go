package main

import (
	"context"
	"flag"
	"fmt"

	"evotac/experiments"
	"evotac/experiments/metrics"
	"evotac/meta"
)

func runExperiment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("experiment", flag.ContinueOnError)
	name := fs.String("name", envString("EVOTAC_EXPERIMENT", "scaling"), "Experiment to run (scaling, search)")
	population := fs.Int("population", envInt("EVOTAC_POPULATION", meta.DEFAULT_POPULATION), "Agents per round (scaling)")
	rounds := fs.Int("rounds", envInt("EVOTAC_ROUNDS", 10), "Rounds per worker count (scaling)")
	workers := fs.String("workers", envString("EVOTAC_WORKER_COUNTS", "1,2,4,8"), "Worker counts to compare (scaling)")
	games := fs.Int("games", envInt("EVOTAC_GAMES", 20), "Games per goroutine count (search)")
	episodes := fs.Int("episodes", envInt("EVOTAC_MCTS_EPISODES", meta.MCTS_EPISODES), "MCTS episodes per move (search)")
	goroutines := fs.String("goroutines", envString("EVOTAC_GOROUTINE_COUNTS", "1,2,4,8"), "Goroutine counts to compare (search)")
	seed := fs.Uint64("seed", envUint("EVOTAC_SEED", 1), "Random seed")
	results := fs.String("results", envString("EVOTAC_RESULTS", "results"), "Directory for CSV records")
	logLevel := logLevelFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := setupLogging(*logLevel); err != nil {
		return err
	}

	switch *name {
	case "scaling":
		counts, err := parseInts(*workers)
		if err != nil {
			return err
		}
		writer, err := metrics.NewWriter(*results, "worker_scaling")
		if err != nil {
			return err
		}
		_, err = experiments.RunWorkerScaling(ctx, experiments.ScalingConfig{
			Population:  *population,
			Rounds:      *rounds,
			Workers:     counts,
			HiddenUnits: meta.HIDDEN_UNITS,
			Seed:        *seed,
		}, writer)
		return err
	case "search":
		counts, err := parseInts(*goroutines)
		if err != nil {
			return err
		}
		writer, err := metrics.NewWriter(*results, "search_parallelization")
		if err != nil {
			return err
		}
		_, err = experiments.RunSearchParallelization(ctx, experiments.SearchConfig{
			Games:      *games,
			Episodes:   *episodes,
			Goroutines: counts,
			Seed:       *seed,
		}, writer)
		return err
	default:
		return fmt.Errorf("unknown experiment %q", *name)
	}
}
