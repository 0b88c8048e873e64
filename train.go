package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"evotac/experiments/metrics"
	"evotac/storage"
	"evotac/trainer"

	"github.com/rs/zerolog/log"
)

func runTrain(ctx context.Context, args []string) error {
	defaults := trainer.DefaultConfig()
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	population := fs.Int("population", envInt("EVOTAC_POPULATION", defaults.PopulationSize), "Number of agents")
	keep := fs.Float64("keep", envFloat("EVOTAC_FRACTION_KEPT", defaults.FractionKept), "Fraction of agents surviving each generation")
	generations := fs.Int("generations", envInt("EVOTAC_GENERATIONS", defaults.Generations), "Number of generations")
	subGenerations := fs.Int("sub-generations", envInt("EVOTAC_SUB_GENERATIONS", defaults.SubGenerations), "Rounds per generation")
	mutation := fs.Float64("mutation", envFloat("EVOTAC_MUTATION_RATE", defaults.MutationRate), "Probability of perturbing each parameter")
	workers := fs.Int("workers", envInt("EVOTAC_WORKERS", defaults.Workers), "Goroutines playing games")
	k := fs.Float64("k", envFloat("EVOTAC_ELO_K", defaults.EloK), "Elo K-factor")
	retries := fs.Int("retries", envInt("EVOTAC_MAX_RETRIES", defaults.MaxRetries), "Retries for a failing game")
	hidden := fs.Int("hidden", envInt("EVOTAC_HIDDEN_UNITS", defaults.HiddenUnits), "Hidden units of new brains")
	unmasked := fs.Bool("unmasked", envBool("EVOTAC_UNMASKED", defaults.Unmasked), "Let agents pick occupied cells")
	benchmarkEvery := fs.Int("benchmark-every", envInt("EVOTAC_BENCHMARK_EVERY", defaults.BenchmarkEvery), "Generations between benchmarks against MCTS (0 disables)")
	benchmarkGames := fs.Int("benchmark-games", envInt("EVOTAC_BENCHMARK_GAMES", defaults.BenchmarkGames), "Games per benchmark")
	benchmarkEpisodes := fs.Int("benchmark-episodes", envInt("EVOTAC_BENCHMARK_EPISODES", defaults.BenchmarkEpisodes), "MCTS episodes per benchmark move")
	seed := fs.Uint64("seed", envUint("EVOTAC_SEED", defaults.Seed), "Random seed")
	out := fs.String("out", envString("EVOTAC_OUT", ""), "Write the champion brain to this file")
	storeKind := fs.String("store", envString("EVOTAC_STORE", "memory"), "Checkpoint store (memory, sqlite)")
	dbPath := fs.String("db", envString("EVOTAC_DB", "evotac.db"), "SQLite database path")
	results := fs.String("results", envString("EVOTAC_RESULTS", ""), "Directory for generation CSV records")
	logLevel := logLevelFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := setupLogging(*logLevel); err != nil {
		return err
	}

	cfg := trainer.Config{
		PopulationSize:    *population,
		FractionKept:      *keep,
		Generations:       *generations,
		SubGenerations:    *subGenerations,
		MutationRate:      *mutation,
		Workers:           *workers,
		EloK:              *k,
		InitialElo:        defaults.InitialElo,
		MaxRetries:        *retries,
		HiddenUnits:       *hidden,
		Unmasked:          *unmasked,
		BenchmarkEvery:    *benchmarkEvery,
		BenchmarkGames:    *benchmarkGames,
		BenchmarkEpisodes: *benchmarkEpisodes,
		Seed:              *seed,
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("failed to open %s store: %w", *storeKind, err)
	}
	defer func() {
		if err := storage.CloseIfSupported(store); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}()

	options := []trainer.Option{trainer.WithStore(store)}
	if *results != "" {
		writer, err := metrics.NewWriter(*results, "train")
		if err != nil {
			return err
		}
		options = append(options, trainer.WithWriter(writer))
	}

	t, err := trainer.New(cfg, options...)
	if err != nil {
		return err
	}
	best, trainErr := t.Train(ctx)
	if best == nil {
		return trainErr
	}
	log.Info().Msgf("Champion %s with Elo %.1f (%+v)", best.ID(), best.Rating(), best.Stats())

	if *out != "" {
		data, err := best.Save()
		if err != nil {
			return fmt.Errorf("failed to serialize champion: %w", err)
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write champion: %w", err)
		}
		log.Info().Msgf("Champion brain written to %s", *out)
	}
	return trainErr
}
