package trainer

import (
	"fmt"
	"math"

	"evotac/meta"
)

// Config holds every training hyperparameter.
type Config struct {
	PopulationSize int
	// FractionKept is the share of the ranked population that survives a
	// generation.
	FractionKept   float64
	Generations    int
	SubGenerations int
	MutationRate   float64
	Workers        int
	EloK           float64
	InitialElo     float64
	MaxRetries     int
	HiddenUnits    int
	// Unmasked agents may pick occupied cells and get penalized for it.
	Unmasked bool

	BenchmarkEvery    int
	BenchmarkGames    int
	BenchmarkEpisodes int

	Seed uint64
}

func DefaultConfig() Config {
	return Config{
		PopulationSize:    meta.DEFAULT_POPULATION,
		FractionKept:      meta.DEFAULT_FRACTION_KEPT,
		Generations:       meta.DEFAULT_GENERATIONS,
		SubGenerations:    meta.DEFAULT_SUB_GENERATIONS,
		MutationRate:      meta.DEFAULT_MUTATION_RATE,
		Workers:           meta.DEFAULT_WORKERS,
		EloK:              meta.DEFAULT_ELO_K,
		InitialElo:        meta.DEFAULT_ELO,
		MaxRetries:        meta.DEFAULT_MAX_RETRIES,
		HiddenUnits:       meta.HIDDEN_UNITS,
		BenchmarkEvery:    meta.DEFAULT_BENCHMARK_EVERY,
		BenchmarkGames:    meta.DEFAULT_BENCHMARK_GAMES,
		BenchmarkEpisodes: meta.MCTS_EPISODES,
		Seed:              1,
	}
}

// ConfigError reports the first invalid field of a Config.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Survivors is the number of agents kept after truncation.
func (c Config) Survivors() int {
	return int(math.Floor(c.FractionKept * float64(c.PopulationSize)))
}

func (c Config) Validate() error {
	switch {
	case c.PopulationSize <= 0:
		return invalid("PopulationSize", "must be positive, got %d", c.PopulationSize)
	case c.FractionKept <= 0 || c.FractionKept > 1 || math.IsNaN(c.FractionKept):
		return invalid("FractionKept", "must be in (0, 1], got %v", c.FractionKept)
	case c.Survivors() < 1:
		return invalid("FractionKept", "keeps no agent of %d", c.PopulationSize)
	case c.Generations < 0:
		return invalid("Generations", "must not be negative, got %d", c.Generations)
	case c.SubGenerations < 1:
		return invalid("SubGenerations", "must be at least 1, got %d", c.SubGenerations)
	case c.MutationRate < 0 || c.MutationRate > 1 || math.IsNaN(c.MutationRate):
		return invalid("MutationRate", "must be in [0, 1], got %v", c.MutationRate)
	case c.Workers < 1:
		return invalid("Workers", "must be at least 1, got %d", c.Workers)
	case c.EloK <= 0:
		return invalid("EloK", "must be positive, got %v", c.EloK)
	case c.MaxRetries < 0:
		return invalid("MaxRetries", "must not be negative, got %d", c.MaxRetries)
	case c.HiddenUnits < 1:
		return invalid("HiddenUnits", "must be at least 1, got %d", c.HiddenUnits)
	case c.BenchmarkEvery < 0:
		return invalid("BenchmarkEvery", "must not be negative, got %d", c.BenchmarkEvery)
	case c.BenchmarkEvery > 0 && c.BenchmarkGames < 1:
		return invalid("BenchmarkGames", "must be at least 1 when benchmarking, got %d", c.BenchmarkGames)
	case c.BenchmarkEvery > 0 && c.BenchmarkEpisodes < 1:
		return invalid("BenchmarkEpisodes", "must be at least 1 when benchmarking, got %d", c.BenchmarkEpisodes)
	}
	return nil
}
