package trainer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"evotac/agent"
	"evotac/brain"
	"evotac/experiments/metrics"
	"evotac/gamemaster"
	"evotac/storage"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// BrainFactory creates a fresh brain for a founder.
type BrainFactory func(rng *rand.Rand) agent.Brain

type Option func(t *Trainer)

func WithBrainFactory(factory BrainFactory) Option {
	return func(t *Trainer) {
		if factory != nil {
			t.newBrain = factory
		}
	}
}

// WithPopulation starts training from existing agents instead of founders.
// The population must have exactly PopulationSize agents.
func WithPopulation(p Population) Option {
	return func(t *Trainer) {
		t.population = p
	}
}

// WithStore checkpoints the champion of every generation. The store must
// already be initialized.
func WithStore(store storage.Store) Option {
	return func(t *Trainer) {
		t.store = store
	}
}

func WithWriter(writer *metrics.Writer) Option {
	return func(t *Trainer) {
		t.writer = writer
	}
}

// WithBenchmark replaces the MCTS benchmark opponent.
func WithBenchmark(opponent OpponentFactory) Option {
	return func(t *Trainer) {
		if opponent != nil {
			t.opponent = opponent
		}
	}
}

// Trainer evolves a population through self-play.
type Trainer struct {
	cfg        Config
	rng        *rand.Rand
	newBrain   BrainFactory
	population Population
	scheduler  *gamemaster.Scheduler
	collector  metrics.Collector
	store      storage.Store
	writer     *metrics.Writer
	opponent   OpponentFactory
	// persistent is set while Train keeps the worker pool alive.
	persistent bool
	records    []metrics.GenerationRecord
}

func New(cfg Config, options ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Trainer{ // Default values
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		newBrain: func(rng *rand.Rand) agent.Brain {
			return brain.New(rng, cfg.HiddenUnits)
		},
		collector: metrics.NewCollector(),
		opponent:  mctsOpponent(cfg.BenchmarkEpisodes),
	}
	for _, option := range options {
		option(t)
	}

	if t.population == nil {
		t.population = NewPopulation(cfg.PopulationSize, func() agent.Brain {
			return t.newBrain(t.rng)
		}, t.agentOptions()...)
	}
	if len(t.population) != cfg.PopulationSize {
		return nil, &ConfigError{
			Field:  "PopulationSize",
			Reason: fmt.Sprintf("is %d but the initial population has %d agents", cfg.PopulationSize, len(t.population)),
		}
	}

	t.scheduler = gamemaster.NewScheduler(cfg.Workers,
		gamemaster.WithEloK(cfg.EloK),
		gamemaster.WithMaxRetries(cfg.MaxRetries),
		gamemaster.WithMetrics(t.collector),
	)
	return t, nil
}

func (t *Trainer) agentOptions() []agent.Option {
	options := []agent.Option{agent.WithInitialElo(t.cfg.InitialElo)}
	if t.cfg.Unmasked {
		options = append(options, agent.WithUnmasked())
	}
	return options
}

func (t *Trainer) Config() Config {
	return t.cfg
}

// Population is the current population, in the order of the last ranking.
func (t *Trainer) Population() Population {
	return t.population
}

// Records returns one record per finished generation.
func (t *Trainer) Records() []metrics.GenerationRecord {
	return t.records
}

// RunGeneration plays SubGenerations rounds, reshuffling the pairing before
// each one, and returns the population ranked by rating.
func (t *Trainer) RunGeneration(ctx context.Context, pop Population) (Population, metrics.RoundMetric, error) {
	var total metrics.RoundMetric
	for sub := 0; sub < t.cfg.SubGenerations; sub++ {
		round, err := t.round(ctx, pop.Shuffle(t.rng))
		if err != nil {
			return nil, total, fmt.Errorf("round %d: %w", sub, err)
		}
		total = total.Merge(round.Metric)
	}
	return pop.Rank(), total, nil
}

func (t *Trainer) round(ctx context.Context, agents []*agent.Evolvable) (gamemaster.RoundResult, error) {
	if t.persistent {
		return t.scheduler.Round(ctx, agents)
	}
	return t.scheduler.RunRound(ctx, agents)
}

// Train runs every generation and returns the highest rated agent. If ctx ends
// or a worker fails, the workers are stopped and the best agent of the last
// finished generation is returned with the error.
func (t *Trainer) Train(ctx context.Context) (best *agent.Evolvable, err error) {
	if err := t.scheduler.Start(ctx); err != nil {
		return nil, err
	}
	t.persistent = true
	defer func() {
		t.persistent = false
		if stopErr := t.scheduler.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
		if writeErr := t.writeRecords(); writeErr != nil {
			err = errors.Join(err, writeErr)
		}
	}()

	log.Info().Msgf("Training %d agents for %d generations on %d workers", t.cfg.PopulationSize, t.cfg.Generations, t.cfg.Workers)
	pop := t.population
	best = pop.Best()
	for generation := 0; generation < t.cfg.Generations; generation++ {
		start := time.Now()
		ranked, metric, err := t.RunGeneration(ctx, pop)
		if err != nil {
			log.Warn().Err(err).Msgf("Stopping training in generation %d", generation)
			return best, fmt.Errorf("generation %d: %w", generation, err)
		}
		best = ranked[0]

		record := t.record(generation, ranked, metric)
		if t.benchmarkDue(generation) {
			record.BenchmarkScore = t.benchmark(best, generation)
		}
		if err := t.checkpoint(ctx, best, generation); err != nil {
			t.population = ranked
			return best, err
		}

		pop = ranked.Truncate(t.cfg.FractionKept).Replenish(t.cfg.PopulationSize, t.cfg.MutationRate, t.rng)
		t.population = pop
		record.Duration = time.Since(start)
		t.records = append(t.records, record)
		t.logGeneration(record)
	}
	return best, nil
}

func (t *Trainer) record(generation int, ranked Population, metric metrics.RoundMetric) metrics.GenerationRecord {
	bestElo, meanElo, worstElo := ranked.Ratings()
	return metrics.GenerationRecord{
		Generation:     generation,
		BestID:         ranked[0].ID(),
		BestElo:        bestElo,
		MeanElo:        meanElo,
		WorstElo:       worstElo,
		Survivors:      t.cfg.Survivors(),
		BenchmarkScore: -1,
		RoundMetric:    metric,
	}
}

func (t *Trainer) logGeneration(r metrics.GenerationRecord) {
	event := log.Info().
		Int("generation", r.Generation).
		Str("best", r.BestID).
		Float64("best_elo", r.BestElo).
		Float64("mean_elo", r.MeanElo).
		Float64("worst_elo", r.WorstElo).
		Int("games", r.Games).
		Int("decisive", r.Decisive()).
		Int("illegal_moves", r.IllegalMoves).
		Dur("duration", r.Duration)
	if r.BenchmarkScore >= 0 {
		event = event.Float64("benchmark", r.BenchmarkScore)
	}
	event.Msg("Generation complete")
}

func (t *Trainer) checkpoint(ctx context.Context, best *agent.Evolvable, generation int) error {
	if t.store == nil {
		return nil
	}
	payload, err := best.Save()
	if err != nil {
		return fmt.Errorf("failed to serialize champion: %w", err)
	}
	err = t.store.SaveBrain(ctx, storage.BrainRecord{
		ID:         best.ID(),
		ParentID:   best.ParentID(),
		Generation: generation,
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to checkpoint generation %d: %w", generation, err)
	}
	return nil
}

func (t *Trainer) writeRecords() error {
	if t.writer == nil || len(t.records) == 0 {
		return nil
	}
	if err := t.writer.WriteGenerationRecords(t.records); err != nil {
		return err
	}
	log.Info().Msgf("Generation records written to %s", t.writer.Dir())
	return nil
}
