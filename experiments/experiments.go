package experiments

import (
	"context"
	"fmt"
	"slices"
	"time"

	"evotac/agent"
	"evotac/brain"
	"evotac/engine"
	"evotac/experiments/metrics"
	"evotac/game"
	"evotac/gamemaster"
	"evotac/searcher"
	mctsagent "evotac/searcher/agent"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// ScalingConfig describes a worker-scaling run. Every worker count plays the
// same rounds on identically seeded populations.
type ScalingConfig struct {
	Population  int
	Rounds      int
	Workers     []int
	HiddenUnits int
	Seed        uint64
}

type pairing [2]int

// scalingRun is what one worker count produced: the pairings it played and
// the final ratings, both indexed by founder position.
type scalingRun struct {
	pairings [][]pairing
	ratings  []float64
}

// RunWorkerScaling plays cfg.Rounds rounds for each worker count, checks that
// every count produced the same pairings and ratings as the first one and
// records the throughput.
func RunWorkerScaling(ctx context.Context, cfg ScalingConfig, writer *metrics.Writer) ([]metrics.ScalingRecord, error) {
	if cfg.Population < 2 || cfg.Rounds < 1 || len(cfg.Workers) == 0 {
		return nil, fmt.Errorf("worker scaling needs at least 2 agents, 1 round and 1 worker count, got %+v", cfg)
	}

	log.Info().Msgf("starting worker scaling experiment with %d agents over %d rounds", cfg.Population, cfg.Rounds)
	records := make([]metrics.ScalingRecord, 0, len(cfg.Workers))
	var reference *scalingRun
	for _, workers := range cfg.Workers {
		run, metric, err := runScaling(ctx, cfg, workers)
		if err != nil {
			return records, fmt.Errorf("%d workers: %w", workers, err)
		}
		if reference == nil {
			reference = run
		}
		same := samePairings(reference, run)
		if !same {
			log.Warn().Msgf("%d workers produced different pairings or ratings", workers)
		}

		record := metrics.ScalingRecord{
			Workers:        workers,
			Games:          metric.Games,
			Duration:       metric.Duration,
			GamesPerSecond: float64(metric.Games) / max(metric.Duration.Seconds(), 1e-9),
			SamePairing:    same,
		}
		records = append(records, record)
		log.Info().Msgf("completed %d workers: %d games in %v (%.0f games/s)", workers, record.Games, record.Duration, record.GamesPerSecond)
	}

	if writer != nil {
		if err := writer.WriteScalingRecords(records); err != nil {
			return records, fmt.Errorf("failed to write scaling records: %w", err)
		}
		log.Info().Msgf("stored scaling records in %s", writer.Dir())
	}
	return records, nil
}

func runScaling(ctx context.Context, cfg ScalingConfig, workers int) (*scalingRun, metrics.RoundMetric, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	hidden := max(1, cfg.HiddenUnits)
	agents := make([]*agent.Evolvable, cfg.Population)
	index := make(map[*agent.Evolvable]int, cfg.Population)
	for i := range agents {
		agents[i] = agent.NewEvolvable(brain.New(rng, hidden))
		index[agents[i]] = i
	}

	scheduler := gamemaster.NewScheduler(workers, gamemaster.WithMetrics(metrics.NewCollector()))
	if err := scheduler.Start(ctx); err != nil {
		return nil, metrics.RoundMetric{}, err
	}
	defer scheduler.Stop()

	run := &scalingRun{}
	var total metrics.RoundMetric
	order := slices.Clone(agents)
	for r := 0; r < cfg.Rounds; r++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		round, err := scheduler.Round(ctx, order)
		if err != nil {
			return nil, total, err
		}
		total = total.Merge(round.Metric)
		run.pairings = append(run.pairings, pairingsOf(round.Results, index))
	}

	run.ratings = make([]float64, len(agents))
	for i, a := range agents {
		run.ratings[i] = a.Rating()
	}
	return run, total, nil
}

// pairingsOf returns the pairs of a round in a canonical order, since workers
// finish games in any order. A bye pairs an agent with -1.
func pairingsOf(results []gamemaster.MatchResult, index map[*agent.Evolvable]int) []pairing {
	pairs := make([]pairing, 0, len(results))
	for _, r := range results {
		p := pairing{index[r.Players[0]], -1}
		if !r.Bye {
			p[1] = index[r.Players[1]]
		}
		pairs = append(pairs, p)
	}
	slices.SortFunc(pairs, func(a, b pairing) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})
	return pairs
}

func samePairings(a, b *scalingRun) bool {
	if len(a.pairings) != len(b.pairings) || !slices.Equal(a.ratings, b.ratings) {
		return false
	}
	for i := range a.pairings {
		if !slices.Equal(a.pairings[i], b.pairings[i]) {
			return false
		}
	}
	return true
}

// SearchConfig describes a search parallelization run: MCTS agents with more
// goroutines play against a single goroutine baseline with the same budget.
type SearchConfig struct {
	Games      int
	Episodes   int
	Goroutines []int
	Seed       uint64
}

// RunSearchParallelization measures how goroutines change MCTS strength at a
// fixed episode budget. Sides alternate every game.
func RunSearchParallelization(ctx context.Context, cfg SearchConfig, writer *metrics.Writer) ([]metrics.SearchRecord, error) {
	if cfg.Games < 1 || cfg.Episodes < 1 || len(cfg.Goroutines) == 0 {
		return nil, fmt.Errorf("search parallelization needs games, episodes and goroutine counts, got %+v", cfg)
	}

	log.Info().Msgf("starting search parallelization experiment with %d episodes per move", cfg.Episodes)
	records := make([]metrics.SearchRecord, 0, len(cfg.Goroutines))
	for _, goroutines := range cfg.Goroutines {
		record := metrics.SearchRecord{Goroutines: goroutines, Episodes: cfg.Episodes}
		start := time.Now()
		for i := 0; i < cfg.Games; i++ {
			if err := ctx.Err(); err != nil {
				return records, err
			}
			seed := cfg.Seed + uint64(i)
			candidate := mctsagent.NewEvaluationAgent(searcher.NewMCTS(goroutines, searcher.WithEpisodes(cfg.Episodes), searcher.WithSeed(seed)))
			baseline := mctsagent.NewEvaluationAgent(searcher.NewMCTS(1, searcher.WithEpisodes(cfg.Episodes), searcher.WithSeed(seed)))

			self := game.Player1
			var r engine.Result
			if i%2 == 0 {
				r = engine.Play(candidate, baseline)
			} else {
				r = engine.Play(baseline, candidate)
				self = game.Player2
			}
			record.Games++
			switch r.Outcome.Winner() {
			case game.None:
				record.Ties++
			case self:
				record.Wins++
			default:
				record.Losses++
			}
		}
		record.Duration = time.Since(start)
		records = append(records, record)
		log.Info().Msgf("completed %d goroutines: %d wins, %d ties, %d losses", goroutines, record.Wins, record.Ties, record.Losses)
	}

	if writer != nil {
		if err := writer.WriteSearchRecords(records); err != nil {
			return records, fmt.Errorf("failed to write search records: %w", err)
		}
		log.Info().Msgf("stored search records in %s", writer.Dir())
	}
	return records, nil
}
