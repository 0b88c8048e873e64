package gamemaster

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"evotac/agent"
	"evotac/brain"
	"evotac/engine"
	"evotac/experiments/metrics"
	"evotac/game"
	"evotac/meta"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func newPopulation(n int, seed uint64) []*agent.Evolvable {
	rng := rand.New(rand.NewSource(seed))
	agents := make([]*agent.Evolvable, n)
	for i := range agents {
		agents[i] = agent.NewEvolvable(brain.New(rng, meta.HIDDEN_UNITS))
	}
	return agents
}

// panicBrain fails the first failures calls to Forward.
type panicBrain struct {
	failures atomic.Int32
	inner    agent.Brain
}

func (b *panicBrain) Forward(input []float64) []float64 {
	if b.failures.Add(-1) >= 0 {
		panic("broken brain")
	}
	return b.inner.Forward(input)
}

func (b *panicBrain) Mutate(rate float64, rng *rand.Rand) { b.inner.Mutate(rate, rng) }
func (b *panicBrain) Clone() agent.Brain                   { return b.inner.Clone() }
func (b *panicBrain) MarshalBinary() ([]byte, error)       { return b.inner.MarshalBinary() }

// gateBrain blocks every Forward call until the gate is closed.
type gateBrain struct {
	gate  chan struct{}
	inner agent.Brain
}

func (b *gateBrain) Forward(input []float64) []float64 {
	<-b.gate
	return b.inner.Forward(input)
}

func (b *gateBrain) Mutate(rate float64, rng *rand.Rand) { b.inner.Mutate(rate, rng) }
func (b *gateBrain) Clone() agent.Brain                   { return b.inner.Clone() }
func (b *gateBrain) MarshalBinary() ([]byte, error)       { return b.inner.MarshalBinary() }

func ratings(agents []*agent.Evolvable) []float64 {
	out := make([]float64, len(agents))
	for i, a := range agents {
		out[i] = a.Rating()
	}
	return out
}

func TestRunRound(t *testing.T) {
	t.Run("every agent finishes exactly once", func(t *testing.T) {
		agents := newPopulation(20, 1)
		s := NewScheduler(4)

		round, err := s.RunRound(context.Background(), agents)

		require.NoError(t, err)
		require.Len(t, round.Results, 10)
		seen := map[string]int{}
		for _, r := range round.Results {
			for _, p := range r.Players {
				seen[p.ID()]++
			}
		}
		require.Len(t, seen, 20)
		for id, n := range seen {
			require.Equal(t, 1, n, "Agent %s played more than once", id)
		}
		for _, a := range agents {
			require.Equal(t, 1, a.Stats().Games)
		}
	})

	t.Run("odd agent gets a bye", func(t *testing.T) {
		agents := newPopulation(5, 2)
		collector := metrics.NewCollector()
		s := NewScheduler(2, WithMetrics(collector))

		round, err := s.RunRound(context.Background(), agents)

		require.NoError(t, err)
		require.Len(t, round.Results, 3)
		byes := 0
		for _, r := range round.Results {
			if r.Bye {
				byes++
				require.Same(t, agents[4], r.Players[0], "The last queued agent should sit out")
				require.Nil(t, r.Players[1])
			}
		}
		require.Equal(t, 1, byes)
		require.Equal(t, 0, agents[4].Stats().Games)
		require.Equal(t, meta.DEFAULT_ELO, agents[4].Rating(), "A bye should not move the rating")
		require.Equal(t, 2, round.Metric.Games)
		require.Equal(t, 1, round.Metric.Byes)
	})

	t.Run("elo is applied once per game", func(t *testing.T) {
		agents := newPopulation(2, 3)
		s := NewScheduler(1, WithEloK(32))

		round, err := s.RunRound(context.Background(), agents)

		require.NoError(t, err)
		r := round.Results[0]
		if r.Tie {
			require.Equal(t, []float64{1000, 1000}, ratings(agents))
		} else {
			require.InDelta(t, 1016, r.Winner.Rating(), 1e-9)
			require.InDelta(t, 984, r.Loser.Rating(), 1e-9)
		}
		require.InDelta(t, 2000, agents[0].Rating()+agents[1].Rating(), 1e-9, "Ratings should be conserved")
	})

	t.Run("result does not depend on the worker count", func(t *testing.T) {
		var reference []float64
		for _, workers := range []int{1, 2, 8} {
			agents := newPopulation(16, 4)
			s := NewScheduler(workers)

			_, err := s.RunRound(context.Background(), agents)
			require.NoError(t, err)

			if reference == nil {
				reference = ratings(agents)
				continue
			}
			require.Equal(t, reference, ratings(agents), "Ratings with %d workers differ", workers)
		}
	})

	t.Run("more workers than pairs", func(t *testing.T) {
		agents := newPopulation(2, 5)
		s := NewScheduler(8)

		round, err := s.RunRound(context.Background(), agents)

		require.NoError(t, err)
		require.Len(t, round.Results, 1)
	})

	t.Run("rejects duplicate agents", func(t *testing.T) {
		agents := newPopulation(2, 6)
		s := NewScheduler(2)

		_, err := s.RunRound(context.Background(), append(agents, agents[0]))

		require.ErrorIs(t, err, ErrDuplicateAgent)
	})

	t.Run("empty round", func(t *testing.T) {
		round, err := NewScheduler(2).RunRound(context.Background(), nil)
		require.NoError(t, err)
		require.Empty(t, round.Results)
	})
}

func TestRunRoundFailures(t *testing.T) {
	t.Run("panicking game is retried", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		broken := &panicBrain{inner: brain.New(rng, meta.HIDDEN_UNITS)}
		broken.failures.Store(1)
		agents := []*agent.Evolvable{agent.NewEvolvable(broken), agent.NewEvolvable(brain.New(rng, meta.HIDDEN_UNITS))}
		collector := metrics.NewCollector()
		s := NewScheduler(1, WithMaxRetries(1), WithMetrics(collector))

		round, err := s.RunRound(context.Background(), agents)

		require.NoError(t, err)
		require.Len(t, round.Results, 1)
		require.Equal(t, 1, round.Metric.Retries)
		require.Equal(t, 1, round.Metric.Games)
	})

	t.Run("persistent failure aborts the round", func(t *testing.T) {
		rng := rand.New(rand.NewSource(8))
		broken := &panicBrain{inner: brain.New(rng, meta.HIDDEN_UNITS)}
		broken.failures.Store(100)
		agents := []*agent.Evolvable{agent.NewEvolvable(broken), agent.NewEvolvable(brain.New(rng, meta.HIDDEN_UNITS))}
		s := NewScheduler(2, WithMaxRetries(2))

		_, err := s.RunRound(context.Background(), agents)

		require.ErrorIs(t, err, ErrMatchFailed)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewScheduler(2).RunRound(ctx, newPopulation(4, 9))

		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestSchedulerLifecycle(t *testing.T) {
	t.Run("rounds reuse the same workers", func(t *testing.T) {
		agents := newPopulation(10, 10)
		s := NewScheduler(3)
		require.NoError(t, s.Start(context.Background()))
		defer s.Stop()

		for i := 0; i < 3; i++ {
			round, err := s.Round(context.Background(), agents)
			require.NoError(t, err)
			require.Len(t, round.Results, 5)
		}
		for _, a := range agents {
			require.Equal(t, 3, a.Stats().Games)
		}
	})

	t.Run("round before start", func(t *testing.T) {
		_, err := NewScheduler(1).Round(context.Background(), newPopulation(2, 11))
		require.ErrorIs(t, err, ErrNotRunning)
	})

	t.Run("start twice", func(t *testing.T) {
		s := NewScheduler(1)
		require.NoError(t, s.Start(context.Background()))
		require.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)
		require.NoError(t, s.Stop())
		require.ErrorIs(t, s.Start(context.Background()), ErrSchedulerStopped, "A stopped scheduler cannot restart")
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		s := NewScheduler(4)
		require.NoError(t, s.Stop(), "Stopping an unstarted scheduler is a no-op")
		require.NoError(t, s.Start(context.Background()))
		require.NoError(t, s.Stop())
		require.NoError(t, s.Stop())

		_, err := s.Round(context.Background(), newPopulation(2, 12))
		require.ErrorIs(t, err, ErrNotRunning)
	})

	t.Run("worker failure surfaces from the round", func(t *testing.T) {
		rng := rand.New(rand.NewSource(13))
		broken := &panicBrain{inner: brain.New(rng, meta.HIDDEN_UNITS)}
		broken.failures.Store(100)
		agents := []*agent.Evolvable{agent.NewEvolvable(broken), agent.NewEvolvable(brain.New(rng, meta.HIDDEN_UNITS))}
		s := NewScheduler(2, WithMaxRetries(0))
		require.NoError(t, s.Start(context.Background()))

		_, err := s.Round(context.Background(), agents)

		require.ErrorIs(t, err, ErrMatchFailed)
		_, err = s.Round(context.Background(), newPopulation(2, 14))
		require.ErrorIs(t, err, ErrNotRunning)
	})

	t.Run("cancelled round returns without waiting for games", func(t *testing.T) {
		rng := rand.New(rand.NewSource(15))
		gate := make(chan struct{})
		agents := make([]*agent.Evolvable, 8)
		for i := range agents {
			agents[i] = agent.NewEvolvable(&gateBrain{gate: gate, inner: brain.New(rng, meta.HIDDEN_UNITS)})
		}
		s := NewScheduler(2)
		require.NoError(t, s.Start(context.Background()))
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := s.Round(ctx, agents)

		require.ErrorIs(t, err, context.DeadlineExceeded)
		close(gate)
		require.NoError(t, s.Stop(), "Workers should exit once their games finish")
	})

	t.Run("stopping the parent context ends the pool", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		s := NewScheduler(4)
		require.NoError(t, s.Start(ctx))

		cancel()

		require.NoError(t, s.Stop())
		_, err := s.Round(context.Background(), newPopulation(2, 17))
		require.ErrorIs(t, err, ErrNotRunning)
	})
}

func TestSchedulerOptions(t *testing.T) {
	require.Panics(t, func() { NewScheduler(0) })

	s := NewScheduler(3, WithEloK(-1), WithMaxRetries(-2), WithMetrics(nil))

	require.Equal(t, 3, s.Workers())
	require.Equal(t, meta.DEFAULT_ELO_K, s.k, "Invalid options should keep defaults")
	require.Equal(t, meta.DEFAULT_MAX_RETRIES, s.maxRetries)
	require.NotNil(t, s.metrics)
}

func TestMatchResultSides(t *testing.T) {
	agents := newPopulation(2, 16)
	r := newMatchResult(agents[0], agents[1], engine.Result{Outcome: game.Player2Wins})

	require.Same(t, agents[1], r.Winner)
	require.Same(t, agents[0], r.Loser)
	require.False(t, r.Tie)
}
