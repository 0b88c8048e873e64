package experiments

import (
	"context"
	"path/filepath"
	"testing"

	"evotac/experiments/metrics"

	"github.com/stretchr/testify/require"
)

func TestRunWorkerScaling(t *testing.T) {
	t.Run("pairings do not depend on the worker count", func(t *testing.T) {
		writer, err := metrics.NewWriter(t.TempDir(), "scaling")
		require.NoError(t, err)
		cfg := ScalingConfig{Population: 17, Rounds: 3, Workers: []int{1, 2, 8}, HiddenUnits: 4, Seed: 7}

		records, err := RunWorkerScaling(context.Background(), cfg, writer)

		require.NoError(t, err)
		require.Len(t, records, 3)
		for _, r := range records {
			require.True(t, r.SamePairing, "%d workers should reproduce the reference run", r.Workers)
			require.Equal(t, 3*8, r.Games, "Eight games per round, one agent sits out")
		}
		require.FileExists(t, filepath.Join(writer.Dir(), "worker_scaling.csv"))
	})

	t.Run("rejects an empty experiment", func(t *testing.T) {
		_, err := RunWorkerScaling(context.Background(), ScalingConfig{Population: 4, Rounds: 1}, nil)
		require.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := RunWorkerScaling(ctx, ScalingConfig{Population: 4, Rounds: 1, Workers: []int{2}}, nil)

		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestPairingsOfAreCanonical(t *testing.T) {
	a := &scalingRun{pairings: [][]pairing{{{0, 1}, {2, -1}}}, ratings: []float64{1, 2, 3}}
	b := &scalingRun{pairings: [][]pairing{{{0, 1}, {2, -1}}}, ratings: []float64{1, 2, 3}}
	c := &scalingRun{pairings: [][]pairing{{{0, 2}, {1, -1}}}, ratings: []float64{1, 2, 3}}

	require.True(t, samePairings(a, b))
	require.False(t, samePairings(a, c))
}

func TestRunSearchParallelization(t *testing.T) {
	cfg := SearchConfig{Games: 2, Episodes: 50, Goroutines: []int{1, 2}, Seed: 3}

	records, err := RunSearchParallelization(context.Background(), cfg, nil)

	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		require.Equal(t, 2, r.Games)
		require.Equal(t, r.Games, r.Wins+r.Ties+r.Losses)
	}
}
