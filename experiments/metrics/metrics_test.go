package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("counts concurrent events", func(t *testing.T) {
		c := NewCollector()
		c.Start(4)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 25; j++ {
					c.AddGame(j%5 == 0, j%25 == 0, 1)
				}
			}()
		}
		wg.Wait()
		c.AddBye()
		c.AddRetry()
		m := c.Complete()

		require.Equal(t, 4, m.Workers)
		require.Equal(t, 100, m.Games)
		require.Equal(t, 20, m.Ties)
		require.Equal(t, 80, m.Decisive())
		require.Equal(t, 4, m.Stalled)
		require.Equal(t, 100, m.IllegalMoves)
		require.Equal(t, 1, m.Byes)
		require.Equal(t, 1, m.Retries)
	})

	t.Run("start resets counters", func(t *testing.T) {
		c := NewCollector()
		c.Start(1)
		c.AddGame(true, false, 0)
		c.Start(2)

		require.Equal(t, 0, c.Complete().Games)
	})

	t.Run("dummy collector reports nothing", func(t *testing.T) {
		c := NewDummyCollector()
		c.Start(3)
		c.AddGame(false, false, 2)
		require.Equal(t, RoundMetric{}, c.Complete())
	})
}

func TestRoundMetricMerge(t *testing.T) {
	early := time.Now()
	a := RoundMetric{Workers: 2, Games: 5, Ties: 1, StartTime: early.Add(time.Second), Duration: time.Second}
	b := RoundMetric{Workers: 4, Games: 3, Byes: 1, StartTime: early, Duration: 2 * time.Second}

	m := RoundMetric{}.Merge(a).Merge(b)

	require.Equal(t, 8, m.Games)
	require.Equal(t, 4, m.Workers)
	require.Equal(t, 1, m.Byes)
	require.Equal(t, early, m.StartTime)
	require.Equal(t, 3*time.Second, m.Duration)
}

func TestWriter(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "run")
	require.NoError(t, err)

	err = w.WriteGenerationRecords([]GenerationRecord{
		{Generation: 0, BestID: "abc", BestElo: 1016, MeanElo: 1000, WorstElo: 984, Survivors: 2, BenchmarkScore: -1,
			RoundMetric: RoundMetric{Games: 2}},
	})
	require.NoError(t, err)
	err = w.WriteScalingRecords([]ScalingRecord{{Workers: 2, Games: 10, Duration: time.Second, GamesPerSecond: 10, SamePairing: true}})
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(w.Dir(), "generations.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2, "Header plus one record")
	require.Equal(t, "generation", rows[0][0])
	require.Equal(t, "abc", rows[1][1])
	require.Equal(t, "1016.000", rows[1][2])

	require.FileExists(t, filepath.Join(w.Dir(), "worker_scaling.csv"))

	err = w.WriteSearchRecords([]SearchRecord{{Goroutines: 4, Episodes: 100, Games: 2, Wins: 1, Ties: 1}})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(w.Dir(), "search_parallelization.csv"))
}
