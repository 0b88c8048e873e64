package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// GenerationRecord is one row of a training run.
type GenerationRecord struct {
	Generation int
	BestID     string
	BestElo    float64
	MeanElo    float64
	WorstElo   float64
	Survivors  int
	// BenchmarkScore is the champion's score against the baseline in [0,1],
	// or negative when no benchmark ran this generation.
	BenchmarkScore float64
	Duration       time.Duration
	RoundMetric
}

// ScalingRecord is one row of the worker-scaling experiment.
type ScalingRecord struct {
	Workers        int
	Games          int
	Duration       time.Duration
	GamesPerSecond float64
	SamePairing    bool
}

// SearchRecord is one row of the search parallelization experiment, seen
// from the multi-goroutine agent.
type SearchRecord struct {
	Goroutines int
	Episodes   int
	Games      int
	Wins       int
	Ties       int
	Losses     int
	Duration   time.Duration
}

type Writer struct {
	baseDir string
}

// NewWriter creates <root>/<name>/<timestamp> and writes files into it.
func NewWriter(root, name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteGenerationRecords(records []GenerationRecord) error {
	header := []string{"generation", "best_id", "best_elo", "mean_elo", "worst_elo", "survivors",
		"benchmark_score", "duration", "games", "ties", "stalled", "illegal_moves", "byes", "retries"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Generation),
			record.BestID,
			formatFloat(record.BestElo),
			formatFloat(record.MeanElo),
			formatFloat(record.WorstElo),
			strconv.Itoa(record.Survivors),
			formatFloat(record.BenchmarkScore),
			record.Duration.String(),
			strconv.Itoa(record.Games),
			strconv.Itoa(record.Ties),
			strconv.Itoa(record.Stalled),
			strconv.Itoa(record.IllegalMoves),
			strconv.Itoa(record.Byes),
			strconv.Itoa(record.Retries),
		})
	}
	return w.write("generations.csv", header, rows)
}

func (w *Writer) WriteScalingRecords(records []ScalingRecord) error {
	header := []string{"workers", "games", "duration", "games_per_second", "same_pairing"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Workers),
			strconv.Itoa(record.Games),
			record.Duration.String(),
			formatFloat(record.GamesPerSecond),
			strconv.FormatBool(record.SamePairing),
		})
	}
	return w.write("worker_scaling.csv", header, rows)
}

func (w *Writer) WriteSearchRecords(records []SearchRecord) error {
	header := []string{"goroutines", "episodes", "games", "wins", "ties", "losses", "duration"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Goroutines),
			strconv.Itoa(record.Episodes),
			strconv.Itoa(record.Games),
			strconv.Itoa(record.Wins),
			strconv.Itoa(record.Ties),
			strconv.Itoa(record.Losses),
			record.Duration.String(),
		})
	}
	return w.write("search_parallelization.csv", header, rows)
}

func (w *Writer) write(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	for _, row := range rows {
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write %s row: %w", name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
