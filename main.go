package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"evotac/searcher"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: evotac <command> [flags]

commands:
  train        evolve a population through self-play
  play         play against a trained brain or MCTS
  experiment   run the scaling experiments

Flags default to EVOTAC_* environment variables, also read from a .env file.
Run "evotac <command> -h" for the flags of a command.
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "train":
		err = runTrain(ctx, os.Args[2:])
	case "play":
		err = runPlay(ctx, os.Args[2:])
	case "experiment":
		err = runExperiment(ctx, os.Args[2:])
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Error().Err(err).Msgf("%s failed", os.Args[1])
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(l)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	return nil
}

func logLevelFlag(fs *flag.FlagSet) *string {
	return fs.String("log-level", envString("EVOTAC_LOG_LEVEL", "info"), "Log level (trace, debug, info, warn, error)")
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(envString(key, "")); err == nil {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	if v, err := strconv.ParseUint(envString(key, ""), 10, 64); err == nil {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(envString(key, ""), 64); err == nil {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(envString(key, "")); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(envString(key, "")); err == nil {
		return v
	}
	return fallback
}

// parseInts reads a comma separated list such as "1,2,4,8".
func parseInts(list string) ([]int, error) {
	var out []int
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q in %q", field, list)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list %q", list)
	}
	return out, nil
}

type mctsConfig struct {
	goroutines int
	episodes   int
	duration   time.Duration
	seed       uint64
}

func createMCTS(config mctsConfig) *searcher.MCTS {
	options := []searcher.Option{searcher.WithSeed(config.seed)}

	if config.episodes > 0 {
		options = append(options, searcher.WithEpisodes(config.episodes))
	}
	if config.duration > 0 {
		options = append(options, searcher.WithDuration(config.duration))
	}

	return searcher.NewMCTS(max(1, config.goroutines), options...)
}
