package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"evotac/agent"
	"evotac/brain"
	"evotac/engine"
	"evotac/meta"
	"evotac/player"
	mctsagent "evotac/searcher/agent"
	"evotac/storage"

	"github.com/rs/zerolog/log"
)

func runPlay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	brainPath := fs.String("brain", envString("EVOTAC_BRAIN", ""), "Play against the brain in this file")
	storeKind := fs.String("store", envString("EVOTAC_STORE", ""), "Play against the latest champion of this store (sqlite)")
	dbPath := fs.String("db", envString("EVOTAC_DB", "evotac.db"), "SQLite database path")
	goroutines := fs.Int("goroutines", envInt("EVOTAC_MCTS_GOROUTINES", 2), "MCTS goroutines when no brain is given")
	episodes := fs.Int("episodes", envInt("EVOTAC_MCTS_EPISODES", meta.MCTS_EPISODES), "MCTS episodes per move")
	duration := fs.Duration("duration", envDuration("EVOTAC_MCTS_DURATION", 0), "MCTS time per move, instead of episodes")
	second := fs.Bool("second", false, "Let the opponent move first")
	logLevel := logLevelFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := setupLogging(*logLevel); err != nil {
		return err
	}

	opponent, err := loadOpponent(ctx, *brainPath, *storeKind, *dbPath, mctsConfig{
		goroutines: *goroutines,
		episodes:   *episodes,
		duration:   *duration,
		seed:       uint64(time.Now().UnixNano()),
	})
	if err != nil {
		return err
	}

	human := player.NewHuman(os.Stdin, os.Stdout)
	var r engine.Result
	if *second {
		r = engine.Play(opponent, human)
	} else {
		r = engine.Play(human, opponent)
	}
	fmt.Println(human.Render(r.Board))
	log.Debug().Msgf("game over after %d turns: %v", r.Turns, r.Outcome)
	return nil
}

func loadOpponent(ctx context.Context, brainPath, storeKind, dbPath string, mcts mctsConfig) (agent.Agent, error) {
	switch {
	case brainPath != "":
		data, err := os.ReadFile(brainPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read brain: %w", err)
		}
		log.Info().Msgf("Playing against %s", brainPath)
		return agent.Load(data, brain.Decode)
	case storeKind != "":
		return loadChampion(ctx, storeKind, dbPath)
	default:
		if mcts.duration <= 0 && mcts.episodes <= 0 {
			return nil, errors.New("MCTS needs episodes or a duration")
		}
		log.Info().Msgf("Playing against MCTS with %d goroutines", mcts.goroutines)
		return mctsagent.NewEvaluationAgent(createMCTS(mcts)), nil
	}
}

func loadChampion(ctx context.Context, storeKind, dbPath string) (agent.Agent, error) {
	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", storeKind, err)
	}
	defer storage.CloseIfSupported(store)

	record, ok, err := store.LatestBrain(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s store at %s has no champion", storeKind, dbPath)
	}
	log.Info().Msgf("Playing against champion %s of generation %d", record.ID, record.Generation)
	return agent.Load(record.Payload, brain.Decode)
}
