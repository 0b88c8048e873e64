package trainer

import (
	"evotac/agent"
	"evotac/engine"
	"evotac/game"
	"evotac/searcher"
	mctsagent "evotac/searcher/agent"

	"github.com/rs/zerolog/log"
)

// OpponentFactory builds the fixed opponent the champion is measured against.
type OpponentFactory func(seed uint64) agent.Agent

func mctsOpponent(episodes int) OpponentFactory {
	return func(seed uint64) agent.Agent {
		mcts := searcher.NewMCTS(1, searcher.WithEpisodes(max(1, episodes)), searcher.WithSeed(seed))
		return mctsagent.NewSamplingAgent(mcts, 1.0, seed)
	}
}

func (t *Trainer) benchmarkDue(generation int) bool {
	if t.cfg.BenchmarkEvery <= 0 {
		return false
	}
	return (generation+1)%t.cfg.BenchmarkEvery == 0 || generation+1 == t.cfg.Generations
}

func (t *Trainer) benchmark(champion *agent.Evolvable, generation int) float64 {
	score := Benchmark(champion, t.opponent(t.cfg.Seed+uint64(generation)), t.cfg.BenchmarkGames)
	log.Debug().Msgf("Generation %d: champion %s scored %.3f against the baseline", generation, champion.ID(), score)
	return score
}

// Benchmark plays games between a clone of the champion and the opponent,
// alternating who moves first, and returns the champion's score in [0,1]
// with a tie worth half a win.
func Benchmark(champion *agent.Evolvable, opponent agent.Agent, games int) float64 {
	if games <= 0 {
		return 0
	}
	player := champion.Clone()
	points := 0.0
	for i := 0; i < games; i++ {
		var r engine.Result
		self := game.Player1
		if i%2 == 0 {
			r = engine.Play(player, opponent)
		} else {
			r = engine.Play(opponent, player)
			self = game.Player2
		}
		switch r.Outcome.Winner() {
		case self:
			points++
		case game.None:
			points += 0.5
		}
	}
	return points / float64(games)
}
