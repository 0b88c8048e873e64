package agent

import (
	"math"
	"sync"

	evo "evotac/agent"
	"evotac/game"
	"evotac/searcher"

	"golang.org/x/exp/rand"
)

type samplingAgent struct {
	mcts        searcher.Searcher
	temperature float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSamplingAgent returns an agent that samples moves in proportion to
// visits^(1/temperature). A temperature of zero or less plays the most
// visited move.
func NewSamplingAgent(mcts searcher.Searcher, temperature float64, seed uint64) evo.Agent {
	return &samplingAgent{
		mcts:        mcts,
		temperature: temperature,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (a *samplingAgent) Move(board game.Board, p game.Player) (game.Move, error) {
	moves, policy, err := search(a.mcts, board, p)
	if err != nil {
		return game.Move{}, err
	}
	if a.temperature <= 0 {
		return findMax(moves, policy), nil
	}

	probs := adjustTemperature(moves, policy, a.temperature)
	a.mu.Lock()
	sampled := a.rng.Float64()
	a.mu.Unlock()
	return sample(moves, probs, sampled), nil
}

func (a *samplingAgent) NotifyResult(game.Player, game.Player) {}

func adjustTemperature(moves []game.Move, policy map[game.Move]float64, temperature float64) []float64 {
	// Compute temperature-adjusted move probabilities
	exponent := 1.0 / temperature
	sum := 0.0
	adjusted := make([]float64, len(moves))
	for i, move := range moves {
		prob := math.Pow(policy[move], exponent)
		sum += prob
		adjusted[i] = prob
	}
	if sum == 0 {
		for i := range adjusted {
			adjusted[i] = 1.0 / float64(len(adjusted))
		}
		return adjusted
	}
	// Normalize
	for i := range adjusted {
		adjusted[i] /= sum
	}
	return adjusted
}

func sample(moves []game.Move, probs []float64, sampled float64) game.Move {
	cumulative := 0.0
	for i, prob := range probs {
		cumulative += prob
		if sampled < cumulative {
			return moves[i]
		}
	}
	return moves[len(moves)-1] // Fallback in case of rounding errors
}
