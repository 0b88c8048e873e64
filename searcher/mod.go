package searcher

import (
	"evotac/game"
)

// Hyperparameters for MCTS

const C_SQUARED = 2.0 // Exploration constant

// Rewards estimate the chance of winning from the mover's point of view
const WIN = 1.0
const TIE = 0.5
const LOSS = 1 - WIN

// Searcher turns a position into a visit-count policy over its legal moves.
type Searcher interface {
	Simulate(state game.State) (map[game.Move]float64, MoveMetrics)
}

func reward(winner, player game.Player) float64 {
	switch winner {
	case player:
		return WIN
	case game.None:
		return TIE
	default:
		return LOSS
	}
}
