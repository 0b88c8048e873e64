package agent

import (
	evo "evotac/agent"
	"evotac/game"
	"evotac/searcher"
)

type evaluationAgent struct {
	mcts searcher.Searcher
}

// NewEvaluationAgent returns an agent that always plays the most visited move.
func NewEvaluationAgent(mcts searcher.Searcher) evo.Agent {
	return &evaluationAgent{mcts: mcts}
}

func (a *evaluationAgent) Move(board game.Board, p game.Player) (game.Move, error) {
	moves, policy, err := search(a.mcts, board, p)
	if err != nil {
		return game.Move{}, err
	}
	return findMax(moves, policy), nil
}

func (a *evaluationAgent) NotifyResult(game.Player, game.Player) {}

// findMax returns the most visited move, the first one in row-major order on ties.
func findMax(moves []game.Move, policy map[game.Move]float64) game.Move {
	maxMove := moves[0]
	maxVisit := policy[maxMove]
	for _, move := range moves[1:] {
		if visit := policy[move]; visit > maxVisit {
			maxVisit = visit
			maxMove = move
		}
	}
	return maxMove
}
