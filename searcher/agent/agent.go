package agent

import (
	"slices"

	evo "evotac/agent"
	"evotac/game"
	"evotac/searcher"
)

var (
	_ evo.Agent = (*evaluationAgent)(nil)
	_ evo.Agent = (*samplingAgent)(nil)
)

// search runs the searcher for p and returns the moves of the policy in
// row-major order, so that map iteration order never leaks into decisions.
func search(s searcher.Searcher, board game.Board, p game.Player) ([]game.Move, map[game.Move]float64, error) {
	if board.Terminal() {
		return nil, nil, game.ErrGameOver
	}
	policy, _ := s.Simulate(game.NewPosition(board, p))
	if len(policy) == 0 {
		return nil, nil, game.ErrGameOver
	}
	moves := make([]game.Move, 0, len(policy))
	for move := range policy {
		moves = append(moves, move)
	}
	slices.SortFunc(moves, func(a, b game.Move) int {
		return a.Index() - b.Index()
	})
	return moves, policy, nil
}
