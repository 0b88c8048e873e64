package engine

import (
	"evotac/agent"
	"evotac/game"
)

// Result describes a finished game. Winner and Loser are nil on a tie.
type Result struct {
	Outcome      game.Outcome
	Winner       agent.Agent
	Loser        agent.Agent
	Tie          bool
	Turns        int
	IllegalMoves [2]int
	// Stalled is set when both sides moved illegally in a row.
	Stalled bool
	Board   game.Board
}

func newResult(outcome game.Outcome, agents [2]agent.Agent) Result {
	r := Result{Outcome: outcome}
	switch outcome {
	case game.Player1Wins:
		r.Winner, r.Loser = agents[0], agents[1]
	case game.Player2Wins:
		r.Winner, r.Loser = agents[1], agents[0]
	default:
		r.Tie = true
	}
	return r
}
