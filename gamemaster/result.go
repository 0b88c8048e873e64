package gamemaster

import (
	"evotac/agent"
	"evotac/engine"
	"evotac/game"
)

// MatchResult is produced once per reserved pair. A bye has a single player
// and no game behind it.
type MatchResult struct {
	Players      [2]*agent.Evolvable
	Winner       *agent.Evolvable
	Loser        *agent.Evolvable
	Tie          bool
	Bye          bool
	Outcome      game.Outcome
	Turns        int
	IllegalMoves [2]int
}

func newMatchResult(a, b *agent.Evolvable, r engine.Result) MatchResult {
	m := MatchResult{
		Players:      [2]*agent.Evolvable{a, b},
		Tie:          r.Tie,
		Outcome:      r.Outcome,
		Turns:        r.Turns,
		IllegalMoves: r.IllegalMoves,
	}
	switch r.Outcome {
	case game.Player1Wins:
		m.Winner, m.Loser = a, b
	case game.Player2Wins:
		m.Winner, m.Loser = b, a
	}
	return m
}

func byeResult(a *agent.Evolvable) MatchResult {
	return MatchResult{Players: [2]*agent.Evolvable{a, nil}, Bye: true}
}
