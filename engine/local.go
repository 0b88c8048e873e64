package engine

import (
	"evotac/agent"
	"evotac/game"

	"github.com/rs/zerolog/log"
)

type Engine struct {
	State  game.Board
	Agents [2]agent.Agent
}

// LocalEngine sets up a game on an empty board. a plays as Player1 and moves
// first.
func LocalEngine(a, b agent.Agent) *Engine {
	return LocalEngineFrom(game.Board{}, a, b)
}

// LocalEngineFrom sets up a game on a prepared board. a still moves first.
func LocalEngineFrom(board game.Board, a, b agent.Agent) *Engine {
	if a == nil || b == nil {
		panic("need two agents")
	}
	return &Engine{
		State:  board,
		Agents: [2]agent.Agent{a, b},
	}
}

// Play runs a full game between a and b on an empty board.
func Play(a, b agent.Agent) Result {
	return LocalEngine(a, b).Run()
}

// Run executes the game loop until a line is completed, the board is full, or
// both sides move illegally back to back.
func (e *Engine) Run() Result {
	for _, a := range e.Agents {
		if p, ok := a.(agent.Penalized); ok {
			p.BeginGame()
		}
	}

	var illegal [2]int
	turns := 0
	current := 0
	previousIllegal := false
	stalled := false
	for !e.State.Terminal() {
		player := game.Player(current + 1)
		move, err := e.Agents[current].Move(e.State, player)
		if err == nil {
			err = e.State.Play(move, player)
		}
		if err != nil {
			illegal[current]++
			if p, ok := e.Agents[current].(agent.Penalized); ok {
				p.FlagIllegalMove(move, err)
			}
			log.Debug().Err(err).Msgf("player %d skipped: illegal move %v", player, move)
			if previousIllegal {
				stalled = true
				break
			}
			previousIllegal = true
		} else {
			previousIllegal = false
			turns++
		}
		current = 1 - current
	}

	outcome := e.State.Outcome()
	if stalled {
		outcome = game.Tie
	}

	winner := outcome.Winner()
	for i, a := range e.Agents {
		a.NotifyResult(winner, game.Player(i+1))
	}

	r := newResult(outcome, e.Agents)
	r.Turns = turns
	r.IllegalMoves = illegal
	r.Stalled = stalled
	r.Board = e.State
	return r
}
