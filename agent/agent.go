package agent

import (
	"evotac/game"

	"golang.org/x/exp/rand"
)

// Agent is anything that can take part in a game.
type Agent interface {
	// Move chooses a move for player p. Returned moves are not pre-validated:
	// the engine decides legality, and an error counts as an illegal move.
	Move(board game.Board, p game.Player) (game.Move, error)
	// NotifyResult reports the finished game; winner is game.None on a tie.
	NotifyResult(winner game.Player, self game.Player)
}

// Penalized is implemented by agents that want to hear about their illegal
// moves. The engine calls BeginGame before the first turn.
type Penalized interface {
	BeginGame()
	FlagIllegalMove(m game.Move, err error)
}

type randomAgent struct {
	rng *rand.Rand
}

// NewRandom returns an agent that plays a uniformly random empty cell.
// It is not safe for concurrent use.
func NewRandom(seed uint64) Agent {
	return &randomAgent{rng: rand.New(rand.NewSource(seed))}
}

func (a *randomAgent) Move(board game.Board, _ game.Player) (game.Move, error) {
	moves := board.EmptyCells()
	if len(moves) == 0 {
		return game.Move{}, game.ErrGameOver
	}
	return moves[a.rng.Intn(len(moves))], nil
}

func (a *randomAgent) NotifyResult(game.Player, game.Player) {}
