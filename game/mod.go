package game

// State is the view of a position used by tree search. Implementations are
// immutable: Play always returns a new State.
type State interface {
	Player() Player
	LegalMoves() []Move
	Play(Move) State
	// Winner returns None while the game is running or when it ended in a tie.
	Winner() Player
	Terminal() bool
}

const Size = 3

const Cells = Size * Size
