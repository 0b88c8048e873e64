package game

// Position pairs a board with the side to move. It implements State.
type Position struct {
	Board  Board
	ToMove Player
}

func NewPosition(b Board, toMove Player) Position {
	return Position{Board: b, ToMove: toMove}
}

func (p Position) Player() Player {
	return p.ToMove
}

func (p Position) LegalMoves() []Move {
	if p.Board.Terminal() {
		return nil
	}
	return p.Board.EmptyCells()
}

// Play panics on an illegal move: search only plays moves from LegalMoves.
func (p Position) Play(m Move) State {
	next := p.Board
	if err := next.Play(m, p.ToMove); err != nil {
		panic(err)
	}
	return Position{Board: next, ToMove: p.ToMove.Opponent()}
}

func (p Position) Winner() Player {
	return p.Board.Outcome().Winner()
}

func (p Position) Terminal() bool {
	return p.Board.Terminal()
}
