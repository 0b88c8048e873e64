package game

import "errors"

var (
	// ErrIllegalMove covers out-of-range coordinates and occupied cells.
	ErrIllegalMove = errors.New("illegal move")
	// ErrMalformedMove is returned for input that does not describe a move at all.
	ErrMalformedMove = errors.New("malformed move")
	// ErrGameOver is returned when a move is attempted on a finished board.
	ErrGameOver = errors.New("game is over - no moves allowed")
)
