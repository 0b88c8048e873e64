package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Move is a (column, row) coordinate on the board.
type Move struct {
	Col int
	Row int
}

func MoveAt(index int) Move {
	return Move{Col: index % Size, Row: index / Size}
}

// Index returns the row-major flattened index of the move.
func (m Move) Index() int {
	return m.Row*Size + m.Col
}

func (m Move) InBounds() bool {
	return m.Col >= 0 && m.Col < Size && m.Row >= 0 && m.Row < Size
}

func (m Move) String() string {
	return fmt.Sprintf("(%d,%d)", m.Col, m.Row)
}

// ParseMove reads a move written as "x,y", optionally wrapped in brackets.
func ParseMove(input string) (Move, error) {
	cleaned := strings.NewReplacer(" ", "", "[", "", "]", "", "(", "", ")", "").Replace(strings.TrimSpace(input))
	parts := strings.Split(cleaned, ",")
	if len(parts) != 2 {
		return Move{}, fmt.Errorf("%w: expected two coordinates, got %d", ErrMalformedMove, len(parts))
	}
	col, err := strconv.Atoi(parts[0])
	if err != nil {
		return Move{}, fmt.Errorf("%w: column %q is not a number", ErrMalformedMove, parts[0])
	}
	row, err := strconv.Atoi(parts[1])
	if err != nil {
		return Move{}, fmt.Errorf("%w: row %q is not a number", ErrMalformedMove, parts[1])
	}
	return Move{Col: col, Row: row}, nil
}
