package game

import (
	"fmt"
	"strings"
)

// Player identifies a side. Cell values reuse the same numbering so that an
// owned cell holds the identity of its owner.
type Player int

const (
	None Player = iota
	Player1
	Player2
)

// Cell is the content of a single square.
type Cell = Player

const Empty Cell = None

// Opponent returns the other side. None has no opponent.
func (p Player) Opponent() Player {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return None
	}
}

func (p Player) String() string {
	switch p {
	case Player1:
		return "X"
	case Player2:
		return "O"
	default:
		return "."
	}
}

type Outcome int

const (
	InProgress Outcome = iota
	Player1Wins
	Player2Wins
	Tie
)

func (o Outcome) String() string {
	switch o {
	case Player1Wins:
		return "player1"
	case Player2Wins:
		return "player2"
	case Tie:
		return "tie"
	default:
		return "in progress"
	}
}

// Winner maps a decisive outcome to the winning side.
func (o Outcome) Winner() Player {
	switch o {
	case Player1Wins:
		return Player1
	case Player2Wins:
		return Player2
	default:
		return None
	}
}

func winOutcome(p Player) Outcome {
	if p == Player1 {
		return Player1Wins
	}
	return Player2Wins
}

// Every row, column and diagonal, as flattened row-major indices.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Board is a 3x3 grid indexed [row][col]. The zero value is an empty board
// with the game in progress. Boards are plain values: copying one copies the
// whole grid.
type Board struct {
	cells    [Size][Size]Cell
	filled   int
	terminal bool
	outcome  Outcome
}

// NewBoard builds a board from rows of cell values. Terminal state is derived
// from the contents, so a full board or a completed line is already over.
func NewBoard(rows [Size][Size]Cell) (Board, error) {
	var b Board
	for r := range rows {
		for c, v := range rows[r] {
			if v != Empty && v != Player1 && v != Player2 {
				return Board{}, fmt.Errorf("invalid cell value %d at (%d,%d)", v, c, r)
			}
			b.cells[r][c] = v
			if v != Empty {
				b.filled++
			}
		}
	}
	b.settle()
	return b, nil
}

func (b *Board) settle() {
	for _, p := range []Player{Player1, Player2} {
		if b.HasLine(p) {
			b.terminal = true
			b.outcome = winOutcome(p)
			return
		}
	}
	if b.filled == Cells {
		b.terminal = true
		b.outcome = Tie
	}
}

func (b Board) Get(m Move) Cell {
	return b.cells[m.Row][m.Col]
}

func (b Board) Terminal() bool {
	return b.terminal
}

func (b Board) Outcome() Outcome {
	return b.outcome
}

func (b Board) Filled() int {
	return b.filled
}

// Flatten returns the cells in row-major order.
func (b Board) Flatten() [Cells]Cell {
	var out [Cells]Cell
	for r := range b.cells {
		for c := range b.cells[r] {
			out[r*Size+c] = b.cells[r][c]
		}
	}
	return out
}

// Check reports why a move would be rejected, or nil if it is legal.
func (b Board) Check(m Move) error {
	if b.terminal {
		return ErrGameOver
	}
	if !m.InBounds() {
		return fmt.Errorf("%w: %v is off the board", ErrIllegalMove, m)
	}
	if b.Get(m) != Empty {
		return fmt.Errorf("%w: %v is already taken", ErrIllegalMove, m)
	}
	return nil
}

// Play places p's mark at m. A rejected move leaves the board untouched.
func (b *Board) Play(m Move, p Player) error {
	if p != Player1 && p != Player2 {
		return fmt.Errorf("invalid player %d", p)
	}
	if err := b.Check(m); err != nil {
		return err
	}
	b.cells[m.Row][m.Col] = p
	b.filled++
	if b.completesLine(m, p) {
		b.terminal = true
		b.outcome = winOutcome(p)
	} else if b.filled == Cells {
		b.terminal = true
		b.outcome = Tie
	}
	return nil
}

// HasLine reports whether p owns any full row, column or diagonal.
func (b Board) HasLine(p Player) bool {
	flat := b.Flatten()
	for _, line := range lines {
		if flat[line[0]] == p && flat[line[1]] == p && flat[line[2]] == p {
			return true
		}
	}
	return false
}

func (b Board) completesLine(m Move, p Player) bool {
	flat := b.Flatten()
	idx := m.Index()
	for _, line := range lines {
		if line[0] != idx && line[1] != idx && line[2] != idx {
			continue
		}
		if flat[line[0]] == p && flat[line[1]] == p && flat[line[2]] == p {
			return true
		}
	}
	return false
}

// EmptyCells lists the free squares in row-major order.
func (b Board) EmptyCells() []Move {
	moves := make([]Move, 0, Cells-b.filled)
	for i, v := range b.Flatten() {
		if v == Empty {
			moves = append(moves, MoveAt(i))
		}
	}
	return moves
}

func (b Board) String() string {
	var sb strings.Builder
	for r := range b.cells {
		for c := range b.cells[r] {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(b.cells[r][c].String())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
