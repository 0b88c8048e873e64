package player

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"evotac/agent"
	"evotac/game"

	"github.com/muesli/termenv"
)

var (
	_ agent.Agent     = (*Human)(nil)
	_ agent.Penalized = (*Human)(nil)
)

// ErrNoInput is returned when the input stream ends before a move was entered.
var ErrNoInput = errors.New("no more input")

// Human asks a person for moves over a terminal.
type Human struct {
	in  *bufio.Scanner
	out *termenv.Output
}

func NewHuman(in io.Reader, out io.Writer) *Human {
	return &Human{
		in:  bufio.NewScanner(in),
		out: termenv.NewOutput(out),
	}
}

// Move prompts until the input names an empty cell on the board.
func (h *Human) Move(board game.Board, p game.Player) (game.Move, error) {
	h.printf("Player %s's turn\n", h.mark(p))
	h.printf("%s\n", h.Render(board))
	for {
		h.printf("Where would you like to go? [x,y] >>> ")
		if !h.in.Scan() {
			if err := h.in.Err(); err != nil {
				return game.Move{}, fmt.Errorf("failed to read move: %w", err)
			}
			return game.Move{}, ErrNoInput
		}

		move, err := game.ParseMove(h.in.Text())
		if err != nil {
			h.printf("Please enter two numbers separated by a comma\n")
			continue
		}
		switch err := board.Check(move); {
		case errors.Is(err, game.ErrGameOver):
			h.printf("The game is over\n")
			return game.Move{}, err
		case err != nil:
			h.printf("That move is not legal\n")
			continue
		}
		return move, nil
	}
}

func (h *Human) BeginGame() {}

func (h *Human) FlagIllegalMove(m game.Move, err error) {
	if errors.Is(err, ErrNoInput) {
		return
	}
	h.printf("Move %v was rejected: %v\n", m, err)
}

func (h *Human) NotifyResult(winner game.Player, self game.Player) {
	switch winner {
	case game.None:
		h.printf("It's a tie\n")
	case self:
		h.printf("Player %s wins!!\n", h.mark(winner))
	default:
		h.printf("Player %s wins, better luck next time\n", h.mark(winner))
	}
}

// Render draws the board with column and row coordinates.
func (h *Human) Render(board game.Board) string {
	var sb strings.Builder
	sb.WriteString("   0 1 2\n")
	for row := 0; row < game.Size; row++ {
		fmt.Fprintf(&sb, "%d ", row)
		for col := 0; col < game.Size; col++ {
			sb.WriteString(" ")
			sb.WriteString(h.mark(board.Get(game.Move{Col: col, Row: row})))
		}
		if row+1 < game.Size {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (h *Human) mark(p game.Player) string {
	style := h.out.String(p.String())
	switch p {
	case game.Player1:
		style = style.Foreground(h.out.Color("1")).Bold()
	case game.Player2:
		style = style.Foreground(h.out.Color("4")).Bold()
	default:
		style = style.Faint()
	}
	return style.String()
}

func (h *Human) printf(format string, args ...any) {
	fmt.Fprintf(h.out, format, args...)
}
