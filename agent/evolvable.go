package agent

import (
	"errors"
	"fmt"
	"math"

	"evotac/game"
	"evotac/meta"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
)

var ErrNoBrain = errors.New("agent has no brain")

var (
	_ Agent     = (*Evolvable)(nil)
	_ Penalized = (*Evolvable)(nil)
)

type Stats struct {
	Games        int
	Wins         int
	Losses       int
	Ties         int
	IllegalMoves int
}

type Option func(e *Evolvable)

// WithInitialElo sets the rating given to the agent and to all of its clones.
func WithInitialElo(elo float64) Option {
	return func(e *Evolvable) {
		e.initialElo = elo
		e.elo = elo
	}
}

// WithUnmasked makes the agent submit its best-scoring cell even when it is
// occupied, leaving the rejection to the engine.
func WithUnmasked() Option {
	return func(e *Evolvable) {
		e.unmasked = true
	}
}

// Evolvable is an agent driven by a Brain and rated by Elo. It is owned by a
// single population and must only be used by one goroutine at a time.
type Evolvable struct {
	id         string
	parentID   string
	brain      Brain
	elo        float64
	initialElo float64
	unmasked   bool
	illegal    bool
	stats      Stats
}

func NewEvolvable(brain Brain, options ...Option) *Evolvable {
	if brain == nil {
		panic(ErrNoBrain)
	}
	e := &Evolvable{
		id:         uuid.NewString(),
		brain:      brain,
		elo:        meta.DEFAULT_ELO,
		initialElo: meta.DEFAULT_ELO,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

func (e *Evolvable) ID() string {
	return e.id
}

// ParentID is the ID of the agent this one was cloned from, or "" for founders.
func (e *Evolvable) ParentID() string {
	return e.parentID
}

func (e *Evolvable) Rating() float64 {
	return e.elo
}

func (e *Evolvable) SetRating(r float64) {
	e.elo = r
}

func (e *Evolvable) IllegalMoveFlag() bool {
	return e.illegal
}

func (e *Evolvable) Stats() Stats {
	return e.stats
}

func (e *Evolvable) Brain() Brain {
	return e.brain
}

// Encode converts the board to the brain input from p's point of view.
func Encode(board game.Board, p game.Player) []float64 {
	input := make([]float64, game.Cells)
	for i, cell := range board.Flatten() {
		switch cell {
		case game.Empty:
		case p:
			input[i] = 1
		default:
			input[i] = -1
		}
	}
	return input
}

func (e *Evolvable) Move(board game.Board, p game.Player) (game.Move, error) {
	scores := e.brain.Forward(Encode(board, p))
	if len(scores) != game.Cells {
		return game.Move{}, fmt.Errorf("%w: brain returned %d scores", game.ErrMalformedMove, len(scores))
	}
	cells := board.Flatten()
	best := -1
	bestScore := math.Inf(-1)
	for i, score := range scores {
		if !e.unmasked && cells[i] != game.Empty {
			continue
		}
		// Strict comparison keeps the lowest index on equal scores.
		if best == -1 || score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best == -1 {
		return game.Move{}, game.ErrGameOver
	}
	return game.MoveAt(best), nil
}

func (e *Evolvable) BeginGame() {
	e.illegal = false
}

func (e *Evolvable) FlagIllegalMove(game.Move, error) {
	e.illegal = true
	e.stats.IllegalMoves++
}

func (e *Evolvable) NotifyResult(winner game.Player, self game.Player) {
	e.stats.Games++
	switch winner {
	case game.None:
		e.stats.Ties++
	case self:
		e.stats.Wins++
	default:
		e.stats.Losses++
	}
}

func (e *Evolvable) Mutate(rate float64, rng *rand.Rand) {
	e.brain.Mutate(rate, rng)
}

// Clone returns an offspring with a deep copy of the brain, a fresh identity
// and the initial rating.
func (e *Evolvable) Clone() *Evolvable {
	return &Evolvable{
		id:         uuid.NewString(),
		parentID:   e.id,
		brain:      e.brain.Clone(),
		elo:        e.initialElo,
		initialElo: e.initialElo,
		unmasked:   e.unmasked,
	}
}

// Save serializes the brain parameters only; the rating is not stored.
func (e *Evolvable) Save() ([]byte, error) {
	return e.brain.MarshalBinary()
}

// Load restores an agent from a saved brain.
func Load(data []byte, decode Decoder, options ...Option) (*Evolvable, error) {
	brain, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode brain: %w", err)
	}
	return NewEvolvable(brain, options...), nil
}

func (e *Evolvable) String() string {
	return fmt.Sprintf("%s(elo=%.1f)", e.id[:8], e.elo)
}
