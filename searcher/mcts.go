package searcher

import (
	"sync"
	"time"

	"evotac/game"

	"golang.org/x/exp/rand"
)

type Option func(mcts *MCTS)

// MCTS is a tree-parallel UCT search. A single MCTS must not run two searches
// at the same time.
type MCTS struct {
	goroutines int
	duration   time.Duration
	episodes   int
	seed       uint64
	root       *decision
	metrics    MetricsCollector
}

func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration > 0 {
			m.duration = duration
		}
	}
}

func WithEpisodes(episodes int) Option {
	return func(m *MCTS) {
		if episodes > 0 {
			m.episodes = episodes
		}
	}
}

// WithSeed seeds the rollout policy. Goroutine i rolls out with seed+i.
func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.seed = seed
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = NewMetricsCollector()
	}
}

func NewMCTS(goroutines int, options ...Option) *MCTS {
	if goroutines < 1 {
		panic("Must use at least one goroutine")
	}
	m := &MCTS{ // Default values
		goroutines: goroutines,
		seed:       rand.Uint64(),
		metrics:    NewNoMetricsCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if m.episodes <= 0 && m.duration <= 0 {
		panic("Must specify search episodes or duration")
	}
	return m
}

// Simulate searches from state and returns the visit count of every root move.
// The policy is empty when state is terminal.
func (m *MCTS) Simulate(state game.State) (map[game.Move]float64, MoveMetrics) {
	m.root = newDecision(nil, state)

	m.metrics.Start()
	if m.episodes > 0 {
		m.iterate(state)
	} else {
		m.countdown(state)
	}
	metric := m.metrics.Complete()

	return m.root.policy(), metric
}

func (m *MCTS) iterate(state game.State) {
	task := make(chan any, m.episodes)
	for i := 0; i < m.episodes; i++ {
		task <- nil
	}
	close(task)

	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		wg.Add(1)
		rng := rand.New(rand.NewSource(m.seed + uint64(i)))
		go func() {
			defer wg.Done()

			for range task {
				m.simulate(state, rng)
			}
		}()
	}

	wg.Wait()
}

func (m *MCTS) countdown(state game.State) {
	done := make(chan any)

	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		wg.Add(1)
		rng := rand.New(rand.NewSource(m.seed + uint64(i)))
		go func() {
			defer wg.Done()

			for {
				select {
				case <-done:
					return
				default:
					m.simulate(state, rng)
				}
			}
		}()
	}

	<-time.After(m.duration)
	close(done)
	wg.Wait()
}

func (m *MCTS) simulate(state game.State, rng *rand.Rand) {
	newNode, newState, depth := selectThenExpand(m.root, state)
	winner := rollout(newState, rng)
	backup(newNode, winner)
	m.metrics.AddEpisode(depth, winner == game.None)
}

func selectThenExpand(root *decision, state game.State) (*decision, game.State, int) {
	node := root
	depth := 0
	for {
		child, childState, expanded := node.selectOrExpand(state)
		if child == node { // Terminal node
			return node, state, depth
		}
		depth++
		if expanded {
			return child, childState, depth
		}
		node, state = child, childState
	}
}

func rollout(state game.State, rng *rand.Rand) game.Player {
	moves := state.LegalMoves()
	for len(moves) > 0 {
		move := moves[rng.Intn(len(moves))] // Random rollout policy
		state = state.Play(move)
		moves = state.LegalMoves()
	}
	return state.Winner()
}

func backup(newNode *decision, winner game.Player) {
	node := newNode
	for node != nil {
		parent := node.backup(winner)
		node = parent
	}
}
