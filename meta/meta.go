// meta/meta.go
package meta

// DEFAULT_ELO is the rating of every new agent.
const DEFAULT_ELO = 1000.0

// DEFAULT_ELO_K is the Elo K-factor.
const DEFAULT_ELO_K = 32.0

const (
	DEFAULT_POPULATION      = 100
	DEFAULT_FRACTION_KEPT   = 0.5
	DEFAULT_GENERATIONS     = 50
	DEFAULT_SUB_GENERATIONS = 3
	DEFAULT_MUTATION_RATE   = 0.05
	DEFAULT_MAX_RETRIES     = 1
)

// DEFAULT_WORKERS defines the number of goroutines playing games.
const DEFAULT_WORKERS = 8

// HIDDEN_UNITS defines the width of the hidden layer of new brains.
const HIDDEN_UNITS = 18

// MUTATION_SCALE is the standard deviation of a weight perturbation.
const MUTATION_SCALE = 0.5

// MCTS_EPISODES defines the number of search episodes per move for the baseline opponent.
const MCTS_EPISODES = 400

const (
	// DEFAULT_BENCHMARK_EVERY is the number of generations between two
	// benchmarks of the champion against MCTS. Zero disables benchmarking.
	DEFAULT_BENCHMARK_EVERY = 10
	DEFAULT_BENCHMARK_GAMES = 20
)
