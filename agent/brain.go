package agent

import "golang.org/x/exp/rand"

// Brain is the inference model behind an Evolvable agent. Forward takes the
// board encoding (9 values, row-major, own marks +1, opponent -1, empty 0) and
// returns a 3x3 score grid in the same order.
type Brain interface {
	Forward(input []float64) []float64
	// Mutate perturbs each parameter independently with probability rate.
	Mutate(rate float64, rng *rand.Rand)
	Clone() Brain
	MarshalBinary() ([]byte, error)
}

// Decoder rebuilds a Brain from the output of MarshalBinary.
type Decoder func(data []byte) (Brain, error)
