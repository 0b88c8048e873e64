package brain

import (
	"fmt"
	"math"

	"evotac/agent"
	"evotac/game"
	"evotac/meta"

	"golang.org/x/exp/rand"
)

// Layer is a fully connected layer. Weights are stored row-major with one
// row per output.
type Layer struct {
	Inputs     int        `json:"inputs"`
	Outputs    int        `json:"outputs"`
	Weights    []float64  `json:"weights"`
	Biases     []float64  `json:"biases"`
	Activation Activation `json:"activation"`
}

func newLayer(rng *rand.Rand, inputs, outputs int, activation Activation) Layer {
	l := Layer{
		Inputs:     inputs,
		Outputs:    outputs,
		Weights:    make([]float64, inputs*outputs),
		Biases:     make([]float64, outputs),
		Activation: activation,
	}
	initUniform(rng, l.Weights, 2.0/float64(inputs+outputs))
	return l
}

func initUniform(rng *rand.Rand, data []float64, variance float64) {
	var uniformVariance = 1.0 / 12
	var scale = math.Sqrt(variance / uniformVariance)
	for i := range data {
		data[i] = (rng.Float64() - 0.5) * scale
	}
}

func (l *Layer) forward(input []float64) []float64 {
	out := make([]float64, l.Outputs)
	for o := 0; o < l.Outputs; o++ {
		x := l.Biases[o]
		row := l.Weights[o*l.Inputs : (o+1)*l.Inputs]
		for i, v := range input {
			x += row[i] * v
		}
		out[o] = l.Activation.Sigma(x)
	}
	return out
}

// Network is a small multilayer perceptron implementing agent.Brain.
type Network struct {
	Layers []Layer `json:"layers"`
	// Scale is the standard deviation of a single mutation step.
	Scale float64 `json:"scale"`
}

var _ agent.Brain = (*Network)(nil)

// New builds a 9-hidden-9 network: tanh hidden units and a linear score grid.
func New(rng *rand.Rand, hidden int) *Network {
	return NewNetwork(rng, meta.MUTATION_SCALE, []int{game.Cells, hidden, game.Cells}, Tanh, Identity)
}

// NewNetwork builds a network with the given layer sizes. hiddenActivation is
// used by every layer except the last.
func NewNetwork(rng *rand.Rand, scale float64, sizes []int, hiddenActivation, outputActivation Activation) *Network {
	if len(sizes) < 2 {
		panic("network needs at least an input and an output size")
	}
	n := &Network{Scale: scale}
	for i := 0; i+1 < len(sizes); i++ {
		activation := hiddenActivation
		if i+2 == len(sizes) {
			activation = outputActivation
		}
		n.Layers = append(n.Layers, newLayer(rng, sizes[i], sizes[i+1], activation))
	}
	return n
}

func (n *Network) Forward(input []float64) []float64 {
	x := input
	for i := range n.Layers {
		x = n.Layers[i].forward(x)
	}
	return x
}

// Mutate adds Gaussian noise to each weight and bias with probability rate.
func (n *Network) Mutate(rate float64, rng *rand.Rand) {
	if rate <= 0 {
		return
	}
	perturb := func(data []float64) {
		for i := range data {
			if rng.Float64() < rate {
				data[i] += rng.NormFloat64() * n.Scale
			}
		}
	}
	for i := range n.Layers {
		perturb(n.Layers[i].Weights)
		perturb(n.Layers[i].Biases)
	}
}

func (n *Network) Clone() agent.Brain {
	c := &Network{Scale: n.Scale, Layers: make([]Layer, len(n.Layers))}
	for i, l := range n.Layers {
		c.Layers[i] = Layer{
			Inputs:     l.Inputs,
			Outputs:    l.Outputs,
			Weights:    append([]float64(nil), l.Weights...),
			Biases:     append([]float64(nil), l.Biases...),
			Activation: l.Activation,
		}
	}
	return c
}

// Parameters returns the number of tunable values.
func (n *Network) Parameters() int {
	total := 0
	for _, l := range n.Layers {
		total += len(l.Weights) + len(l.Biases)
	}
	return total
}

func (n *Network) validate() error {
	if len(n.Layers) == 0 {
		return fmt.Errorf("network has no layers")
	}
	for i, l := range n.Layers {
		if err := l.Activation.validate(); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		if len(l.Weights) != l.Inputs*l.Outputs || len(l.Biases) != l.Outputs {
			return fmt.Errorf("layer %d: shape %dx%d does not match %d weights and %d biases",
				i, l.Outputs, l.Inputs, len(l.Weights), len(l.Biases))
		}
		if i > 0 && n.Layers[i-1].Outputs != l.Inputs {
			return fmt.Errorf("layer %d: expects %d inputs, previous layer has %d outputs", i, l.Inputs, n.Layers[i-1].Outputs)
		}
	}
	if n.Layers[0].Inputs != game.Cells || n.Layers[len(n.Layers)-1].Outputs != game.Cells {
		return fmt.Errorf("network must map %d inputs to %d outputs", game.Cells, game.Cells)
	}
	return nil
}
