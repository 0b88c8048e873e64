package brain

import (
	"fmt"
	"math"
)

type Activation string

const (
	Identity Activation = "identity"
	Tanh     Activation = "tanh"
	ReLU     Activation = "relu"
	Sigmoid  Activation = "sigmoid"
)

func (a Activation) Sigma(x float64) float64 {
	switch a {
	case Tanh:
		return math.Tanh(x)
	case ReLU:
		if x > 0 {
			return x
		}
		return 0
	case Sigmoid:
		return 1.0 / (1.0 + math.Exp(-x))
	default:
		return x
	}
}

func (a Activation) validate() error {
	switch a {
	case Identity, Tanh, ReLU, Sigmoid:
		return nil
	default:
		return fmt.Errorf("unknown activation %q", a)
	}
}
