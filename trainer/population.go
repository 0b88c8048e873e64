package trainer

import (
	"slices"

	"evotac/agent"

	"golang.org/x/exp/rand"
)

// Population is an ordered set of agents of fixed size.
type Population []*agent.Evolvable

// NewPopulation creates n founders with brains from newBrain.
func NewPopulation(n int, newBrain func() agent.Brain, options ...agent.Option) Population {
	p := make(Population, n)
	for i := range p {
		p[i] = agent.NewEvolvable(newBrain(), options...)
	}
	return p
}

// Rank returns a copy sorted by rating, highest first. Equal ratings keep
// their current order.
func (p Population) Rank() Population {
	ranked := slices.Clone(p)
	slices.SortStableFunc(ranked, func(a, b *agent.Evolvable) int {
		switch {
		case a.Rating() > b.Rating():
			return -1
		case a.Rating() < b.Rating():
			return 1
		}
		return 0
	})
	return ranked
}

// Best returns the highest rated agent, the earliest one on ties.
func (p Population) Best() *agent.Evolvable {
	var best *agent.Evolvable
	for _, a := range p {
		if best == nil || a.Rating() > best.Rating() {
			best = a
		}
	}
	return best
}

// Truncate keeps the first floor(fractionKept*len(p)) agents of a ranked
// population.
func (p Population) Truncate(fractionKept float64) Population {
	n := Config{PopulationSize: len(p), FractionKept: fractionKept}.Survivors()
	n = max(0, min(n, len(p)))
	return slices.Clone(p[:n])
}

// Replenish fills the population up to n with mutated clones of uniformly
// chosen members.
func (p Population) Replenish(n int, mutationRate float64, rng *rand.Rand) Population {
	if len(p) == 0 && n > 0 {
		panic("cannot replenish an empty population")
	}
	out := slices.Grow(slices.Clone(p), max(0, n-len(p)))
	for len(out) < n {
		parent := p[rng.Intn(len(p))]
		child := parent.Clone()
		child.Mutate(mutationRate, rng)
		out = append(out, child)
	}
	return out
}

// Shuffle returns a copy of p in random order.
func (p Population) Shuffle(rng *rand.Rand) Population {
	shuffled := slices.Clone(p)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// Ratings returns the best, mean and worst rating.
func (p Population) Ratings() (best, mean, worst float64) {
	if len(p) == 0 {
		return 0, 0, 0
	}
	best, worst = p[0].Rating(), p[0].Rating()
	total := 0.0
	for _, a := range p {
		r := a.Rating()
		best = max(best, r)
		worst = min(worst, r)
		total += r
	}
	return best, total / float64(len(p)), worst
}
