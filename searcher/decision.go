package searcher

import (
	"math"
	"sync"

	"evotac/game"
)

// decision is a tree node for a position. Its statistics are kept from the
// point of view of player, the side whose move led here.
type decision struct {
	sync.RWMutex
	parent   *decision
	player   game.Player
	moves    []game.Move
	children []*decision
	rewards  float64
	visits   float64
}

func newDecision(parent *decision, state game.State) *decision {
	moves := state.LegalMoves()
	return &decision{
		parent:   parent,
		player:   state.Player().Opponent(),
		moves:    moves,
		children: make([]*decision, 0, len(moves)),
	}
}

// selectOrExpand returns the next node on the search path and its state.
// expanded is set when a new child was added; a terminal node returns itself.
func (d *decision) selectOrExpand(state game.State) (child *decision, childState game.State, expanded bool) {
	d.Lock()
	defer d.Unlock()

	if len(d.moves) == 0 { // Terminal node
		return d, state, false
	}

	if len(d.moves) > len(d.children) { // Expandable node
		move := d.moves[len(d.children)]
		next := state.Play(move)
		child = newDecision(d, next)
		d.children = append(d.children, child)
		child.applyLoss()
		return child, next, true
	}

	// Fully expanded node
	ith := d.pickChild()
	child = d.children[ith]
	child.applyLoss()
	return child, state.Play(d.moves[ith]), false
}

func (d *decision) pickChild() int {
	if d.visits == 0 {
		panic("node has children but no visits")
	}

	policy := newUCT(C_SQUARED, d.visits)
	maxIndex := -1
	maxScore := math.Inf(-1)
	for i, child := range d.children {
		score := child.score(policy)
		if score > maxScore {
			maxScore = score
			maxIndex = i
		}
	}
	return maxIndex
}

// applyLoss records a virtual loss so concurrent episodes spread out.
func (d *decision) applyLoss() {
	d.Lock()
	defer d.Unlock()

	d.rewards += LOSS
	d.visits++
}

func (d *decision) reverseLoss() {
	d.rewards -= LOSS
	d.visits--
}

func (d *decision) score(policy *uct) float64 {
	d.RLock()
	defer d.RUnlock()

	return policy.evaluate(d.rewards, d.visits)
}

// backup replaces the virtual loss with the real reward and returns the parent.
func (d *decision) backup(winner game.Player) *decision {
	d.Lock()
	defer d.Unlock()

	if d.parent != nil { // Non-root node
		d.reverseLoss()
	}

	d.rewards += reward(winner, d.player)
	d.visits++

	return d.parent
}

func (d *decision) Visits() float64 {
	d.RLock()
	defer d.RUnlock()

	return d.visits
}

// policy maps every expanded move to the visit count of its child.
func (d *decision) policy() map[game.Move]float64 {
	d.RLock()
	defer d.RUnlock()

	policy := make(map[game.Move]float64, len(d.children))
	for i, child := range d.children {
		policy[d.moves[i]] = child.Visits()
	}
	return policy
}
