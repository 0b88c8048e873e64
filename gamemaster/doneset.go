package gamemaster

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"evotac/agent"
)

var ErrAlreadyDone = errors.New("agent already finished this round")

// DoneSet collects the agents that finished their game this round and closes
// its channel once all expected agents have arrived.
type DoneSet struct {
	mu       sync.Mutex
	expected int
	seen     map[string]struct{}
	agents   []*agent.Evolvable
	results  []MatchResult
	done     chan struct{}
}

func NewDoneSet(expected int) *DoneSet {
	d := &DoneSet{
		expected: expected,
		seen:     make(map[string]struct{}, expected),
		done:     make(chan struct{}),
	}
	if expected == 0 {
		close(d.done)
	}
	return d
}

// Add records a finished match and the agents that took part in it.
func (d *DoneSet) Add(result MatchResult, agents ...*agent.Evolvable) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, a := range agents {
		if _, ok := d.seen[a.ID()]; ok {
			return fmt.Errorf("%w: %s", ErrAlreadyDone, a.ID())
		}
	}
	if len(d.agents)+len(agents) > d.expected {
		return fmt.Errorf("round expects %d agents, got %d", d.expected, len(d.agents)+len(agents))
	}
	for _, a := range agents {
		d.seen[a.ID()] = struct{}{}
		d.agents = append(d.agents, a)
	}
	d.results = append(d.results, result)
	if len(d.agents) == d.expected {
		close(d.done)
	}
	return nil
}

// Done is closed when the round is complete.
func (d *DoneSet) Done() <-chan struct{} {
	return d.done
}

// Wait blocks until the round is complete or ctx ends.
func (d *DoneSet) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *DoneSet) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.agents)
}

func (d *DoneSet) Complete() bool {
	return d.Len() == d.expected
}

func (d *DoneSet) Results() []MatchResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]MatchResult, len(d.results))
	copy(out, d.results)
	return out
}
