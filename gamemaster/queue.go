package gamemaster

import (
	"errors"
	"sync"

	"evotac/agent"
)

var (
	ErrQueueClosed    = errors.New("work queue is closed")
	ErrQueueExhausted = errors.New("work queue is exhausted")
)

type entry struct {
	agent *agent.Evolvable
	done  *DoneSet
}

// Pair is an atomic reservation of two queued agents for one game. B is nil
// when A was the odd one left over and gets a bye for the round.
type Pair struct {
	A, B *agent.Evolvable
	done *DoneSet
}

func (p Pair) Bye() bool {
	return p.B == nil
}

// WorkQueue holds the agents that still have to play this round. Pairs are
// reserved under a single lock, so no agent can be handed to two workers and
// no worker can be left holding one agent while another holds the last one.
type WorkQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	entries  []entry
	blocking bool
	closed   bool
}

// NewWorkQueue returns a queue. A blocking queue makes idle workers wait for
// the next round; a non-blocking one reports ErrQueueExhausted once empty.
func NewWorkQueue(blocking bool) *WorkQueue {
	q := &WorkQueue{blocking: blocking}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues a whole round at once. Every agent must belong to done.
func (q *WorkQueue) Push(done *DoneSet, agents ...*agent.Evolvable) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	for _, a := range agents {
		q.entries = append(q.entries, entry{agent: a, done: done})
	}
	q.cond.Broadcast()
	return nil
}

// ReservePair removes the next two agents from the queue in one step.
func (q *WorkQueue) ReservePair() (Pair, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.entries) == 0 {
		if q.closed {
			return Pair{}, ErrQueueClosed
		}
		if !q.blocking {
			return Pair{}, ErrQueueExhausted
		}
		q.cond.Wait()
	}
	if q.closed {
		return Pair{}, ErrQueueClosed
	}

	first := q.entries[0]
	if len(q.entries) == 1 || q.entries[1].done != first.done {
		q.entries = q.entries[1:]
		return Pair{A: first.agent, done: first.done}, nil
	}
	second := q.entries[1]
	q.entries = q.entries[2:]
	return Pair{A: first.agent, B: second.agent, done: first.done}, nil
}

// Discard drops the pending entries of a round and returns how many were dropped.
func (q *WorkQueue) Discard(done *DoneSet) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.done != done {
			kept = append(kept, e)
		}
	}
	dropped := len(q.entries) - len(kept)
	q.entries = kept
	return dropped
}

func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.entries)
}

// Close wakes every waiting worker. It is safe to call more than once.
func (q *WorkQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}
