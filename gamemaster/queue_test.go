package gamemaster

import (
	"sync"
	"testing"

	"evotac/agent"

	"github.com/stretchr/testify/require"
)

func TestWorkQueueReservePair(t *testing.T) {
	t.Run("pairs neighbours in queue order", func(t *testing.T) {
		agents := newPopulation(4, 1)
		done := NewDoneSet(len(agents))
		q := NewWorkQueue(false)
		require.NoError(t, q.Push(done, agents...))

		first, err := q.ReservePair()
		require.NoError(t, err)
		second, err := q.ReservePair()
		require.NoError(t, err)

		require.Same(t, agents[0], first.A)
		require.Same(t, agents[1], first.B)
		require.Same(t, agents[2], second.A)
		require.Same(t, agents[3], second.B)

		_, err = q.ReservePair()
		require.ErrorIs(t, err, ErrQueueExhausted)
	})

	t.Run("last odd agent gets a bye", func(t *testing.T) {
		agents := newPopulation(3, 1)
		q := NewWorkQueue(false)
		require.NoError(t, q.Push(NewDoneSet(3), agents...))

		_, err := q.ReservePair()
		require.NoError(t, err)
		pair, err := q.ReservePair()
		require.NoError(t, err)

		require.True(t, pair.Bye())
		require.Same(t, agents[2], pair.A)
	})

	t.Run("never pairs agents from different rounds", func(t *testing.T) {
		agents := newPopulation(2, 1)
		q := NewWorkQueue(false)
		require.NoError(t, q.Push(NewDoneSet(1), agents[0]))
		require.NoError(t, q.Push(NewDoneSet(1), agents[1]))

		pair, err := q.ReservePair()
		require.NoError(t, err)

		require.True(t, pair.Bye(), "Agents of separate rounds should not meet")
		require.Equal(t, 1, q.Len())
	})

	t.Run("close wakes blocked workers", func(t *testing.T) {
		q := NewWorkQueue(true)
		errs := make(chan error, 4)
		for i := 0; i < 4; i++ {
			go func() {
				_, err := q.ReservePair()
				errs <- err
			}()
		}

		q.Close()

		for i := 0; i < 4; i++ {
			require.ErrorIs(t, <-errs, ErrQueueClosed)
		}
		require.ErrorIs(t, q.Push(NewDoneSet(0)), ErrQueueClosed)
	})

	t.Run("discard drops only the given round", func(t *testing.T) {
		agents := newPopulation(5, 1)
		dropped, kept := NewDoneSet(3), NewDoneSet(2)
		q := NewWorkQueue(false)
		require.NoError(t, q.Push(dropped, agents[:3]...))
		require.NoError(t, q.Push(kept, agents[3:]...))

		require.Equal(t, 3, q.Discard(dropped))
		require.Equal(t, 2, q.Len())
	})
}

func TestWorkQueueConcurrentReservations(t *testing.T) {
	agents := newPopulation(101, 1)
	q := NewWorkQueue(false)
	require.NoError(t, q.Push(NewDoneSet(len(agents)), agents...))

	var mu sync.Mutex
	seen := map[*agent.Evolvable]int{}
	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				pair, err := q.ReservePair()
				if err != nil {
					return
				}
				mu.Lock()
				seen[pair.A]++
				if !pair.Bye() {
					seen[pair.B]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, len(agents), "Every agent should be reserved")
	for a, n := range seen {
		require.Equal(t, 1, n, "Agent %s reserved more than once", a.ID())
	}
}

func TestDoneSet(t *testing.T) {
	t.Run("closes when every agent arrived", func(t *testing.T) {
		agents := newPopulation(3, 1)
		d := NewDoneSet(3)

		require.NoError(t, d.Add(MatchResult{}, agents[0], agents[1]))
		require.False(t, d.Complete())
		require.NoError(t, d.Add(byeResult(agents[2]), agents[2]))

		require.True(t, d.Complete())
		select {
		case <-d.Done():
		default:
			t.Fatal("done channel should be closed")
		}
		require.Len(t, d.Results(), 2)
	})

	t.Run("rejects an agent finishing twice", func(t *testing.T) {
		agents := newPopulation(2, 1)
		d := NewDoneSet(2)

		require.NoError(t, d.Add(MatchResult{}, agents[0]))
		err := d.Add(MatchResult{}, agents[0])

		require.ErrorIs(t, err, ErrAlreadyDone)
		require.Equal(t, 1, d.Len())
	})

	t.Run("rejects more agents than expected", func(t *testing.T) {
		agents := newPopulation(2, 1)
		d := NewDoneSet(1)

		require.Error(t, d.Add(MatchResult{}, agents...))
		require.Equal(t, 0, d.Len())
	})

	t.Run("empty round is complete", func(t *testing.T) {
		d := NewDoneSet(0)
		require.True(t, d.Complete())
		require.NoError(t, d.Wait(t.Context()))
	})
}
