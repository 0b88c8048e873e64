package searcher

import (
	"sync"
	"testing"

	"evotac/game"

	"github.com/stretchr/testify/require"
)

func emptyPosition() game.Position {
	return game.NewPosition(game.Board{}, game.Player1)
}

func TestDecisionSelectOrExpand(t *testing.T) {
	t.Run("expandable node adds a child with a virtual loss", func(t *testing.T) {
		state := emptyPosition()
		root := newDecision(nil, state)

		child, childState, expanded := root.selectOrExpand(state)

		require.True(t, expanded)
		require.Len(t, root.children, 1)
		require.Same(t, root.children[0], child)
		require.Equal(t, 1.0, child.visits, "Child should apply a temporary loss")
		require.Equal(t, LOSS, child.rewards)
		require.Equal(t, game.Player1, child.player, "Child stats belong to the player who moved")
		require.Equal(t, game.Player2, childState.Player())
		require.Equal(t, 0.0, root.visits, "Root stats should not change")
	})

	t.Run("fully expanded node selects the max UCT child", func(t *testing.T) {
		state := emptyPosition()
		otherChild := &decision{rewards: 0, visits: 1}
		maxChild := &decision{rewards: 1, visits: 1}
		node := &decision{
			player:   game.Player2,
			moves:    []game.Move{game.MoveAt(0), game.MoveAt(4)},
			children: []*decision{otherChild, maxChild},
			rewards:  1,
			visits:   2,
		}

		child, childState, expanded := node.selectOrExpand(state)

		require.False(t, expanded)
		require.Same(t, maxChild, child, "Node should select child with max policy value")
		require.Equal(t, 2.0, maxChild.visits, "Child should apply a temporary loss")
		require.Equal(t, game.Player1, childState.(game.Position).Board.Get(game.MoveAt(4)),
			"State should update by the move to the max policy child")
		require.Equal(t, 2.0, node.visits, "Node stats should not change")
	})

	t.Run("terminal node returns itself", func(t *testing.T) {
		board, err := game.NewBoard([game.Size][game.Size]game.Cell{
			{1, 1, 1},
			{2, 2, 0},
			{0, 0, 0},
		})
		require.NoError(t, err)
		state := game.NewPosition(board, game.Player2)
		node := newDecision(nil, state)

		child, childState, expanded := node.selectOrExpand(state)

		require.Same(t, node, child)
		require.Equal(t, state, childState)
		require.False(t, expanded)
	})
}

func TestDecisionBackup(t *testing.T) {
	t.Run("replaces the virtual loss with the reward", func(t *testing.T) {
		state := emptyPosition()
		root := newDecision(nil, state)
		child, _, _ := root.selectOrExpand(state)

		parent := child.backup(game.Player1)
		require.Same(t, root, parent)
		require.Nil(t, root.backup(game.Player1), "Root has no parent")

		require.Equal(t, 1.0, child.visits, "Virtual visit should be replaced, not added")
		require.Equal(t, WIN, child.rewards, "Player1 moved into child and won")
		require.Equal(t, 1.0, root.visits)
		require.Equal(t, LOSS, root.rewards, "Root stats belong to Player2")
	})

	t.Run("tie rewards both sides", func(t *testing.T) {
		state := emptyPosition()
		root := newDecision(nil, state)
		child, _, _ := root.selectOrExpand(state)

		backup(child, game.None)

		require.Equal(t, TIE, child.rewards)
		require.Equal(t, TIE, root.rewards)
	})
}

func TestDecisionConcurrentExpansion(t *testing.T) {
	state := emptyPosition()
	root := newDecision(nil, state)

	var wg sync.WaitGroup
	children := make([]*decision, game.Cells)
	for i := range children {
		wg.Add(1)
		go func() {
			defer wg.Done()
			child, _, expanded := root.selectOrExpand(state)
			require.True(t, expanded)
			children[i] = child
		}()
	}
	wg.Wait()

	require.Len(t, root.children, game.Cells, "Every move should be expanded exactly once")
	seen := map[*decision]bool{}
	for _, child := range children {
		seen[child] = true
	}
	require.Len(t, seen, game.Cells, "Concurrent expansions should add distinct children")
	require.Len(t, root.policy(), game.Cells)
}
