package searcher

import (
	"math"
	"testing"

	"evotac/game"

	"github.com/stretchr/testify/require"
)

func TestUCTEvaluate(t *testing.T) {
	t.Run("computing UCT value", func(t *testing.T) {
		policy := newUCT(C_SQUARED, 100)
		got := policy.evaluate(5.0, 10)

		expected := 5.0/10 + math.Sqrt(C_SQUARED*math.Log(100)/10.0)
		require.InDelta(t, expected, got, 0.0001, "Should compute q/n + sqrt(c^2*ln(N)/n)")
	})

	t.Run("panics on zero visits", func(t *testing.T) {
		require.Panics(t, func() { newUCT(C_SQUARED, 0) }, "Should panic when N is 0")
		require.Panics(t, func() { newUCT(C_SQUARED, 10).evaluate(1, 0) }, "Should panic when n is 0")
	})

	t.Run("less visited children explore more", func(t *testing.T) {
		policy := newUCT(C_SQUARED, 100)

		require.Greater(t, policy.evaluate(5, 10), policy.evaluate(10, 20),
			"Equal win rate with fewer visits should score higher")
	})
}

func TestReward(t *testing.T) {
	require.Equal(t, WIN, reward(game.Player1, game.Player1))
	require.Equal(t, LOSS, reward(game.Player2, game.Player1))
	require.Equal(t, TIE, reward(game.None, game.Player2), "A tie is worth half a win to both sides")
}
