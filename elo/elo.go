package elo

import "math"

// Rated is anything carrying an Elo rating.
type Rated interface {
	Rating() float64
	SetRating(float64)
}

// Expected returns the expected score of a player rated ra against rb.
func Expected(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/400))
}

// Deltas returns the rating changes for both sides of a finished game. On a
// tie the labels are arbitrary.
func Deltas(winner, loser float64, tie bool, k float64) (float64, float64) {
	expectedWinner := Expected(winner, loser)
	expectedLoser := 1 - expectedWinner
	scoreWinner, scoreLoser := 1.0, 0.0
	if tie {
		scoreWinner, scoreLoser = 0.5, 0.5
	}
	return k * (scoreWinner - expectedWinner), k * (scoreLoser - expectedLoser)
}

// Update applies one game result to both participants. The caller must own
// both of them for the duration of the call.
func Update(winner, loser Rated, tie bool, k float64) {
	dw, dl := Deltas(winner.Rating(), loser.Rating(), tie, k)
	winner.SetRating(winner.Rating() + dw)
	loser.SetRating(loser.Rating() + dl)
}
