// Package rating implements the logistic (Elo) skill rating update.
package rating

import "math"

// DefaultK is the update factor used when none is configured.
const DefaultK = 32.0

// Outcome is the result of a match from side A's point of view.
type Outcome float64

const (
	Loss Outcome = 0
	Draw Outcome = 0.5
	Win  Outcome = 1
)

// OutcomeFor derives side A's outcome from a match winner field.
// An empty winner is a draw.
func OutcomeFor(winnerID, agentA string) Outcome {
	switch winnerID {
	case "":
		return Draw
	case agentA:
		return Win
	}
	return Loss
}

// Expected returns the probability that a player rated ra beats one rated rb.
func Expected(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/400))
}

// Update returns the new ratings of A and B after a match.
func Update(ra, rb float64, outcomeA Outcome, k float64) (newA, newB float64) {
	if k <= 0 {
		k = DefaultK
	}
	expA := Expected(ra, rb)
	expB := 1 - expA
	sA := float64(outcomeA)
	newA = ra + k*(sA-expA)
	newB = rb + k*((1-sA)-expB)
	return newA, newB
}
