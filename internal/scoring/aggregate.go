package scoring

import (
	"sort"

	"github.com/alienxp03/debatearena/internal/core"
)

// Scores is the final score pair of a debate.
type Scores struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// TrimmedMean sorts the samples and, when there are at least four, drops the
// single lowest and highest before averaging. The input is not modified.
func TrimmedMean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	if len(sorted) >= 4 {
		sorted = sorted[1 : len(sorted)-1]
	}

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted))
}

// Aggregate combines the verdicts into the debate's final scores.
func Aggregate(verdicts []core.JudgeVerdict) Scores {
	a := make([]float64, len(verdicts))
	b := make([]float64, len(verdicts))
	for i, v := range verdicts {
		a[i] = v.ScoreA
		b[i] = v.ScoreB
	}
	return Scores{A: TrimmedMean(a), B: TrimmedMean(b)}
}

// Winner returns the agent with the strictly higher score, or "" on an exact tie.
func Winner(s Scores, agentA, agentB string) string {
	switch {
	case s.A > s.B:
		return agentA
	case s.B > s.A:
		return agentB
	}
	return ""
}
