// Package scoring turns judge responses into verdicts and aggregates them.
package scoring

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/alienxp03/debatearena/internal/core"
)

// Criterion names requested from judges, scored 0-10 per side.
const (
	ArgumentStrength   = "argument_strength"
	FactualAccuracy    = "factual_accuracy"
	DirectResponse     = "direct_response"
	RebuttalEfficiency = "rebuttal_efficiency"
	Persuasiveness     = "persuasiveness"
	FinalPosition      = "final_position"
	FallacyScore       = "fallacy_score"
	Clarity            = "clarity"
)

// CriteriaNames lists the eight sub-criteria in prompt order.
var CriteriaNames = []string{
	ArgumentStrength,
	FactualAccuracy,
	DirectResponse,
	RebuttalEfficiency,
	Persuasiveness,
	FinalPosition,
	FallacyScore,
	Clarity,
}

// Weight is one term of the composite score.
type Weight struct {
	Name  string
	Value float64
}

// Weights of the composite score, summed in this order so equal criteria
// always give bit-identical composites. Clarity is reported but unweighted
// and the fallacy score is applied as a penalty.
var Weights = []Weight{
	{ArgumentStrength, 0.34},
	{FactualAccuracy, 0.25},
	{DirectResponse, 0.18},
	{RebuttalEfficiency, 0.12},
	{Persuasiveness, 0.07},
	{FinalPosition, 0.10},
}

// FallacyPenaltyWeight scales (10 - fallacy_score)/10.
const FallacyPenaltyWeight = 0.06

// Criteria holds one side's 0-10 sub-scores. Missing criteria are absent.
type Criteria map[string]float64

// Composite computes the weighted [0,1] score for one side.
func (c Criteria) Composite() float64 {
	var score float64
	for _, w := range Weights {
		score += w.Value * normalize(c[w.Name])
	}
	fallacy, ok := c[FallacyScore]
	if !ok {
		fallacy = 10
	}
	score -= (10 - clampRange(fallacy, 0, 10)) / 10 * FallacyPenaltyWeight
	return Clamp(score)
}

func (c Criteria) complete() bool {
	for _, w := range Weights {
		if _, ok := c[w.Name]; !ok {
			return false
		}
	}
	return true
}

// Kind tags how much of a judge response could be understood.
type Kind int

const (
	// Unparsed means no usable scores were found.
	Unparsed Kind = iota
	// ParsedOverall means an explicit numeric overall pair was found.
	ParsedOverall
	// ParsedCriteria means both sides' sub-criteria were found.
	ParsedCriteria
)

// Parse is the result of reading one judge response.
type Parse struct {
	Kind      Kind
	OverallA  float64
	OverallB  float64
	CriteriaA Criteria
	CriteriaB Criteria
}

var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

type rawVerdict struct {
	Overall map[string]any `json:"overall"`
	Pros    map[string]any `json:"pros"`
	Cons    map[string]any `json:"cons"`
	A       map[string]any `json:"a"`
	B       map[string]any `json:"b"`
}

// ParseResponse reads a judge response. It never fails: anything it cannot
// understand yields an Unparsed result.
func ParseResponse(raw string) Parse {
	v, ok := extractJSON(raw)
	if !ok {
		return Parse{Kind: Unparsed}
	}

	if a, okA := number(v.Overall, "a", "pros"); okA {
		if b, okB := number(v.Overall, "b", "cons"); okB {
			return Parse{Kind: ParsedOverall, OverallA: Clamp(a), OverallB: Clamp(b)}
		}
	}

	sideA, sideB := v.Pros, v.Cons
	if sideA == nil && sideB == nil {
		sideA, sideB = v.A, v.B
	}
	ca, cb := criteria(sideA), criteria(sideB)
	if ca.complete() && cb.complete() {
		return Parse{Kind: ParsedCriteria, CriteriaA: ca, CriteriaB: cb}
	}
	return Parse{Kind: Unparsed}
}

// Resolve turns a parse into a verdict score pair. lenA and lenB are the
// total text lengths of each side, used when the response was unparsable.
func Resolve(p Parse, lenA, lenB int) (a, b float64, method core.VerdictMethod) {
	switch p.Kind {
	case ParsedOverall:
		return Clamp(p.OverallA), Clamp(p.OverallB), core.MethodOverall
	case ParsedCriteria:
		return p.CriteriaA.Composite(), p.CriteriaB.Composite(), core.MethodCriteria
	}
	a, b = LengthRatio(lenA, lenB)
	return a, b, core.MethodLengthRatio
}

// LengthRatio scores each side by its share of the total text.
func LengthRatio(lenA, lenB int) (a, b float64) {
	total := lenA + lenB
	if total <= 0 {
		return 0.5, 0.5
	}
	a = Clamp(float64(lenA) / float64(total))
	return a, 1 - a
}

// Clamp limits v to [0,1]. NaN becomes 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clampRange(v, 0, 1)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func normalize(v float64) float64 {
	return clampRange(v, 0, 10) / 10
}

func extractJSON(raw string) (*rawVerdict, bool) {
	var v rawVerdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err == nil {
		return &v, true
	}

	if matches := codeBlockRe.FindStringSubmatch(raw); len(matches) > 1 {
		if err := json.Unmarshal([]byte(strings.TrimSpace(matches[1])), &v); err == nil {
			return &v, true
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &v); err == nil {
			return &v, true
		}
	}
	return nil, false
}

// number reads the first numeric value found under any of keys.
func number(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		val, ok := m[k]
		if !ok {
			continue
		}
		switch n := val.(type) {
		case float64:
			if !math.IsNaN(n) && !math.IsInf(n, 0) {
				return n, true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return f, true
			}
		}
	}
	return 0, false
}

func criteria(m map[string]any) Criteria {
	c := Criteria{}
	for _, name := range CriteriaNames {
		if v, ok := number(m, name); ok {
			c[name] = v
		}
	}
	return c
}
