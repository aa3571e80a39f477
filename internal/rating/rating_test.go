package rating

import (
	"math"
	"testing"
)

func TestUpdateEqualRatings(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		wantA   float64
		wantB   float64
	}{
		{"a wins", Win, 1016, 984},
		{"b wins", Loss, 984, 1016},
		{"draw", Draw, 1000, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := Update(1000, 1000, tt.outcome, 32)
			if math.Abs(a-tt.wantA) > 1e-9 || math.Abs(b-tt.wantB) > 1e-9 {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.wantA, tt.wantB, a, b)
			}
		})
	}
}

func TestUpdateConservesTotal(t *testing.T) {
	pairs := [][2]float64{{1200, 900}, {850, 1400}, {1000, 1001}}
	for _, p := range pairs {
		for _, o := range []Outcome{Win, Draw, Loss} {
			a, b := Update(p[0], p[1], o, 32)
			if math.Abs((a+b)-(p[0]+p[1])) > 1e-9 {
				t.Errorf("ratings %v outcome %v: total changed to %v", p, o, a+b)
			}
		}
	}
}

func TestUpdateUpsetGainsMore(t *testing.T) {
	favored, _ := Update(1400, 1000, Win, 32)
	underdog, _ := Update(1000, 1400, Win, 32)
	if favored-1400 >= underdog-1000 {
		t.Errorf("underdog win should gain more: favored %+v underdog %+v", favored-1400, underdog-1000)
	}
}

func TestUpdateDefaultK(t *testing.T) {
	a, _ := Update(1000, 1000, Win, 0)
	if a != 1016 {
		t.Errorf("expected default K of 32, got new rating %v", a)
	}
}

func TestOutcomeFor(t *testing.T) {
	if OutcomeFor("", "a") != Draw {
		t.Error("empty winner should be a draw")
	}
	if OutcomeFor("a", "a") != Win {
		t.Error("expected win")
	}
	if OutcomeFor("b", "a") != Loss {
		t.Error("expected loss")
	}
}
