package stage

import (
	"strings"
	"testing"

	"github.com/alienxp03/debatearena/internal/core"
)

func TestDefaultProfiles(t *testing.T) {
	profiles := DefaultProfiles()

	if len(profiles) != len(core.Stages) {
		t.Fatalf("wrong count: got %d, want %d", len(profiles), len(core.Stages))
	}

	for i, p := range profiles {
		if p.Stage != core.Stages[i] {
			t.Errorf("profile %d is for %s, want %s", i, p.Stage, core.Stages[i])
		}
		if !strings.Contains(p.Instruction, Unknown) {
			t.Errorf("profile %s does not mandate the %q fallback", p.Stage, Unknown)
		}
		if strings.Contains(strings.ToLower(p.Instruction), p.Stage.String()) {
			t.Errorf("profile %s leaks its stage identifier", p.Stage)
		}
	}
}

func TestGet(t *testing.T) {
	t.Run("ExistingStage", func(t *testing.T) {
		p := Get(core.StageRebuttal)
		if p == nil {
			t.Fatal("profile not found")
		}
		if p.Name != "Rebuttal" {
			t.Errorf("wrong name: got %s", p.Name)
		}
	})

	t.Run("InvalidStage", func(t *testing.T) {
		if p := Get(core.Stage(42)); p != nil {
			t.Error("expected nil for invalid stage")
		}
	})
}
