package catalog

import (
	"errors"
	"testing"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

func TestConflictSymmetry(t *testing.T) {
	c := New()
	c.AddConflict("happy", "sad")

	if !c.InConflict("happy", "sad") || !c.InConflict("sad", "happy") {
		t.Error("conflict is not symmetric")
	}
	if c.InConflict("happy", "happy") {
		t.Error("self-conflict recorded")
	}
	if c.InConflict("happy", "angry") {
		t.Error("unrelated pair reported as conflicting")
	}
}

func TestConflictCaseInsensitive(t *testing.T) {
	c := New()
	c.AddConflict("Happy", "SAD")
	if !c.InConflict("happy", "sad") {
		t.Error("conflict lookup is case sensitive")
	}
}

func TestRegionOfTotal(t *testing.T) {
	c := Default()

	if got := c.RegionOf("wave"); got != domain.RegionArms {
		t.Errorf("RegionOf(wave) = %s, want %s", got, domain.RegionArms)
	}
	if got := c.RegionOf("zuoshou"); got != domain.RegionArms {
		t.Errorf("RegionOf(zuoshou) = %s, want %s", got, domain.RegionArms)
	}
	// Unknown group with a hint in the name.
	if got := c.RegionOf("fancy_wave_v2"); got != domain.RegionArms {
		t.Errorf("RegionOf(fancy_wave_v2) = %s, want %s", got, domain.RegionArms)
	}
	// Completely unknown: total mapping lands on full.
	if got := c.RegionOf("quux"); got != domain.RegionFull {
		t.Errorf("RegionOf(quux) = %s, want %s", got, domain.RegionFull)
	}
}

func TestExpressionDefault(t *testing.T) {
	c := New()
	def, ok := c.Expression("unknowable")
	if ok {
		t.Error("unknown expression reported as known")
	}
	if def.Name != "unknowable" || def.Intensity != DefaultIntensity {
		t.Errorf("default def = %+v", def)
	}
}

func TestReactionFirstMatchWins(t *testing.T) {
	c := New()
	c.AddReaction(ReactionRule{Name: "low", Keywords: []string{"hello"}, Sequence: "a", Priority: 1})
	c.AddReaction(ReactionRule{Name: "high", Keywords: []string{"hello there"}, Sequence: "b", Priority: 10})

	rule, kw, ok := c.ReactionFor("Well, HELLO THERE friend")
	if !ok {
		t.Fatal("no reaction matched")
	}
	if rule.Name != "high" {
		t.Errorf("matched rule = %s, want high (priority order)", rule.Name)
	}
	if kw != "hello there" {
		t.Errorf("matched keyword = %q", kw)
	}

	if _, _, ok := c.ReactionFor("nothing relevant"); ok {
		t.Error("unrelated text matched a rule")
	}
	if _, _, ok := c.ReactionFor("   "); ok {
		t.Error("blank text matched a rule")
	}
}

func TestSequenceLookup(t *testing.T) {
	c := Default()
	if _, err := c.Sequence("greeting"); err != nil {
		t.Errorf("Sequence(greeting) error = %v", err)
	}
	_, err := c.Sequence("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Sequence(nope) error = %v, want ErrNotFound", err)
	}
}

func TestSuggest(t *testing.T) {
	c := Default()

	if got, ok := c.SuggestExpression("hapy"); !ok || got != "happy" {
		t.Errorf("SuggestExpression(hapy) = %q, %v", got, ok)
	}
	if got, ok := c.SuggestMotion("wav"); !ok || got != "wave" {
		t.Errorf("SuggestMotion(wav) = %q, %v", got, ok)
	}
	if _, ok := c.SuggestExpression("xxxxxxxxxxxx"); ok {
		t.Error("far-off name produced a suggestion")
	}
}

func TestDefaultCatalogValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
}

func TestValidateReportsDangling(t *testing.T) {
	c := New()
	c.AddExpression(ExpressionDef{Name: "happy", Rebound: "ghost"})
	c.AddSequence(Sequence{Name: "s", Steps: []SequenceStep{{Expression: "missing"}}})
	c.AddReaction(ReactionRule{Name: "r", Keywords: []string{"x"}, Sequence: "nowhere"})

	err := c.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want aggregate error")
	}
	if got := len(ValidationErrors(err)); got != 3 {
		t.Errorf("validation errors = %d, want 3:\n%v", got, err)
	}
}

func TestAddMotionDefaults(t *testing.T) {
	c := New()
	c.AddMotion(MotionDef{Group: "wave"})
	def, ok := c.Motion("WAVE")
	if !ok {
		t.Fatal("motion not found by case-insensitive name")
	}
	if def.Region != domain.RegionArms {
		t.Errorf("region = %s, want derived %s", def.Region, domain.RegionArms)
	}
	if def.Weight != 1 {
		t.Errorf("weight = %v, want default 1", def.Weight)
	}
}
