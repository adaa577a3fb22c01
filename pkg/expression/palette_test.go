package expression

import (
	"math"
	"testing"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/schedule"
)

func newTestPalette(opts ...Option) (*Palette, *schedule.Scheduler) {
	clock := schedule.NewClock()
	sched := schedule.New(clock)
	p := NewPalette(append([]Option{WithClock(clock), WithCatalog(catalog.Default())}, opts...)...)
	return p, sched
}

func weightOf(sel domain.Selection, name string) (float64, bool) {
	for _, w := range sel.Weights {
		if w.Name == name {
			return w.Weight, true
		}
	}
	return 0, false
}

func TestSetKeepsIndependentWeights(t *testing.T) {
	p, _ := newTestPalette()
	p.SetAll([]domain.ExpressionWeight{
		{Name: "happy", Weight: 0.5},
		{Name: "surprised", Weight: 0.3},
	})

	sel := p.Selection()
	if w, _ := weightOf(sel, "happy"); w != 0.5 {
		t.Errorf("happy = %v, want 0.5", w)
	}
	if w, _ := weightOf(sel, "surprised"); w != 0.3 {
		t.Errorf("surprised = %v, want 0.3", w)
	}
	if len(sel.Conflicts) != 0 {
		t.Errorf("conflicts = %v, want none (happy and surprised coexist)", sel.Conflicts)
	}
}

func TestWeightClampedAndZeroRemoves(t *testing.T) {
	p, _ := newTestPalette()
	p.Set("happy", 2.5, 0)
	if w, _ := weightOf(p.Selection(), "happy"); w != 1 {
		t.Errorf("happy = %v, want clamped 1", w)
	}

	p.Set("happy", 0, 0)
	if _, ok := weightOf(p.Selection(), "happy"); ok {
		t.Error("zero weight did not remove the expression")
	}
}

func TestCapacityEvictsLowestRanked(t *testing.T) {
	p, _ := newTestPalette(WithMaxActive(2), WithAutoNormalize(false))
	p.SetAll([]domain.ExpressionWeight{
		{Name: "happy", Weight: 0.9, Priority: 5},
		{Name: "surprised", Weight: 0.8, Priority: 3},
		{Name: "blink", Weight: 0.7, Priority: 1},
	})

	sel := p.Selection()
	if len(sel.Weights) != 2 {
		t.Fatalf("weights = %d, want 2", len(sel.Weights))
	}
	if _, ok := weightOf(sel, "blink"); ok {
		t.Error("lowest-priority expression survived capacity eviction")
	}
	if len(sel.Dropped) != 1 || sel.Dropped[0] != "blink" {
		t.Errorf("dropped = %v, want [blink]", sel.Dropped)
	}

	// Eviction is destructive: the evicted name does not come back when
	// room frees up.
	p.Remove("happy")
	if _, ok := weightOf(p.Selection(), "blink"); ok {
		t.Error("capacity-evicted expression reappeared")
	}
}

func TestConflictDetectedOncePerPair(t *testing.T) {
	p, _ := newTestPalette(WithPolicy(PolicyBlend), WithAutoNormalize(false))
	p.SetAll([]domain.ExpressionWeight{
		{Name: "happy", Weight: 0.6, Priority: 2},
		{Name: "sad", Weight: 0.5, Priority: 1},
	})

	sel := p.Selection()
	if len(sel.Conflicts) != 1 {
		t.Fatalf("conflicts = %v, want exactly one pair", sel.Conflicts)
	}
	want := domain.NewConflictPair("happy", "sad")
	if sel.Conflicts[0] != want {
		t.Errorf("conflict = %v, want %v", sel.Conflicts[0], want)
	}
	// Blend policy keeps both members.
	if len(sel.Weights) != 2 {
		t.Errorf("weights = %d, want both kept under blend policy", len(sel.Weights))
	}
}

func TestPriorityPolicyDropsLoser(t *testing.T) {
	p, _ := newTestPalette(WithAutoNormalize(false))
	p.SetAll([]domain.ExpressionWeight{
		{Name: "happy", Weight: 0.6, Priority: 2},
		{Name: "sad", Weight: 0.9, Priority: 1},
	})

	sel := p.Selection()
	if _, ok := weightOf(sel, "sad"); ok {
		t.Error("lower-priority conflict member still displayed")
	}
	if w, _ := weightOf(sel, "happy"); w != 0.6 {
		t.Errorf("winner weight = %v, want untouched 0.6", w)
	}
	if len(sel.Conflicts) != 1 {
		t.Errorf("conflicts = %v, want reported even when resolved", sel.Conflicts)
	}

	// The loser stays targeted: removing the winner brings it back.
	p.Remove("happy")
	if w, _ := weightOf(p.Selection(), "sad"); w != 0.9 {
		t.Errorf("conflict loser did not return after winner left, weight = %v", w)
	}
}

func TestPriorityPolicyTieKeepsBoth(t *testing.T) {
	p, _ := newTestPalette(WithAutoNormalize(false))
	p.SetAll([]domain.ExpressionWeight{
		{Name: "happy", Weight: 0.6, Priority: 2},
		{Name: "sad", Weight: 0.5, Priority: 2},
	})

	sel := p.Selection()
	if len(sel.Weights) != 2 {
		t.Errorf("weights = %d, want both kept on a priority tie", len(sel.Weights))
	}
}

func TestAutoNormalizeIsIdempotent(t *testing.T) {
	weights := map[string]domain.ExpressionWeight{
		"happy":     {Name: "happy", Weight: 0.9},
		"surprised": {Name: "surprised", Weight: 0.6},
	}
	normalize(weights)
	total := weights["happy"].Weight + weights["surprised"].Weight
	if math.Abs(total-1) > 1e-9 {
		t.Fatalf("total after normalize = %v, want 1", total)
	}
	once := weights["happy"].Weight

	normalize(weights)
	if weights["happy"].Weight != once {
		t.Errorf("second normalize changed %v to %v", once, weights["happy"].Weight)
	}
}

func TestNormalizeLeavesSmallTotalsAlone(t *testing.T) {
	p, _ := newTestPalette()
	p.SetAll([]domain.ExpressionWeight{
		{Name: "happy", Weight: 0.5},
		{Name: "blink", Weight: 0.2},
	})
	sel := p.Selection()
	if w, _ := weightOf(sel, "happy"); w != 0.5 {
		t.Errorf("happy = %v, want 0.5 (total 0.7 needs no scaling)", w)
	}
}

func TestSmoothingConvergesAndDeletes(t *testing.T) {
	p, _ := newTestPalette(WithSmoothing(0.5), WithAutoNormalize(false))
	p.Set("happy", 1, 0)

	// Displayed weight starts at zero and halves the distance each tick.
	if w, ok := weightOf(p.Selection(), "happy"); ok && w != 0 {
		t.Fatalf("displayed weight before any tick = %v, want 0", w)
	}
	p.Tick()
	if w, _ := weightOf(p.Selection(), "happy"); math.Abs(w-0.5) > 1e-9 {
		t.Errorf("after 1 tick = %v, want 0.5", w)
	}
	p.Tick()
	if w, _ := weightOf(p.Selection(), "happy"); math.Abs(w-0.75) > 1e-9 {
		t.Errorf("after 2 ticks = %v, want 0.75", w)
	}

	p.Remove("happy")
	for i := 0; i < 32; i++ {
		p.Tick()
	}
	if _, ok := weightOf(p.Selection(), "happy"); ok {
		t.Error("removed expression not deleted once below epsilon")
	}
}

func TestDisabledSmoothingAppliesImmediately(t *testing.T) {
	p, _ := newTestPalette()
	p.Set("happy", 0.8, 0)
	if w, _ := weightOf(p.Selection(), "happy"); w != 0.8 {
		t.Errorf("displayed = %v, want target applied without a tick", w)
	}
}

func TestSubscribeDeliversOnMutationBuffersOnTick(t *testing.T) {
	p, _ := newTestPalette()
	var got []domain.Selection
	unsub := p.Subscribe(func(s domain.Selection) { got = append(got, s) })

	p.Set("happy", 0.5, 0)
	if len(got) != 1 {
		t.Fatalf("selections after Set = %d, want 1", len(got))
	}

	p.Tick()
	if len(got) != 1 {
		t.Fatal("tick selection delivered before Flush")
	}
	p.Flush()
	if len(got) != 2 {
		t.Fatalf("selections after Tick+Flush = %d, want 2", len(got))
	}

	unsub()
	p.Set("blink", 0.2, 0)
	if len(got) != 2 {
		t.Error("unsubscribed listener still fired")
	}
}

func TestSelectionOrderIsStable(t *testing.T) {
	p, _ := newTestPalette(WithAutoNormalize(false))
	p.SetAll([]domain.ExpressionWeight{
		{Name: "blink", Weight: 0.2, Priority: 1},
		{Name: "relief", Weight: 0.4, Priority: 1},
		{Name: "thoughtful", Weight: 0.4, Priority: 1},
	})

	sel := p.Selection()
	gotOrder := []string{sel.Weights[0].Name, sel.Weights[1].Name, sel.Weights[2].Name}
	want := []string{"relief", "thoughtful", "blink"}
	for i := range want {
		if gotOrder[i] != want[i] {
			t.Fatalf("order = %v, want %v (weight desc then name asc)", gotOrder, want)
		}
	}
}
