package emotion

import (
	"testing"
	"time"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/schedule"
)

type fakeAvatar struct {
	sets    []string
	blends  []string
	motions []string
	current string
}

func (f *fakeAvatar) SetExpression(name string, _ domain.ExpressionOptions) {
	f.sets = append(f.sets, name)
	f.current = name
}

func (f *fakeAvatar) BlendExpressions(a, b string, _ float64) {
	f.blends = append(f.blends, a+"+"+b)
}

func (f *fakeAvatar) PlayMotion(group string, _ domain.Rank) {
	f.motions = append(f.motions, group)
}

func (f *fakeAvatar) LookAt(_, _ float64) {}

func (f *fakeAvatar) CurrentExpression() string { return f.current }

func newTestController(opts ...Option) (*Controller, *schedule.Scheduler) {
	sched := schedule.New(schedule.NewClock())
	return NewController(sched, opts...), sched
}

func TestSmartSwitchRejectedInsideInterval(t *testing.T) {
	c, _ := newTestController()
	if !c.SetEmotionSmart("happy") {
		t.Fatal("first switch rejected")
	}
	if c.SetEmotionSmart("sad") {
		t.Fatal("second switch inside the minimum interval committed")
	}
	if got := c.State().Current; got != "happy" {
		t.Errorf("state = %q, want happy", got)
	}
}

func TestSmartSwitchCommitsAfterInterval(t *testing.T) {
	c, sched := newTestController()
	c.SetEmotionSmart("happy")

	sched.Advance(2 * time.Second)
	if !c.SetEmotionSmart("sad") {
		t.Fatal("switch after the minimum interval rejected")
	}
	st := c.State()
	if st.Current != "sad" || st.Previous != "happy" {
		t.Errorf("state = %q (prev %q), want sad after happy", st.Current, st.Previous)
	}
}

func TestMomentumDecayAllowsEarlySwitch(t *testing.T) {
	c, sched := newTestController()
	c.SetEmotionSmart("happy") // intensity and momentum 0.7

	// After 1s momentum is 0.7 - 0.25 = 0.45, below sad's 0.6.
	sched.Advance(time.Second)
	if !c.SetEmotionSmart("sad") {
		t.Error("decayed momentum did not admit a stronger candidate")
	}
}

func TestCompatibleBypassesInterval(t *testing.T) {
	c, _ := newTestController()
	c.SetEmotionSmart("happy")

	// shy (0.5) is weaker than happy's momentum but on its compatibility
	// list.
	if !c.SetEmotionSmart("shy") {
		t.Error("compatibility-listed candidate rejected inside the interval")
	}

	c.Reset()
	c.SetEmotionSmart("happy")
	// annoyed (0.4) is weaker and not compatible.
	if c.SetEmotionSmart("annoyed") {
		t.Error("incompatible weak candidate committed inside the interval")
	}
}

func TestMomentumResetsOnCommit(t *testing.T) {
	c, sched := newTestController()
	c.SetEmotionSmart("happy")
	sched.Advance(time.Second)
	if m := c.Momentum(); m < 0.449 || m > 0.451 {
		t.Fatalf("momentum after 1s = %v, want 0.45", m)
	}

	c.SetEmotionSmart("sad")
	if m := c.Momentum(); m != 0.6 {
		t.Errorf("momentum after commit = %v, want sad's intensity 0.6", m)
	}
}

func TestSequencePlaysStepsThenSettles(t *testing.T) {
	av := &fakeAvatar{}
	c, sched := newTestController(WithAvatar(av))
	var steps []int
	c.SubscribeSequences(func(e domain.SequenceEvent) { steps = append(steps, e.Step) })
	var changes []domain.EmotionChange
	c.SubscribeChanges(func(e domain.EmotionChange) { changes = append(changes, e) })

	done := false
	if err := c.PlayNamed("greeting", func() { done = true }); err != nil {
		t.Fatal(err)
	}

	sched.Advance(0) // step 0: happy
	sched.Advance(1200 * time.Millisecond)
	sched.Advance(800 * time.Millisecond)
	c.Flush()

	want := []int{0, 1, -1}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", steps, want)
		}
	}
	if !done {
		t.Error("completion callback did not fire")
	}
	// smile (0.3) is below the rebound threshold: settle goes straight to
	// neutral.
	if c.State().Current != "neutral" {
		t.Errorf("state after settle = %q, want neutral", c.State().Current)
	}
	if len(changes) != 1 || changes[0].Reason != "settle" {
		t.Errorf("changes = %+v, want a single settle commit", changes)
	}
	if len(av.sets) < 2 || av.sets[0] != "happy" || av.sets[1] != "smile" {
		t.Errorf("avatar sets = %v, want happy then smile", av.sets)
	}
}

func TestHighIntensityCompletionRebounds(t *testing.T) {
	av := &fakeAvatar{}
	c, sched := newTestController(WithAvatar(av))
	var changes []domain.EmotionChange
	c.SubscribeChanges(func(e domain.EmotionChange) { changes = append(changes, e) })

	if err := c.PlayNamed("delight", nil); err != nil {
		t.Fatal(err)
	}
	sched.Advance(0)                      // surprised
	sched.Advance(500 * time.Millisecond) // hold done, pre-delay pending
	sched.Advance(100 * time.Millisecond) // excited blended with happy
	if len(av.blends) != 1 || av.blends[0] != "excited+happy" {
		t.Fatalf("blends = %v, want excited+happy", av.blends)
	}

	sched.Advance(1500 * time.Millisecond) // completion: excited is 0.9
	c.Flush()
	if len(changes) != 1 || changes[0].Reason != "rebound" || changes[0].Expression != "smile" {
		t.Fatalf("changes at completion = %+v, want the smile rebound", changes)
	}
	if changes[0].Committed {
		t.Error("rebound display was reported as a committed change")
	}

	sched.Advance(400 * time.Millisecond) // rebound hold
	c.Flush()
	if c.State().Current != "neutral" {
		t.Errorf("state after rebound hold = %q, want neutral", c.State().Current)
	}
	if last := changes[len(changes)-1]; !last.Committed || last.Expression != "neutral" {
		t.Errorf("final change = %+v, want committed neutral", last)
	}
}

func TestLoopRestartsWithoutComplete(t *testing.T) {
	seq := NewSequence("pulse").
		Step("smile").Weight(0.5).Hold(100 * time.Millisecond).
		Then("blink").Weight(0.4).Hold(100 * time.Millisecond).
		Loop().Build()

	c, sched := newTestController()
	var events []domain.SequenceEvent
	c.SubscribeSequences(func(e domain.SequenceEvent) { events = append(events, e) })

	completed := false
	c.Play(seq, func() { completed = true })

	for i := 0; i < 10; i++ {
		sched.Advance(100 * time.Millisecond)
	}
	c.Flush()

	if completed {
		t.Error("loop sequence invoked its completion callback")
	}
	var wrapped bool
	for _, e := range events {
		if e.Step == -1 {
			t.Fatalf("loop sequence emitted a completion event: %+v", events)
		}
		if e.Step == 0 && e.Looped {
			wrapped = true
		}
	}
	if !wrapped {
		t.Error("no looped step-0 event observed")
	}
	if _, _, ok := c.Sequence(); !ok {
		t.Error("loop sequence stopped running")
	}
}

func TestZeroDurationLoopStops(t *testing.T) {
	seq := NewSequence("degenerate").Step("smile").Then("blink").Loop().Build()
	c, sched := newTestController()
	var steps int
	c.SubscribeSequences(func(domain.SequenceEvent) { steps++ })

	c.Play(seq, nil)
	sched.Advance(0)
	c.Flush()

	if _, _, ok := c.Sequence(); ok {
		t.Error("zero-duration loop still running")
	}
	if steps != 2 {
		t.Errorf("steps fired = %d, want one pass of 2", steps)
	}
}

func TestCancelSequenceStopsSteps(t *testing.T) {
	c, sched := newTestController()
	var events int
	c.SubscribeSequences(func(domain.SequenceEvent) { events++ })

	if err := c.PlayNamed("greeting", nil); err != nil {
		t.Fatal(err)
	}
	sched.Advance(0)
	c.Flush()
	if events != 1 {
		t.Fatalf("events before cancel = %d, want 1", events)
	}

	c.CancelSequence()
	sched.Advance(10 * time.Second)
	c.Flush()
	if events != 1 {
		t.Errorf("events after cancel = %d, want no more than before", events)
	}
	if _, _, ok := c.Sequence(); ok {
		t.Error("cancelled sequence still reported running")
	}
}

func TestPlayReplacesRunningSequence(t *testing.T) {
	c, sched := newTestController()
	var names []string
	c.SubscribeSequences(func(e domain.SequenceEvent) { names = append(names, e.Sequence) })

	_ = c.PlayNamed("greeting", nil)
	sched.Advance(0)
	_ = c.PlayNamed("sulk", nil)
	sched.Advance(5 * time.Second)
	c.Flush()

	for _, n := range names[1:] {
		if n == "greeting" {
			t.Fatalf("replaced sequence kept stepping: %v", names)
		}
	}
	if name, _, _ := c.Sequence(); name != "" && name != "sulk" {
		t.Errorf("running sequence = %q, want sulk or finished", name)
	}
}

func TestPlayNamedUnknownSequence(t *testing.T) {
	c, _ := newTestController()
	if err := c.PlayNamed("does_not_exist", nil); err == nil {
		t.Fatal("unknown sequence did not error")
	}
}

func TestReactPicksHighestPriorityRule(t *testing.T) {
	c, _ := newTestController()
	var reactions []domain.Reaction
	c.SubscribeReactions(func(r domain.Reaction) { reactions = append(reactions, r) })

	// "thank" matches praise (30) and "help" matches alarm (40); the
	// higher-priority rule wins.
	if !c.React("Thank you for the help!") {
		t.Fatal("reaction text did not match")
	}
	if len(reactions) != 1 || reactions[0].Rule != "alarm" {
		t.Errorf("reactions = %+v, want the alarm rule", reactions)
	}
	if name, _, _ := c.Sequence(); name != "panic" {
		t.Errorf("running sequence = %q, want panic", name)
	}
}

func TestReactNoMatchIsNoOp(t *testing.T) {
	c, _ := newTestController()
	if c.React("entirely unremarkable text") {
		t.Error("unmatched text reported a reaction")
	}
	if _, _, ok := c.Sequence(); ok {
		t.Error("unmatched text started a sequence")
	}
}

func TestRestoreReplacesState(t *testing.T) {
	c, sched := newTestController()
	_ = c.PlayNamed("greeting", nil)

	c.Restore(domain.EmotionState{Current: "sad", Intensity: 0.6, Momentum: 0.6, ChangedAt: time.Second})
	if c.State().Current != "sad" {
		t.Errorf("state = %q, want sad", c.State().Current)
	}
	if _, _, ok := c.Sequence(); ok {
		t.Error("restore left a sequence running")
	}
	sched.Advance(10 * time.Second)
	if c.State().Current != "sad" {
		t.Error("stale scheduled step fired after restore")
	}
}

func TestBuilderComposes(t *testing.T) {
	seq := NewSequence("custom").
		Step("happy").Weight(0.8).PreDelay(50*time.Millisecond).Hold(time.Second).
		Then("smile").Weight(2).Blend("happy", 0.3).Hold(500 * time.Millisecond).
		Build()

	if seq.Name != "custom" || len(seq.Steps) != 2 || seq.Loop {
		t.Fatalf("sequence = %+v, want 2 non-looping steps", seq)
	}
	first, second := seq.Steps[0], seq.Steps[1]
	if first.Expression != "happy" || first.Weight != 0.8 || first.PreDelay != 50*time.Millisecond {
		t.Errorf("first step = %+v", first)
	}
	if second.Weight != 1 {
		t.Errorf("second step weight = %v, want clamped 1", second.Weight)
	}
	if second.BlendWith != "happy" || second.BlendRatio != 0.3 {
		t.Errorf("second step blend = %q/%v", second.BlendWith, second.BlendRatio)
	}
}

func TestEmptySequenceIgnored(t *testing.T) {
	c, _ := newTestController()
	c.Play(catalog.Sequence{Name: "empty"}, nil)
	if _, _, ok := c.Sequence(); ok {
		t.Error("empty sequence reported running")
	}
}
