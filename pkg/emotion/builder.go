package emotion

import (
	"time"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

// SequenceBuilder provides a fluent API for composing sequences in code
// instead of loading them from a catalog file. Useful for dynamic
// generation and tests.
type SequenceBuilder struct {
	seq catalog.Sequence
}

// NewSequence starts a builder for a named sequence.
func NewSequence(name string) *SequenceBuilder {
	return &SequenceBuilder{seq: catalog.Sequence{Name: name}}
}

// Step appends a step displaying the expression and returns its builder.
func (b *SequenceBuilder) Step(expression string) *StepBuilder {
	b.seq.Steps = append(b.seq.Steps, catalog.SequenceStep{Expression: expression})
	return &StepBuilder{builder: b, idx: len(b.seq.Steps) - 1}
}

// Loop marks the sequence to restart at step 0 instead of completing.
func (b *SequenceBuilder) Loop() *SequenceBuilder {
	b.seq.Loop = true
	return b
}

// Build returns the composed sequence.
func (b *SequenceBuilder) Build() catalog.Sequence {
	return b.seq
}

// StepBuilder configures one step of a sequence.
type StepBuilder struct {
	builder *SequenceBuilder
	idx     int
}

func (s *StepBuilder) step() *catalog.SequenceStep {
	return &s.builder.seq.Steps[s.idx]
}

// Weight sets the display weight for the step's expression.
func (s *StepBuilder) Weight(w float64) *StepBuilder {
	s.step().Weight = domain.Clamp01(w)
	return s
}

// PreDelay waits before the step's expression is displayed.
func (s *StepBuilder) PreDelay(d time.Duration) *StepBuilder {
	if d < 0 {
		d = 0
	}
	s.step().PreDelay = d
	return s
}

// Hold keeps the step's expression displayed for the duration.
func (s *StepBuilder) Hold(d time.Duration) *StepBuilder {
	if d < 0 {
		d = 0
	}
	s.step().Hold = d
	return s
}

// Blend mixes a secondary expression into the step at the given ratio.
func (s *StepBuilder) Blend(with string, ratio float64) *StepBuilder {
	s.step().BlendWith = with
	s.step().BlendRatio = domain.Clamp01(ratio)
	return s
}

// Then appends the next step.
func (s *StepBuilder) Then(expression string) *StepBuilder {
	return s.builder.Step(expression)
}

// Loop marks the whole sequence looping.
func (s *StepBuilder) Loop() *SequenceBuilder {
	return s.builder.Loop()
}

// Build returns the composed sequence.
func (s *StepBuilder) Build() catalog.Sequence {
	return s.builder.Build()
}
