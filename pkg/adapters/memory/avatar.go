package memory

import (
	"sync"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

// ExpressionCall records one SetExpression command.
type ExpressionCall struct {
	Name    string
	Options domain.ExpressionOptions
}

// BlendCall records one BlendExpressions command.
type BlendCall struct {
	A, B  string
	Ratio float64
}

// MotionCall records one PlayMotion command.
type MotionCall struct {
	Group string
	Rank  domain.Rank
}

// GazeCall records one LookAt command.
type GazeCall struct {
	X, Y float64
}

// Avatar implements ports.Avatar by recording every command. It serves as
// the renderer in tests and as a headless sink whose last-known state can
// be polled by a host. Safe for concurrent use.
type Avatar struct {
	mu          sync.Mutex
	expressions []ExpressionCall
	blends      []BlendCall
	motions     []MotionCall
	gazes       []GazeCall
	current     string
}

// NewAvatar creates an empty recording avatar.
func NewAvatar() *Avatar {
	return &Avatar{}
}

// SetExpression records the command and updates the current expression.
func (a *Avatar) SetExpression(name string, opts domain.ExpressionOptions) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expressions = append(a.expressions, ExpressionCall{Name: name, Options: opts})
	a.current = name
}

// BlendExpressions records the command; the current expression becomes
// "a+b".
func (a *Avatar) BlendExpressions(x, y string, ratio float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blends = append(a.blends, BlendCall{A: x, B: y, Ratio: ratio})
	a.current = x + "+" + y
}

// PlayMotion records the command.
func (a *Avatar) PlayMotion(group string, rank domain.Rank) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.motions = append(a.motions, MotionCall{Group: group, Rank: rank})
}

// LookAt records the command.
func (a *Avatar) LookAt(x, y float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gazes = append(a.gazes, GazeCall{X: x, Y: y})
}

// CurrentExpression reports the last expression or blend shown.
func (a *Avatar) CurrentExpression() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Expressions returns a copy of the recorded SetExpression calls.
func (a *Avatar) Expressions() []ExpressionCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ExpressionCall, len(a.expressions))
	copy(out, a.expressions)
	return out
}

// Blends returns a copy of the recorded BlendExpressions calls.
func (a *Avatar) Blends() []BlendCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]BlendCall, len(a.blends))
	copy(out, a.blends)
	return out
}

// Motions returns a copy of the recorded PlayMotion calls.
func (a *Avatar) Motions() []MotionCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]MotionCall, len(a.motions))
	copy(out, a.motions)
	return out
}

// Gazes returns a copy of the recorded LookAt calls.
func (a *Avatar) Gazes() []GazeCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]GazeCall, len(a.gazes))
	copy(out, a.gazes)
	return out
}

// Reset clears the recording.
func (a *Avatar) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expressions = nil
	a.blends = nil
	a.motions = nil
	a.gazes = nil
	a.current = ""
}
