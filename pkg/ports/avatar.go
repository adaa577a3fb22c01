package ports

import "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"

// Avatar is the outbound command surface to the rendered character (the
// Live2D/3D model host). Commands are fire-and-forget: the renderer owns
// playback and the engine never waits on it. The only feedback channel is
// CurrentExpression, a synchronous getter.
type Avatar interface {
	// SetExpression asks the renderer to show a single named expression.
	SetExpression(name string, opts domain.ExpressionOptions)

	// BlendExpressions shows a mix of two expressions at the given ratio
	// of b over a.
	BlendExpressions(a, b string, ratio float64)

	// PlayMotion starts a motion group at the given priority rank.
	PlayMotion(group string, rank domain.Rank)

	// LookAt orients the character toward normalized screen coordinates.
	LookAt(x, y float64)

	// CurrentExpression reports what the renderer is currently showing.
	CurrentExpression() string
}
