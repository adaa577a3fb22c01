package avatar_test

import (
	"fmt"
	"time"

	avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/adapters/memory"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

// ExampleNew_library demonstrates using the engine purely as a Go library:
// a catalog built in code and a recording sink instead of a real renderer.
func ExampleNew_library() {
	// 1. Define the character's vocabulary with pure Go structs.
	cat := catalog.New()
	cat.AddMotion(catalog.MotionDef{
		Group:    "spin",
		Region:   domain.RegionFull,
		Rank:     domain.RankGesture,
		Duration: time.Second,
	})
	cat.AddExpression(catalog.ExpressionDef{Name: "neutral", Intensity: 0.1})
	cat.AddExpression(catalog.ExpressionDef{Name: "happy", Intensity: 0.7})

	// 2. Wire a recording avatar so commands can be inspected.
	sink := memory.NewAvatar()
	eng := avatar.New(
		avatar.WithCatalog(cat),
		avatar.WithAvatar(sink),
	)
	defer eng.Destroy()

	// 3. Drive it.
	eng.PlayMotion("spin")
	eng.SetEmotionSmart("happy")
	eng.Tick(16 * time.Millisecond)

	for _, m := range sink.Motions() {
		fmt.Println("motion:", m.Group)
	}
	fmt.Println("showing:", sink.CurrentExpression())
	// Output:
	// motion: spin
	// showing: happy
}
