package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/loam"

	loamAdapter "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/adapters/loam"
)

func main() {
	targetDir := "examples/catalog"
	if len(os.Args) > 1 {
		targetDir = os.Args[1]
	}

	// Ensure dir exists
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		panic(err)
	}

	fmt.Printf("Generating sample catalog in: %s\n", targetDir)

	// Init Loam (No Versioning = pure file generation)
	// This acts as our "Catalog Editor" saving to disk.
	repo, err := loam.Init(targetDir, loam.WithVersioning(false))
	if err != nil {
		panic(err)
	}

	typedRepo := loam.NewTypedRepository[loamAdapter.DefMetadata](repo)
	ctx := context.TODO()

	// 1. Motions. No duration means the group loops until stopped.
	err = typedRepo.Save(ctx, &loam.DocumentModel[loamAdapter.DefMetadata]{
		ID:      "motions/sway",
		Content: "Gentle weight shift for idle standing. Loops.",
		Data: loamAdapter.DefMetadata{
			Region:  "torso",
			Rank:    "idle",
			FadeIn:  "600ms",
			FadeOut: "600ms",
		},
	})
	check(err)

	err = typedRepo.Save(ctx, &loam.DocumentModel[loamAdapter.DefMetadata]{
		ID:      "motions/stretch",
		Content: "Both arms up, hold, release. Plays once.",
		Data: loamAdapter.DefMetadata{
			Region:   "arms",
			Rank:     "gesture",
			FadeIn:   "250ms",
			FadeOut:  "350ms",
			Duration: "2s",
		},
	})
	check(err)

	// 2. Expression with a conflict declaration (registered symmetrically).
	err = typedRepo.Save(ctx, &loam.DocumentModel[loamAdapter.DefMetadata]{
		ID:      "expressions/wink",
		Content: "One eye closed. Pairs well with the happy family.",
		Data: loamAdapter.DefMetadata{
			Intensity:  0.5,
			Rebound:    "blink",
			Compatible: []string{"happy", "smile"},
			Conflicts:  []string{"sad"},
		},
	})
	check(err)

	// 3. Sequence with inline steps.
	err = typedRepo.Save(ctx, &loam.DocumentModel[loamAdapter.DefMetadata]{
		ID:      "sequences/cheer",
		Content: "Quick wink, then a big excited burst.",
		Data: loamAdapter.DefMetadata{
			Steps: []any{
				map[string]any{"expression": "wink", "weight": 0.6, "hold": "400ms"},
				map[string]any{"expression": "excited", "weight": 0.9, "pre_delay": "100ms", "hold": "1200ms", "blend_with": "happy", "blend_ratio": 0.4},
			},
		},
	})
	check(err)

	// 4. Sequence outside the conventional layout: kind is explicit and the
	// first step is an include reference resolved against sequences/.
	err = typedRepo.Save(ctx, &loam.DocumentModel[loamAdapter.DefMetadata]{
		ID:      "extras/celebrate",
		Content: "Cheer, then settle with relief.",
		Data: loamAdapter.DefMetadata{
			Kind: "sequence",
			Steps: []any{
				"cheer",
				map[string]any{"expression": "relief", "weight": 0.4, "pre_delay": "300ms", "hold": "800ms"},
			},
		},
	})
	check(err)

	// 5. Reaction wiring speech keywords to the new sequence.
	err = typedRepo.Save(ctx, &loam.DocumentModel[loamAdapter.DefMetadata]{
		ID:      "reactions/cheer_up",
		Content: "Fires when the user celebrates something.",
		Data: loamAdapter.DefMetadata{
			Keywords: []string{"congrats", "well done", "hooray"},
			Sequence: "celebrate",
			Priority: 25,
		},
	})
	check(err)

	fmt.Println("Done. Verify contents in", targetDir)
	fmt.Println("Try: avatar run --catalog", targetDir)
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
