/*
Package avatar is a motion arbitration and expression blending engine for
virtual characters (Live2D and 3D model hosts).

It decides, every frame, what an animated character should actually show:
which motion owns each body region, how overlapping animation layers
combine into one weight, which facial expressions survive conflict and
capacity resolution, and whether an emotion switch is allowed to happen
yet. The renderer stays dumb; the engine owns the policy.

# Concept

The engine is a deterministic, tick-driven state machine. Time is virtual:
nothing moves between calls to Tick, and a test can advance an hour in a
microsecond. All mutations happen first, then listeners are notified, so
observers always see the settled state of a frame.

Four components sit behind one facade:

  - motion: per-region arbitration with priority ranks and an idle motion
    that refills freed regions.
  - blend: a layered weight calculator with fade-in/fade-out ramps and
    override, additive and multiply combine modes.
  - expression: a weighted palette that resolves conflicts, caps
    concurrency and optionally smooths toward targets.
  - emotion: an inertia controller that damps emotional flapping, plus a
    sequencer for scripted expression timelines and keyword reactions.

# Key Entities

  - Engine: the facade. Owns the clock, the scheduler and the components;
    serializes public calls on an internal mutex.
  - catalog.Catalog: the motion and expression definitions, conflict
    table, sequence library and reaction rules.
  - ports.Avatar: the outbound command surface to the renderer.

# Usage

A bare New is fully usable with the built-in catalog:

	package main

	import (
		"fmt"
		"time"

		avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
		"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	)

	func main() {
		eng := avatar.New(
			avatar.WithName("hiyori"),
			avatar.WithIdleMotion("idle"),
		)
		defer eng.Destroy()

		eng.SubscribeMotions(func(ev domain.MotionEvent) {
			fmt.Println("motion:", ev.Kind, ev.Group)
		})

		eng.PlayMotion("wave")
		eng.SetEmotionSmart("happy")

		for i := 0; i < 60; i++ {
			eng.Tick(16 * time.Millisecond)
		}

		fmt.Println(eng.Status().Emotion.Current)
	}

Catalogs can come from the built-in defaults, YAML documents or a Loam
repository; snapshots persist through pluggable state stores (memory,
file, Redis). See pkg/adapters for the provided implementations.
*/
package avatar
