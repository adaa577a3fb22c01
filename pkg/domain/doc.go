/*
Package domain contains the core domain models of the avatar animation engine.

It defines the vocabulary shared by every component: blend modes, body regions,
priority ranks, the layer fade lifecycle, the emotional state record and the
event payloads delivered to hooks and subscribers. This package is kept pure
and free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles. All times are virtual-clock readings, never wall time.

# Key Entities

  - Layer: One independently timed animation contribution with a fade lifecycle.
  - Region: The mutually exclusive partition a motion occupies.
  - Rank: The priority order deciding which motion requests displace which.
  - EmotionState: The per-engine emotional record driving the inertia policy.
  - LifecycleHooks: Optional observability callbacks fanned out after each tick.
*/
package domain
