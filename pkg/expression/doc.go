/*
Package expression implements the weighted expression palette and its
conflict resolver.

Several named expressions coexist with independent weights. Every
mutation re-resolves the set: targets beyond the concurrency cap are
evicted by priority, conflicting pairs are detected against the catalog
table and resolved by policy, and the total is normalized when it
exceeds 1. With smoothing enabled the displayed weights chase the
resolved targets as a first-order low-pass driven by the tick.

# Key Entities

  - Palette: the target and displayed weight sets plus the resolver.
  - Policy: what happens to the members of a conflicting pair.
*/
package expression
