/*
Package motion implements the body-region arbiter: the per-region motion
queue that admits, rejects and evicts requests by rank.

Each body region holds at most one live layer. A request is rejected only
when the current occupant outranks it strictly; equal ranks replace the
occupant so the last writer wins, and higher ranks evict it, firing its
interrupt callback. An optional idle motion replays whenever its region
falls free, keeping the character from freezing between motions.

# Key Entities

  - Request: a motion submission with rank, fades, duration and callbacks.
  - Arbiter: the per-region occupancy table driven by the engine tick.
*/
package motion
