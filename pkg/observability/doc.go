/*
Package observability provides the engine's monitoring plumbing.

It includes the generic subscriber emitter used by every core component
(identity-keyed handles, buffered dispatch, panic isolation) and the
Prometheus collector that turns lifecycle hook events into metrics.
*/
package observability
