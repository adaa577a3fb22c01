/*
Package host manages a fleet of named character engines.

It provides the registry used by the serving surfaces (HTTP, MCP, CLI):
characters are created on first use through a factory, ticked together,
and persisted through a shared snapshot store. An optional distributed
locker serializes snapshot access across replicas serving the same
characters.
*/
package host
