// Package dag provides a precedence graph used to derive a global ordering
// of routes from many local "a before b" decisions.
//
// # Overview
//
// Each channel of a routing pass orders the route legs it carries. Those
// local orders are recorded as edges of a [Precedence] graph over dense
// integer ids (one id per routed connection). A topological sort of that
// graph then yields one rank per connection, which every channel reuses so
// that parallel routes keep the same relative order across bends.
//
// # Cycle Rejection
//
// Local decisions can contradict each other. [Precedence.AddEdge] refuses an
// edge whose target already reaches its source and returns [ErrWouldCycle];
// the refusal is counted and exposed through [Precedence.DetectedCycles].
// The graph therefore stays acyclic by construction and
// [Precedence.TopologicalSort] always succeeds on graphs built through
// AddEdge.
//
// # Determinism
//
// TopologicalSort uses Kahn's algorithm with a LIFO work list seeded with the
// zero in-degree ids in ascending order. Two graphs built with the same edge
// sequence always produce the same order.
//
// # Concurrency
//
// Precedence instances are not safe for concurrent use.
package dag
