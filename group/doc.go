// Package group defines the process-group transport the clustering engine
// runs on, plus an in-process implementation.
//
// A Group is one member of a fixed-size set of cooperating processes. Its
// collective operations (Broadcast, AllReduceFloat64, AllReduceInt64,
// Barrier) are synchronous: no member returns from a collective until every
// member has contributed to it, and all members receive the same result.
//
// Every member must issue the identical sequence of collective calls. The
// Hub checks this per sequence number and fails the whole collective with
// ErrProtocolViolation when members disagree on the operation, the root or
// the buffer length.
//
// # Implementations
//
//   - NewLocal: goroutines as processes, sharing one Hub.
//   - grpcgroup: the Hub served over gRPC by rank 0.
package group
