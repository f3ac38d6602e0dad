// Package distance provides the vector distance primitives used by the
// clustering engine.
//
// All functions operate on float64 vectors and assume equal lengths (the
// caller's responsibility). No clamping or epsilon guards are applied:
// squared differences are non-negative by construction.
//
// # Usage
//
//	d := distance.Euclidean(a, b)
//	sq := distance.SquaredL2(a, b)
//	m := distance.NewMatrix(nPoints, k)
//	nearest := m.Row(i)
package distance
