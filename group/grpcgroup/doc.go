// Package grpcgroup runs a group.Group across processes over gRPC.
//
// Rank 0 hosts the group's Hub behind a single unary method
// (/distkmeans.group.v1.Collective/Exchange) and participates locally; every
// other rank dials it. Each collective is one blocking Exchange call that
// returns once all ranks have contributed, so the hub sees a star topology
// while callers see the plain Group contract.
//
// Messages are google.protobuf.BytesValue wrappers around a small
// little-endian frame, which keeps the service free of generated code.
//
// Example (rank 0):
//
//	lis, _ := net.Listen("tcp", ":7070")
//	host := grpcgroup.NewHost(lis, size)
//	defer host.Close()
//
// Example (rank r > 0):
//
//	client, _ := grpcgroup.Dial("coordinator:7070", r, size)
//	defer client.Close()
package grpcgroup
