package grpcgroup

import (
	"errors"
	"net"
	"sync"

	"google.golang.org/grpc"

	"github.com/hupe1980/distkmeans/group"
)

// Host is rank 0 of a gRPC group: it serves the hub and participates in
// every collective without a network hop.
type Host struct {
	*group.Member
	hub    *group.Hub
	server *Server
	done   chan error

	closeOnce sync.Once
	closeErr  error
}

// NewHost starts serving a hub for a group of the given size on lis.
func NewHost(lis net.Listener, size int, optFns ...func(*Options)) *Host {
	hub := group.NewHub(size)
	h := &Host{
		Member: group.NewMember(0, size, hub.Exchange),
		hub:    hub,
		server: NewServer(hub, optFns...),
		done:   make(chan error, 1),
	}
	go func() {
		h.done <- h.server.Serve(lis)
	}()
	return h
}

// Close fails pending collectives and stops serving.
func (h *Host) Close() error {
	h.closeOnce.Do(func() {
		h.server.Stop()
		if err := <-h.done; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			h.closeErr = err
		}
	})
	return h.closeErr
}
