package grpcgroup

import (
	"io"
	"log/slog"

	"google.golang.org/grpc"
)

// Options configures hosts, servers and clients.
type Options struct {
	// ServerOptions are passed to grpc.NewServer.
	ServerOptions []grpc.ServerOption
	// DialOptions are appended to the client defaults (insecure transport).
	DialOptions []grpc.DialOption
	// Logger receives transport-level events. Defaults to a discarding logger.
	Logger *slog.Logger
}

func newOptions(optFns []func(*Options)) Options {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opts
}
