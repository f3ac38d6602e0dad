package grpcgroup

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/hupe1980/distkmeans/group"
)

// Server exposes a group.Hub over gRPC.
type Server struct {
	hub    *group.Hub
	grpc   *grpc.Server
	logger *slog.Logger
}

// NewServer creates a server for hub. It does not start listening.
func NewServer(hub *group.Hub, optFns ...func(*Options)) *Server {
	opts := newOptions(optFns)
	s := &Server{
		hub:    hub,
		grpc:   grpc.NewServer(opts.ServerOptions...),
		logger: opts.Logger,
	}
	s.grpc.RegisterService(&collectiveServiceDesc, s)
	return s
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("collective hub listening", "addr", lis.Addr().String(), "size", s.hub.Size())
	return s.grpc.Serve(lis)
}

// Stop closes the hub, failing pending collectives, and stops the server
// once in-flight responses have been written.
func (s *Server) Stop() {
	_ = s.hub.Close()
	s.grpc.GracefulStop()
}

// Exchange implements the Collective service.
func (s *Server) Exchange(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req, err := decodeRequest(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if req.size != s.hub.Size() {
		return nil, status.Errorf(codes.FailedPrecondition, "rank %d configured for group size %d, hub serves %d", req.c.Rank, req.size, s.hub.Size())
	}

	out, err := s.hub.Exchange(ctx, req.c)
	if err != nil {
		s.logger.Debug("collective failed", "seq", req.c.Seq, "rank", req.c.Rank, "op", req.c.Op.String(), "error", err)
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(encodeResponse(out)), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, group.ErrProtocolViolation):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, group.ErrClosed):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// fromStatus maps a Collective status back onto the group error taxonomy.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.FailedPrecondition:
		return &remoteError{sentinel: group.ErrProtocolViolation, msg: st.Message()}
	case codes.Aborted:
		return &remoteError{sentinel: group.ErrClosed, msg: st.Message()}
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	default:
		return err
	}
}

// remoteError carries the hub's message while matching the local sentinel.
type remoteError struct {
	sentinel error
	msg      string
}

func (e *remoteError) Error() string { return "remote: " + e.msg }

func (e *remoteError) Unwrap() error { return e.sentinel }
