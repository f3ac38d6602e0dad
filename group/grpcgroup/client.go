package grpcgroup

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/hupe1980/distkmeans/group"
)

// Client is a remote member (rank > 0) of a group hosted by rank 0.
type Client struct {
	*group.Member
	conn *grpc.ClientConn
}

// Dial connects to the hub at target. Calls wait for the connection to become
// ready, so workers may start before the coordinator; bound the wait with
// the context passed to each collective.
func Dial(target string, rank, size int, optFns ...func(*Options)) (*Client, error) {
	if rank <= 0 || rank >= size {
		return nil, fmt.Errorf("remote rank %d must be in [1, %d)", rank, size)
	}
	opts := newOptions(optFns)

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts.DialOptions...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	c := &Client{conn: conn}
	c.Member = group.NewMember(rank, size, func(ctx context.Context, contrib group.Contribution) (group.Outcome, error) {
		return c.exchange(ctx, size, contrib)
	})
	return c, nil
}

func (c *Client) exchange(ctx context.Context, size int, contrib group.Contribution) (group.Outcome, error) {
	in := wrapperspb.Bytes(encodeRequest(size, contrib))
	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(ctx, exchangeMethod, in, out, grpc.WaitForReady(true)); err != nil {
		return group.Outcome{}, fromStatus(err)
	}
	return decodeResponse(out.GetValue())
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
