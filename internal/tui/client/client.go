package client

import (
	"context"
	"fmt"

	"github.com/matheus3301/botpanel/internal/api"
	"github.com/matheus3301/botpanel/internal/bridge"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// CommandError is a failure reported by a bridge command.
type CommandError struct {
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

// Client wraps the gRPC connection to the daemon.
type Client struct {
	conn *grpc.ClientConn
}

// New dials the daemon's Unix domain socket.
func New(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Call runs a bridge command. args may be nil; result, when non-nil, receives
// the decoded command result.
func (c *Client) Call(ctx context.Context, name string, args, result any) error {
	req := &api.CallRequest{Name: name}
	if args != nil {
		val, err := api.ToValue(args)
		if err != nil {
			return fmt.Errorf("encode args: %w", err)
		}
		req.Args = val
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, api.CallMethod, req.Proto(), out); err != nil {
		return err
	}
	resp := api.CallResponseFromProto(out)
	if resp.Error != "" {
		return &CommandError{Command: name, Message: resp.Error}
	}
	if result == nil {
		return nil
	}
	if err := api.FromValue(resp.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", name, err)
	}
	return nil
}

// Do runs a command that answers with a success envelope and turns a
// reported failure into an error.
func (c *Client) Do(ctx context.Context, name string, args any) error {
	var res bridge.Result
	if err := c.Call(ctx, name, args, &res); err != nil {
		return err
	}
	if !res.Success {
		return &CommandError{Command: name, Message: res.Error}
	}
	return nil
}

// Session returns daemon metadata.
func (c *Client) Session(ctx context.Context) (*api.GetSessionResponse, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, api.GetSessionMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return api.GetSessionResponseFromProto(out), nil
}

// EventStream receives bridge events.
type EventStream struct {
	stream grpc.ClientStream
}

// Recv blocks for the next event.
func (s *EventStream) Recv() (*api.EventEnvelope, error) {
	msg := new(structpb.Struct)
	if err := s.stream.RecvMsg(msg); err != nil {
		return nil, err
	}
	return api.EventEnvelopeFromProto(msg), nil
}

// Watch attaches to the event stream. Cancel ctx to detach.
func (c *Client) Watch(ctx context.Context) (*EventStream, error) {
	stream, err := c.conn.NewStream(ctx, &api.WatchStreamDesc, api.WatchMethod)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &EventStream{stream: stream}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
