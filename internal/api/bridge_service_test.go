package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/botpanel/internal/api"
	"github.com/matheus3301/botpanel/internal/bot"
	"github.com/matheus3301/botpanel/internal/bridge"
	"github.com/matheus3301/botpanel/internal/tui/client"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	events   chan bridge.Event
	attached bool
	args     json.RawMessage
}

func (d *fakeDispatcher) Call(_ context.Context, name string, args json.RawMessage) (any, error) {
	d.mu.Lock()
	d.args = args
	d.mu.Unlock()
	switch name {
	case bridge.CmdStatus:
		return bot.Status{LoggedIn: true, State: "READY"}, nil
	case bridge.CmdStart:
		return bridge.Result{Error: "already running"}, nil
	case bridge.CmdStats:
		return nil, errors.New("stats broke")
	case bridge.CmdToggleAutoReply:
		return nil, bridge.ErrInvalidArgs
	case bridge.CmdMessages:
		return nil, bot.ErrNotRunning
	default:
		return nil, bridge.ErrUnknownCommand
	}
}

func (d *fakeDispatcher) Attach() (<-chan bridge.Event, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attached = true
	return d.events, func() {
		d.mu.Lock()
		d.attached = false
		d.mu.Unlock()
	}
}

func (d *fakeDispatcher) Attached() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attached
}

func startServer(t *testing.T, d api.Dispatcher) *client.Client {
	t.Helper()
	// Short path to stay under the Unix socket length limit.
	dir, err := os.MkdirTemp("/tmp", "botpanel-api-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	socketPath := filepath.Join(dir, "d.sock")

	lis, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatal(err)
	}
	srv := grpc.NewServer()
	api.RegisterBridgeServer(srv, api.NewBridgeService("test", d, zap.NewNop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := client.New(socketPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCallDecodesResult(t *testing.T) {
	d := &fakeDispatcher{}
	c := startServer(t, d)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var st bot.Status
	if err := c.Call(ctx, bridge.CmdStatus, map[string]string{"k": "v"}, &st); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !st.LoggedIn || st.State != "READY" {
		t.Errorf("status = %+v", st)
	}
	d.mu.Lock()
	raw := d.args
	d.mu.Unlock()
	var args map[string]string
	if err := json.Unmarshal(raw, &args); err != nil || args["k"] != "v" {
		t.Errorf("args = %s (%v)", raw, err)
	}
}

func TestDoReportsFailure(t *testing.T) {
	c := startServer(t, &fakeDispatcher{})
	err := c.Do(context.Background(), bridge.CmdStart, nil)
	var cmdErr *client.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Message != "already running" {
		t.Errorf("err = %v, want command error", err)
	}
}

func TestCallErrors(t *testing.T) {
	c := startServer(t, &fakeDispatcher{})
	tests := []struct {
		name     string
		command  string
		wantCode codes.Code
	}{
		{"unknown command", "bot:nope", codes.Unimplemented},
		{"invalid args", bridge.CmdToggleAutoReply, codes.InvalidArgument},
		{"not running", bridge.CmdMessages, codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Call(context.Background(), tt.command, nil, nil)
			if got := grpcstatus.Code(err); got != tt.wantCode {
				t.Errorf("code = %v, want %v (err %v)", got, tt.wantCode, err)
			}
		})
	}

	err := c.Call(context.Background(), bridge.CmdStats, nil, nil)
	var cmdErr *client.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Message != "stats broke" {
		t.Errorf("err = %v, want command error", err)
	}
}

func TestWatchStreamsEvents(t *testing.T) {
	d := &fakeDispatcher{events: make(chan bridge.Event, 4)}
	c := startServer(t, d)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := c.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}

	at := time.UnixMilli(1_700_000_000_000)
	d.events <- bridge.Event{Name: bridge.EventLoggedIn, Payload: true, Timestamp: at}
	env, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if env.Name != bridge.EventLoggedIn || !env.Payload.GetBoolValue() {
		t.Errorf("envelope = %+v", env)
	}
	if env.Session != "test" || env.OccurredAtUnixMs != at.UnixMilli() || env.EventID == "" {
		t.Errorf("envelope metadata = %+v", env)
	}

	info, err := c.Session(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.Session != "test" || !info.Attached || info.PID != os.Getpid() {
		t.Errorf("session = %+v", info)
	}

	// A replaced observer sees its channel closed and the stream aborted.
	close(d.events)
	if _, err := stream.Recv(); grpcstatus.Code(err) != codes.Aborted {
		t.Errorf("err = %v, want Aborted", err)
	}
}

// The service speaks plain protobuf: a client using only the default codec
// and well-known types can call it.
func TestCallOverDefaultProtoCodec(t *testing.T) {
	dir, err := os.MkdirTemp("/tmp", "botpanel-api-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	socketPath := filepath.Join(dir, "d.sock")
	lis, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatal(err)
	}
	srv := grpc.NewServer()
	api.RegisterBridgeServer(srv, api.NewBridgeService("test", &fakeDispatcher{}, zap.NewNop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("unix://"+socketPath, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := structpb.NewStruct(map[string]any{"name": bridge.CmdStatus})
	if err != nil {
		t.Fatal(err)
	}
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, api.CallMethod, req, out); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	result := out.GetFields()["result"].GetStructValue().GetFields()
	if !result["loggedIn"].GetBoolValue() || result["state"].GetStringValue() != "READY" {
		t.Errorf("result = %v", out)
	}

	info := new(structpb.Struct)
	if err := conn.Invoke(ctx, api.GetSessionMethod, &emptypb.Empty{}, info); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := info.GetFields()["session"].GetStringValue(); got != "test" {
		t.Errorf("session = %q", got)
	}
}

func TestValueConversion(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"bool", true, `true`},
		{"string", "hi", `"hi"`},
		{"nil", nil, `null`},
		{"struct", bot.Status{LoggedIn: true, State: "READY"}, ``},
		{"list", []int{1, 2}, `[1,2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, err := api.ToValue(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			raw, err := api.ValueJSON(val)
			if err != nil {
				t.Fatal(err)
			}
			if tt.want != "" && string(raw) != tt.want {
				t.Errorf("json = %s, want %s", raw, tt.want)
			}
		})
	}

	var st bot.Status
	val, _ := api.ToValue(bot.Status{LoggedIn: true, State: "READY"})
	if err := api.FromValue(val, &st); err != nil || !st.LoggedIn || st.State != "READY" {
		t.Errorf("status = %+v (%v)", st, err)
	}
	if raw, err := api.ValueJSON(nil); raw != nil || err != nil {
		t.Errorf("nil value = %s, %v", raw, err)
	}
}
