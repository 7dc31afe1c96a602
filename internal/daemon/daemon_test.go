package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/botpanel/internal/api"
	"github.com/matheus3301/botpanel/internal/bot"
	"github.com/matheus3301/botpanel/internal/bridge"
	"github.com/matheus3301/botpanel/internal/bus"
	"github.com/matheus3301/botpanel/internal/lock"
	"github.com/matheus3301/botpanel/internal/persist"
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/rules"
	"github.com/matheus3301/botpanel/internal/status"
	"github.com/matheus3301/botpanel/internal/store"
	"github.com/matheus3301/botpanel/internal/tui/client"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// stubClient pairs immediately by emitting a single QR code on Start.
type stubClient struct {
	handler protocol.Handler
}

func (s *stubClient) SetHandler(h protocol.Handler) { s.handler = h }
func (s *stubClient) Start(context.Context) error {
	s.handler(protocol.ScanEvent{Payload: "qr-code", Status: protocol.ScanWaiting})
	return nil
}
func (s *stubClient) Stop(context.Context) error   { return nil }
func (s *stubClient) Logout(context.Context) error { return nil }
func (s *stubClient) IsLoggedIn() bool             { return false }
func (s *stubClient) FindAllContacts(context.Context) ([]protocol.Contact, error) {
	return nil, nil
}
func (s *stubClient) FindAllRooms(context.Context) ([]protocol.Room, error) { return nil, nil }
func (s *stubClient) Avatar(context.Context, string) (string, error)      { return "", nil }
func (s *stubClient) SendText(context.Context, string, string) error      { return nil }

func TestModuleGraph(t *testing.T) {
	if err := fx.ValidateApp(Module(Params{SessionName: "test"})); err != nil {
		t.Fatalf("ValidateApp() error = %v", err)
	}
}

func TestDaemonLifecycle(t *testing.T) {
	// Use a short path to avoid macOS 104-char Unix socket limit.
	tmpDir, err := os.MkdirTemp("/tmp", "botpanel-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	sessionName := "test"
	sessionDir := filepath.Join(tmpDir, sessionName)
	socketPath := filepath.Join(sessionDir, "d.sock")
	if err := os.MkdirAll(sessionDir, 0700); err != nil {
		t.Fatal(err)
	}

	// Acquire lock.
	lk, err := lock.Acquire(sessionDir, sessionName)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = lk.Release() }()

	// Open store.
	db, _, err := store.OpenMigrated(filepath.Join(sessionDir, "bot.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	// Setup components.
	logger := zap.NewNop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b := bus.New()
	machine := status.NewMachine(b)
	writer := persist.NewWriter(db, logger)
	writer.Start(ctx)

	snap, err := bot.LoadSnapshot(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	mgr := bot.New(&stubClient{}, machine, b, writer, logger, bot.Options{}, snap)
	mgr.StartLoop(ctx)
	defer func() { _ = mgr.Shutdown(context.Background()) }()

	br := bridge.New(mgr, b, logger)
	go br.Run(ctx)

	srv, err := NewServer(Params{SessionName: sessionName, SocketPath: socketPath}, logger, api.NewBridgeService(sessionName, br, logger))
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = srv.Start() }()
	defer func() {
		br.Detach()
		srv.Stop(context.Background())
	}()

	// Connect as client.
	c, err := client.New(socketPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	// Test status.
	var st bot.Status
	if err := c.Call(ctx, bridge.CmdStatus, nil, &st); err != nil {
		t.Fatalf("status error = %v", err)
	}
	if st.LoggedIn || st.State != status.Idle {
		t.Errorf("status = %+v, want idle", st)
	}

	// Test rule creation with an assigned id.
	rule := rules.Rule{Keywords: []string{"hi"}, Content: "hello", Enabled: true}
	if err := c.Do(ctx, bridge.CmdAddAutoReply, rule); err != nil {
		t.Fatalf("addAutoReply error = %v", err)
	}
	var list []rules.Rule
	if err := c.Call(ctx, bridge.CmdAutoReplies, nil, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID == "" || list[0].ReplyType != rules.ReplyText {
		t.Fatalf("rules = %+v", list)
	}

	// Test event stream.
	stream, err := c.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for {
		info, err := c.Session(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if info.Attached {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := c.Do(ctx, bridge.CmdStart, nil); err != nil {
		t.Fatalf("start error = %v", err)
	}
	for {
		env, err := stream.Recv()
		if err != nil {
			t.Fatalf("Recv() error = %v", err)
		}
		if env.Name == bridge.EventScan {
			break
		}
	}

	var qr bot.QRCode
	if err := c.Call(ctx, bridge.CmdQRCode, nil, &qr); err != nil {
		t.Fatal(err)
	}
	if qr.Payload != "qr-code" || qr.URL == "" {
		t.Errorf("qr = %+v", qr)
	}

	// Flushed rules survive a restart.
	writer.Stop()
	reloaded, err := bot.LoadSnapshot(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if len(reloaded.Rules) != 1 || reloaded.Rules[0].ID != list[0].ID {
		t.Errorf("reloaded rules = %+v", reloaded.Rules)
	}
}
