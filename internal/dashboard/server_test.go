package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/fitrepo/fit/internal/engine"
	"github.com/fitrepo/fit/internal/marks"
	"github.com/fitrepo/fit/internal/registry"
)

func startServer(t *testing.T, reg *registry.Registry) *Server {
	t.Helper()

	server := NewServer(&Config{
		Port:     0, // random available port
		Registry: reg,
		Logger:   log.New(io.Discard, "", 0),
	})
	if err := server.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })

	time.Sleep(100 * time.Millisecond)
	return server
}

func dial(t *testing.T, ctx context.Context, server *Server) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })

	// hello message
	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	return conn
}

func TestServerStartStop(t *testing.T) {
	server := NewServer(&Config{Port: 0, Logger: log.New(io.Discard, "", 0)})
	if err := server.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if server.Addr() == "" {
		t.Fatal("server address is empty")
	}
	if err := server.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestSyncEventBroadcast(t *testing.T) {
	server := startServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dial(t, ctx, server)

	if count := server.ClientCount(); count != 1 {
		t.Errorf("ClientCount = %d, want 1", count)
	}

	server.SyncEvent("libs/foo", marks.SourceToAggregate, engine.PhaseStreaming)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeSyncEvent {
		t.Errorf("message type = %s, want %s", msg.Type, MessageTypeSyncEvent)
	}

	var event SyncEventData
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.Subtree != "libs/foo" {
		t.Errorf("Subtree = %q", event.Subtree)
	}
	if event.Direction != marks.SourceToAggregate.String() {
		t.Errorf("Direction = %q", event.Direction)
	}
	if event.Phase != string(engine.PhaseStreaming) {
		t.Errorf("Phase = %q", event.Phase)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	server := startServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conns := []*websocket.Conn{
		dial(t, ctx, server),
		dial(t, ctx, server),
		dial(t, ctx, server),
	}
	if count := server.ClientCount(); count != len(conns) {
		t.Fatalf("ClientCount = %d, want %d", count, len(conns))
	}

	server.WorkspaceChanged("tools", []string{"tools/main.go"})

	for i, conn := range conns {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("client %d read: %v", i, err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("client %d unmarshal: %v", i, err)
		}
		if msg.Type != MessageTypeWorkspaceChange {
			t.Errorf("client %d type = %s", i, msg.Type)
		}
	}
}

func TestRegistrationsEndpoint(t *testing.T) {
	dir := t.TempDir()
	reg, err := registry.Open(filepath.Join(dir, "registry.db"))
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	defer reg.Close()

	ctx := context.Background()
	if err := reg.Put(ctx, registry.Registration{
		Path:           "libs/foo",
		Identifier:     "libs__foo",
		SourceURL:      "https://example.com/foo.git",
		ClonePath:      filepath.Join(dir, "clones", "libs__foo"),
		SourceMarks:    filepath.Join(dir, "marks", "libs__foo_git.marks"),
		AggregateMarks: filepath.Join(dir, "marks", "libs__foo_fossil.marks"),
	}); err != nil {
		t.Fatal(err)
	}

	server := startServer(t, reg)

	resp, err := http.Get("http://" + server.Addr() + "/api/registrations")
	if err != nil {
		t.Fatalf("GET registrations: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var regs []registry.Registration
	if err := json.NewDecoder(resp.Body).Decode(&regs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(regs) != 1 || regs[0].Path != "libs/foo" {
		t.Errorf("registrations = %+v", regs)
	}
}

func TestRegistrationsWithoutRegistry(t *testing.T) {
	server := startServer(t, nil)

	resp, err := http.Get("http://" + server.Addr() + "/api/registrations")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := startServer(t, nil)

	resp, err := http.Get("http://" + server.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("health = %v", body)
	}
}
