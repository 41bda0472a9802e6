package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/gigcal/gigcal/internal/engine"
	"github.com/gigcal/gigcal/internal/purge"
)

var testLogger = log.New(os.Stderr, "[test] ", log.LstdFlags)

func startServer(t *testing.T) *Server {
	t.Helper()

	server := NewServer(0, testLogger) // random available port
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() {
		if err := server.Stop(); err != nil {
			t.Errorf("Failed to stop server: %v", err)
		}
	})

	time.Sleep(100 * time.Millisecond)
	return server
}

func dial(t *testing.T, ctx context.Context, server *Server) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func TestServerStartStop(t *testing.T) {
	server := startServer(t)
	if server.Addr() == "" {
		t.Fatal("Server address is empty")
	}
}

func TestMessageBroadcast(t *testing.T) {
	server := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, server)

	// The read loop registers asynchronously; wait for the client count.
	deadline := time.Now().Add(2 * time.Second)
	for server.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if count := server.ClientCount(); count != 1 {
		t.Fatalf("Expected 1 client, got %d", count)
	}

	data, _ := json.Marshal(ArchiveData{Moved: 4})
	server.Broadcast(Message{Type: MessageTypeArchive, Data: data})

	_, raw, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read broadcast message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeArchive {
		t.Errorf("Expected message type %s, got %s", MessageTypeArchive, msg.Type)
	}
	var archive ArchiveData
	if err := json.Unmarshal(msg.Data, &archive); err != nil {
		t.Fatalf("Failed to unmarshal archive data: %v", err)
	}
	if archive.Moved != 4 {
		t.Errorf("Expected 4 moved, got %d", archive.Moved)
	}
}

func TestHandlerEvents(t *testing.T) {
	server := startServer(t)
	handler := NewHandler(server, testLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, server)
	time.Sleep(100 * time.Millisecond)

	summary := engine.NewRunSummary(false)
	summary.Created = 2
	summary.Finish()
	handler.OnRunComplete(summary)

	_, raw, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read run summary: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeRunSummary {
		t.Errorf("Expected message type %s, got %s", MessageTypeRunSummary, msg.Type)
	}
	var rs RunSummaryData
	if err := json.Unmarshal(msg.Data, &rs); err != nil {
		t.Fatalf("Failed to unmarshal run summary data: %v", err)
	}
	if rs.Created != 2 || rs.DryRun {
		t.Errorf("Run summary data mismatch: %+v", rs)
	}

	handler.OnPurgeProgress(&purge.Result{Deleted: 3, Remaining: 1})

	_, raw, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read purge progress: %v", err)
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypePurge {
		t.Errorf("Expected message type %s, got %s", MessageTypePurge, msg.Type)
	}
}

func TestMultipleClients(t *testing.T) {
	server := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	numClients := 3
	for i := 0; i < numClients; i++ {
		dial(t, ctx, server)
	}

	deadline := time.Now().Add(2 * time.Second)
	for server.ClientCount() < numClients && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if count := server.ClientCount(); count != numClients {
		t.Errorf("Expected %d clients, got %d", numClients, count)
	}
}
