// Package dashboard provides a local HTTP and WebSocket server for
// observing sync activity.
//
// The server broadcasts sync lifecycle events to connected WebSocket
// clients and serves the registration table as JSON, enabling a live
// view of which subtrees are syncing and where each run is in its
// lifecycle.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/fitrepo/fit/internal/engine"
	"github.com/fitrepo/fit/internal/marks"
	"github.com/fitrepo/fit/internal/registry"
)

// MessageType defines the type of dashboard message
type MessageType string

const (
	// MessageTypeSyncEvent indicates a sync run changed phase
	MessageTypeSyncEvent MessageType = "sync_event"

	// MessageTypeWorkspaceChange indicates files changed in a watched workspace
	MessageTypeWorkspaceChange MessageType = "workspace_change"

	// MessageTypeHello greets a newly connected client
	MessageTypeHello MessageType = "hello"
)

// Message represents a dashboard broadcast message
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// SyncEventData describes one phase transition of a sync run
type SyncEventData struct {
	Subtree   string `json:"subtree"`
	Direction string `json:"direction"`
	Phase     string `json:"phase"`
}

// WorkspaceChangeData describes a quiesced batch of workspace changes
type WorkspaceChangeData struct {
	Subtree string   `json:"subtree"`
	Paths   []string `json:"paths"`
}

// Server manages WebSocket connections and broadcasts sync activity
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server
	reg      *registry.Registry

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// Config holds server configuration
type Config struct {
	// Port to listen on (default: 8417)
	Port int

	// Registry backs the /api/registrations endpoint
	Registry *registry.Registry

	// Logger for server activity (default: stderr logger)
	Logger *log.Logger
}

// DefaultPort is the dashboard's default listening port.
const DefaultPort = 8417

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Port:   DefaultPort,
		Logger: log.Default(),
	}
}

// NewServer creates a dashboard server. It does not listen until Start.
// A zero Port listens on a random available port.
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:      fmt.Sprintf(":%d", config.Port),
		reg:       config.Registry,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    config.Logger,
	}
}

// Start begins the HTTP server and WebSocket handler
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/registrations", s.handleRegistrations)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("dashboard listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.wg.Wait()
	return nil
}

// SyncEvent implements engine.Notifier: every phase transition is
// broadcast to connected clients.
func (s *Server) SyncEvent(subtree string, direction marks.Direction, phase engine.Phase) {
	data, err := json.Marshal(SyncEventData{
		Subtree:   subtree,
		Direction: direction.String(),
		Phase:     string(phase),
	})
	if err != nil {
		return
	}
	s.Broadcast(Message{Type: MessageTypeSyncEvent, Data: data})
}

// WorkspaceChanged broadcasts a watcher batch for a subtree.
func (s *Server) WorkspaceChanged(subtree string, paths []string) {
	data, err := json.Marshal(WorkspaceChangeData{Subtree: subtree, Paths: paths})
	if err != nil {
		return
	}
	s.Broadcast(Message{Type: MessageTypeWorkspaceChange, Data: data})
}

// Broadcast sends a message to all connected clients. Never blocks: a
// full queue drops the message.
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
	default:
		s.logger.Println("broadcast channel full, dropping message")
	}
}

// broadcastLoop fans queued messages out to every client
func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case msg := <-s.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}

			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Printf("failed to marshal message: %v", err)
				continue
			}

			s.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				clients = append(clients, conn)
			}
			s.clientsMu.RUnlock()

			// Writes happen outside the lock so a slow client cannot
			// stall admission of new ones.
			for _, conn := range clients {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()

				if err != nil {
					s.removeClient(conn)
				}
			}
		}
	}
}

// handleWebSocket upgrades HTTP connections to WebSocket
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // local tool, no cross-origin concern
	})
	if err != nil {
		s.logger.Printf("websocket upgrade failed: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	clientCount := len(s.clients)
	s.clientsMu.Unlock()

	s.logger.Printf("client connected (total: %d)", clientCount)

	hello := Message{Type: MessageTypeHello, Timestamp: time.Now()}
	helloData, _ := json.Marshal(hello)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = conn.Write(ctx, websocket.MessageText, helloData)
	cancel()

	go s.readLoop(conn)
}

// readLoop keeps the connection alive and detects client disconnects
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		_, _, err := conn.Read(s.ctx)
		if err != nil {
			return
		}
		// client messages are not processed
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; exists {
		delete(s.clients, conn)
		clientCount := len(s.clients)
		s.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Printf("client disconnected (total: %d)", clientCount)
	} else {
		s.clientsMu.Unlock()
	}
}

// handleRegistrations serves the registration table as JSON
func (s *Server) handleRegistrations(w http.ResponseWriter, r *http.Request) {
	if s.reg == nil {
		http.Error(w, "registry not attached", http.StatusServiceUnavailable)
		return
	}

	regs, err := s.reg.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(regs)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.clientsMu.RLock()
	clientCount := len(s.clients)
	s.clientsMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": clientCount,
	})
}

// handleRoot returns basic server information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>fit dashboard</title>
</head>
<body>
    <h1>fit dashboard</h1>
    <p>WebSocket endpoint: <code>ws://%s/ws</code></p>
    <p>Registrations: <a href="/api/registrations">/api/registrations</a></p>
    <p>Health check: <a href="/health">/health</a></p>
</body>
</html>`, r.Host)
}

// Addr returns the server's listening address
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the current number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
