package operator

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/planfall/plankit/failure"
)

// WebSocketConfig holds configuration for the remote operator.
type WebSocketConfig struct {
	// Addr is the listen address (e.g., "localhost:7463").
	Addr string

	// Path is the websocket endpoint path. Default: "/operator".
	Path string

	// WriteTimeout for sending inspect requests.
	WriteTimeout time.Duration

	// MaxMessageSize limits incoming message size.
	MaxMessageSize int64

	// PingInterval for keepalive pings (0 = disabled).
	PingInterval time.Duration
}

// DefaultWebSocketConfig returns configuration with sensible defaults.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		Addr:           "localhost:7463",
		Path:           "/operator",
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 1024 * 1024, // 1MB
		PingInterval:   30 * time.Second,
	}
}

// inspectRequest is sent to the remote console for each paused
// failure.
type inspectRequest struct {
	ID      string          `json:"id"`
	Failure json.RawMessage `json:"failure"`
	Summary string          `json:"summary"`
}

// inspectResponse carries the console's decision back.
type inspectResponse struct {
	ID       string `json:"id"`
	Decision string `json:"decision"` // "continue" | "abort"
}

// WebSocket is an Operator backed by a remote review console. One
// console connects at a time; a new connection replaces the previous
// one. Inspect fails with ErrNoOperator when nobody is connected.
type WebSocket struct {
	config   WebSocketConfig
	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan Decision
	closed  bool
}

var _ Operator = (*WebSocket)(nil)

// NewWebSocket starts the operator endpoint and listens for console
// connections.
func NewWebSocket(cfg WebSocketConfig) (*WebSocket, error) {
	def := DefaultWebSocketConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.Path == "" {
		cfg.Path = def.Path
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("operator listen: %w", err)
	}

	ws := &WebSocket{
		config:   cfg,
		pending:  make(map[string]chan Decision),
		listener: listener,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Path, ws.handleConnect)
	ws.server = &http.Server{Handler: mux}

	go ws.server.Serve(listener)

	return ws, nil
}

// Addr returns the bound listen address.
func (ws *WebSocket) Addr() string {
	return ws.listener.Addr().String()
}

func (ws *WebSocket) handleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(ws.config.MaxMessageSize)

	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		conn.Close()
		return
	}
	if ws.conn != nil {
		ws.conn.Close()
	}
	ws.conn = conn
	ws.mu.Unlock()

	go ws.readLoop(conn)
	if ws.config.PingInterval > 0 {
		go ws.pingLoop(conn)
	}
}

// readLoop routes decisions back to waiting Inspect calls.
func (ws *WebSocket) readLoop(conn *websocket.Conn) {
	defer ws.dropConn(conn)

	for {
		var resp inspectResponse
		if err := conn.ReadJSON(&resp); err != nil {
			return
		}

		decision := Continue
		if resp.Decision == "abort" {
			decision = Abort
		}

		ws.mu.Lock()
		ch, ok := ws.pending[resp.ID]
		if ok {
			delete(ws.pending, resp.ID)
		}
		ws.mu.Unlock()

		if ok {
			ch <- decision
		}
	}
}

func (ws *WebSocket) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(ws.config.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		deadline := time.Now().Add(ws.config.WriteTimeout)
		if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			return
		}
	}
}

func (ws *WebSocket) dropConn(conn *websocket.Conn) {
	conn.Close()
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.conn == conn {
		ws.conn = nil
	}
}

// Inspect sends the failure to the connected console and waits for a
// decision, honoring ctx cancellation.
func (ws *WebSocket) Inspect(ctx context.Context, f failure.Failure) (Decision, error) {
	detail, err := json.Marshal(f)
	if err != nil {
		detail, _ = json.Marshal(f.Error())
	}

	req := inspectRequest{
		ID:      uuid.NewString(),
		Failure: detail,
		Summary: f.Error(),
	}

	ch := make(chan Decision, 1)

	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return Abort, ErrClosed
	}
	conn := ws.conn
	if conn == nil {
		ws.mu.Unlock()
		return Abort, ErrNoOperator
	}
	ws.pending[req.ID] = ch
	ws.mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(ws.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		ws.forget(req.ID)
		return Abort, fmt.Errorf("operator send: %w", err)
	}

	select {
	case d := <-ch:
		return d, nil
	case <-ctx.Done():
		ws.forget(req.ID)
		return Abort, ctx.Err()
	}
}

func (ws *WebSocket) forget(id string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	delete(ws.pending, id)
}

// Close shuts down the endpoint and abandons pending inspections.
func (ws *WebSocket) Close() error {
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return nil
	}
	ws.closed = true
	conn := ws.conn
	ws.conn = nil
	ws.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	return ws.server.Close()
}
