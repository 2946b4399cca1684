// Package status provides a read-only HTTP and WebSocket view of the
// mixer state. Frontends can poll the REST endpoint or subscribe over
// WebSocket to be notified after each commit. G-code execution stays on
// the serial command loop; this surface never mutates the mixer.
package status

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"mixhost/pkg/log"
)

// MixerInterface is the read side of the command layer.
type MixerInterface interface {
	GetStatus() map[string]any
}

// Server serves mixer status over HTTP and WebSocket.
type Server struct {
	mixer  MixerInterface
	addr   string
	logger *log.Logger

	httpServer *http.Server
	mux        *http.ServeMux

	wsUpgrader websocket.Upgrader
	wsClients  map[int64]*wsClient
	wsClientMu sync.RWMutex
	nextWSID   int64

	running   atomic.Bool
	startTime time.Time
}

// Config holds server configuration.
type Config struct {
	// HTTP address to listen on (e.g., ":7125")
	Addr string

	// Mixer to report on
	Mixer MixerInterface

	// Logger; a default is created when nil
	Logger *log.Logger
}

// New creates a status server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New("status")
	}
	s := &Server{
		mixer:     cfg.Mixer,
		addr:      cfg.Addr,
		logger:    logger,
		mux:       http.NewServeMux(),
		wsClients: make(map[int64]*wsClient),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		startTime: time.Now(),
	}
	s.mux.HandleFunc("/mixer/status", s.handleStatus)
	s.mux.HandleFunc("/server/info", s.handleServerInfo)
	s.mux.HandleFunc("/websocket", s.handleWebSocket)
	s.httpServer = &http.Server{Addr: cfg.Addr, Handler: s.mux}
	return s
}

// Start begins serving. Blocks until the server exits.
func (s *Server) Start() error {
	s.running.Store(true)
	s.logger.Info("status server listening on %s", s.addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop closes all clients and shuts the server down.
func (s *Server) Stop() error {
	s.running.Store(false)

	s.wsClientMu.Lock()
	clients := make([]*wsClient, 0, len(s.wsClients))
	for _, client := range s.wsClients {
		clients = append(clients, client)
	}
	s.wsClients = make(map[int64]*wsClient)
	s.wsClientMu.Unlock()
	// close outside the lock; close re-enters dropClient
	for _, client := range clients {
		client.close()
	}

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// NotifyStatusUpdate pushes the current mixer state to every WebSocket
// subscriber. Called by the command loop after each processed command.
func (s *Server) NotifyStatusUpdate() {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "notify_status_update",
		"params":  []any{s.mixer.GetStatus()},
	}
	s.wsClientMu.RLock()
	defer s.wsClientMu.RUnlock()
	for _, client := range s.wsClients {
		client.send(msg)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"result": s.mixer.GetStatus()})
}

func (s *Server) handleServerInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"result": map[string]any{
			"state":          "ready",
			"uptime_seconds": time.Since(s.startTime).Seconds(),
		},
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade: %v", err)
		return
	}

	client := s.newWSClient(conn)
	s.wsClientMu.Lock()
	s.wsClients[client.id] = client
	s.wsClientMu.Unlock()
	s.logger.Debug("websocket client %d connected", client.id)

	go client.writePump()
	go client.readPump()

	// Initial snapshot so the client does not need a separate query
	client.send(map[string]any{
		"jsonrpc": "2.0",
		"method":  "notify_status_update",
		"params":  []any{s.mixer.GetStatus()},
	})
}

func (s *Server) dropClient(id int64) {
	s.wsClientMu.Lock()
	delete(s.wsClients, id)
	s.wsClientMu.Unlock()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// wsClient represents one WebSocket subscriber.
type wsClient struct {
	id     int64
	conn   *websocket.Conn
	server *Server
	sendCh chan any
	done   chan struct{}
	once   sync.Once
}

func (s *Server) newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		id:     atomic.AddInt64(&s.nextWSID, 1),
		conn:   conn,
		server: s,
		sendCh: make(chan any, 64),
		done:   make(chan struct{}),
	}
}

func (c *wsClient) send(msg any) {
	select {
	case c.sendCh <- msg:
	case <-c.done:
	default:
		// Channel full, drop the update; the next one supersedes it
		c.server.logger.Debug("dropping update to client %d", c.id)
	}
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
		c.server.dropClient(c.id)
	})
}

// writePump sends queued messages and periodic pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.server.logger.Debug("websocket write to %d: %v", c.id, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump drains inbound frames so pings and close frames are handled.
// Inbound data is ignored; this surface is read-only.
func (c *wsClient) readPump() {
	defer c.close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
