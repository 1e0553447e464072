package watch

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ReloadServer manages websocket connections for preview live reload. After a
// watched metadata file is reconverted, connected browsers are told to fetch
// the regenerated fragments.
type ReloadServer struct {
	connections map[*websocket.Conn]bool
	broadcast   chan *ReloadMessage
	register    chan *websocket.Conn
	unregister  chan *websocket.Conn
	done        chan struct{}
	mutex       sync.RWMutex
	upgrader    websocket.Upgrader
}

// ReloadMessage is one event pushed to preview browsers.
type ReloadMessage struct {
	Type      string       `json:"type"`      // "reload", "converting", "error"
	Timestamp int64        `json:"timestamp"` // Unix timestamp
	Files     []string     `json:"files,omitempty"`
	Errors    []*ErrorInfo `json:"errors,omitempty"`
	Duration  float64      `json:"duration,omitempty"` // Milliseconds
}

// ErrorInfo is one content error in wire form.
type ErrorInfo struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// NewReloadServer creates a new reload server
func NewReloadServer() *ReloadServer {
	rs := &ReloadServer{
		connections: make(map[*websocket.Conn]bool),
		broadcast:   make(chan *ReloadMessage, 256),
		register:    make(chan *websocket.Conn),
		unregister:  make(chan *websocket.Conn),
		done:        make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					// Allow no origin (same-origin)
					return true
				}
				// The preview server is a local tool; only localhost may connect.
				return strings.HasPrefix(origin, "http://localhost") ||
					strings.HasPrefix(origin, "https://localhost") ||
					strings.HasPrefix(origin, "http://127.0.0.1") ||
					strings.HasPrefix(origin, "https://127.0.0.1")
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	go rs.run()

	return rs
}

// run handles the websocket connection lifecycle
func (rs *ReloadServer) run() {
	for {
		select {
		case <-rs.done:
			log.Printf("[Reload] Shutting down reload server")
			return

		case conn := <-rs.register:
			rs.mutex.Lock()
			rs.connections[conn] = true
			rs.mutex.Unlock()
			log.Printf("[Reload] Client connected (total: %d)", rs.ConnectionCount())

		case conn := <-rs.unregister:
			rs.mutex.Lock()
			if _, ok := rs.connections[conn]; ok {
				delete(rs.connections, conn)
				conn.Close()
			}
			rs.mutex.Unlock()
			log.Printf("[Reload] Client disconnected (total: %d)", rs.ConnectionCount())

		case message := <-rs.broadcast:
			rs.sendToAll(message)
		}
	}
}

// sendToAll sends a message to all connected clients
func (rs *ReloadServer) sendToAll(message *ReloadMessage) {
	messageJSON, err := json.Marshal(message)
	if err != nil {
		log.Printf("[Reload] Failed to marshal message: %v", err)
		return
	}

	// Collect failed connections while holding read lock
	rs.mutex.RLock()
	var failedConns []*websocket.Conn
	for conn := range rs.connections {
		if err := conn.WriteMessage(websocket.TextMessage, messageJSON); err != nil {
			log.Printf("[Reload] Failed to send message: %v", err)
			failedConns = append(failedConns, conn)
		}
	}
	rs.mutex.RUnlock()

	// Remove failed connections with write lock
	if len(failedConns) > 0 {
		rs.mutex.Lock()
		for _, conn := range failedConns {
			if _, ok := rs.connections[conn]; ok {
				conn.Close()
				delete(rs.connections, conn)
			}
		}
		rs.mutex.Unlock()
	}
}

// HandleWebSocket upgrades HTTP connections to websocket
func (rs *ReloadServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := rs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Reload] Failed to upgrade connection: %v", err)
		return
	}

	select {
	case rs.register <- conn:
	case <-rs.done:
		conn.Close()
		return
	}

	go rs.readMessages(conn)
}

// readMessages reads messages from the client (for keepalive)
func (rs *ReloadServer) readMessages(conn *websocket.Conn) {
	defer func() {
		select {
		case rs.unregister <- conn:
		case <-rs.done:
			conn.Close()
		}
	}()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Reload] WebSocket error: %v", err)
			}
			break
		}
	}
}

// NotifyConverting tells clients a conversion run started for files.
func (rs *ReloadServer) NotifyConverting(files []string) {
	rs.broadcast <- &ReloadMessage{
		Type:      "converting",
		Timestamp: time.Now().Unix(),
		Files:     files,
	}
}

// NotifyReload tells clients the fragments were regenerated.
func (rs *ReloadServer) NotifyReload(duration time.Duration) {
	rs.broadcast <- &ReloadMessage{
		Type:      "reload",
		Timestamp: time.Now().Unix(),
		Duration:  float64(duration.Milliseconds()),
	}
}

// NotifyErrors pushes the content errors of a failed conversion run.
func (rs *ReloadServer) NotifyErrors(errors []*ErrorInfo) {
	rs.broadcast <- &ReloadMessage{
		Type:      "error",
		Timestamp: time.Now().Unix(),
		Errors:    errors,
	}
}

// ConnectionCount returns the number of active connections
func (rs *ReloadServer) ConnectionCount() int {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()
	return len(rs.connections)
}

// Close closes all connections and stops the server
func (rs *ReloadServer) Close() {
	close(rs.done)

	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	for conn := range rs.connections {
		conn.Close()
	}
	rs.connections = make(map[*websocket.Conn]bool)
}
