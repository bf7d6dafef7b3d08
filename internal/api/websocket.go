package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/havenapps/selah/internal/logging"
)

var (
	// GlobalHub is the shared WebSocket hub for broadcasting progress updates.
	GlobalHub *Hub

	// GlobalWebSocketRateLimiter is the shared rate limiter for WebSocket messages.
	GlobalWebSocketRateLimiter *WebSocketRateLimiter
)

// ProgressMessage represents a progress update sent via WebSocket.
type ProgressMessage struct {
	Type      string                 `json:"type"`      // "progress", "complete", "error"
	Operation string                 `json:"operation"` // "study", "answer", etc.
	Stage     string                 `json:"stage"`     // Current stage of operation
	Progress  int                    `json:"progress"`  // 0-100
	Message   string                 `json:"message"`   // Human-readable status
	Timestamp string                 `json:"timestamp"` // ISO 8601 timestamp
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Client represents a WebSocket client connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains active WebSocket connections and broadcasts messages.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop to handle client registration and broadcasting.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logging.WebSocketEvent("client_connected", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			logging.WebSocketEvent("client_disconnected", len(h.clients))

		case message := <-h.broadcast:
			h.mu.Lock()
			var stale []*Client
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client channel full, disconnect
					stale = append(stale, client)
				}
			}
			for _, client := range stale {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a progress message to all connected clients.
func (h *Hub) Broadcast(msg ProgressMessage) {
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("failed to marshal progress message", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logging.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastProgress sends a progress update to all connected clients.
func BroadcastProgress(operation, stage, message string, progress int) {
	if GlobalHub == nil {
		return
	}

	GlobalHub.Broadcast(ProgressMessage{
		Type:      "progress",
		Operation: operation,
		Stage:     stage,
		Progress:  progress,
		Message:   message,
	})
}

// BroadcastComplete sends a completion message to all connected clients.
func BroadcastComplete(operation, message string, data map[string]interface{}) {
	if GlobalHub == nil {
		return
	}

	GlobalHub.Broadcast(ProgressMessage{
		Type:      "complete",
		Operation: operation,
		Progress:  100,
		Message:   message,
		Data:      data,
	})
}

// BroadcastError sends an error message to all connected clients.
func BroadcastError(operation, message string) {
	if GlobalHub == nil {
		return
	}

	GlobalHub.Broadcast(ProgressMessage{
		Type:      "error",
		Operation: operation,
		Message:   message,
	})
}

// WebSocketSecurityConfig holds WebSocket-specific security configuration.
type WebSocketSecurityConfig struct {
	// AllowedOrigins is a list of allowed origin patterns.
	// Use "*" to allow all origins; specific domains for production.
	AllowedOrigins []string

	// MaxMessageRate is the maximum number of messages per second per client.
	MaxMessageRate int

	// MaxMessageSize is the maximum message size in bytes.
	MaxMessageSize int64

	// RequireAuth indicates whether authentication is required for WebSocket connections.
	RequireAuth bool

	// AuthConfig is the authentication configuration to use.
	AuthConfig AuthConfig
}

// DefaultWebSocketSecurityConfig returns a secure default configuration.
func DefaultWebSocketSecurityConfig() WebSocketSecurityConfig {
	return WebSocketSecurityConfig{
		AllowedOrigins: []string{"*"}, // Override in production
		MaxMessageRate: 10,
		MaxMessageSize: 4096,
		RequireAuth:    false,
	}
}

// WebSocketRateLimiter tracks message rates per client.
type WebSocketRateLimiter struct {
	clients map[*Client]*messageRateBucket
	mu      sync.RWMutex
}

// messageRateBucket implements a token bucket for message rate limiting.
type messageRateBucket struct {
	tokens         float64
	capacity       float64
	refillRate     float64 // tokens per second
	lastRefillTime time.Time
	mu             sync.Mutex
}

// NewWebSocketRateLimiter creates a new WebSocket rate limiter.
func NewWebSocketRateLimiter() *WebSocketRateLimiter {
	return &WebSocketRateLimiter{
		clients: make(map[*Client]*messageRateBucket),
	}
}

func newMessageRateBucket(messagesPerSecond int) *messageRateBucket {
	capacity := float64(messagesPerSecond) * 2.0 // Allow burst of 2x
	return &messageRateBucket{
		tokens:         capacity,
		capacity:       capacity,
		refillRate:     float64(messagesPerSecond),
		lastRefillTime: time.Now(),
	}
}

func (mb *messageRateBucket) allow() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(mb.lastRefillTime).Seconds()

	mb.tokens = min(mb.capacity, mb.tokens+elapsed*mb.refillRate)
	mb.lastRefillTime = now

	if mb.tokens >= 1.0 {
		mb.tokens--
		return true
	}
	return false
}

// Register registers a client for rate limiting.
func (rl *WebSocketRateLimiter) Register(client *Client, messagesPerSecond int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.clients[client] = newMessageRateBucket(messagesPerSecond)
}

// Unregister removes a client from rate limiting.
func (rl *WebSocketRateLimiter) Unregister(client *Client) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.clients, client)
}

// Allow checks if a message from the client should be allowed.
func (rl *WebSocketRateLimiter) Allow(client *Client) bool {
	rl.mu.RLock()
	bucket, exists := rl.clients[client]
	rl.mu.RUnlock()

	if !exists {
		// Unregistered clients are denied
		return false
	}
	return bucket.allow()
}

// isOriginAllowed checks if the origin is in the allowed list.
// Supports exact matches, the "*" wildcard, and "*.example.com" subdomains.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	// Browsers always send Origin for WebSocket; absence means deny.
	if origin == "" {
		return false
	}

	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return true
		}
		if origin == allowed {
			return true
		}
		if strings.HasPrefix(allowed, "*.") {
			if strings.HasSuffix(origin, allowed[2:]) {
				return true
			}
		}
	}
	return false
}

// validateAuthForWebSocket checks authentication before the WebSocket upgrade.
// Returns an error message if authentication fails, empty string on success.
func validateAuthForWebSocket(r *http.Request, config WebSocketSecurityConfig) string {
	if !config.RequireAuth {
		return ""
	}
	if !config.AuthConfig.Enabled {
		return "Authentication required but not configured"
	}

	apiKey := r.Header.Get("X-API-Key")
	if apiKey == "" {
		// Query parameter fallback for clients that cannot set headers
		apiKey = r.URL.Query().Get("api_key")
		if apiKey == "" {
			return "Missing API key (X-API-Key header or api_key query parameter)"
		}
	}

	if !constantTimeCompare(apiKey, config.AuthConfig.APIKey) {
		return "Invalid API key"
	}
	return ""
}

// SecureWebSocketHandler creates a WebSocket handler with origin validation,
// optional authentication, and per-client message rate limiting.
func SecureWebSocketHandler(hub *Hub, config WebSocketSecurityConfig, rateLimiter *WebSocketRateLimiter) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := isOriginAllowed(origin, config.AllowedOrigins)
			if !allowed {
				logging.SecurityEvent("websocket_origin_rejected", "websocket", "origin", origin)
			}
			return allowed
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if authError := validateAuthForWebSocket(r, config); authError != "" {
			logging.SecurityEvent("websocket_auth_failed", "websocket",
				"reason", authError, "client_ip", getClientIP(r))
			http.Error(w, "Unauthorized: "+authError, http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn("websocket upgrade failed", "error", err)
			return
		}

		conn.SetReadLimit(config.MaxMessageSize)

		client := &Client{
			hub:  hub,
			conn: conn,
			send: make(chan []byte, 256),
		}

		rateLimiter.Register(client, config.MaxMessageRate)
		hub.register <- client

		logging.Info("websocket connection established",
			"client_ip", getClientIP(r), "origin", r.Header.Get("Origin"))

		go client.writePump()
		go client.readPump(rateLimiter)
	}
}

// readPump reads messages from the WebSocket connection, enforcing the
// per-client message rate limit. Clients exceeding the limit are dropped.
func (c *Client) readPump(rateLimiter *WebSocketRateLimiter) {
	defer func() {
		rateLimiter.Unregister(c)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error("websocket unexpected close", "error", err)
			}
			break
		}

		if !rateLimiter.Allow(c) {
			logging.SecurityEvent("websocket_rate_limited", "websocket")
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "message rate limit exceeded"),
				time.Now().Add(time.Second))
			break
		}
	}
}

// writePump writes messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any additional queued messages
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
