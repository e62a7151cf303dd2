package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/geofence"
	"patrol_tracker/internal/models"
	"patrol_tracker/internal/patrol"
)

const writeWait = 5 * time.Second

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // token in the query string is the only credential
	},
}

// monitorConn is the write side of a monitor socket. *websocket.Conn satisfies it.
type monitorConn interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// LocationHub fans guard location updates out to connected admin monitors.
// Only the run goroutine writes data frames, and it never holds mu while writing.
type LocationHub struct {
	clients   map[monitorConn]bool
	last      map[uint]patrol.LocationUpdate
	register  chan monitorConn
	broadcast chan patrol.LocationUpdate
	done      chan struct{}
	stopped   chan struct{}
	stopOnce  sync.Once
	mu        sync.Mutex
}

// NewLocationHub creates a hub and starts its broadcast loop. Call Stop to end it.
func NewLocationHub() *LocationHub {
	hub := &LocationHub{
		clients:   make(map[monitorConn]bool),
		last:      make(map[uint]patrol.LocationUpdate),
		register:  make(chan monitorConn, 16),
		broadcast: make(chan patrol.LocationUpdate, 100),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go hub.run()
	return hub
}

func (h *LocationHub) run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.done:
			return
		case conn := <-h.register:
			h.addClient(conn)
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// addClient sends the latest known positions to conn, then starts including it in broadcasts.
func (h *LocationHub) addClient(conn monitorConn) {
	h.mu.Lock()
	snapshot := make([]patrol.LocationUpdate, 0, len(h.last))
	for _, loc := range h.last {
		snapshot = append(snapshot, loc)
	}
	h.mu.Unlock()

	for _, loc := range snapshot {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(loc); err != nil {
			logrus.WithError(err).WithField("conn_ptr", fmt.Sprintf("%p", conn)).
				Info("Monitor connection lost before registration.")
			conn.Close()
			return
		}
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Monitor registered with LocationHub.")
}

// deliver records msg as the guard's latest position and writes it to every monitor.
func (h *LocationHub) deliver(msg patrol.LocationUpdate) {
	h.mu.Lock()
	if prev, ok := h.last[msg.GuardID]; ok && msg.Bearing == nil {
		if geofence.Distance(prev.Latitude, prev.Longitude, msg.Latitude, msg.Longitude) >= 1 {
			b := geofence.Bearing(prev.Latitude, prev.Longitude, msg.Latitude, msg.Longitude)
			msg.Bearing = &b
		}
	}
	h.last[msg.GuardID] = msg
	conns := make([]monitorConn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			logrus.WithError(err).WithField("conn_ptr", fmt.Sprintf("%p", conn)).
				Info("Monitor connection lost during broadcast, unregistering.")
			h.UnregisterClient(conn)
			conn.Close()
		}
	}
}

// RegisterClient queues an admin monitor; the hub sends it the latest known
// positions before any further broadcast.
func (h *LocationHub) RegisterClient(conn monitorConn) {
	select {
	case <-h.done:
	case h.register <- conn:
	}
}

// UnregisterClient removes a monitor connection from the hub.
func (h *LocationHub) UnregisterClient(conn monitorConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Monitor unregistered from LocationHub.")
	}
}

// ClientCount reports the number of connected monitors.
func (h *LocationHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// PublishLocation queues an update for broadcast; it drops the update when the queue is full.
func (h *LocationHub) PublishLocation(update patrol.LocationUpdate) {
	select {
	case <-h.done:
	case h.broadcast <- update:
	default:
		logrus.WithField("guard_id", update.GuardID).Warn("Location broadcast channel full, dropping message.")
	}
}

// Stop ends the broadcast loop and closes every monitor connection.
func (h *LocationHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		<-h.stopped
		h.mu.Lock()
		defer h.mu.Unlock()
		for conn := range h.clients {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			conn.Close()
			delete(h.clients, conn)
		}
	})
}

// locationMessage is what a guard's device sends over the socket.
type locationMessage struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  float64  `json:"accuracy"`
}

// HandleLocationWebSocket authenticates ?token= and then either streams
// locations to an admin monitor or accepts location pings from a guard.
func (h *Handler) HandleLocationWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		logrus.Warn("WebSocket connection attempt: Missing token query parameter.")
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "code": "SESSION_INVALID", "error": "missing authentication token"})
		return
	}
	claims, err := h.auth.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "code": "SESSION_INVALID", "error": "invalid token"})
		return
	}
	if claims.Role != models.RoleAdmin && claims.Role != models.RoleGuard {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "code": "FORBIDDEN", "error": "unauthorized role for WebSocket connection"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	if claims.Role == models.RoleAdmin {
		h.handleMonitorWebSocket(conn, claims.UserID)
		return
	}
	h.handleGuardWebSocket(c, conn, claims.UserID)
}

func (h *Handler) handleMonitorWebSocket(conn *websocket.Conn, adminID uint) {
	h.hub.RegisterClient(conn)
	defer h.hub.UnregisterClient(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).WithField("admin_id", adminID).Debug("Monitor WebSocket read ended")
			}
			return
		}
		// Monitors only listen.
	}
}

func (h *Handler) handleGuardWebSocket(c *gin.Context, conn *websocket.Conn, guardID uint) {
	logrus.WithField("guard_id", guardID).Info("Guard WebSocket connection established.")
	ctx := c.Request.Context()

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).WithField("guard_id", guardID).Debug("Guard WebSocket read ended")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg locationMessage
		if err := json.Unmarshal(p, &msg); err != nil || msg.Latitude == nil || msg.Longitude == nil {
			_ = conn.WriteJSON(gin.H{"success": false, "code": "INVALID_INPUT", "error": "invalid location payload"})
			continue
		}
		if _, err := h.patrol.UpdateLocation(ctx, guardID, *msg.Latitude, *msg.Longitude, msg.Accuracy); err != nil {
			kind := apperr.KindOf(err)
			_ = conn.WriteJSON(gin.H{"success": false, "code": kind, "error": apperr.Message(err)})
			if kind == apperr.KindSessionInvalid {
				return
			}
			continue
		}
		_ = conn.WriteJSON(gin.H{"success": true})
	}
}
