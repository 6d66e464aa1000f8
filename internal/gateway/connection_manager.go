// Package gateway is the transport boundary: websocket connections in,
// intents forwarded to the owning room's engine, notifications broadcast
// back out. The core never sees a socket; the gateway implements the
// engine's Notifier.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/boton-fun/headsoccer/internal/events"
)

// ConnectionConfig holds websocket tuning.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default websocket settings.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  2048,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
}

// Connection is one client socket bound to a room and player.
type Connection struct {
	ID       string
	PlayerID string
	RoomID   string
	Conn     *websocket.Conn
	Send     chan []byte
	Manager  *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// broadcastMessage routes an envelope to a room's pool, optionally to a
// single player.
type broadcastMessage struct {
	RoomID   string
	PlayerID string // "" = everyone in the room
	Env      *events.Envelope
}

// ConnectionManager keeps per-room connection pools and fans notifications
// out to them. It satisfies engine.Notifier.
type ConnectionManager struct {
	roomConnections map[string]map[*Connection]bool
	mu              sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan broadcastMessage

	// onDrop is invoked when a connection dies so the session layer can
	// start the disconnect grace.
	onDrop func(roomID, playerID string)
}

// NewConnectionManager builds a manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		roomConnections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 1024),
	}
}

// SetDropHandler registers the disconnect callback. Must be called before
// Start.
func (cm *ConnectionManager) SetDropHandler(fn func(roomID, playerID string)) {
	cm.onDrop = fn
}

// Start processes broadcast messages until the context ends.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case msg := <-cm.broadcastCh:
			cm.handleBroadcast(msg)
		}
	}
}

// Broadcast implements engine.Notifier.
func (cm *ConnectionManager) Broadcast(roomID string, env *events.Envelope) {
	select {
	case cm.broadcastCh <- broadcastMessage{RoomID: roomID, Env: env}:
	default:
		log.Warn().Str("room_id", roomID).Msg("broadcast channel full, dropping message")
	}
}

// Send implements engine.Notifier for single-player notices (corrections,
// rejections).
func (cm *ConnectionManager) Send(roomID, playerID string, env *events.Envelope) {
	select {
	case cm.broadcastCh <- broadcastMessage{RoomID: roomID, PlayerID: playerID, Env: env}:
	default:
		log.Warn().
			Str("room_id", roomID).
			Str("player_id", playerID).
			Msg("broadcast channel full, dropping player message")
	}
}

// Upgrade turns an HTTP request into a managed websocket connection and
// starts its pumps. The submit callback receives every decoded client
// message.
func (cm *ConnectionManager) Upgrade(w http.ResponseWriter, r *http.Request, roomID, playerID string, submit func(*Connection, []byte)) (*Connection, error) {
	ws, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade connection: %w", err)
	}

	conn := &Connection{
		ID:          uuid.New().String(),
		PlayerID:    playerID,
		RoomID:      roomID,
		Conn:        ws,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}
	cm.register(conn)

	go conn.writePump()
	go conn.readPump(submit)

	log.Info().
		Str("connection_id", conn.ID).
		Str("player_id", playerID).
		Str("room_id", roomID).
		Msg("websocket connection established")
	return conn, nil
}

func (cm *ConnectionManager) register(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.roomConnections[conn.RoomID] == nil {
		cm.roomConnections[conn.RoomID] = make(map[*Connection]bool)
	}
	cm.roomConnections[conn.RoomID][conn] = true
}

// unregister removes a connection from its pool. The Send channel is left
// open; the pumps exit when the underlying socket closes, which avoids a
// send-on-closed race with the broadcast goroutine.
func (cm *ConnectionManager) unregister(conn *Connection) {
	cm.mu.Lock()
	dropped := false
	if pool, exists := cm.roomConnections[conn.RoomID]; exists {
		if _, exists := pool[conn]; exists {
			delete(pool, conn)
			dropped = true
			if len(pool) == 0 {
				delete(cm.roomConnections, conn.RoomID)
			}
		}
	}
	cm.mu.Unlock()

	if dropped {
		log.Info().
			Str("connection_id", conn.ID).
			Str("player_id", conn.PlayerID).
			Str("room_id", conn.RoomID).
			Msg("connection unregistered")
		if cm.onDrop != nil {
			cm.onDrop(conn.RoomID, conn.PlayerID)
		}
	}
}

func (cm *ConnectionManager) handleBroadcast(msg broadcastMessage) {
	cm.mu.RLock()
	pool, exists := cm.roomConnections[msg.RoomID]
	if !exists {
		cm.mu.RUnlock()
		return
	}
	var targets []*Connection
	for conn := range pool {
		if msg.PlayerID != "" && conn.PlayerID != msg.PlayerID {
			continue
		}
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	data, err := json.Marshal(msg.Env)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal envelope for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			// Slow or dead client: evict rather than stall the room.
			log.Warn().
				Str("connection_id", conn.ID).
				Str("player_id", conn.PlayerID).
				Msg("send buffer full, closing connection")
			cm.unregister(conn)
			conn.Conn.Close()
		}
	}
}

// Stats reports live connection counts per room.
func (cm *ConnectionManager) Stats() map[string]any {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	total := 0
	perRoom := make(map[string]int, len(cm.roomConnections))
	for roomID, pool := range cm.roomConnections {
		total += len(pool)
		perRoom[roomID] = len(pool)
	}
	return map[string]any{
		"total_connections": total,
		"active_rooms":      len(cm.roomConnections),
		"room_connections":  perRoom,
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregister(c)
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message")
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.LastPing = time.Now()
		}
	}
}

func (c *Connection) readPump(submit func(*Connection, []byte)) {
	defer func() {
		c.Manager.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected websocket close")
			}
			break
		}
		submit(c, message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
