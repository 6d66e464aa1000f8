package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/boton-fun/headsoccer/internal/engine"
	"github.com/boton-fun/headsoccer/internal/manager"
	"github.com/boton-fun/headsoccer/internal/room"
	"github.com/boton-fun/headsoccer/internal/session"
)

// Rooms is what the service needs from the room registry.
type Rooms interface {
	CreateRoom(ctx context.Context, cfg room.Config) (manager.RoomInfo, error)
	Resolve(joinCode string) (string, bool)
	Submit(roomID string, in engine.Intent) error
}

// ServiceConfig tunes the HTTP surface.
type ServiceConfig struct {
	JoinTimeout    time.Duration
	AllowedOrigins []string
}

// DefaultServiceConfig returns the stock HTTP settings.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		JoinTimeout:    5 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// Service exposes room creation and the websocket entry point.
type Service struct {
	cm    *ConnectionManager
	rooms Rooms
	cfg   ServiceConfig
}

// NewService wires the HTTP surface to the registry and the connection
// manager, and hooks connection drops into the disconnect flow.
func NewService(cm *ConnectionManager, rooms Rooms, cfg ServiceConfig) *Service {
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = DefaultServiceConfig().JoinTimeout
	}
	s := &Service{cm: cm, rooms: rooms, cfg: cfg}
	cm.SetDropHandler(s.onConnectionDrop)
	return s
}

// Handler builds the full HTTP handler: routes, CORS, and h2c so the
// server speaks HTTP/2 without TLS behind a terminating proxy.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms/resolve", s.handleResolve)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return h2c.NewHandler(c.Handler(mux), &http2.Server{})
}

type createRoomRequest struct {
	GameMode   string         `json:"game_mode"`
	TimeLimit  int            `json:"time_limit"`
	ScoreLimit int            `json:"score_limit"`
	Metadata   map[string]any `json:"metadata"`
}

func (s *Service) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mode := room.GameMode(req.GameMode)
	if mode == "" {
		mode = room.ModeCasual
	}
	info, err := s.rooms.CreateRoom(r.Context(), room.Config{
		GameMode:   mode,
		TimeLimit:  req.TimeLimit,
		ScoreLimit: req.ScoreLimit,
		Metadata:   req.Metadata,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Service) handleResolve(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	roomID, ok := s.rooms.Resolve(code)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown join code")
		return
	}
	writeJSON(w, http.StatusOK, manager.RoomInfo{RoomID: roomID, JoinCode: code})
}

// handleWebSocket is the only way into a room: the upgrade doubles as the
// join (or reconnect) request, and the close doubles as the disconnect.
func (s *Service) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	roomID := q.Get("room_id")
	if roomID == "" {
		if id, ok := s.rooms.Resolve(q.Get("code")); ok {
			roomID = id
		}
	}
	playerID := q.Get("player_id")
	if roomID == "" || playerID == "" {
		writeError(w, http.StatusBadRequest, "room_id (or code) and player_id are required")
		return
	}
	reconnect := q.Get("reconnect") == "true"

	conn, err := s.cm.Upgrade(w, r, roomID, playerID, s.onClientMessage)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("websocket upgrade failed")
		return
	}

	in := engine.Intent{
		Type:   engine.IntentJoin,
		ConnID: conn.ID,
		Reply:  make(chan room.Result, 1),
	}
	if reconnect {
		in.Type = engine.IntentReconnect
		in.PlayerID = playerID
	} else {
		sess := session.New(conn.ID, playerID, q.Get("name"))
		sess.Character = q.Get("character")
		in.Session = sess
		in.PlayerID = playerID
	}

	if err := s.rooms.Submit(roomID, in); err != nil {
		s.closeWithReason(conn, string(room.ReasonRoomGone))
		return
	}
	select {
	case res := <-in.Reply:
		if !res.OK {
			s.closeWithReason(conn, string(res.Reason))
		}
	case <-time.After(s.cfg.JoinTimeout):
		s.closeWithReason(conn, "join_timeout")
	}
}

// onClientMessage decodes a frame off the read pump and hands it to the
// room's engine. Decode failures only get logged; the engine itself
// rejects anything semantically out of place.
func (s *Service) onClientMessage(conn *Connection, raw []byte) {
	in, err := decodeIntent(conn.PlayerID, raw)
	if err != nil {
		log.Warn().
			Err(err).
			Str("connection_id", conn.ID).
			Str("player_id", conn.PlayerID).
			Msg("dropping malformed client message")
		return
	}
	in.ConnID = conn.ID
	if err := s.rooms.Submit(conn.RoomID, in); err != nil && !errors.Is(err, engine.ErrRoomGone) {
		log.Error().Err(err).Str("room_id", conn.RoomID).Msg("intent submit failed")
	}
}

// onConnectionDrop bridges transport loss into the grace flow.
func (s *Service) onConnectionDrop(roomID, playerID string) {
	err := s.rooms.Submit(roomID, engine.Intent{
		Type:     engine.IntentDisconnect,
		PlayerID: playerID,
	})
	if err != nil && !errors.Is(err, engine.ErrRoomGone) {
		log.Error().Err(err).Str("room_id", roomID).Msg("disconnect submit failed")
	}
}

func (s *Service) closeWithReason(conn *Connection, reason string) {
	payload, _ := json.Marshal(map[string]string{"type": "join_rejected", "reason": reason})
	select {
	case conn.Send <- payload:
	default:
	}
	// Give the write pump a moment to flush before tearing down.
	time.AfterFunc(time.Second, func() { conn.Conn.Close() })
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "request_id": uuid.New().String()})
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cm.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
