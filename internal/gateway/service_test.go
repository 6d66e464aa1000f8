package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boton-fun/headsoccer/internal/engine"
	"github.com/boton-fun/headsoccer/internal/manager"
	"github.com/boton-fun/headsoccer/internal/room"
)

type stubRooms struct {
	created   []room.Config
	info      manager.RoomInfo
	createErr error

	codes map[string]string

	submitted []engine.Intent
	submitErr error
}

func (s *stubRooms) CreateRoom(_ context.Context, cfg room.Config) (manager.RoomInfo, error) {
	s.created = append(s.created, cfg)
	return s.info, s.createErr
}

func (s *stubRooms) Resolve(code string) (string, bool) {
	id, ok := s.codes[code]
	return id, ok
}

func (s *stubRooms) Submit(roomID string, in engine.Intent) error {
	s.submitted = append(s.submitted, in)
	return s.submitErr
}

func newTestService(rooms *stubRooms) *Service {
	cm := NewConnectionManager(DefaultConnectionConfig())
	return NewService(cm, rooms, DefaultServiceConfig())
}

func TestCreateRoomEndpoint(t *testing.T) {
	rooms := &stubRooms{info: manager.RoomInfo{RoomID: "room-1", JoinCode: "ABC123"}}
	handler := newTestService(rooms).Handler()

	body := `{
		"game_mode": "ranked",
		"time_limit": 120,
		"score_limit": 5,
		"metadata": {"region": "eu", "max_spectators": 4, "private": true}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var info manager.RoomInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "room-1", info.RoomID)
	assert.Equal(t, "ABC123", info.JoinCode)

	require.Len(t, rooms.created, 1)
	cfg := rooms.created[0]
	assert.Equal(t, room.ModeRanked, cfg.GameMode)
	assert.Equal(t, 120, cfg.TimeLimit)
	assert.Equal(t, 5, cfg.ScoreLimit)

	// Metadata is opaque pass-through: arbitrary JSON value types survive.
	assert.Equal(t, "eu", cfg.Metadata["region"])
	assert.Equal(t, float64(4), cfg.Metadata["max_spectators"])
	assert.Equal(t, true, cfg.Metadata["private"])
}

func TestCreateRoomDefaultsGameMode(t *testing.T) {
	rooms := &stubRooms{}
	handler := newTestService(rooms).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, rooms.created, 1)
	assert.Equal(t, room.ModeCasual, rooms.created[0].GameMode)
}

func TestCreateRoomRejectsBadBody(t *testing.T) {
	rooms := &stubRooms{}
	handler := newTestService(rooms).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rooms.created)
}

func TestResolveEndpoint(t *testing.T) {
	rooms := &stubRooms{codes: map[string]string{"ABC123": "room-1"}}
	handler := newTestService(rooms).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/resolve?code=ABC123", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var info manager.RoomInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "room-1", info.RoomID)

	req = httptest.NewRequest(http.MethodGet, "/api/rooms/resolve?code=NOPE", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebSocketRequiresIdentity(t *testing.T) {
	rooms := &stubRooms{}
	handler := newTestService(rooms).Handler()

	req := httptest.NewRequest(http.MethodGet, "/ws?room_id=room-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/ws?player_id=alice", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
