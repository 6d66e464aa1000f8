// Package events defines the typed payloads that flow from the room and
// engine to the gateway and the stats boundary. Payloads live here so the
// room, engine and gateway packages can share them without import cycles.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifies a match event or outbound notification.
type Type string

const (
	TypePlayerJoined        Type = "player_joined"
	TypePlayerLeft          Type = "player_left"
	TypeGameStarted         Type = "game_started"
	TypeGoalScored          Type = "goal_scored"
	TypeGamePaused          Type = "game_paused"
	TypeGameResumed         Type = "game_resumed"
	TypePauseTimeoutExpired Type = "pause_timeout_expired"
	TypePlayerDisconnected  Type = "player_disconnected"
	TypePlayerReconnected   Type = "player_reconnected"
	TypeGameEnded           Type = "game_ended"
	TypeStateUpdate         Type = "state_update"
	TypeCorrection          Type = "correction"
	TypeRejection           Type = "rejection"
)

// Envelope is the wire form of every outbound notification.
type Envelope struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"room_id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEnvelope wraps a payload for broadcast, stamped with the caller's
// clock reading so envelope times stay testable under a fake clock.
func NewEnvelope(roomID string, typ Type, payload any, at time.Time) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return &Envelope{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		Type:      typ,
		Timestamp: at.UTC(),
		Data:      data,
	}, nil
}
