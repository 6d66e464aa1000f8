// Package session holds per-connection player identity and cumulative
// stats. A session is owned by the transport layer and outlives any single
// room; rooms keep references only.
package session

import (
	"fmt"
	"time"
)

// ConnState is the explicit connection lifecycle of a session. Transitions
// are timed and reviewed by the engine each tick rather than via scattered
// callbacks.
type ConnState string

const (
	Connected    ConnState = "connected"
	Disconnected ConnState = "disconnected"
	Reconnecting ConnState = "reconnecting"
)

// Stats accumulates across matches for the lifetime of the session.
type Stats struct {
	GoalsScored    int `json:"goals_scored"`
	GoalsConceded  int `json:"goals_conceded"`
	GamesPlayed    int `json:"games_played"`
	GamesWon       int `json:"games_won"`
	GamesLost      int `json:"games_lost"`
	Disconnections int `json:"disconnections"`
}

// Session is one player's identity and health as seen by the core.
type Session struct {
	ConnID    string    `json:"conn_id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Character string    `json:"character"`
	Ready     bool      `json:"ready"`
	ConnState ConnState `json:"conn_state"`
	JoinedAt  time.Time `json:"joined_at"`
	Stats     Stats     `json:"stats"`

	// DroppedAt is set while ConnState != Connected.
	DroppedAt time.Time `json:"-"`
}

// New creates a connected session.
func New(connID, userID, name string) *Session {
	return &Session{
		ConnID:    connID,
		UserID:    userID,
		Name:      name,
		ConnState: Connected,
	}
}

// Validate checks the programming contract for roster membership: a
// session must carry identity. Violations are hard failures, not
// business-rule rejections.
func (s *Session) Validate() error {
	if s == nil {
		return fmt.Errorf("session: nil session")
	}
	if s.UserID == "" || s.ConnID == "" {
		return fmt.Errorf("session: missing identity (conn=%q user=%q)", s.ConnID, s.UserID)
	}
	return nil
}

// MarkDropped moves the session into Reconnecting at the given instant and
// counts the disconnection.
func (s *Session) MarkDropped(at time.Time) {
	s.ConnState = Reconnecting
	s.DroppedAt = at
	s.Ready = false
	s.Stats.Disconnections++
}

// MarkReconnected restores the session to Connected under a new transport
// connection.
func (s *Session) MarkReconnected(connID string) {
	s.ConnID = connID
	s.ConnState = Connected
	s.DroppedAt = time.Time{}
}
