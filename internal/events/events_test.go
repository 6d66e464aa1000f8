package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.FixedZone("CET", 3600))

	env, err := NewEnvelope("room-1", TypeGoalScored, GoalScoredPayload{Seq: 1, PlayerID: "alice"}, at)
	require.NoError(t, err)

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "room-1", env.RoomID)
	assert.Equal(t, TypeGoalScored, env.Type)

	// The stamp is the caller's instant, normalized to UTC.
	assert.Equal(t, time.UTC, env.Timestamp.Location())
	assert.True(t, env.Timestamp.Equal(at))

	var payload GoalScoredPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "alice", payload.PlayerID)
}

func TestNewEnvelopeRejectsUnmarshalablePayload(t *testing.T) {
	_, err := NewEnvelope("room-1", TypeStateUpdate, func() {}, time.Now())
	assert.Error(t, err)
}
