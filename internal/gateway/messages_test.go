package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boton-fun/headsoccer/internal/engine"
)

func TestDecodeMoveIntent(t *testing.T) {
	raw := []byte(`{
		"type": "move",
		"seq": 42,
		"client_timestamp": 1700000000123,
		"payload": {"axis": -1, "jump": true, "x": 210.5, "y": 375, "vx": -260, "vy": 0}
	}`)

	in, err := decodeIntent("alice", raw)
	require.NoError(t, err)

	assert.Equal(t, engine.IntentMove, in.Type)
	assert.Equal(t, "alice", in.PlayerID)
	assert.Equal(t, uint64(42), in.Seq)
	assert.Equal(t, time.UnixMilli(1700000000123), in.ClientTimestamp)
	require.NotNil(t, in.Move)
	assert.Equal(t, -1.0, in.Move.Axis)
	assert.True(t, in.Move.Jump)
	assert.Equal(t, 210.5, in.Move.X)
}

func TestDecodeKickWithoutPayload(t *testing.T) {
	in, err := decodeIntent("alice", []byte(`{"type": "kick", "seq": 1}`))
	require.NoError(t, err)
	assert.Equal(t, engine.IntentKick, in.Type)
	require.NotNil(t, in.Kick)
	assert.Zero(t, in.Kick.DirX)
}

func TestDecodeBallIntent(t *testing.T) {
	raw := []byte(`{"type": "ball", "payload": {"x": 400, "y": 120, "vx": 80, "vy": -30}}`)
	in, err := decodeIntent("bob", raw)
	require.NoError(t, err)
	require.NotNil(t, in.Ball)
	assert.Equal(t, 400.0, in.Ball.X)
	assert.Equal(t, -30.0, in.Ball.VY)
}

func TestDecodeSimpleIntents(t *testing.T) {
	cases := map[string]engine.IntentType{
		"goal":    engine.IntentGoal,
		"ready":   engine.IntentReady,
		"pause":   engine.IntentPause,
		"resume":  engine.IntentResume,
		"forfeit": engine.IntentForfeit,
		"leave":   engine.IntentLeave,
	}
	for wire, want := range cases {
		in, err := decodeIntent("alice", []byte(`{"type": "`+wire+`"}`))
		require.NoError(t, err, wire)
		assert.Equal(t, want, in.Type)
	}
}

func TestDecodeReadyRetract(t *testing.T) {
	in, err := decodeIntent("alice", []byte(`{"type": "ready"}`))
	require.NoError(t, err)
	assert.True(t, in.Ready)

	in, err = decodeIntent("alice", []byte(`{"type": "ready", "payload": {"ready": false}}`))
	require.NoError(t, err)
	assert.False(t, in.Ready)
}

func TestDecodeRejectsUnknownAndMalformed(t *testing.T) {
	_, err := decodeIntent("alice", []byte(`{"type": "nuke"}`))
	assert.Error(t, err)

	_, err = decodeIntent("alice", []byte(`not json`))
	assert.Error(t, err)

	// Transport-driven intents are never accepted off the wire.
	_, err = decodeIntent("alice", []byte(`{"type": "join"}`))
	assert.Error(t, err)
	_, err = decodeIntent("alice", []byte(`{"type": "disconnect"}`))
	assert.Error(t, err)
}

func TestDecodeZeroTimestampLeftUnset(t *testing.T) {
	in, err := decodeIntent("alice", []byte(`{"type": "pause"}`))
	require.NoError(t, err)
	assert.True(t, in.ClientTimestamp.IsZero())
}
