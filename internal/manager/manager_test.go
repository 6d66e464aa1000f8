package manager

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boton-fun/headsoccer/internal/engine"
	"github.com/boton-fun/headsoccer/internal/events"
	"github.com/boton-fun/headsoccer/internal/room"
	"github.com/boton-fun/headsoccer/internal/stats"
)

type nopNotifier struct{}

func (nopNotifier) Broadcast(string, *events.Envelope)    {}
func (nopNotifier) Send(string, string, *events.Envelope) {}

func newTestManager(clk clockwork.Clock) *Manager {
	return New(DefaultConfig(), engine.DefaultConfig(), clk, nopNotifier{}, stats.NopPublisher{})
}

func TestCreateAndResolveRoom(t *testing.T) {
	m := newTestManager(clockwork.NewFakeClock())
	defer m.Shutdown()

	info, err := m.CreateRoom(context.Background(), room.Config{GameMode: room.ModeCasual})
	require.NoError(t, err)
	assert.NotEmpty(t, info.RoomID)
	assert.Len(t, info.JoinCode, 6)
	assert.Equal(t, 1, m.RoomCount())

	id, ok := m.Resolve(info.JoinCode)
	require.True(t, ok)
	assert.Equal(t, info.RoomID, id)

	// Join codes resolve regardless of case.
	id, ok = m.Resolve(strings.ToLower(info.JoinCode))
	require.True(t, ok)
	assert.Equal(t, info.RoomID, id)

	_, ok = m.Resolve("ZZZZZZ")
	assert.False(t, ok)
}

func TestCreateRoomRejectsNegativeLimits(t *testing.T) {
	m := newTestManager(clockwork.NewFakeClock())
	defer m.Shutdown()

	_, err := m.CreateRoom(context.Background(), room.Config{TimeLimit: -1})
	assert.Error(t, err)
	_, err = m.CreateRoom(context.Background(), room.Config{ScoreLimit: -1})
	assert.Error(t, err)
	assert.Zero(t, m.RoomCount())
}

func TestSubmitUnknownRoom(t *testing.T) {
	m := newTestManager(clockwork.NewFakeClock())
	defer m.Shutdown()

	err := m.Submit("no-such-room", engine.Intent{Type: engine.IntentPause})
	assert.ErrorIs(t, err, engine.ErrRoomGone)
}

func TestTeardown(t *testing.T) {
	m := newTestManager(clockwork.NewFakeClock())
	defer m.Shutdown()

	info, err := m.CreateRoom(context.Background(), room.Config{})
	require.NoError(t, err)

	m.Teardown(info.RoomID)
	assert.Zero(t, m.RoomCount())
	_, ok := m.Resolve(info.JoinCode)
	assert.False(t, ok)
	assert.ErrorIs(t, m.Submit(info.RoomID, engine.Intent{}), engine.ErrRoomGone)

	// Tearing down twice is harmless.
	m.Teardown(info.RoomID)
}

func TestSweepExpiresAndReapsOldRooms(t *testing.T) {
	clk := clockwork.NewFakeClock()
	cfg := DefaultConfig()
	cfg.MaxRoomAge = time.Hour
	m := New(cfg, engine.DefaultConfig(), clk, nopNotifier{}, stats.NopPublisher{})
	defer m.Shutdown()

	info, err := m.CreateRoom(context.Background(), room.Config{})
	require.NoError(t, err)

	m.Sweep()
	assert.Equal(t, 1, m.RoomCount())

	// Past the age limit the room is stopped, then reaped on the next pass.
	clk.Advance(2 * time.Hour)
	m.Sweep()
	assert.ErrorIs(t, m.Submit(info.RoomID, engine.Intent{}), engine.ErrRoomGone)

	m.Sweep()
	assert.Zero(t, m.RoomCount())
}
