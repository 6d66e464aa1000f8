package room

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boton-fun/headsoccer/internal/events"
	"github.com/boton-fun/headsoccer/internal/game"
	"github.com/boton-fun/headsoccer/internal/session"
)

func newSession(id string) *session.Session {
	return session.New("conn-"+id, id, "player "+id)
}

func seatedRoom(t *testing.T, cfg Config, clk clockwork.Clock) *Room {
	t.Helper()
	r := New(cfg, clk)
	_, res := r.AddPlayer(newSession("alice"))
	require.True(t, res.OK)
	_, res = r.AddPlayer(newSession("bob"))
	require.True(t, res.OK)
	return r
}

func startedRoom(t *testing.T, cfg Config, clk clockwork.Clock) *Room {
	t.Helper()
	r := seatedRoom(t, cfg, clk)
	require.True(t, r.MarkReady("alice", true).OK)
	require.True(t, r.MarkReady("bob", true).OK)
	require.True(t, r.StartGame().OK)
	return r
}

func TestAddPlayerSeatsLeftThenRight(t *testing.T) {
	r := New(Config{}, clockwork.NewFakeClock())

	side, res := r.AddPlayer(newSession("alice"))
	require.True(t, res.OK)
	assert.Equal(t, game.SideLeft, side)

	side, res = r.AddPlayer(newSession("bob"))
	require.True(t, res.OK)
	assert.Equal(t, game.SideRight, side)

	assert.Equal(t, 2, r.PlayerCount())
	assert.Equal(t, game.SideLeft, r.SideOf("alice"))
}

func TestAddPlayerRoomFull(t *testing.T) {
	r := seatedRoom(t, Config{}, clockwork.NewFakeClock())

	_, res := r.AddPlayer(newSession("carol"))
	assert.False(t, res.OK)
	assert.Equal(t, ReasonRoomFull, res.Reason)
	assert.Equal(t, 2, r.PlayerCount())
}

func TestAddPlayerRejectsDuplicateAndInvalid(t *testing.T) {
	r := New(Config{}, clockwork.NewFakeClock())
	_, res := r.AddPlayer(newSession("alice"))
	require.True(t, res.OK)

	_, res = r.AddPlayer(newSession("alice"))
	assert.Equal(t, ReasonInvalidPlayer, res.Reason)

	_, res = r.AddPlayer(&session.Session{ConnID: "c"})
	assert.Equal(t, ReasonInvalidPlayer, res.Reason)
}

func TestRemovePlayerFreesSlot(t *testing.T) {
	r := seatedRoom(t, Config{}, clockwork.NewFakeClock())

	require.True(t, r.RemovePlayer("alice").OK)
	assert.Equal(t, 1, r.PlayerCount())
	assert.Empty(t, r.SideOf("alice"))

	res := r.RemovePlayer("alice")
	assert.Equal(t, ReasonPlayerNotFound, res.Reason)

	// The left slot opened up again.
	side, res := r.AddPlayer(newSession("carol"))
	require.True(t, res.OK)
	assert.Equal(t, game.SideLeft, side)
}

func TestCheckReadyToStart(t *testing.T) {
	r := New(Config{}, clockwork.NewFakeClock())

	ok, reason := r.CheckReadyToStart()
	assert.False(t, ok)
	assert.Equal(t, ReasonNotEnoughPlayers, reason)

	r.AddPlayer(newSession("alice"))
	r.AddPlayer(newSession("bob"))
	ok, reason = r.CheckReadyToStart()
	assert.False(t, ok)
	assert.Equal(t, ReasonPlayersNotReady, reason)

	r.MarkReady("alice", true)
	r.MarkReady("bob", true)
	ok, _ = r.CheckReadyToStart()
	assert.True(t, ok)
	assert.Equal(t, StatusReady, r.Status())
}

func TestMarkReadyCanRetract(t *testing.T) {
	r := seatedRoom(t, Config{}, clockwork.NewFakeClock())
	r.MarkReady("alice", true)
	r.MarkReady("bob", true)
	require.Equal(t, StatusReady, r.Status())

	r.MarkReady("bob", false)
	assert.Equal(t, StatusWaiting, r.Status())
}

func TestStartGameRequiresReadyRoster(t *testing.T) {
	r := seatedRoom(t, Config{}, clockwork.NewFakeClock())

	res := r.StartGame()
	assert.Equal(t, ReasonNotReady, res.Reason)

	r.MarkReady("alice", true)
	r.MarkReady("bob", true)
	require.True(t, r.StartGame().OK)
	assert.Equal(t, StatusInProgress, r.Status())

	res = r.StartGame()
	assert.False(t, res.OK)
}

func TestAddGoalUpdatesScoreAndLog(t *testing.T) {
	r := startedRoom(t, Config{}, clockwork.NewFakeClock())

	require.True(t, r.AddGoal("alice", ShotMeta{Type: "header", Speed: 500}).OK)
	require.True(t, r.AddGoal("bob", ShotMeta{}).OK)
	require.True(t, r.AddGoal("alice", ShotMeta{}).OK)

	assert.Equal(t, Score{Left: 2, Right: 1}, r.Score())

	goals := r.Goals()
	require.Len(t, goals, 3)
	for i, g := range goals {
		assert.Equal(t, i+1, g.Seq)
	}
	assert.Equal(t, "alice", goals[0].PlayerID)
	assert.Equal(t, game.SideLeft, goals[0].Side)
	assert.Equal(t, "header", goals[0].Shot.Type)

	// Score sum always equals goal count.
	assert.Equal(t, len(goals), r.Score().Left+r.Score().Right)

	alice := r.Player(game.SideLeft)
	assert.Equal(t, 2, alice.Stats.GoalsScored)
	assert.Equal(t, 1, alice.Stats.GoalsConceded)
}

func TestAddGoalRejectedWhenNotInProgress(t *testing.T) {
	r := seatedRoom(t, Config{}, clockwork.NewFakeClock())
	res := r.AddGoal("alice", ShotMeta{})
	assert.Equal(t, ReasonNotInProgress, res.Reason)
}

func TestScoreLimitEndsMatch(t *testing.T) {
	r := startedRoom(t, Config{ScoreLimit: 3}, clockwork.NewFakeClock())

	r.AddGoal("alice", ShotMeta{})
	r.AddGoal("alice", ShotMeta{})
	require.Equal(t, StatusInProgress, r.Status())

	require.True(t, r.AddGoal("alice", ShotMeta{}).OK)
	assert.Equal(t, StatusEnded, r.Status())
	assert.Equal(t, "alice", r.Winner())
	assert.Equal(t, WinScoreLimit, r.WinReason())

	// No scoring after the whistle.
	res := r.AddGoal("bob", ShotMeta{})
	assert.Equal(t, ReasonNotInProgress, res.Reason)
	assert.Equal(t, Score{Left: 3, Right: 0}, r.Score())
}

func TestTimeLimitEndsMatchWithLeader(t *testing.T) {
	clk := clockwork.NewFakeClock()
	r := startedRoom(t, Config{TimeLimit: 120}, clk)

	r.AddGoal("bob", ShotMeta{})

	clk.Advance(119 * time.Second)
	assert.False(t, r.UpdateGameTime())
	require.Equal(t, StatusInProgress, r.Status())

	clk.Advance(2 * time.Second)
	assert.True(t, r.UpdateGameTime())
	assert.Equal(t, StatusEnded, r.Status())
	assert.Equal(t, "bob", r.Winner())
	assert.Equal(t, WinTimeExpired, r.WinReason())
}

func TestTimeLimitDraw(t *testing.T) {
	clk := clockwork.NewFakeClock()
	r := startedRoom(t, Config{TimeLimit: 60}, clk)

	r.AddGoal("alice", ShotMeta{})
	r.AddGoal("bob", ShotMeta{})

	clk.Advance(61 * time.Second)
	require.True(t, r.UpdateGameTime())
	assert.Empty(t, r.Winner())
	assert.Equal(t, WinTimeExpired, r.WinReason())

	for _, s := range r.Sessions() {
		assert.Equal(t, 1, s.Stats.GamesPlayed)
		assert.Zero(t, s.Stats.GamesWon)
		assert.Zero(t, s.Stats.GamesLost)
	}
}

func TestPauseFreezesGameClock(t *testing.T) {
	clk := clockwork.NewFakeClock()
	r := startedRoom(t, Config{TimeLimit: 300}, clk)

	clk.Advance(30 * time.Second)
	r.UpdateGameTime()
	require.InDelta(t, 30, r.GameClock(), 0.001)

	require.True(t, r.PauseGame().OK)
	assert.Equal(t, StatusPaused, r.Status())
	clk.Advance(45 * time.Second)

	require.True(t, r.ResumeGame().OK)
	clk.Advance(10 * time.Second)
	r.UpdateGameTime()
	assert.InDelta(t, 40, r.GameClock(), 0.001)
}

func TestPauseResumeInvalidStates(t *testing.T) {
	clk := clockwork.NewFakeClock()
	r := seatedRoom(t, Config{}, clk)

	assert.Equal(t, ReasonInvalidState, r.PauseGame().Reason)
	assert.Equal(t, ReasonInvalidState, r.ResumeGame().Reason)

	r.MarkReady("alice", true)
	r.MarkReady("bob", true)
	r.StartGame()
	require.True(t, r.PauseGame().OK)
	assert.Equal(t, ReasonInvalidState, r.PauseGame().Reason)
}

func TestEndGameIdempotent(t *testing.T) {
	r := startedRoom(t, Config{}, clockwork.NewFakeClock())

	require.True(t, r.EndGame(WinForfeit, "bob").OK)
	endedAt := r.EndedAt()

	res := r.EndGame(WinManual, "alice")
	assert.Equal(t, ReasonAlreadyEnded, res.Reason)
	assert.Equal(t, "bob", r.Winner())
	assert.Equal(t, WinForfeit, r.WinReason())
	assert.Equal(t, endedAt, r.EndedAt())
}

func TestEndGameUpdatesSessionStats(t *testing.T) {
	r := startedRoom(t, Config{}, clockwork.NewFakeClock())
	r.EndGame(WinForfeit, "alice")

	alice := r.Player(game.SideLeft)
	bob := r.Player(game.SideRight)
	assert.Equal(t, 1, alice.Stats.GamesWon)
	assert.Zero(t, alice.Stats.GamesLost)
	assert.Equal(t, 1, bob.Stats.GamesLost)
}

func TestEventLogOrdering(t *testing.T) {
	r := startedRoom(t, Config{}, clockwork.NewFakeClock())
	r.AddGoal("alice", ShotMeta{})
	r.AppendEvent(events.TypeGamePaused, nil)
	r.EndGame(WinManual, "")

	evts := r.Events()
	require.NotEmpty(t, evts)
	for i, e := range evts {
		assert.Equal(t, i+1, e.Seq)
	}

	var types []events.Type
	for _, e := range evts {
		types = append(types, e.Type)
	}
	assert.Equal(t, []events.Type{
		events.TypePlayerJoined,
		events.TypePlayerJoined,
		events.TypeGameStarted,
		events.TypeGoalScored,
		events.TypeGamePaused,
		events.TypeGameEnded,
	}, types)
}

func TestSummarySnapshot(t *testing.T) {
	clk := clockwork.NewFakeClock()
	r := startedRoom(t, Config{GameMode: ModeRanked, ScoreLimit: 2}, clk)
	r.AddGoal("alice", ShotMeta{})
	clk.Advance(42 * time.Second)
	r.UpdateGameTime()
	r.AddGoal("alice", ShotMeta{})
	require.Equal(t, StatusEnded, r.Status())

	sum := r.Summary()
	assert.Equal(t, r.ID, sum.RoomID)
	assert.Equal(t, ModeRanked, sum.GameMode)
	assert.Equal(t, "alice", sum.Winner)
	assert.Equal(t, WinScoreLimit, sum.WinReason)
	assert.Equal(t, Score{Left: 2}, sum.Score)
	assert.Len(t, sum.Goals, 2)
}
