// Package room owns the canonical match state machine: roster, score,
// lifecycle status, the goal log and the ordered event log. A room is
// mutated only from its engine's actor goroutine, so it carries no locks;
// ordering of the event log is the actor's ordering.
package room

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/boton-fun/headsoccer/internal/clock"
	"github.com/boton-fun/headsoccer/internal/events"
	"github.com/boton-fun/headsoccer/internal/game"
	"github.com/boton-fun/headsoccer/internal/session"
)

// Status is the room lifecycle. Transitions are monotonic except
// in_progress <-> paused.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusEnded      Status = "ended"
)

// GameMode selects match rules upstream (matchmaking, rating); the core
// only carries it.
type GameMode string

const (
	ModeCasual     GameMode = "casual"
	ModeRanked     GameMode = "ranked"
	ModeTournament GameMode = "tournament"
)

// WinReason records why a match ended.
type WinReason string

const (
	WinScoreLimit        WinReason = "score_limit"
	WinTimeExpired       WinReason = "time_expired"
	WinForfeit           WinReason = "forfeit"
	WinDisconnectTimeout WinReason = "disconnect_timeout"
	WinManual            WinReason = "manual"
)

// Config is the recognized construction options. Metadata is opaque
// pass-through with no semantic effect.
type Config struct {
	GameMode   GameMode       `json:"game_mode" yaml:"game_mode"`
	TimeLimit  int            `json:"time_limit" yaml:"time_limit"`   // seconds, 0 = unbounded
	ScoreLimit int            `json:"score_limit" yaml:"score_limit"` // goals, 0 = unbounded
	Metadata   map[string]any `json:"metadata,omitempty" yaml:"-"`
}

// Score is the running tally per side.
type Score struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// ShotMeta is optional detail attached to a goal.
type ShotMeta struct {
	Type  string  `json:"type,omitempty"`
	Speed float64 `json:"speed,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
}

// Goal is one confirmed goal. Goals are appended once and never mutated.
type Goal struct {
	Seq      int       `json:"seq"`
	PlayerID string    `json:"player_id"`
	Side     game.Side `json:"side"`
	Clock    float64   `json:"clock_sec"`
	Shot     ShotMeta  `json:"shot"`
}

// Event is one entry of the ordered match event log.
type Event struct {
	Seq     int         `json:"seq"`
	Type    events.Type `json:"type"`
	Clock   float64     `json:"clock_sec"`
	Payload any         `json:"payload,omitempty"`
}

// Room is one two-player match.
type Room struct {
	ID  string
	cfg Config
	clk clockwork.Clock

	status  Status
	roster  map[game.Side]*session.Session
	score   Score
	goals   []Goal
	events  []Event
	nextSeq int

	timer     *clock.Timer
	gameClock float64 // seconds of match time, advanced by UpdateGameTime

	startedAt time.Time
	endedAt   time.Time
	winner    string // user id, empty = draw or not ended
	winReason WinReason
}

// New creates a waiting room.
func New(cfg Config, clk clockwork.Clock) *Room {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if cfg.GameMode == "" {
		cfg.GameMode = ModeCasual
	}
	return &Room{
		ID:     uuid.New().String(),
		cfg:    cfg,
		clk:    clk,
		status: StatusWaiting,
		roster: make(map[game.Side]*session.Session, 2),
	}
}

func (r *Room) Status() Status { return r.status }
func (r *Room) Config() Config { return r.cfg }
func (r *Room) Score() Score { return r.score }
func (r *Room) Goals() []Goal { return r.goals }
func (r *Room) Events() []Event { return r.events }
func (r *Room) Winner() string { return r.winner }
func (r *Room) WinReason() WinReason { return r.winReason }
func (r *Room) GameClock() float64 { return r.gameClock }
func (r *Room) EndedAt() time.Time { return r.endedAt }

// Sessions returns the seated sessions in side order, left first.
func (r *Room) Sessions() []*session.Session {
	out := make([]*session.Session, 0, 2)
	for _, side := range []game.Side{game.SideLeft, game.SideRight} {
		if s := r.roster[side]; s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Player returns the session on a side, nil when the slot is open.
func (r *Room) Player(side game.Side) *session.Session {
	return r.roster[side]
}

// SideOf finds which side a user occupies, "" if absent.
func (r *Room) SideOf(userID string) game.Side {
	for side, s := range r.roster {
		if s.UserID == userID {
			return side
		}
	}
	return ""
}

// PlayerCount returns the roster size.
func (r *Room) PlayerCount() int {
	return len(r.roster)
}

// AddPlayer seats a session in the first open slot, left before right.
func (r *Room) AddPlayer(s *session.Session) (game.Side, Result) {
	if err := s.Validate(); err != nil {
		log.Warn().Str("room_id", r.ID).Err(err).Msg("rejected invalid player")
		return "", Fail(ReasonInvalidPlayer)
	}
	if len(r.roster) >= 2 {
		return "", Fail(ReasonRoomFull)
	}
	if r.SideOf(s.UserID) != "" {
		return "", Fail(ReasonInvalidPlayer)
	}

	side := game.SideLeft
	if r.roster[game.SideLeft] != nil {
		side = game.SideRight
	}
	s.JoinedAt = r.clk.Now()
	r.roster[side] = s

	r.appendEvent(events.TypePlayerJoined, events.PlayerJoinedPayload{
		PlayerID: s.UserID,
		Name:     s.Name,
		Side:     string(side),
	})
	return side, Done()
}

// RemovePlayer drops a user from the roster. Removal from an in-progress
// match does not end it here; the engine runs the forfeit grace period.
func (r *Room) RemovePlayer(userID string) Result {
	side := r.SideOf(userID)
	if side == "" {
		return Fail(ReasonPlayerNotFound)
	}
	delete(r.roster, side)
	r.appendEvent(events.TypePlayerLeft, events.PlayerLeftPayload{PlayerID: userID})
	return Done()
}

// CheckReadyToStart reports whether kickoff is allowed and, when it is
// not, which precondition failed.
func (r *Room) CheckReadyToStart() (bool, Reason) {
	if len(r.roster) < 2 {
		return false, ReasonNotEnoughPlayers
	}
	for _, s := range r.roster {
		if !s.Ready {
			return false, ReasonPlayersNotReady
		}
	}
	return true, ""
}

// StartGame moves the room into in_progress and starts the match timer.
func (r *Room) StartGame() Result {
	if r.status != StatusWaiting && r.status != StatusReady {
		return Fail(ReasonNotReady)
	}
	if ok, _ := r.CheckReadyToStart(); !ok {
		return Fail(ReasonNotReady)
	}

	t, err := clock.New(time.Duration(r.cfg.TimeLimit)*time.Second, r.clk)
	if err != nil {
		// Config was validated at construction; a bad limit here is a bug.
		log.Error().Str("room_id", r.ID).Err(err).Msg("match timer creation failed")
		return Fail(ReasonInvalidState)
	}
	if err := t.Start(); err != nil {
		return Fail(ReasonInvalidState)
	}

	r.timer = t
	r.status = StatusInProgress
	r.startedAt = r.clk.Now()
	r.gameClock = 0

	r.appendEvent(events.TypeGameStarted, events.GameStartedPayload{
		GameMode:   string(r.cfg.GameMode),
		TimeLimit:  float64(r.cfg.TimeLimit),
		ScoreLimit: r.cfg.ScoreLimit,
	})

	log.Info().
		Str("room_id", r.ID).
		Str("game_mode", string(r.cfg.GameMode)).
		Int("time_limit", r.cfg.TimeLimit).
		Int("score_limit", r.cfg.ScoreLimit).
		Msg("game started")
	return Done()
}

// MarkReady flips a player's ready flag and promotes the room to ready
// once the roster is full and unanimous.
func (r *Room) MarkReady(userID string, ready bool) Result {
	if r.status != StatusWaiting && r.status != StatusReady {
		return Fail(ReasonInvalidState)
	}
	side := r.SideOf(userID)
	if side == "" {
		return Fail(ReasonPlayerNotFound)
	}
	r.roster[side].Ready = ready
	if ok, _ := r.CheckReadyToStart(); ok {
		r.status = StatusReady
	} else {
		r.status = StatusWaiting
	}
	return Done()
}

// UpdateGameTime advances the match-clock bookkeeping used for event
// timestamps and enforces the time limit. Returns true when the update
// ended the match.
func (r *Room) UpdateGameTime() bool {
	if r.status != StatusInProgress || r.timer == nil {
		return false
	}
	elapsed := r.timer.Elapsed()
	r.gameClock = elapsed.Seconds()

	if r.cfg.TimeLimit > 0 && elapsed >= time.Duration(r.cfg.TimeLimit)*time.Second {
		r.EndGame(WinTimeExpired, r.leaderID())
		return true
	}
	return false
}

// leaderID returns the user id of the side with the higher score, "" on a
// tie (draw).
func (r *Room) leaderID() string {
	var side game.Side
	switch {
	case r.score.Left > r.score.Right:
		side = game.SideLeft
	case r.score.Right > r.score.Left:
		side = game.SideRight
	default:
		return ""
	}
	if s := r.roster[side]; s != nil {
		return s.UserID
	}
	return ""
}

// AddGoal credits a confirmed goal, appends it to the goal log and ends
// the match when a score limit is reached.
func (r *Room) AddGoal(playerID string, shot ShotMeta) Result {
	if r.status != StatusInProgress {
		return Fail(ReasonNotInProgress)
	}
	side := r.SideOf(playerID)
	if side == "" {
		return Fail(ReasonPlayerNotFound)
	}

	if side == game.SideLeft {
		r.score.Left++
	} else {
		r.score.Right++
	}

	goal := Goal{
		Seq:      len(r.goals) + 1,
		PlayerID: playerID,
		Side:     side,
		Clock:    r.gameClock,
		Shot:     shot,
	}
	r.goals = append(r.goals, goal)

	if scorer := r.roster[side]; scorer != nil {
		scorer.Stats.GoalsScored++
	}
	if conceder := r.roster[side.Opponent()]; conceder != nil {
		conceder.Stats.GoalsConceded++
	}

	r.appendEvent(events.TypeGoalScored, events.GoalScoredPayload{
		Seq:        goal.Seq,
		PlayerID:   playerID,
		Side:       string(side),
		Clock:      goal.Clock,
		ScoreLeft:  r.score.Left,
		ScoreRight: r.score.Right,
		ShotType:   shot.Type,
		ShotSpeed:  shot.Speed,
	})

	log.Info().
		Str("room_id", r.ID).
		Str("player_id", playerID).
		Int("score_left", r.score.Left).
		Int("score_right", r.score.Right).
		Msg("goal scored")

	limit := r.cfg.ScoreLimit
	if limit > 0 && (r.score.Left >= limit || r.score.Right >= limit) {
		r.EndGame(WinScoreLimit, playerID)
	}
	return Done()
}

// PauseGame suspends the match timer. Valid only from in_progress.
func (r *Room) PauseGame() Result {
	if r.status != StatusInProgress {
		return Fail(ReasonInvalidState)
	}
	if err := r.timer.Pause(); err != nil {
		return Fail(ReasonInvalidState)
	}
	r.status = StatusPaused
	return Done()
}

// ResumeGame restarts the match timer. Valid only from paused.
func (r *Room) ResumeGame() Result {
	if r.status != StatusPaused {
		return Fail(ReasonInvalidState)
	}
	if err := r.timer.Resume(); err != nil {
		return Fail(ReasonInvalidState)
	}
	r.status = StatusInProgress
	return Done()
}

// EndGame terminates the match. Idempotent: ending an ended room is a
// no-op reported as already_ended. An empty winnerID records a draw.
func (r *Room) EndGame(reason WinReason, winnerID string) Result {
	if r.status == StatusEnded {
		return Fail(ReasonAlreadyEnded)
	}
	if r.timer != nil && !r.timer.Paused() {
		// Freeze elapsed accounting at the final whistle.
		_ = r.timer.Pause()
	}

	r.status = StatusEnded
	r.endedAt = r.clk.Now()
	r.winReason = reason
	r.winner = winnerID

	for _, s := range r.roster {
		s.Stats.GamesPlayed++
		switch {
		case winnerID == "":
		case s.UserID == winnerID:
			s.Stats.GamesWon++
		default:
			s.Stats.GamesLost++
		}
	}

	r.appendEvent(events.TypeGameEnded, events.GameEndedPayload{
		Winner:     winnerID,
		WinReason:  string(reason),
		ScoreLeft:  r.score.Left,
		ScoreRight: r.score.Right,
		Duration:   r.gameClock,
	})

	log.Info().
		Str("room_id", r.ID).
		Str("winner", winnerID).
		Str("win_reason", string(reason)).
		Msg("game ended")
	return Done()
}

// AppendEvent records an engine-driven event (pause timeouts, disconnect
// notices) in the ordered log.
func (r *Room) AppendEvent(typ events.Type, payload any) {
	r.appendEvent(typ, payload)
}

func (r *Room) appendEvent(typ events.Type, payload any) {
	r.nextSeq++
	r.events = append(r.events, Event{
		Seq:     r.nextSeq,
		Type:    typ,
		Clock:   r.gameClock,
		Payload: payload,
	})
}
