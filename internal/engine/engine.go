// Package engine is the real-time synchronization core. One Engine runs
// per room as a single-writer actor: a fixed-rate tick loop plus an
// ordered intent inbox. All room, entity and transient state (authority,
// latency, deadlines) is mutated only from the actor goroutine, so the
// package carries no locks around match state.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/boton-fun/headsoccer/internal/events"
	"github.com/boton-fun/headsoccer/internal/game"
	"github.com/boton-fun/headsoccer/internal/room"
)

// ErrRoomGone is returned by Submit once the engine has stopped;
// in-flight intents for a torn-down room are dropped with this signal.
var ErrRoomGone = errors.New("engine: room no longer exists")

// RunState is the engine's per-room loop state. Stopped is terminal.
type RunState string

const (
	RunIdle    RunState = "idle"
	RunRunning RunState = "running"
	RunPaused  RunState = "paused"
	RunStopped RunState = "stopped"
)

// Notifier delivers outbound notifications. Implementations must not
// block; corrections and rejections are asynchronous, never round trips.
type Notifier interface {
	Broadcast(roomID string, env *events.Envelope)
	Send(roomID, playerID string, env *events.Envelope)
}

// Publisher hands match data across the persistence boundary.
type Publisher interface {
	PublishEvent(ctx context.Context, env *events.Envelope) error
	PublishSummary(ctx context.Context, sum room.Summary) error
}

// Config tunes the engine. Every timing knob is a deadline checked each
// tick against the injected clock.
type Config struct {
	TickRate            int           `yaml:"tick_rate"`
	BroadcastEvery      int           `yaml:"broadcast_every"` // state updates once per N ticks
	MaxLatency          time.Duration `yaml:"max_latency"`
	CorrectionTolerance float64       `yaml:"correction_tolerance"` // px
	AuthorityWindow     time.Duration `yaml:"authority_window"`
	GoalCooldown        time.Duration `yaml:"goal_cooldown"`
	PauseTimeout        time.Duration `yaml:"pause_timeout"`
	DisconnectGrace     time.Duration `yaml:"disconnect_grace"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		TickRate:            60,
		BroadcastEvery:      3,
		MaxLatency:          150 * time.Millisecond,
		CorrectionTolerance: 24.0,
		AuthorityWindow:     500 * time.Millisecond,
		GoalCooldown:        3 * time.Second,
		PauseTimeout:        30 * time.Second,
		DisconnectGrace:     30 * time.Second,
	}
}

// Engine drives one room.
type Engine struct {
	cfg       Config
	rm        *room.Room
	state     *game.State
	clk       clockwork.Clock
	notifier  Notifier
	publisher Publisher

	inbox    chan Intent
	pending  []Intent
	quit     chan struct{}
	stopOnce sync.Once

	run    RunState
	inputs map[game.Side]game.Input

	// Transient per-player tables, not part of persisted room state.
	lastSeq map[string]uint64
	latency map[string]time.Duration

	// Ball authority: "" means the engine simulation is authoritative.
	authHolder string
	authUntil  time.Time

	lastGoalAt time.Time

	pauseRequester string
	pauseDeadline  time.Time
	pauseAuto      bool // paused by the engine to bridge a disconnect

	graces map[string]time.Time // user id -> reconnect deadline

	flushedSeq int // last room event seq already broadcast
}

// New wires an engine for a room. The notifier and publisher are injected
// dependencies; nothing in the engine reaches for process-wide state.
func New(rm *room.Room, cfg Config, clk clockwork.Clock, n Notifier, p Publisher) *Engine {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultConfig().TickRate
	}
	if cfg.BroadcastEvery <= 0 {
		cfg.BroadcastEvery = 1
	}
	return &Engine{
		cfg:       cfg,
		rm:        rm,
		clk:       clk,
		notifier:  n,
		publisher: p,
		inbox:     make(chan Intent, 256),
		quit:      make(chan struct{}),
		run:       RunIdle,
		inputs:    make(map[game.Side]game.Input, 2),
		lastSeq:   make(map[string]uint64, 2),
		latency:   make(map[string]time.Duration, 2),
		graces:    make(map[string]time.Time, 2),
	}
}

// Room exposes the room for snapshot reads from the actor goroutine.
func (e *Engine) Room() *room.Room { return e.rm }

// Submit queues an intent for the actor loop. Fails with ErrRoomGone once
// the engine has stopped. A send that races Stop may land after the final
// drain, so the stop state is re-checked after a successful send and the
// intent is failed here rather than left stranded in the inbox.
func (e *Engine) Submit(in Intent) error {
	select {
	case <-e.quit:
		return ErrRoomGone
	default:
	}
	select {
	case <-e.quit:
		return ErrRoomGone
	case e.inbox <- in:
		select {
		case <-e.quit:
			in.reply(room.Fail(room.ReasonRoomGone))
			return ErrRoomGone
		default:
		}
		return nil
	}
}

// Stopped reports whether the engine has terminated.
func (e *Engine) Stopped() bool {
	select {
	case <-e.quit:
		return true
	default:
		return false
	}
}

// Stop tears the engine down. Idempotent.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.quit) })
}

// Run is the actor loop: buffer intents as they arrive, then on every
// ticker fire apply them in order before integrating the tick.
func (e *Engine) Run(ctx context.Context) {
	interval := time.Second / time.Duration(e.cfg.TickRate)
	ticker := e.clk.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Str("room_id", e.rm.ID).Int("tick_rate", e.cfg.TickRate).Msg("engine loop started")

	for {
		select {
		case <-ctx.Done():
			e.Stop()
			return
		case <-e.quit:
			e.drainInFlight()
			log.Info().Str("room_id", e.rm.ID).Msg("engine loop stopped")
			return
		case in := <-e.inbox:
			e.pending = append(e.pending, in)
		case <-ticker.Chan():
			e.tickOnce()
		}
	}
}

// drainInFlight rejects whatever was queued when the room went away.
func (e *Engine) drainInFlight() {
	for {
		select {
		case in := <-e.inbox:
			in.reply(room.Fail(room.ReasonRoomGone))
		default:
			for _, in := range e.pending {
				in.reply(room.Fail(room.ReasonRoomGone))
			}
			e.pending = nil
			return
		}
	}
}

// tickOnce applies buffered intents, then advances the simulation and all
// deadline checks by one tick.
func (e *Engine) tickOnce() {
	// Pull anything still sitting in the inbox so this tick sees every
	// intent that arrived before it (apply-before-tick ordering).
drain:
	for {
		select {
		case in := <-e.inbox:
			e.pending = append(e.pending, in)
		default:
			break drain
		}
	}
	for _, in := range e.pending {
		e.applyIntent(in)
		if e.run == RunStopped {
			break
		}
	}
	e.pending = e.pending[:0]

	if e.run == RunStopped {
		return
	}

	e.checkGraces()

	switch e.run {
	case RunRunning:
		e.stepTick()
	case RunPaused:
		e.checkPauseTimeout()
	}

	e.flushRoomEvents()
}

// stepTick is one physics step plus goal detection and time-limit
// bookkeeping.
func (e *Engine) stepTick() {
	if e.rm.UpdateGameTime() {
		e.finish()
		return
	}

	dt := 1.0 / float64(e.cfg.TickRate)
	touched := game.Step(e.state, e.inputs, dt)
	if touched != "" {
		e.grantAuthority(touched)
	}

	// Jumps are edge-triggered; do not repeat them on following ticks.
	for side, in := range e.inputs {
		in.Jump = false
		e.inputs[side] = in
	}

	if e.detectGoal() {
		if e.rm.Status() == room.StatusEnded {
			e.finish()
			return
		}
	}

	if e.state.Tick%uint64(e.cfg.BroadcastEvery) == 0 {
		e.broadcastState()
	}
}

// applyIntent routes one intent. Business rejections are replied and
// notified; they never abort the loop.
func (e *Engine) applyIntent(in Intent) {
	switch in.Type {
	case IntentJoin:
		e.handleJoin(in)
	case IntentLeave:
		e.handleLeave(in)
	case IntentReady:
		e.handleReady(in)
	case IntentMove:
		e.handleMove(in)
	case IntentKick:
		e.handleKick(in)
	case IntentBall:
		e.handleBall(in)
	case IntentGoal:
		e.handleGoalClaim(in)
	case IntentPause:
		e.handlePause(in)
	case IntentResume:
		e.handleResume(in)
	case IntentForfeit:
		e.handleForfeit(in)
	case IntentDisconnect:
		e.handleDisconnect(in)
	case IntentReconnect:
		e.handleReconnect(in)
	default:
		log.Debug().Str("room_id", e.rm.ID).Str("type", string(in.Type)).Msg("dropping unknown intent")
		e.reject(in, room.ReasonInvalidState)
	}
	e.flushRoomEvents()
}

func (e *Engine) handleJoin(in Intent) {
	_, res := e.rm.AddPlayer(in.Session)
	in.reply(res)
	if !res.OK {
		e.reject(in, res.Reason)
	}
}

func (e *Engine) handleLeave(in Intent) {
	res := e.rm.RemovePlayer(in.PlayerID)
	in.reply(res)
	if !res.OK {
		return
	}
	delete(e.graces, in.PlayerID)

	switch e.rm.Status() {
	case room.StatusInProgress, room.StatusPaused:
		// Mid-match departure runs through the same grace window as a
		// disconnect before the forfeit is forced.
		e.startGrace(in.PlayerID)
	case room.StatusEnded:
		if e.rm.PlayerCount() == 0 {
			e.run = RunStopped
			e.Stop()
		}
	}
}

func (e *Engine) handleReady(in Intent) {
	res := e.rm.MarkReady(in.PlayerID, in.Ready)
	in.reply(res)
	if !res.OK {
		e.reject(in, res.Reason)
		return
	}
	if ok, _ := e.rm.CheckReadyToStart(); ok {
		e.startMatch()
	}
}

// startMatch performs kickoff: entities are created at match start.
func (e *Engine) startMatch() {
	if res := e.rm.StartGame(); !res.OK {
		log.Warn().Str("room_id", e.rm.ID).Str("reason", string(res.Reason)).Msg("kickoff refused")
		return
	}
	e.state = game.NewState()
	e.inputs = make(map[game.Side]game.Input, 2)
	e.authHolder = ""
	e.lastGoalAt = time.Time{}
	e.run = RunRunning
	e.broadcastState()
}

func (e *Engine) handleForfeit(in Intent) {
	side := e.rm.SideOf(in.PlayerID)
	if side == "" {
		e.reject(in, room.ReasonPlayerNotFound)
		in.reply(room.Fail(room.ReasonPlayerNotFound))
		return
	}
	winner := ""
	if opp := e.rm.Player(side.Opponent()); opp != nil {
		winner = opp.UserID
	}
	res := e.rm.EndGame(room.WinForfeit, winner)
	in.reply(res)
	if res.OK {
		e.finish()
	}
}

// gateIntent enforces pause gating and match-phase gating for gameplay
// intents. Returns false after sending the rejection.
func (e *Engine) gateIntent(in Intent) bool {
	switch e.run {
	case RunPaused:
		e.reject(in, room.ReasonGamePaused)
		in.reply(room.Fail(room.ReasonGamePaused))
		return false
	case RunRunning:
		return true
	default:
		e.reject(in, room.ReasonNotInProgress)
		in.reply(room.Fail(room.ReasonNotInProgress))
		return false
	}
}

// finish runs once the room has ended: final events go out, the summary
// crosses the persistence boundary, and the loop stops accepting gameplay.
func (e *Engine) finish() {
	e.flushRoomEvents()
	if e.publisher != nil {
		sum := e.rm.Summary()
		if err := e.publisher.PublishSummary(context.Background(), sum); err != nil {
			log.Error().Str("room_id", e.rm.ID).Err(err).Msg("summary publish failed")
		}
	}
	e.run = RunStopped
	e.Stop()
}

// reject sends an asynchronous rejection notice to the offending client.
func (e *Engine) reject(in Intent, reason room.Reason) {
	if e.notifier == nil || in.PlayerID == "" {
		return
	}
	env, err := events.NewEnvelope(e.rm.ID, events.TypeRejection, events.RejectionPayload{
		Intent: string(in.Type),
		Seq:    in.Seq,
		Reason: string(reason),
	}, e.clk.Now())
	if err != nil {
		return
	}
	e.notifier.Send(e.rm.ID, in.PlayerID, env)
}

// flushRoomEvents broadcasts and publishes room-log events appended since
// the last flush, preserving the log's strict ordering for every observer.
func (e *Engine) flushRoomEvents() {
	evs := e.rm.Events()
	for _, ev := range evs {
		if ev.Seq <= e.flushedSeq {
			continue
		}
		e.flushedSeq = ev.Seq
		env, err := events.NewEnvelope(e.rm.ID, ev.Type, ev.Payload, e.clk.Now())
		if err != nil {
			log.Error().Str("room_id", e.rm.ID).Err(err).Msg("event envelope failed")
			continue
		}
		if e.notifier != nil {
			e.notifier.Broadcast(e.rm.ID, env)
		}
		if e.publisher != nil {
			if err := e.publisher.PublishEvent(context.Background(), env); err != nil {
				log.Warn().Str("room_id", e.rm.ID).Err(err).Msg("event publish failed")
			}
		}
	}
}

// broadcastState sends the authoritative snapshot to everyone in the room.
func (e *Engine) broadcastState() {
	if e.notifier == nil || e.state == nil {
		return
	}
	payload := events.StateUpdatePayload{
		Tick:       e.state.Tick,
		Clock:      e.rm.GameClock(),
		Status:     string(e.rm.Status()),
		ScoreLeft:  e.rm.Score().Left,
		ScoreRight: e.rm.Score().Right,
		Ball: events.BallState{
			X: e.state.Ball.X, Y: e.state.Ball.Y,
			VX: e.state.Ball.VX, VY: e.state.Ball.VY,
		},
	}
	for _, side := range []game.Side{game.SideLeft, game.SideRight} {
		body := e.state.Bodies[side]
		sess := e.rm.Player(side)
		if body == nil || sess == nil {
			continue
		}
		payload.Bodies = append(payload.Bodies, events.BodyState{
			PlayerID: sess.UserID,
			X:        body.X, Y: body.Y,
			VX: body.VX, VY: body.VY,
			Grounded: body.Grounded,
			Facing:   string(body.Facing),
		})
	}
	env, err := events.NewEnvelope(e.rm.ID, events.TypeStateUpdate, payload, e.clk.Now())
	if err != nil {
		return
	}
	e.notifier.Broadcast(e.rm.ID, env)
}
