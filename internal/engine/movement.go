package engine

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/boton-fun/headsoccer/internal/events"
	"github.com/boton-fun/headsoccer/internal/game"
	"github.com/boton-fun/headsoccer/internal/room"
)

// handleMove applies a movement intent with lag compensation. The
// authoritative position is extrapolated forward by the estimated one-way
// latency before the client's report is judged; a report that diverges
// beyond the tolerance keeps the authoritative state and triggers a
// correction, otherwise the client's report is adopted.
func (e *Engine) handleMove(in Intent) {
	if !e.gateIntent(in) {
		return
	}
	side := e.rm.SideOf(in.PlayerID)
	if side == "" || in.Move == nil {
		e.reject(in, room.ReasonPlayerNotFound)
		in.reply(room.Fail(room.ReasonPlayerNotFound))
		return
	}
	if !e.acceptSeq(in.PlayerID, in.Seq) {
		// Out-of-order and duplicate ids are dropped silently: logged,
		// never surfaced to the client.
		in.reply(room.Done())
		return
	}

	lat := e.estimateLatency(in.PlayerID, in.ClientTimestamp)
	body := e.state.Bodies[side]

	predX := body.X + body.VX*lat.Seconds()
	predY := body.Y + body.VY*lat.Seconds()

	// Velocity always comes from the input; only position is negotiable.
	e.inputs[side] = game.Input{Axis: in.Move.Axis, Jump: in.Move.Jump}

	div := math.Hypot(predX-in.Move.X, predY-in.Move.Y)
	if div > e.cfg.CorrectionTolerance {
		body.X = predX
		body.Y = predY
		e.sendCorrection(in, side, body)
		log.Debug().
			Str("room_id", e.rm.ID).
			Str("player_id", in.PlayerID).
			Float64("divergence", div).
			Msg("movement corrected")
	} else {
		body.X = in.Move.X
		body.Y = in.Move.Y
	}
	in.reply(room.Done())
}

// acceptSeq enforces per-player monotonically increasing sequence ids.
func (e *Engine) acceptSeq(playerID string, seq uint64) bool {
	if last, ok := e.lastSeq[playerID]; ok && seq <= last {
		log.Debug().
			Str("room_id", e.rm.ID).
			Str("player_id", playerID).
			Uint64("seq", seq).
			Uint64("last_seq", last).
			Msg("dropping stale movement seq")
		return false
	}
	e.lastSeq[playerID] = seq
	return true
}

// estimateLatency derives the one-way latency from the claimed client
// timestamp, clamped to [0, MaxLatency]. Garbage timestamps degrade to
// zero compensation rather than a rejection.
func (e *Engine) estimateLatency(playerID string, clientTS time.Time) time.Duration {
	if clientTS.IsZero() {
		return 0
	}
	lat := e.clk.Now().Sub(clientTS)
	if lat < 0 {
		lat = 0
	}
	if lat > e.cfg.MaxLatency {
		lat = e.cfg.MaxLatency
	}
	e.latency[playerID] = lat
	return lat
}

func (e *Engine) sendCorrection(in Intent, side game.Side, body *game.PlayerBody) {
	if e.notifier == nil {
		return
	}
	env, err := events.NewEnvelope(e.rm.ID, events.TypeCorrection, events.CorrectionPayload{
		Seq: in.Seq,
		Body: events.BodyState{
			PlayerID: in.PlayerID,
			X:        body.X, Y: body.Y,
			VX: body.VX, VY: body.VY,
			Grounded: body.Grounded,
			Facing:   string(body.Facing),
		},
	}, e.clk.Now())
	if err != nil {
		return
	}
	e.notifier.Send(e.rm.ID, in.PlayerID, env)
}
