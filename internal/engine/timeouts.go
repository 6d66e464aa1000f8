package engine

import (
	"github.com/rs/zerolog/log"

	"github.com/boton-fun/headsoccer/internal/events"
	"github.com/boton-fun/headsoccer/internal/room"
)

// handlePause accepts a pause only from a current member while running,
// and records the requester: only they (or the timeout) may resume.
func (e *Engine) handlePause(in Intent) {
	if e.rm.SideOf(in.PlayerID) == "" {
		e.reject(in, room.ReasonPlayerNotFound)
		in.reply(room.Fail(room.ReasonPlayerNotFound))
		return
	}
	res := e.rm.PauseGame()
	in.reply(res)
	if !res.OK {
		e.reject(in, res.Reason)
		return
	}
	e.run = RunPaused
	e.pauseRequester = in.PlayerID
	e.pauseDeadline = e.clk.Now().Add(e.cfg.PauseTimeout)
	e.pauseAuto = false

	e.rm.AppendEvent(events.TypeGamePaused, events.GamePausedPayload{
		RequestedBy: in.PlayerID,
		TimeoutSec:  e.cfg.PauseTimeout.Seconds(),
	})
}

func (e *Engine) handleResume(in Intent) {
	if e.run != RunPaused {
		e.reject(in, room.ReasonInvalidState)
		in.reply(room.Fail(room.ReasonInvalidState))
		return
	}
	if e.pauseAuto || (e.pauseRequester != "" && in.PlayerID != e.pauseRequester) {
		// An engine-driven pause bridges a disconnect; only reconnection
		// or grace expiry may lift it. A player pause belongs to its
		// requester until the timeout.
		e.reject(in, room.ReasonInvalidState)
		in.reply(room.Fail(room.ReasonInvalidState))
		return
	}
	res := e.rm.ResumeGame()
	in.reply(res)
	if !res.OK {
		e.reject(in, res.Reason)
		return
	}
	e.resumeRun(in.PlayerID, false)
}

// checkPauseTimeout force-resumes a player pause whose deadline passed.
// Runs each tick while paused; never applies to disconnect bridges.
func (e *Engine) checkPauseTimeout() {
	if e.pauseAuto || e.clk.Now().Before(e.pauseDeadline) {
		return
	}
	if res := e.rm.ResumeGame(); !res.OK {
		return
	}
	log.Info().Str("room_id", e.rm.ID).Str("requester", e.pauseRequester).Msg("pause timeout expired, force resuming")
	e.rm.AppendEvent(events.TypePauseTimeoutExpired, events.GameResumedPayload{Forced: true})
	e.resumeRun("", true)
}

func (e *Engine) resumeRun(by string, forced bool) {
	e.run = RunRunning
	e.pauseRequester = ""
	e.pauseAuto = false
	e.rm.AppendEvent(events.TypeGameResumed, events.GameResumedPayload{ResumedBy: by, Forced: forced})
}

// handleDisconnect moves a player into the reconnect grace window and
// auto-pauses the match so the clock does not burn down while they are
// gone.
func (e *Engine) handleDisconnect(in Intent) {
	side := e.rm.SideOf(in.PlayerID)
	if side == "" {
		in.reply(room.Fail(room.ReasonPlayerNotFound))
		return
	}
	sess := e.rm.Player(side)
	sess.MarkDropped(e.clk.Now())
	e.startGrace(in.PlayerID)

	e.rm.AppendEvent(events.TypePlayerDisconnected, events.DisconnectPayload{
		PlayerID: in.PlayerID,
		GraceSec: e.cfg.DisconnectGrace.Seconds(),
	})
	in.reply(room.Done())
}

func (e *Engine) startGrace(playerID string) {
	e.graces[playerID] = e.clk.Now().Add(e.cfg.DisconnectGrace)
	if e.run == RunRunning {
		if res := e.rm.PauseGame(); res.OK {
			e.run = RunPaused
			e.pauseRequester = ""
			e.pauseAuto = true
		}
	}
	log.Info().
		Str("room_id", e.rm.ID).
		Str("player_id", playerID).
		Dur("grace", e.cfg.DisconnectGrace).
		Msg("disconnect grace started")
}

// handleReconnect restores a dropped player and lifts the disconnect
// bridge once nobody else is in grace.
func (e *Engine) handleReconnect(in Intent) {
	side := e.rm.SideOf(in.PlayerID)
	if side == "" {
		in.reply(room.Fail(room.ReasonPlayerNotFound))
		return
	}
	if _, ok := e.graces[in.PlayerID]; !ok {
		in.reply(room.Fail(room.ReasonInvalidState))
		return
	}
	delete(e.graces, in.PlayerID)
	e.rm.Player(side).MarkReconnected(in.ConnID)
	e.rm.AppendEvent(events.TypePlayerReconnected, events.DisconnectPayload{PlayerID: in.PlayerID})

	if e.run == RunPaused && e.pauseAuto && len(e.graces) == 0 {
		if res := e.rm.ResumeGame(); res.OK {
			e.resumeRun(in.PlayerID, false)
		}
	}
	in.reply(room.Done())
}

// checkGraces reviews reconnect deadlines each tick; an expired grace
// forfeits the match to the remaining player.
func (e *Engine) checkGraces() {
	if len(e.graces) == 0 {
		return
	}
	now := e.clk.Now()
	for playerID, deadline := range e.graces {
		if now.Before(deadline) {
			continue
		}
		delete(e.graces, playerID)

		winner := ""
		if side := e.rm.SideOf(playerID); side != "" {
			if opp := e.rm.Player(side.Opponent()); opp != nil {
				winner = opp.UserID
			}
		} else {
			// Player already left the roster; the remaining player wins.
			winner = e.remainingPlayer(playerID)
		}

		log.Info().
			Str("room_id", e.rm.ID).
			Str("player_id", playerID).
			Str("winner", winner).
			Msg("disconnect grace expired")

		if res := e.rm.EndGame(room.WinDisconnectTimeout, winner); res.OK {
			e.finish()
		}
		return
	}
}

func (e *Engine) remainingPlayer(gone string) string {
	for _, s := range e.rm.Sessions() {
		if s.UserID != gone {
			return s.UserID
		}
	}
	return ""
}
