package engine

import (
	"github.com/rs/zerolog/log"

	"github.com/boton-fun/headsoccer/internal/game"
	"github.com/boton-fun/headsoccer/internal/room"
)

// grantAuthority hands ball authority to the player who last touched it,
// for a bounded window. Outside any window the engine simulation is
// authoritative.
func (e *Engine) grantAuthority(side game.Side) {
	sess := e.rm.Player(side)
	if sess == nil {
		return
	}
	e.authHolder = sess.UserID
	e.authUntil = e.clk.Now().Add(e.cfg.AuthorityWindow)
}

// hasAuthority reports whether a player currently holds ball authority.
func (e *Engine) hasAuthority(playerID string) bool {
	if e.authHolder == "" || e.authHolder != playerID {
		return false
	}
	if e.clk.Now().After(e.authUntil) {
		e.authHolder = ""
		return false
	}
	return true
}

// handleBall accepts a client ball report only from the current authority
// holder; everyone else is denied and sent the simulated state instead.
func (e *Engine) handleBall(in Intent) {
	if !e.gateIntent(in) {
		return
	}
	if in.Ball == nil || e.rm.SideOf(in.PlayerID) == "" {
		e.reject(in, room.ReasonPlayerNotFound)
		in.reply(room.Fail(room.ReasonPlayerNotFound))
		return
	}
	if !e.hasAuthority(in.PlayerID) {
		log.Debug().
			Str("room_id", e.rm.ID).
			Str("player_id", in.PlayerID).
			Str("holder", e.authHolder).
			Msg("ball update denied")
		e.reject(in, room.ReasonAuthorityDenied)
		in.reply(room.Fail(room.ReasonAuthorityDenied))
		e.broadcastState()
		return
	}

	e.state.Ball = game.Ball{X: in.Ball.X, Y: in.Ball.Y, VX: in.Ball.VX, VY: in.Ball.VY}
	in.reply(room.Done())
}

// handleKick applies a kick impulse; a connected kick counts as a touch
// and moves authority to the kicker.
func (e *Engine) handleKick(in Intent) {
	if !e.gateIntent(in) {
		return
	}
	side := e.rm.SideOf(in.PlayerID)
	if side == "" {
		e.reject(in, room.ReasonPlayerNotFound)
		in.reply(room.Fail(room.ReasonPlayerNotFound))
		return
	}
	var dirX, dirY float64
	if in.Kick != nil {
		dirX, dirY = in.Kick.DirX, in.Kick.DirY
	}
	if game.Kick(e.state.Bodies[side], &e.state.Ball, dirX, dirY) {
		e.grantAuthority(side)
	}
	in.reply(room.Done())
}
