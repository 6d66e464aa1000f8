package engine

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/boton-fun/headsoccer/internal/game"
	"github.com/boton-fun/headsoccer/internal/room"
)

// detectGoal checks the authoritative ball against the goal geometry each
// tick and confirms at most one goal per cooldown window. Returns true
// when a goal was confirmed.
func (e *Engine) detectGoal() bool {
	goalSide := game.GoalSide(e.state.Ball)
	if goalSide == "" {
		return false
	}

	if !e.cooldownElapsed() {
		// Within the cooldown the attempt is void: no score change, ball
		// back to kickoff so the same crossing cannot retrigger.
		log.Debug().Str("room_id", e.rm.ID).Str("goal_side", string(goalSide)).Msg("goal attempt inside cooldown")
		e.resetAfterGoal()
		return false
	}

	scorerSide := goalSide.Opponent()
	scorer := e.rm.Player(scorerSide)
	if scorer == nil {
		e.resetAfterGoal()
		return false
	}

	shot := room.ShotMeta{
		Speed: math.Hypot(e.state.Ball.VX, e.state.Ball.VY),
		X:     e.state.Ball.X,
		Y:     e.state.Ball.Y,
	}
	if res := e.rm.AddGoal(scorer.UserID, shot); !res.OK {
		log.Warn().Str("room_id", e.rm.ID).Str("reason", string(res.Reason)).Msg("goal not credited")
		e.resetAfterGoal()
		return false
	}

	e.lastGoalAt = e.clk.Now()
	e.resetAfterGoal()
	return true
}

// handleGoalClaim validates a client-claimed goal against the
// authoritative ball position, the goal geometry and the cooldown. The
// claim never moves the ball; only what the simulation already shows can
// confirm it.
func (e *Engine) handleGoalClaim(in Intent) {
	if !e.gateIntent(in) {
		return
	}
	if e.rm.SideOf(in.PlayerID) == "" {
		e.reject(in, room.ReasonPlayerNotFound)
		in.reply(room.Fail(room.ReasonPlayerNotFound))
		return
	}

	goalSide := game.GoalSide(e.state.Ball)
	if goalSide == "" || goalSide == e.rm.SideOf(in.PlayerID) || !e.cooldownElapsed() {
		e.reject(in, room.ReasonInvalidState)
		in.reply(room.Fail(room.ReasonInvalidState))
		return
	}

	if e.detectGoal() {
		in.reply(room.Done())
		if e.rm.Status() == room.StatusEnded {
			e.finish()
		}
		return
	}
	in.reply(room.Fail(room.ReasonInvalidState))
}

func (e *Engine) cooldownElapsed() bool {
	if e.lastGoalAt.IsZero() {
		return true
	}
	return e.clk.Now().Sub(e.lastGoalAt) >= e.cfg.GoalCooldown
}

// resetAfterGoal returns entities to kickoff and clears ball authority.
func (e *Engine) resetAfterGoal() {
	e.state.Reset()
	e.authHolder = ""
	e.inputs = make(map[game.Side]game.Input, 2)
	e.broadcastState()
}
