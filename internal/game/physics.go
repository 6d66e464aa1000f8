package game

import "math"

// Input is one player's movement intent for a tick. Axis is -1..1
// horizontal; Jump is edge-triggered and only honored while grounded.
type Input struct {
	Axis float64
	Jump bool
}

// Step advances the world by dt seconds: gravity, friction, boundary
// reflection, then player-ball collisions. It returns the side that touched
// the ball this step ("" when nobody did); the engine uses touches to move
// ball authority. The same integration runs on the client renderer, but only
// this instance is canonical.
func Step(s *State, inputs map[Side]Input, dt float64) Side {
	s.Tick++

	for side, body := range s.Bodies {
		stepBody(body, inputs[side], dt)
	}
	stepBall(&s.Ball, dt)

	touched := Side("")
	for side, body := range s.Bodies {
		if resolveTouch(body, &s.Ball) {
			touched = side
		}
	}
	return touched
}

func stepBody(p *PlayerBody, in Input, dt float64) {
	if in.Axis > 1 {
		in.Axis = 1
	} else if in.Axis < -1 {
		in.Axis = -1
	}

	switch {
	case in.Axis > 0:
		p.VX = in.Axis * PlayerMoveSpeed
		p.Facing = SideRight
	case in.Axis < 0:
		p.VX = in.Axis * PlayerMoveSpeed
		p.Facing = SideLeft
	case p.Grounded:
		p.VX -= p.VX * GroundFriction * dt
	default:
		p.VX -= p.VX * AirDrag * dt
	}

	if in.Jump && p.Grounded {
		p.VY = -PlayerJumpSpeed
		p.Grounded = false
	}

	if !p.Grounded {
		p.VY += Gravity * dt
	}

	p.X += p.VX * dt
	p.Y += p.VY * dt

	if p.X < PlayerRadius {
		p.X = PlayerRadius
	} else if p.X > FieldWidth-PlayerRadius {
		p.X = FieldWidth - PlayerRadius
	}
	if p.Y >= GroundY-PlayerRadius {
		p.Y = GroundY - PlayerRadius
		p.VY = 0
		p.Grounded = true
	} else {
		p.Grounded = false
	}
}

func stepBall(b *Ball, dt float64) {
	b.VY += Gravity * dt
	b.VX -= b.VX * AirDrag * dt

	speed := math.Hypot(b.VX, b.VY)
	if speed > BallMaxSpeed {
		scale := BallMaxSpeed / speed
		b.VX *= scale
		b.VY *= scale
	}

	b.X += b.VX * dt
	b.Y += b.VY * dt

	// Ground bounce, settling once the rebound is negligible.
	if b.Y > GroundY-BallRadius {
		b.Y = GroundY - BallRadius
		b.VY = -b.VY * BallFloorDamp
		if math.Abs(b.VY) < BallRestVY {
			b.VY = 0
		}
		b.VX -= b.VX * GroundFriction * dt
	}
	if b.Y < BallRadius {
		b.Y = BallRadius
		b.VY = -b.VY * BallRestitution
	}

	// Side walls reflect everywhere except across the goal mouth, where the
	// ball is allowed past the line so goal detection can see it.
	if InGoalMouth(b.Y) {
		return
	}
	if b.X < BallRadius {
		b.X = BallRadius
		b.VX = -b.VX * BallRestitution
	} else if b.X > FieldWidth-BallRadius {
		b.X = FieldWidth - BallRadius
		b.VX = -b.VX * BallRestitution
	}
}

// resolveTouch separates an overlapping player and ball and transfers
// impulse scaled by their relative velocity.
func resolveTouch(p *PlayerBody, b *Ball) bool {
	dx := b.X - p.X
	dy := b.Y - p.Y
	dist := math.Hypot(dx, dy)
	minDist := PlayerRadius + BallRadius
	if dist >= minDist {
		return false
	}
	if dist == 0 {
		dx, dy, dist = 0, -1, 1
	}
	nx := dx / dist
	ny := dy / dist

	// Push the ball out of the overlap.
	b.X = p.X + nx*minDist
	b.Y = p.Y + ny*minDist

	relVX := b.VX - p.VX
	relVY := b.VY - p.VY
	along := relVX*nx + relVY*ny
	if along >= 0 {
		return true
	}

	impulse := -along * (1 + HeadTransfer)
	if impulse < HeadMinBounce {
		impulse = HeadMinBounce
	}
	b.VX += nx * impulse
	b.VY += ny * impulse
	return true
}

// Kick applies a kick impulse from a player to the ball if the ball is in
// range. Direction defaults to the player's facing when dirX and dirY are
// both zero. Reports whether the kick connected.
func Kick(p *PlayerBody, b *Ball, dirX, dirY float64) bool {
	if math.Hypot(b.X-p.X, b.Y-p.Y) > KickRange {
		return false
	}
	if dirX == 0 && dirY == 0 {
		dirX = 1
		if p.Facing == SideLeft {
			dirX = -1
		}
	}
	mag := math.Hypot(dirX, dirY)
	b.VX = dirX / mag * KickSpeed
	b.VY = dirY/mag*KickSpeed - KickLift
	return true
}
