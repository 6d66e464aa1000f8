package game

// Side identifies one half of the pitch and the player defending it.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// Ball is the authoritative ball body.
type Ball struct {
	X, Y   float64
	VX, VY float64
}

// PlayerBody is the authoritative physical state of one player. Facing
// tracks which way the character looks; it flips with horizontal input.
type PlayerBody struct {
	X, Y     float64
	VX, VY   float64
	Grounded bool
	Facing   Side
}

// State is the internal truth for one match. It is created at match start,
// reset to spawn positions after every goal, and mutated only by the
// engine's tick loop.
type State struct {
	Tick   uint64
	Ball   Ball
	Bodies map[Side]*PlayerBody
}

// NewState spawns both bodies on the ground at quarter-field marks and the
// ball at center, mid-air.
func NewState() *State {
	s := &State{Bodies: make(map[Side]*PlayerBody, 2)}
	s.Bodies[SideLeft] = &PlayerBody{}
	s.Bodies[SideRight] = &PlayerBody{}
	s.Reset()
	return s
}

// Reset returns all bodies and the ball to spawn positions with zero
// velocity. The tick counter is preserved so event ordering survives goals.
func (s *State) Reset() {
	left := s.Bodies[SideLeft]
	right := s.Bodies[SideRight]
	*left = PlayerBody{X: FieldWidth * 0.25, Y: GroundY - PlayerRadius, Grounded: true, Facing: SideRight}
	*right = PlayerBody{X: FieldWidth * 0.75, Y: GroundY - PlayerRadius, Grounded: true, Facing: SideLeft}
	s.Ball = Ball{X: FieldWidth / 2, Y: FieldHeight * 0.3}
}

// InGoalMouth reports whether a height is inside the goal opening.
func InGoalMouth(y float64) bool {
	return y > GroundY-GoalMouthHeight
}

// GoalSide returns the side whose goal the ball has fully crossed into, or
// "" if the ball is in open play. A ball in the left goal means the right
// player scored.
func GoalSide(b Ball) Side {
	if !InGoalMouth(b.Y) {
		return ""
	}
	if b.X < -GoalLineDepth {
		return SideLeft
	}
	if b.X > FieldWidth+GoalLineDepth {
		return SideRight
	}
	return ""
}
