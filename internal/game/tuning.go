package game

// Arcade tuning for the 2D head-soccer field. Coordinates are y-down:
// (0,0) is the top-left corner and GroundY is the pitch surface.
const (
	FieldWidth  = 800.0
	FieldHeight = 400.0
	GroundY     = FieldHeight

	PlayerRadius = 25.0
	BallRadius   = 12.0

	Gravity = 1800.0 // px/s^2

	// Goal geometry. The mouth spans from the ground up to GoalMouthHeight;
	// a ball whose center crosses GoalLineDepth past either edge while inside
	// the mouth is a candidate goal.
	GoalMouthHeight = 110.0
	GoalLineDepth   = 8.0

	PlayerMoveSpeed = 260.0  // px/s horizontal
	PlayerJumpSpeed = 620.0  // px/s initial jump velocity
	GroundFriction  = 6.0    // 1/s, applied to grounded bodies with no input
	AirDrag         = 0.4    // 1/s, applied to airborne bodies and the ball
	BallRestitution = 0.78   // bounce energy kept off walls and ceiling
	BallFloorDamp   = 0.72   // bounce energy kept off the ground
	BallRestVY      = 40.0   // below this the ball settles on the ground
	BallMaxSpeed    = 1500.0

	KickRange     = 55.0  // max player-to-ball distance for a kick to connect
	KickSpeed     = 780.0 // px/s imparted along the kick direction
	KickLift      = 220.0 // extra upward velocity on a kick
	HeadTransfer  = 0.85  // fraction of relative velocity transferred on touch
	HeadMinBounce = 180.0 // floor on separation speed after a touch
)
