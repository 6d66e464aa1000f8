package events

// PlayerJoinedPayload announces a roster change.
type PlayerJoinedPayload struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Side     string `json:"side"`
}

// PlayerLeftPayload announces a player leaving the roster.
type PlayerLeftPayload struct {
	PlayerID string `json:"player_id"`
}

// GameStartedPayload marks kickoff.
type GameStartedPayload struct {
	GameMode   string  `json:"game_mode"`
	TimeLimit  float64 `json:"time_limit_sec"`
	ScoreLimit int     `json:"score_limit"`
}

// GoalScoredPayload carries one confirmed goal.
type GoalScoredPayload struct {
	Seq        int     `json:"seq"`
	PlayerID   string  `json:"player_id"`
	Side       string  `json:"side"`
	Clock      float64 `json:"clock_sec"`
	ScoreLeft  int     `json:"score_left"`
	ScoreRight int     `json:"score_right"`
	ShotType   string  `json:"shot_type,omitempty"`
	ShotSpeed  float64 `json:"shot_speed,omitempty"`
}

// GamePausedPayload records who paused and when the pause times out.
type GamePausedPayload struct {
	RequestedBy string  `json:"requested_by"`
	TimeoutSec  float64 `json:"timeout_sec"`
}

// GameResumedPayload records who resumed, "" when forced by timeout.
type GameResumedPayload struct {
	ResumedBy string `json:"resumed_by"`
	Forced    bool   `json:"forced"`
}

// DisconnectPayload covers both disconnect and reconnect notices.
type DisconnectPayload struct {
	PlayerID string  `json:"player_id"`
	GraceSec float64 `json:"grace_sec,omitempty"`
}

// GameEndedPayload is the terminal event of a match.
type GameEndedPayload struct {
	Winner     string  `json:"winner,omitempty"` // empty = draw
	WinReason  string  `json:"win_reason"`
	ScoreLeft  int     `json:"score_left"`
	ScoreRight int     `json:"score_right"`
	Duration   float64 `json:"duration_sec"`
}

// BallState mirrors the authoritative ball for broadcast.
type BallState struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// BodyState mirrors one player body for broadcast.
type BodyState struct {
	PlayerID string  `json:"player_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Grounded bool    `json:"grounded"`
	Facing   string  `json:"facing"`
}

// StateUpdatePayload is the periodic authoritative snapshot.
type StateUpdatePayload struct {
	Tick       uint64      `json:"tick"`
	Clock      float64     `json:"clock_sec"`
	Status     string      `json:"status"`
	ScoreLeft  int         `json:"score_left"`
	ScoreRight int         `json:"score_right"`
	Ball       BallState   `json:"ball"`
	Bodies     []BodyState `json:"bodies"`
}

// CorrectionPayload tells one client its reported position diverged from
// the authoritative simulation.
type CorrectionPayload struct {
	Seq  uint64    `json:"seq"`
	Body BodyState `json:"body"`
}

// RejectionPayload tells one client an intent was refused.
type RejectionPayload struct {
	Intent string `json:"intent"`
	Seq    uint64 `json:"seq,omitempty"`
	Reason string `json:"reason"`
}
