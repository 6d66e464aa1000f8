package engine

import (
	"time"

	"github.com/boton-fun/headsoccer/internal/room"
	"github.com/boton-fun/headsoccer/internal/session"
)

// IntentType enumerates everything a client (or the transport layer on its
// behalf) may ask of a room.
type IntentType string

const (
	IntentJoin       IntentType = "join"
	IntentLeave      IntentType = "leave"
	IntentReady      IntentType = "ready"
	IntentMove       IntentType = "move"
	IntentKick       IntentType = "kick"
	IntentBall       IntentType = "ball"
	IntentGoal       IntentType = "goal"
	IntentPause      IntentType = "pause"
	IntentResume     IntentType = "resume"
	IntentForfeit    IntentType = "forfeit"
	IntentDisconnect IntentType = "disconnect"
	IntentReconnect  IntentType = "reconnect"
)

// MovePayload is a client movement report: the input vector plus the
// position the client believes it is at.
type MovePayload struct {
	Axis float64 `json:"axis"`
	Jump bool    `json:"jump"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	VX   float64 `json:"vx"`
	VY   float64 `json:"vy"`
}

// KickPayload is a kick direction; zero vector means "kick forward".
type KickPayload struct {
	DirX float64 `json:"dir_x"`
	DirY float64 `json:"dir_y"`
}

// BallPayload is a client-reported ball state, honored only while that
// client holds ball authority.
type BallPayload struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// Intent is one inbound request, queued into the room's actor loop.
// Intents buffered while a tick executes are applied at the start of the
// next tick, in arrival order.
type Intent struct {
	Type            IntentType
	PlayerID        string
	Seq             uint64
	ClientTimestamp time.Time

	Move *MovePayload
	Kick *KickPayload
	Ball *BallPayload

	// Join and reconnect details.
	Session *session.Session
	ConnID  string
	Ready   bool

	// Reply, when non-nil, receives the structured result of the intent.
	// Senders must use a buffered channel; the engine never blocks on it.
	Reply chan room.Result
}

func (in Intent) reply(res room.Result) {
	if in.Reply == nil {
		return
	}
	select {
	case in.Reply <- res:
	default:
	}
}
