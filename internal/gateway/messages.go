package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/boton-fun/headsoccer/internal/engine"
)

// clientMessage is the wire shape of everything a client sends over the
// socket. Timestamps are unix milliseconds from the client's clock.
type clientMessage struct {
	Type            string          `json:"type"`
	Seq             uint64          `json:"seq"`
	ClientTimestamp int64           `json:"client_timestamp"`
	Payload         json.RawMessage `json:"payload"`
}

// decodeIntent turns a raw client frame into an engine intent. Join,
// disconnect, and reconnect are transport-driven and never accepted off
// the wire.
func decodeIntent(playerID string, raw []byte) (engine.Intent, error) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return engine.Intent{}, fmt.Errorf("decode client message: %w", err)
	}

	in := engine.Intent{
		PlayerID: playerID,
		Seq:      msg.Seq,
	}
	if msg.ClientTimestamp > 0 {
		in.ClientTimestamp = time.UnixMilli(msg.ClientTimestamp)
	}

	switch msg.Type {
	case "move":
		var p engine.MovePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return engine.Intent{}, fmt.Errorf("decode move payload: %w", err)
		}
		in.Type = engine.IntentMove
		in.Move = &p
	case "kick":
		var p engine.KickPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				return engine.Intent{}, fmt.Errorf("decode kick payload: %w", err)
			}
		}
		in.Type = engine.IntentKick
		in.Kick = &p
	case "ball":
		var p engine.BallPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return engine.Intent{}, fmt.Errorf("decode ball payload: %w", err)
		}
		in.Type = engine.IntentBall
		in.Ball = &p
	case "goal":
		in.Type = engine.IntentGoal
	case "ready":
		// Ready defaults to true; a payload may retract it.
		p := struct {
			Ready *bool `json:"ready"`
		}{}
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				return engine.Intent{}, fmt.Errorf("decode ready payload: %w", err)
			}
		}
		in.Type = engine.IntentReady
		in.Ready = p.Ready == nil || *p.Ready
	case "pause":
		in.Type = engine.IntentPause
	case "resume":
		in.Type = engine.IntentResume
	case "forfeit":
		in.Type = engine.IntentForfeit
	case "leave":
		in.Type = engine.IntentLeave
	default:
		return engine.Intent{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
	return in, nil
}
