package room

import "time"

// Summary is the match-end payload handed across the persistence boundary.
// The core hands it off and keeps nothing durable itself.
type Summary struct {
	RoomID         string    `json:"room_id"`
	GameMode       GameMode  `json:"game_mode"`
	Winner         string    `json:"winner,omitempty"`
	WinReason      WinReason `json:"win_reason"`
	Score          Score     `json:"score"`
	Duration       float64   `json:"duration_sec"`
	Goals          []Goal    `json:"goals"`
	Disconnections int       `json:"disconnections"`
	EndedAt        time.Time `json:"ended_at"`
}

// Summary builds the match-end summary. Meaningful only once the room has
// ended.
func (r *Room) Summary() Summary {
	disconnects := 0
	for _, s := range r.roster {
		disconnects += s.Stats.Disconnections
	}
	return Summary{
		RoomID:         r.ID,
		GameMode:       r.cfg.GameMode,
		Winner:         r.winner,
		WinReason:      r.winReason,
		Score:          r.score,
		Duration:       r.gameClock,
		Goals:          r.goals,
		Disconnections: disconnects,
		EndedAt:        r.endedAt,
	}
}
