package room

// Reason is a machine-readable business-rule rejection. Reasons are
// surfaced to the offending client only and never abort the room.
type Reason string

const (
	ReasonRoomFull         Reason = "room_full"
	ReasonInvalidPlayer    Reason = "invalid_player"
	ReasonPlayerNotFound   Reason = "player_not_found"
	ReasonNotEnoughPlayers Reason = "not_enough_players"
	ReasonPlayersNotReady  Reason = "players_not_ready"
	ReasonNotReady         Reason = "not_ready"
	ReasonNotInProgress    Reason = "not_in_progress"
	ReasonInvalidState     Reason = "invalid_state"
	ReasonAlreadyEnded     Reason = "already_ended"
	ReasonGamePaused       Reason = "game_paused"
	ReasonAuthorityDenied  Reason = "authority_denied"
	ReasonRoomGone         Reason = "room_gone"
)

// Result is the structured outcome of every room operation. Expected
// business-rule violations come back as a failed Result; only contract
// violations surface as errors.
type Result struct {
	OK     bool   `json:"success"`
	Reason Reason `json:"reason,omitempty"`
}

// Done is the successful result.
func Done() Result {
	return Result{OK: true}
}

// Fail wraps a rejection reason.
func Fail(r Reason) Result {
	return Result{Reason: r}
}
