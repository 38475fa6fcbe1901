package wire

// Game is the HTTP GET /api/game/{id} response body.
type Game struct {
	// ID is the server-assigned game id.
	ID int `json:"id"`
	// Status is one of "preparing", "running" or "finished".
	Status string `json:"status"`
	// StartTime is the trial start time (RFC 3339).
	StartTime string `json:"start_time"`
	// EndTime is the trial end time, set once the game finishes.
	EndTime *string `json:"end_time,omitempty"`
	// TotalRounds is the configured number of debate rounds.
	TotalRounds int `json:"total_rounds"`
	// WinnerCount is the configured number of winners.
	WinnerCount int `json:"winner_count"`
	// CreatedAt is the creation time (RFC 3339).
	CreatedAt string `json:"created_at,omitempty"`
}

// Game status values.
const (
	GameStatusPreparing = "preparing"
	GameStatusRunning   = "running"
	GameStatusFinished  = "finished"
)

// Participant is one roster entry in a GameStatus response.
type Participant struct {
	// ID is the participant id.
	ID int `json:"id"`
	// HumanName is the participant's display name.
	HumanName string `json:"human_name"`
	// ModelName is the backing model identifier.
	ModelName string `json:"model_name,omitempty"`
	// Status is "active" or "eliminated".
	Status string `json:"status"`
	// Background is the participant's persona background.
	Background string `json:"background,omitempty"`
	// Personality is the participant's persona description.
	Personality string `json:"personality,omitempty"`
}

// GameStatus is the HTTP GET /api/game/{id}/status response body.
type GameStatus struct {
	// GameID is the game id the status describes.
	GameID int `json:"game_id"`
	// Status mirrors Game.Status.
	Status string `json:"status"`
	// CurrentRound is the round currently being debated.
	CurrentRound int `json:"current_round"`
	// Participants is the full roster.
	Participants []Participant `json:"participants"`
	// ActiveParticipants counts non-eliminated participants.
	ActiveParticipants int `json:"active_participants"`
	// EliminatedParticipants counts eliminated participants.
	EliminatedParticipants int `json:"eliminated_participants"`
}

// APIError is the error body returned by the game server on failures.
type APIError struct {
	// Detail is the human-readable failure description.
	Detail string `json:"detail"`
}
