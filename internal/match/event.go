package match

import "time"

// EventType tags an audit-log entry.
type EventType string

const (
	EventMatchStart      EventType = "match_start"
	EventMatchEnd        EventType = "match_end"
	EventPoint           EventType = "point"
	EventTournamentStart EventType = "tournament_start"
	EventTournamentEnd   EventType = "tournament_end"
)

// Event is one audit-log entry, written as a line of JSON.
type Event struct {
	Sequence  uint64    `json:"seq"`
	Type      EventType `json:"type"`
	Tick      uint64    `json:"tick"`
	Timestamp time.Time `json:"ts"`
	Payload   any       `json:"payload,omitempty"`
}

// MatchStartPayload records who is playing.
type MatchStartPayload struct {
	Player1 int64 `json:"player1"`
	Player2 int64 `json:"player2"`
	Round   int   `json:"round"`
}

// PointPayload records the score after a goal.
type PointPayload struct {
	ScoreLeft  int `json:"scoreLeft"`
	ScoreRight int `json:"scoreRight"`
}

// MatchEndPayload records the final score and winner.
type MatchEndPayload struct {
	ScoreLeft  int   `json:"scoreLeft"`
	ScoreRight int   `json:"scoreRight"`
	Winner     int64 `json:"winner"`
}

// TournamentPayload records a tournament lifecycle transition.
type TournamentPayload struct {
	TournamentID int   `json:"tournamentId"`
	Players      int   `json:"players,omitempty"`
	Winner       int64 `json:"winner,omitempty"`
}
