// Package tournament implements single-elimination bracket
// orchestration: it owns the tournament collection, spins up one match
// engine per pairing, advances rounds as completion handles resolve,
// and notifies subscribers through the connection registry.
package tournament

import (
	"pong-arena/internal/match"
)

// State is the tournament lifecycle: Open -> Started -> Completed.
// Open tournaments accept subscriptions; Started ones are playing the
// bracket; Completed ones linger until no connection watches them.
type State int

const (
	StateOpen State = iota
	StateStarted
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateStarted:
		return "started"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Tournament is one bracket and its bookkeeping. All fields are
// guarded by the orchestrator's mutex.
type Tournament struct {
	ID      int
	Name    string
	Creator match.Player
	Players []match.Player // in subscription order; round 1 pairs sequentially
	State   State
	Winner  *match.Player

	round   int             // current round number, 1-based
	engines []*match.Engine // engines still running in the current round
	pending []match.Player  // winners (and byes) queued for the next round
}

// Summary is the wire shape of a tournament in the listing broadcast.
type Summary struct {
	ID      int            `json:"id"`
	Name    string         `json:"name"`
	Creator match.Player   `json:"creator"`
	Players []match.Player `json:"players"`
	Started bool           `json:"started"`
}

// summary converts to the listing shape. Caller holds the orchestrator
// mutex.
func (t *Tournament) summary() Summary {
	players := make([]match.Player, len(t.Players))
	copy(players, t.Players)
	return Summary{
		ID:      t.ID,
		Name:    t.Name,
		Creator: t.Creator,
		Players: players,
		Started: t.State != StateOpen,
	}
}

// hasPlayer reports whether the user already joined.
func (t *Tournament) hasPlayer(userID int64) bool {
	for _, p := range t.Players {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// pairings splits the given field sequentially into matches for the
// given round. With an odd count the trailing player receives a bye
// and is returned separately; deterministic, every player appears
// exactly once.
func pairings(field []match.Player, round int) (matches []match.Data, bye *match.Player) {
	for i := 0; i+1 < len(field); i += 2 {
		p1 := field[i]
		p2 := field[i+1]
		p1.Score = 0
		p2.Score = 0
		matches = append(matches, match.Data{Player1: p1, Player2: p2, Round: round})
	}
	if len(field)%2 == 1 {
		last := field[len(field)-1]
		last.Score = 0
		bye = &last
	}
	return matches, bye
}
