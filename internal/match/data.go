// Package match implements the authoritative engine for one pairing of
// two players: a fixed-tick loop driving the physics kernel, the match
// lifecycle state machine, input routing, and the per-tick broadcast.
package match

// Player is one participant's identity and running score.
type Player struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Data is the bookkeeping record for one pairing. It is owned and
// mutated by exactly one Engine while the match runs; after End it is
// read-only and handed to the orchestrator by value.
type Data struct {
	Player1 Player  `json:"player1"`
	Player2 Player  `json:"player2"`
	Winner  *Player `json:"winner"`
	Round   int     `json:"round"`
}

// Leader returns the player currently ahead, player1 winning ties.
func (d Data) Leader() Player {
	if d.Player2.Score > d.Player1.Score {
		return d.Player2
	}
	return d.Player1
}
