// Package protocol defines the JSON messages exchanged with clients
// over the persistent game WebSocket. Every server-to-client message is
// an envelope with a "type" discriminator; constructors below are the
// only place the type strings appear.
package protocol

import (
	"encoding/json"
	"fmt"

	"pong-arena/internal/physics"
)

// WebSocket close codes for a failed handshake. Anything else is an
// ordinary disconnect.
const (
	CloseNoToken      = 4000
	CloseInvalidToken = 4001
)

// ClientMessage is the union of everything a client can send. Which
// fields are meaningful depends on Type.
type ClientMessage struct {
	Type string `json:"type"`

	// create_tournament
	Name string `json:"name,omitempty"`

	// subscribe / start_tournament
	Tournament int `json:"tournament,omitempty"`

	// game input
	Cmd    int `json:"cmd,omitempty"`
	Paddle int `json:"paddle,omitempty"`

	// chat
	DestID  int64  `json:"destId,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client message types.
const (
	TypeListTournaments = "list_tournaments"
	TypeCreate          = "create_tournament"
	TypeSubscribe       = "subscribe"
	TypeStart           = "start_tournament"
	TypeGame            = "game"
	TypeChat            = "chat"
)

// ParseClient decodes a raw inbound payload. A JSON error or an empty
// type field is a protocol error; the caller answers it with a single
// Error message and drops the payload.
func ParseClient(raw []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("invalid json: %w", err)
	}
	if msg.Type == "" {
		return ClientMessage{}, fmt.Errorf("missing message type")
	}
	return msg, nil
}

// GameCommand extracts the paddle input from a game message.
func (m ClientMessage) GameCommand() (physics.Command, bool) {
	return physics.ParseCommand(m.Cmd)
}

// GameFrame is the per-tick match state pushed to every subscriber.
type GameFrame struct {
	PaddleLeft  float64          `json:"paddleLeft"`
	PaddleRight float64          `json:"paddleRight"`
	Ball        physics.Position `json:"ball"`
	ScoreLeft   int              `json:"scoreLeft"`
	ScoreRight  int              `json:"scoreRight"`
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type countDownMsg struct {
	Type string `json:"type"`
	Time int    `json:"time"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type chatMsg struct {
	Type    string `json:"type"`
	SendID  int64  `json:"sendId,omitempty"`
	Message string `json:"message"`
}

// Game wraps a tick frame.
func Game(frame GameFrame) any {
	return envelope{Type: "game", Data: frame}
}

// Tournaments wraps the tournament listing.
func Tournaments(data any) any {
	return envelope{Type: "tournaments", Data: data}
}

// NextMatch announces a newly scheduled pairing.
func NextMatch(data any) any {
	return envelope{Type: "nextMatch", Data: data}
}

// TournamentUpdate announces a score change on a running match.
func TournamentUpdate(data any) any {
	return envelope{Type: "tournamentUpdate", Data: data}
}

// CountDown is one step of the pre-match countdown.
func CountDown(t int) any {
	return countDownMsg{Type: "countDown", Time: t}
}

// Error is the single reply sent for any rejected request.
func Error(message string) any {
	return errorMsg{Type: "error", Message: message}
}

// PublicChat formats a public room message.
func PublicChat(senderID int64, sender, content string) any {
	return chatMsg{Type: "public", SendID: senderID, Message: "[" + sender + "]: " + content}
}

// SystemChat formats a server-originated room message.
func SystemChat(content string) any {
	return chatMsg{Type: "public", Message: "[System]: " + content}
}

// PrivateChat formats a direct message.
func PrivateChat(senderID int64, sender, content string) any {
	return chatMsg{Type: "private", SendID: senderID, Message: "[" + sender + "]: " + content}
}
