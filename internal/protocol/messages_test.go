package protocol

import (
	"encoding/json"
	"testing"

	"pong-arena/internal/physics"
)

// TestParseClient verifies the inbound decode contract: bad JSON and a
// missing type are protocol errors, unknown types are not (the router
// decides what to do with them).
func TestParseClient(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		want    string
	}{
		{"valid", `{"type":"subscribe","tournament":3}`, false, TypeSubscribe},
		{"unknown type parses", `{"type":"bogus"}`, false, "bogus"},
		{"not json", `}{`, true, ""},
		{"missing type", `{"tournament":3}`, true, ""},
		{"empty type", `{"type":""}`, true, ""},
	}

	for _, tt := range tests {
		msg, err := ParseClient([]byte(tt.raw))
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err == nil && msg.Type != tt.want {
			t.Errorf("%s: type = %q, want %q", tt.name, msg.Type, tt.want)
		}
	}
}

// TestGameCommand verifies the wire codes map onto paddle commands and
// anything else is rejected.
func TestGameCommand(t *testing.T) {
	for code, want := range map[int]physics.Command{
		1: physics.CmdMoveUpBegin,
		2: physics.CmdMoveUpEnd,
		3: physics.CmdMoveDownBegin,
		4: physics.CmdMoveDownEnd,
	} {
		msg := ClientMessage{Type: TypeGame, Cmd: code}
		cmd, ok := msg.GameCommand()
		if !ok || cmd != want {
			t.Errorf("cmd %d: got (%v, %v), want %v", code, cmd, ok, want)
		}
	}

	for _, code := range []int{0, 5, -1, 42} {
		msg := ClientMessage{Type: TypeGame, Cmd: code}
		if _, ok := msg.GameCommand(); ok {
			t.Errorf("cmd %d should be rejected", code)
		}
	}
}

// TestChatFormatting verifies the sender prefixes clients display
// verbatim.
func TestChatFormatting(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    map[string]any
	}{
		{
			"public",
			PublicChat(7, "alice", "hi"),
			map[string]any{"type": "public", "sendId": float64(7), "message": "[alice]: hi"},
		},
		{
			"system",
			SystemChat("welcome"),
			map[string]any{"type": "public", "message": "[System]: welcome"},
		},
		{
			"private",
			PrivateChat(9, "bob", "psst"),
			map[string]any{"type": "private", "sendId": float64(9), "message": "[bob]: psst"},
		},
		{
			"error",
			Error("[Server]: Tournament not found."),
			map[string]any{"type": "error", "message": "[Server]: Tournament not found."},
		},
	}

	for _, tt := range tests {
		raw, err := json.Marshal(tt.payload)
		if err != nil {
			t.Fatalf("%s: marshal: %v", tt.name, err)
		}
		var got map[string]any
		json.Unmarshal(raw, &got)
		for key, want := range tt.want {
			if got[key] != want {
				t.Errorf("%s: %s = %v, want %v", tt.name, key, got[key], want)
			}
		}
	}
}
