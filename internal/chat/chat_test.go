package chat

import (
	"encoding/json"
	"testing"
	"time"

	"pong-arena/internal/registry"
)

type chatReply struct {
	Type    string `json:"type"`
	SendID  int64  `json:"sendId"`
	Message string `json:"message"`
}

// recv drains one message from the outbox, or fails the test.
func recv(t *testing.T, conn *registry.Conn) chatReply {
	t.Helper()
	select {
	case raw := <-conn.Outbox():
		var msg chatReply
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		return msg
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no message arrived")
		return chatReply{}
	}
}

// noSlowdown disables flood control so tests can send back to back.
func noSlowdown(s *Service) {
	s.limiter = NewRateLimiter(RateLimitConfig{
		MaxPerWindow:   1000,
		WindowDuration: time.Second,
	})
}

// TestPublicMessage verifies a destId of zero reaches everyone with the
// sender's name prefixed.
func TestPublicMessage(t *testing.T) {
	reg := registry.New()
	s := NewService(reg)
	noSlowdown(s)

	alice := reg.Register(1, "alice")
	bob := reg.Register(2, "bob")

	s.Handle(alice, 0, "hello room")

	for _, conn := range []*registry.Conn{alice, bob} {
		msg := recv(t, conn)
		if msg.Type != "public" || msg.SendID != 1 || msg.Message != "[alice]: hello room" {
			t.Errorf("got %+v", msg)
		}
	}
}

// TestDirectMessage verifies delivery to the destination plus the echo
// to the sender, with sendId pointing at the conversation partner.
func TestDirectMessage(t *testing.T) {
	reg := registry.New()
	s := NewService(reg)
	noSlowdown(s)

	alice := reg.Register(1, "alice")
	bob := reg.Register(2, "bob")

	s.Handle(alice, 2, "psst")

	got := recv(t, bob)
	if got.Type != "private" || got.SendID != 1 || got.Message != "[alice]: psst" {
		t.Errorf("destination got %+v", got)
	}

	echo := recv(t, alice)
	if echo.Type != "private" || echo.SendID != 2 || echo.Message != "[alice]: psst" {
		t.Errorf("echo got %+v", echo)
	}
}

// TestDirectMessageOffline verifies a DM to an absent user earns a
// single error reply and nothing is delivered.
func TestDirectMessageOffline(t *testing.T) {
	reg := registry.New()
	s := NewService(reg)
	noSlowdown(s)

	alice := reg.Register(1, "alice")

	s.Handle(alice, 42, "anyone there")

	msg := recv(t, alice)
	if msg.Type != "error" || msg.Message != "[Server]: User is offline." {
		t.Errorf("got %+v", msg)
	}
	select {
	case raw := <-alice.Outbox():
		t.Errorf("unexpected second reply: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestAnnounce verifies server announcements use the system prefix.
func TestAnnounce(t *testing.T) {
	reg := registry.New()
	s := NewService(reg)

	alice := reg.Register(1, "alice")
	s.Announce("maintenance in 5 minutes")

	msg := recv(t, alice)
	if msg.Type != "public" || msg.SendID != 0 || msg.Message != "[System]: maintenance in 5 minutes" {
		t.Errorf("got %+v", msg)
	}
}

// TestFloodControl verifies the cooldown rejects back-to-back messages.
func TestFloodControl(t *testing.T) {
	reg := registry.New()
	s := NewService(reg)
	s.limiter = NewRateLimiter(RateLimitConfig{
		MaxPerWindow:     100,
		WindowDuration:   time.Second,
		CooldownDuration: time.Hour,
	})

	alice := reg.Register(1, "alice")

	s.Handle(alice, 0, "first")
	if msg := recv(t, alice); msg.Type != "public" {
		t.Fatalf("first message rejected: %+v", msg)
	}

	s.Handle(alice, 0, "second")
	if msg := recv(t, alice); msg.Type != "error" {
		t.Errorf("flood message should be rejected, got %+v", msg)
	}
}

// TestRateLimiterWindow exercises the window cap directly.
func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		MaxPerWindow:   3,
		WindowDuration: time.Hour,
	})

	for i := 0; i < 3; i++ {
		if !rl.Allow(1) {
			t.Fatalf("message %d within cap was rejected", i)
		}
	}
	if rl.Allow(1) {
		t.Error("message over the window cap was allowed")
	}
	// Other users are unaffected.
	if !rl.Allow(2) {
		t.Error("different user should have a fresh window")
	}
}
