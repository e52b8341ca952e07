package tournament

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"pong-arena/internal/config"
	"pong-arena/internal/match"
	"pong-arena/internal/registry"
)

func testOrchestrator() (*Orchestrator, *registry.Registry) {
	reg := registry.New()
	cfg := config.DefaultTournament()
	cfg.CountdownFrom = 0
	cfg.CountdownInterval = time.Millisecond
	o := NewOrchestrator(cfg, config.DefaultGame(), reg)
	reg.SetRoutes(o.Routes())
	return o, reg
}

// drain empties a connection's outbox and returns the message types in
// order.
func drain(conn *registry.Conn) []string {
	var types []string
	for {
		select {
		case raw := <-conn.Outbox():
			var env struct {
				Type string `json:"type"`
			}
			json.Unmarshal(raw, &env)
			types = append(types, env.Type)
		case <-time.After(100 * time.Millisecond):
			return types
		}
	}
}

// TestCreateAndList verifies tournament creation and the listing shape.
func TestCreateAndList(t *testing.T) {
	o, _ := testOrchestrator()

	if err := o.CreateTournament("Cup", match.Player{ID: 1, Username: "alice"}); err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}

	list := o.ListTournaments()
	if len(list) != 1 {
		t.Fatalf("listing has %d entries, want 1", len(list))
	}
	s := list[0]
	if s.ID != 1 || s.Name != "Cup" || s.Creator.ID != 1 || s.Started {
		t.Errorf("summary = %+v", s)
	}
	if len(s.Players) != 1 || s.Players[0].Username != "alice" {
		t.Errorf("creator should be the first player, got %+v", s.Players)
	}

	if err := o.CreateTournament("", match.Player{ID: 1}); err == nil {
		t.Error("empty name should be rejected")
	}
}

// TestSubscribeRejections verifies the rejection taxonomy: unknown id,
// duplicate join, joining after start.
func TestSubscribeRejections(t *testing.T) {
	o, _ := testOrchestrator()
	o.CreateTournament("Cup", match.Player{ID: 1, Username: "alice"})

	if err := o.SubscribePlayer(99, match.Player{ID: 2, Username: "bob"}); err != errNotFound {
		t.Errorf("unknown id: err = %v, want errNotFound", err)
	}

	if err := o.SubscribePlayer(1, match.Player{ID: 2, Username: "bob"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	// Duplicate join is an idempotent success.
	if err := o.SubscribePlayer(1, match.Player{ID: 2, Username: "bob"}); err != nil {
		t.Errorf("duplicate join: err = %v, want nil", err)
	}
	if got := len(o.ListTournaments()[0].Players); got != 2 {
		t.Errorf("player count = %d, want 2", got)
	}

	if err := o.StartTournament(1, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := o.SubscribePlayer(1, match.Player{ID: 3, Username: "carol"}); err != errAlreadyStarted {
		t.Errorf("join after start: err = %v, want errAlreadyStarted", err)
	}

	o.Shutdown()
}

// TestStartRejections verifies only the creator can start, only once,
// and only with enough players.
func TestStartRejections(t *testing.T) {
	o, _ := testOrchestrator()
	o.CreateTournament("Cup", match.Player{ID: 1, Username: "alice"})

	if err := o.StartTournament(99, 1); err != errNotFound {
		t.Errorf("unknown id: err = %v, want errNotFound", err)
	}
	if err := o.StartTournament(1, 2); err != errNotCreator {
		t.Errorf("non-creator: err = %v, want errNotCreator", err)
	}
	if err := o.StartTournament(1, 1); err != errNotEnoughPlayers {
		t.Errorf("solo start: err = %v, want errNotEnoughPlayers", err)
	}

	o.SubscribePlayer(1, match.Player{ID: 2, Username: "bob"})
	if err := o.StartTournament(1, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := o.StartTournament(1, 1); err != errAlreadyStarted {
		t.Errorf("double start: err = %v, want errAlreadyStarted", err)
	}

	o.Shutdown()
}

// TestPairings verifies the deterministic sequential pairing policy
// and the bye rule for odd fields.
func TestPairings(t *testing.T) {
	field := []match.Player{
		{ID: 1, Username: "a", Score: 5},
		{ID: 2, Username: "b"},
		{ID: 3, Username: "c"},
		{ID: 4, Username: "d"},
		{ID: 5, Username: "e"},
	}

	matches, bye := pairings(field, 2)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Player1.ID != 1 || matches[0].Player2.ID != 2 {
		t.Errorf("match 0 = %d vs %d", matches[0].Player1.ID, matches[0].Player2.ID)
	}
	if matches[1].Player1.ID != 3 || matches[1].Player2.ID != 4 {
		t.Errorf("match 1 = %d vs %d", matches[1].Player1.ID, matches[1].Player2.ID)
	}
	if bye == nil || bye.ID != 5 {
		t.Fatalf("bye = %+v, want player 5", bye)
	}
	if matches[0].Player1.Score != 0 {
		t.Error("scores must reset for a new round")
	}
	if matches[0].Round != 2 {
		t.Errorf("round = %d, want 2", matches[0].Round)
	}

	// Even field: no bye.
	_, bye = pairings(field[:4], 1)
	if bye != nil {
		t.Errorf("even field produced a bye: %+v", bye)
	}
}

// resolveBracket forfeits every running match (player1 always loses)
// until the tournament completes, returning the number of distinct
// matches played.
func resolveBracket(t *testing.T, o *Orchestrator, id int) int {
	t.Helper()

	seen := make(map[*match.Engine]bool)
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		o.mu.Lock()
		tour := o.tournaments[id]
		if tour == nil {
			o.mu.Unlock()
			t.Fatal("tournament vanished")
		}
		if tour.State == StateCompleted {
			o.mu.Unlock()
			return len(seen)
		}
		engines := make([]*match.Engine, len(tour.engines))
		copy(engines, tour.engines)
		o.mu.Unlock()

		for _, e := range engines {
			if !seen[e] {
				seen[e] = true
				e.Forfeit(e.Data().Player1.ID)
			}
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatal("bracket did not complete in time")
	return 0
}

// TestBracketClosure verifies single elimination plays exactly N-1
// matches for N players, byes included.
func TestBracketClosure(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 8} {
		o, _ := testOrchestrator()
		o.CreateTournament("Cup", match.Player{ID: 1, Username: "p1"})
		for i := 2; i <= n; i++ {
			o.SubscribePlayer(1, match.Player{ID: int64(i), Username: "p"})
		}
		if err := o.StartTournament(1, 1); err != nil {
			t.Fatalf("n=%d start: %v", n, err)
		}

		played := resolveBracket(t, o, 1)
		if played != n-1 {
			t.Errorf("n=%d: played %d matches, want %d", n, played, n-1)
		}

		o.mu.Lock()
		winner := o.tournaments[1].Winner
		o.mu.Unlock()
		if winner == nil {
			t.Errorf("n=%d: no winner recorded", n)
		}
	}
}

// TestSubscriberNotifications verifies subscribers receive the
// nextMatch announcement and the countdown when a tournament starts.
func TestSubscriberNotifications(t *testing.T) {
	o, reg := testOrchestrator()

	alice := reg.Register(1, "alice")
	bob := reg.Register(2, "bob")

	reg.RouteInput(alice, []byte(`{"type":"create_tournament","name":"Cup"}`))
	reg.Subscribe(alice, 1)
	reg.RouteInput(bob, []byte(`{"type":"subscribe","tournament":1}`))
	reg.RouteInput(alice, []byte(`{"type":"start_tournament","tournament":1}`))

	time.Sleep(100 * time.Millisecond)
	o.Shutdown()

	for name, conn := range map[string]*registry.Conn{"alice": alice, "bob": bob} {
		types := drain(conn)
		if !contains(types, "nextMatch") {
			t.Errorf("%s never received nextMatch: %v", name, types)
		}
		if !contains(types, "countDown") {
			t.Errorf("%s never received countDown: %v", name, types)
		}
	}
}

// TestDisconnectForfeit verifies the default disconnect policy hands
// the match to the opponent and completes a two-player tournament.
func TestDisconnectForfeit(t *testing.T) {
	o, reg := testOrchestrator()

	alice := reg.Register(1, "alice")
	bob := reg.Register(2, "bob")

	reg.RouteInput(alice, []byte(`{"type":"create_tournament","name":"Cup"}`))
	reg.Subscribe(alice, 1)
	reg.RouteInput(bob, []byte(`{"type":"subscribe","tournament":1}`))
	reg.RouteInput(alice, []byte(`{"type":"start_tournament","tournament":1}`))

	// Bob drops mid-match.
	reg.Deregister(bob)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		o.mu.Lock()
		tour := o.tournaments[1]
		done := tour != nil && tour.State == StateCompleted
		var winner *match.Player
		if done {
			winner = tour.Winner
		}
		o.mu.Unlock()

		if done {
			if winner == nil || winner.ID != 1 {
				t.Fatalf("winner = %+v, want alice", winner)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("tournament did not complete after disconnect")
}

// TestPauseOnDisconnectPolicy verifies the non-forfeit policy pauses
// the match instead of ending it.
func TestPauseOnDisconnectPolicy(t *testing.T) {
	reg := registry.New()
	cfg := config.DefaultTournament()
	cfg.CountdownFrom = 0
	cfg.CountdownInterval = time.Millisecond
	cfg.ForfeitOnDC = false
	o := NewOrchestrator(cfg, config.DefaultGame(), reg)
	reg.SetRoutes(o.Routes())

	alice := reg.Register(1, "alice")
	bob := reg.Register(2, "bob")

	reg.RouteInput(alice, []byte(`{"type":"create_tournament","name":"Cup"}`))
	reg.Subscribe(alice, 1)
	reg.RouteInput(bob, []byte(`{"type":"subscribe","tournament":1}`))
	reg.RouteInput(alice, []byte(`{"type":"start_tournament","tournament":1}`))

	// Wait for the engine to start ticking.
	time.Sleep(50 * time.Millisecond)
	reg.Deregister(bob)
	time.Sleep(20 * time.Millisecond)

	o.mu.Lock()
	tour := o.tournaments[1]
	if tour.State != StateStarted || len(tour.engines) != 1 {
		o.mu.Unlock()
		t.Fatalf("tournament state = %v engines = %d", tour.State, len(tour.engines))
	}
	engine := tour.engines[0]
	o.mu.Unlock()

	if engine.State() != match.StatePaused {
		t.Errorf("engine state = %v, want paused", engine.State())
	}

	o.Shutdown()
}

// TestMetricsGauges verifies the gauge hooks track the lifecycle:
// active tournaments on create, active matches on round launch, and
// both back to zero once the bracket completes.
func TestMetricsGauges(t *testing.T) {
	o, _ := testOrchestrator()

	var mu sync.Mutex
	matches, tournaments := -1, -1
	o.SetMetrics(Metrics{
		MatchesActive: func(n int) {
			mu.Lock()
			matches = n
			mu.Unlock()
		},
		TournamentsActive: func(n int) {
			mu.Lock()
			tournaments = n
			mu.Unlock()
		},
	})

	snapshot := func() (int, int) {
		mu.Lock()
		defer mu.Unlock()
		return matches, tournaments
	}

	o.CreateTournament("Cup", match.Player{ID: 1, Username: "alice"})
	if m, tr := snapshot(); m != 0 || tr != 1 {
		t.Errorf("after create: matches=%d tournaments=%d, want 0/1", m, tr)
	}

	o.SubscribePlayer(1, match.Player{ID: 2, Username: "bob"})
	if err := o.StartTournament(1, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if m, _ := snapshot(); m != 1 {
		t.Errorf("after start: matches=%d, want 1", m)
	}

	resolveBracket(t, o, 1)
	if m, tr := snapshot(); m != 0 || tr != 0 {
		t.Errorf("after completion: matches=%d tournaments=%d, want 0/0", m, tr)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
