package tournament

import (
	"log"
	"sync"
	"time"

	"pong-arena/internal/config"
	"pong-arena/internal/match"
	"pong-arena/internal/physics"
	"pong-arena/internal/protocol"
	"pong-arena/internal/registry"
)

// Orchestrator owns the tournament collection and every match engine
// spawned for it. It is constructor-injected with the registry it
// broadcasts through; there is no ambient global state.
type Orchestrator struct {
	mu      sync.Mutex
	cfg     config.TournamentConfig
	gameCfg config.GameConfig

	reg     *registry.Registry
	events  *match.EventLog // optional audit trail, may be nil
	metrics Metrics

	tournaments map[int]*Tournament
	nextID      int
}

// Metrics are optional instrumentation hooks. Nil fields are skipped.
// Gauge callbacks receive absolute counts, not deltas, so the sink
// never drifts from the orchestrator's view.
type Metrics struct {
	TickDuration      func(time.Duration)
	PointScored       func()
	MatchesActive     func(count int)
	TournamentsActive func(count int)
}

// NewOrchestrator creates an orchestrator broadcasting through reg.
func NewOrchestrator(cfg config.TournamentConfig, gameCfg config.GameConfig, reg *registry.Registry) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		gameCfg:     gameCfg,
		reg:         reg,
		tournaments: make(map[int]*Tournament),
		nextID:      1,
	}
}

// SetEventLog attaches the audit trail shared with match engines.
func (o *Orchestrator) SetEventLog(el *match.EventLog) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = el
}

// SetMetrics attaches instrumentation hooks. The per-tick hooks are
// passed down to every engine launched afterwards.
func (o *Orchestrator) SetMetrics(m Metrics) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.metrics = m
}

// updateGaugesLocked pushes the current match and tournament counts to
// the metric hooks. Completed tournaments linger until collected but no
// longer count as active. Caller holds mu.
func (o *Orchestrator) updateGaugesLocked() {
	if o.metrics.MatchesActive != nil {
		matches := 0
		for _, t := range o.tournaments {
			matches += len(t.engines)
		}
		o.metrics.MatchesActive(matches)
	}
	if o.metrics.TournamentsActive != nil {
		active := 0
		for _, t := range o.tournaments {
			if t.State != StateCompleted {
				active++
			}
		}
		o.metrics.TournamentsActive(active)
	}
}

// Routes returns the registry wiring for tournament, game and
// disconnect traffic.
func (o *Orchestrator) Routes() registry.Routes {
	return registry.Routes{
		Tournament: o.HandleMessage,
		Game:       o.HandleGameInput,
		Disconnect: o.HandleDisconnect,
	}
}

// HandleMessage dispatches one tournament-management request from a
// client. Every rejection is a targeted reply to the requester only;
// broadcasts happen only after a successful state change.
func (o *Orchestrator) HandleMessage(conn *registry.Conn, msg protocol.ClientMessage) {
	switch msg.Type {
	case protocol.TypeListTournaments:
		conn.Send(protocol.Tournaments(o.ListTournaments()))

	case protocol.TypeCreate:
		if err := o.CreateTournament(msg.Name, match.Player{ID: conn.UserID, Username: conn.Username}); err != nil {
			conn.Send(protocol.Error(err.Error()))
			return
		}
		o.reg.BroadcastAll(protocol.Tournaments(o.ListTournaments()))

	case protocol.TypeSubscribe:
		if err := o.SubscribePlayer(msg.Tournament, match.Player{ID: conn.UserID, Username: conn.Username}); err != nil {
			conn.Send(protocol.Error(err.Error()))
			return
		}
		o.reg.Subscribe(conn, msg.Tournament)
		o.reg.BroadcastAll(protocol.Tournaments(o.ListTournaments()))

	case protocol.TypeStart:
		if err := o.StartTournament(msg.Tournament, conn.UserID); err != nil {
			conn.Send(protocol.Error(err.Error()))
			return
		}
		o.reg.BroadcastAll(protocol.Tournaments(o.ListTournaments()))
	}
}

// HandleGameInput routes a paddle command to the running match of the
// connection's tournament that the player is part of. Input from
// spectators or for finished matches falls on the floor, matching the
// "late input is not an error" rule.
func (o *Orchestrator) HandleGameInput(conn *registry.Conn, cmd physics.Command) {
	tournamentID := o.reg.TournamentOf(conn)
	if tournamentID == 0 {
		return
	}

	o.mu.Lock()
	t := o.tournaments[tournamentID]
	var engine *match.Engine
	if t != nil {
		for _, e := range t.engines {
			if e.HasPlayer(conn.UserID) {
				engine = e
				break
			}
		}
	}
	o.mu.Unlock()

	if engine != nil {
		engine.HandleInput(cmd, conn.UserID)
	}
}

// HandleDisconnect applies the disconnect policy to a player that
// dropped mid-match, then garbage-collects finished tournaments nobody
// watches anymore.
func (o *Orchestrator) HandleDisconnect(userID int64, tournamentID int) {
	if tournamentID == 0 {
		return
	}

	o.mu.Lock()
	t := o.tournaments[tournamentID]
	var engine *match.Engine
	if t != nil && t.State == StateStarted {
		for _, e := range t.engines {
			if e.HasPlayer(userID) {
				engine = e
				break
			}
		}
	}
	forfeit := o.cfg.ForfeitOnDC
	o.mu.Unlock()

	if engine != nil {
		if forfeit {
			log.Printf("🔌 Player %d disconnected, forfeiting match", userID)
			engine.Forfeit(userID)
		} else {
			log.Printf("🔌 Player %d disconnected, pausing match", userID)
			engine.Pause()
		}
	}

	o.collectGarbage(tournamentID)
}

// ListTournaments returns the full listing in summarized form.
func (o *Orchestrator) ListTournaments() []Summary {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Summary, 0, len(o.tournaments))
	// Stable order: ascending id.
	for id := 1; id < o.nextID; id++ {
		if t, ok := o.tournaments[id]; ok {
			out = append(out, t.summary())
		}
	}
	return out
}

// CreateTournament allocates a new open tournament. The creator is
// automatically its first player.
func (o *Orchestrator) CreateTournament(name string, creator match.Player) error {
	if name == "" {
		return errEmptyName
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.tournaments) >= o.cfg.MaxTournaments {
		return errTooManyTournaments
	}

	t := &Tournament{
		ID:      o.nextID,
		Name:    name,
		Creator: creator,
		Players: []match.Player{creator},
		State:   StateOpen,
	}
	o.nextID++
	o.tournaments[t.ID] = t
	o.updateGaugesLocked()

	log.Printf("🏆 Tournament %q created by %s (id %d)", name, creator.Username, t.ID)
	return nil
}

// SubscribePlayer adds a player to an open tournament. Duplicate
// subscribes are idempotent successes so a reconnecting client can
// resubscribe its watch without an error.
func (o *Orchestrator) SubscribePlayer(id int, player match.Player) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	t, ok := o.tournaments[id]
	if !ok {
		return errNotFound
	}
	if t.hasPlayer(player.ID) {
		return nil
	}
	if t.State != StateOpen {
		return errAlreadyStarted
	}
	if len(t.Players) >= o.cfg.MaxPlayers {
		return errTournamentFull
	}

	t.Players = append(t.Players, player)
	log.Printf("🏆 %s joined tournament %d (%d players)", player.Username, id, len(t.Players))
	return nil
}

// StartTournament transitions an open tournament to Started: round 1
// pairings are built from the subscriber list, a countdown is
// broadcast, and one engine per pairing begins ticking. Only the
// creator may start, and only while the tournament is open.
func (o *Orchestrator) StartTournament(id int, requesterID int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	t, ok := o.tournaments[id]
	if !ok {
		return errNotFound
	}
	if t.Creator.ID != requesterID {
		return errNotCreator
	}
	if t.State != StateOpen {
		return errAlreadyStarted
	}
	if len(t.Players) < 2 {
		return errNotEnoughPlayers
	}

	t.State = StateStarted
	t.round = 1

	if o.events != nil {
		o.events.Emit(match.EventTournamentStart, 0, match.TournamentPayload{
			TournamentID: t.ID,
			Players:      len(t.Players),
		})
	}
	log.Printf("🏆 Tournament %d started with %d players", t.ID, len(t.Players))

	o.launchRoundLocked(t, t.Players)
	return nil
}

// launchRoundLocked builds the pairings for the given field, announces
// them, and starts the engines after the countdown. Caller holds mu.
func (o *Orchestrator) launchRoundLocked(t *Tournament, field []match.Player) {
	matches, bye := pairings(field, t.round)
	t.pending = t.pending[:0]
	if bye != nil {
		t.pending = append(t.pending, *bye)
		log.Printf("🏆 Tournament %d round %d: %s gets a bye", t.ID, t.round, bye.Username)
	}

	t.engines = t.engines[:0]
	for _, data := range matches {
		engine := match.NewEngine(o.gameCfg, data, o.tournamentBroadcaster(t.ID))
		if o.events != nil {
			engine.SetEventLog(o.events)
		}
		engine.SetObservers(match.Observers{
			TickDuration: o.metrics.TickDuration,
			PointScored:  o.metrics.PointScored,
		})
		t.engines = append(t.engines, engine)
		o.reg.BroadcastTournament(t.ID, protocol.NextMatch(data))
	}
	o.updateGaugesLocked()

	// Countdown and engine start run off the lock; ticks must not wait
	// on the orchestrator.
	engines := make([]*match.Engine, len(t.engines))
	copy(engines, t.engines)
	go o.runRound(t.ID, engines)
}

// runRound broadcasts the pre-match countdown, starts every engine of
// the round, and watches their completion handles.
func (o *Orchestrator) runRound(tournamentID int, engines []*match.Engine) {
	for i := o.cfg.CountdownFrom; i >= 0; i-- {
		o.reg.BroadcastTournament(tournamentID, protocol.CountDown(i))
		if i > 0 {
			time.Sleep(o.cfg.CountdownInterval)
		}
	}

	for _, engine := range engines {
		done := engine.Start()
		go func(e *match.Engine, done <-chan struct{}) {
			<-done
			o.matchFinished(tournamentID, e)
		}(engine, done)
	}
}

// tournamentBroadcaster binds a match engine's broadcast to the
// tournament's subscriber set.
func (o *Orchestrator) tournamentBroadcaster(tournamentID int) match.BroadcastFunc {
	return func(payload any) {
		o.reg.BroadcastTournament(tournamentID, payload)
	}
}

// matchFinished records a resolved match and advances the bracket once
// the round is complete.
func (o *Orchestrator) matchFinished(tournamentID int, engine *match.Engine) {
	o.mu.Lock()

	t, ok := o.tournaments[tournamentID]
	if !ok || t.State != StateStarted {
		o.mu.Unlock()
		return
	}

	// Drop the engine from the running set; a completion for an engine
	// of a torn-down round is ignored.
	found := false
	for i, e := range t.engines {
		if e == engine {
			t.engines = append(t.engines[:i], t.engines[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		o.mu.Unlock()
		return
	}

	data := engine.Data()
	winner := data.Winner
	if winner == nil {
		// Ended without a decision (teardown): the leader advances so
		// the bracket always closes.
		w := data.Leader()
		winner = &w
	}
	t.pending = append(t.pending, *winner)

	if len(t.engines) > 0 {
		o.updateGaugesLocked()
		o.mu.Unlock()
		return
	}

	// Round complete.
	if len(t.pending) == 1 {
		w := t.pending[0]
		t.Winner = &w
		t.State = StateCompleted
		if o.events != nil {
			o.events.Emit(match.EventTournamentEnd, 0, match.TournamentPayload{
				TournamentID: t.ID,
				Winner:       w.ID,
			})
		}
		log.Printf("🏆 Tournament %d completed, winner: %s", t.ID, w.Username)
		o.updateGaugesLocked()
		o.mu.Unlock()

		o.reg.BroadcastAll(protocol.Tournaments(o.ListTournaments()))
		return
	}

	t.round++
	field := make([]match.Player, len(t.pending))
	copy(field, t.pending)
	log.Printf("🏆 Tournament %d advancing to round %d (%d players)", t.ID, t.round, len(field))
	o.launchRoundLocked(t, field)
	o.mu.Unlock()
}

// collectGarbage deletes a completed tournament once nothing watches
// it. Open and started tournaments are never collected.
func (o *Orchestrator) collectGarbage(tournamentID int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	t, ok := o.tournaments[tournamentID]
	if !ok {
		return
	}
	if t.State == StateCompleted && o.reg.SubscriberCount(tournamentID) == 0 {
		delete(o.tournaments, tournamentID)
		o.updateGaugesLocked()
		log.Printf("🧹 Tournament %d collected", tournamentID)
	}
}

// Shutdown ends every running engine. Used on process teardown.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	var engines []*match.Engine
	for _, t := range o.tournaments {
		engines = append(engines, t.engines...)
	}
	o.mu.Unlock()

	for _, e := range engines {
		e.End()
	}
}
