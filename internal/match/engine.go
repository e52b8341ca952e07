package match

import (
	"log"
	"sync"
	"time"

	"pong-arena/internal/config"
	"pong-arena/internal/physics"
	"pong-arena/internal/protocol"
)

// State is the match lifecycle state machine:
// Idle -> Running <-> Paused -> Ended. Ended is terminal.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// BroadcastFunc delivers a serialized message to every subscriber of
// the match. Implementations must never block; the registry satisfies
// this with buffered per-connection channels.
type BroadcastFunc func(payload any)

// Observers are optional instrumentation hooks. Nil fields are skipped.
// Callbacks must be cheap and must not re-enter the engine.
type Observers struct {
	// TickDuration receives the wall time each tick spent simulating
	// and snapshotting, measured outside the broadcast path.
	TickDuration func(time.Duration)

	// PointScored fires once per point awarded.
	PointScored func()
}

// Engine drives one match. All mutable state is guarded by mu; the
// tick loop runs on its own goroutine so tick order within a match is
// strictly sequential.
type Engine struct {
	mu  sync.Mutex
	cfg config.GameConfig

	paddleLeft  *physics.Paddle
	paddleRight *physics.Paddle
	ball        *physics.Ball

	data      Data
	state     State
	prevTime  time.Time
	tickCount uint64

	stopChan chan struct{}
	done     chan struct{} // closed exactly once, when the match ends

	broadcast BroadcastFunc
	events    *EventLog
	obs       Observers
}

// NewEngine creates an idle engine for the given pairing.
// broadcast may be nil for headless simulations.
func NewEngine(cfg config.GameConfig, data Data, broadcast BroadcastFunc) *Engine {
	if broadcast == nil {
		broadcast = func(any) {}
	}
	return &Engine{
		cfg:         cfg,
		paddleLeft:  physics.NewPaddle(1, 45, cfg.PaddleWidth, cfg.PaddleHeight, cfg.PaddleSpeed),
		paddleRight: physics.NewPaddle(197, 45, cfg.PaddleWidth, cfg.PaddleHeight, cfg.PaddleSpeed),
		ball:        physics.NewBall(physics.CourtWidth/2, physics.CourtHeight/2, cfg.BallRadius, cfg.BallSpeed),
		data:        data,
		state:       StateIdle,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		broadcast:   broadcast,
	}
}

// SetEventLog attaches an audit log. Only valid before Start.
func (e *Engine) SetEventLog(el *EventLog) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = el
}

// SetObservers attaches instrumentation hooks. Only valid before Start.
func (e *Engine) SetObservers(obs Observers) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.obs = obs
}

// Done returns the completion handle: a channel closed exactly once,
// when the match reaches its terminal state.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Start begins the fixed-tick loop and returns the completion handle.
// Calling Start on a match that is already running (or ended) is a
// no-op returning the same handle.
func (e *Engine) Start() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle {
		return e.done
	}

	e.state = StateRunning
	e.prevTime = time.Now()
	e.emit(EventMatchStart, MatchStartPayload{
		Player1: e.data.Player1.ID,
		Player2: e.data.Player2.ID,
		Round:   e.data.Round,
	})

	go e.loop()

	log.Printf("🏓 Match started: %s vs %s (round %d)",
		e.data.Player1.Username, e.data.Player2.Username, e.data.Round)
	return e.done
}

// Pause suspends the simulation. Only valid from Running; anything
// else is a no-op.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateRunning {
		e.state = StatePaused
	}
}

// Resume restarts a paused simulation. Only valid from Paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StatePaused {
		e.state = StateRunning
		// Reset the clock so the pause gap is not integrated as one
		// giant physics step.
		e.prevTime = time.Now()
	}
}

// End stops the tick loop and resolves the completion handle.
// Idempotent and safe to call from any goroutine; no tick mutates
// state after End returns.
func (e *Engine) End() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endLocked()
}

// Forfeit ends the match awarding the win to the opponent of the given
// player. Used by the orchestrator's disconnect policy. Unknown ids
// are ignored, like any other late input.
func (e *Engine) Forfeit(playerID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateEnded {
		return
	}

	switch playerID {
	case e.data.Player1.ID:
		w := e.data.Player2
		e.data.Winner = &w
	case e.data.Player2.ID:
		w := e.data.Player1
		e.data.Winner = &w
	default:
		return
	}
	e.endLocked()
}

// HandleInput routes a paddle command to the paddle owned by playerID.
// Unrecognized ids are silently ignored: late or duplicate input after
// a disconnect is expected, not an error.
func (e *Engine) HandleInput(cmd physics.Command, playerID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateEnded {
		return
	}

	switch playerID {
	case e.data.Player1.ID:
		e.paddleLeft.HandleInput(cmd)
	case e.data.Player2.ID:
		e.paddleRight.HandleInput(cmd)
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Data returns a copy of the match record. Once the match has ended
// the copy is final.
func (e *Engine) Data() Data {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data
}

// Frame returns the current renderable state.
func (e *Engine) Frame() protocol.GameFrame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameLocked()
}

// HasPlayer reports whether the given id is one of the two players.
func (e *Engine) HasPlayer(playerID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return playerID == e.data.Player1.ID || playerID == e.data.Player2.ID
}

// loop is the fixed-tick driver. It owns no state: every tick takes
// the engine mutex, so Pause/End from other goroutines serialize
// cleanly against physics updates.
func (e *Engine) loop() {
	ticker := time.NewTicker(time.Second / time.Duration(e.cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			if !e.tick() {
				return
			}
		}
	}
}

// tick advances the simulation by the elapsed wall time and broadcasts
// the resulting frame. Returns false once the match has ended.
func (e *Engine) tick() bool {
	e.mu.Lock()

	if e.state == StateEnded {
		e.mu.Unlock()
		return false
	}

	now := time.Now()
	dt := now.Sub(e.prevTime)
	e.prevTime = now
	e.tickCount++

	// Timing anomaly guard: a stalled process would otherwise produce
	// one huge physics step, tunneling the ball through paddles. The
	// oversized tick is skipped entirely.
	var updates []any
	if e.state == StateRunning && dt < e.cfg.MaxTickDelta {
		updates = e.update(dt.Seconds())
	}

	frame := e.frameLocked()
	observeTick := e.obs.TickDuration
	e.mu.Unlock()

	if observeTick != nil {
		observeTick(time.Since(now))
	}

	// Broadcast outside the lock; the registry send path is
	// non-blocking but callbacks must not be able to re-enter the
	// engine while it holds mu.
	for _, msg := range updates {
		e.broadcast(msg)
	}
	e.broadcast(protocol.Game(frame))
	return true
}

// update runs one physics step and returns any score-change messages
// to broadcast after the lock is released. Caller holds mu.
func (e *Engine) update(dt float64) []any {
	e.paddleLeft.Move(dt)
	e.paddleRight.Move(dt)
	e.ball.Move(dt)
	e.ball.ResolveCollision(e.paddleLeft)
	e.ball.ResolveCollision(e.paddleRight)

	// Goal lines: the ball must fully pass the paddle column.
	if e.ball.X < e.paddleLeft.X-e.ball.Radius {
		return e.addPoint(physics.SideRight)
	}
	if e.ball.X > e.paddleRight.X+e.paddleRight.Width+e.ball.Radius {
		return e.addPoint(physics.SideLeft)
	}
	return nil
}

// addPoint awards a point, resets the serve, and ends the match when
// the win condition is met. Caller holds mu.
func (e *Engine) addPoint(side physics.Side) []any {
	switch side {
	case physics.SideLeft:
		e.data.Player1.Score++
	case physics.SideRight:
		e.data.Player2.Score++
	}

	e.emit(EventPoint, PointPayload{
		ScoreLeft:  e.data.Player1.Score,
		ScoreRight: e.data.Player2.Score,
	})
	if e.obs.PointScored != nil {
		e.obs.PointScored()
	}

	e.resetBall()

	updates := []any{protocol.TournamentUpdate(e.data)}
	if e.data.Player1.Score >= e.cfg.ScoreToWin || e.data.Player2.Score >= e.cfg.ScoreToWin {
		w := e.data.Leader()
		e.data.Winner = &w
		e.endLocked()
	}
	return updates
}

// resetBall recenters the ball serving toward the player who just
// conceded: the pre-reset horizontal sign tells us who lost the point.
// Caller holds mu.
func (e *Engine) resetBall() {
	dir := -1.0
	if e.ball.SpeedX < 0 {
		dir = 1.0
	}
	e.ball.X = physics.CourtWidth / 2
	e.ball.Y = physics.CourtHeight / 2
	e.ball.SpeedX = e.cfg.ServeSpeed * dir
	e.ball.SpeedY = 0 // start flat; the first paddle sets the angle
}

// endLocked marks the terminal state and resolves the completion
// handle exactly once. Caller holds mu.
func (e *Engine) endLocked() {
	if e.state == StateEnded {
		return
	}
	e.state = StateEnded
	close(e.stopChan)
	close(e.done)

	e.emit(EventMatchEnd, MatchEndPayload{
		ScoreLeft:  e.data.Player1.Score,
		ScoreRight: e.data.Player2.Score,
		Winner:     winnerID(e.data.Winner),
	})

	log.Printf("🏁 Match ended: %s %d - %d %s",
		e.data.Player1.Username, e.data.Player1.Score,
		e.data.Player2.Score, e.data.Player2.Username)
}

// frameLocked snapshots the renderable state. Caller holds mu.
func (e *Engine) frameLocked() protocol.GameFrame {
	return protocol.GameFrame{
		PaddleLeft:  e.paddleLeft.Y,
		PaddleRight: e.paddleRight.Y,
		Ball:        e.ball.Position(),
		ScoreLeft:   e.data.Player1.Score,
		ScoreRight:  e.data.Player2.Score,
	}
}

// emit writes to the audit log if one is attached. Caller holds mu.
func (e *Engine) emit(eventType EventType, payload any) {
	if e.events != nil {
		e.events.Emit(eventType, e.tickCount, payload)
	}
}

func winnerID(w *Player) int64 {
	if w == nil {
		return 0
	}
	return w.ID
}
