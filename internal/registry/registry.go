// Package registry tracks live authenticated connections, their
// tournament subscriptions, and the routing of inbound client commands
// to the components that own them. It is the only writer of the
// subscription sets; the match engine and orchestrator reach
// subscribers exclusively through its broadcast operations.
package registry

import (
	"log"
	"sync"

	"pong-arena/internal/physics"
	"pong-arena/internal/protocol"
)

// Routes binds inbound message categories to their owners. The
// registry itself owns no game or tournament state; it only parses,
// validates the shape, and forwards.
type Routes struct {
	// Tournament handles list/create/subscribe/start requests.
	Tournament func(conn *Conn, msg protocol.ClientMessage)
	// Game handles a paddle command for the connection's current match.
	Game func(conn *Conn, cmd physics.Command)
	// Chat handles a room or direct chat message.
	Chat func(conn *Conn, destID int64, message string)
	// Disconnect observes a connection leaving (after deregistration).
	Disconnect func(userID int64, tournamentID int)
}

// Registry is the process-wide connection table. Constructor-injected
// everywhere it is needed; there are no package-level singletons.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Conn          // conn id -> conn
	byUser map[int64]map[string]*Conn // user id -> conn id -> conn
	subs   map[int]map[string]*Conn  // tournament id -> conn id -> conn

	routes Routes
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		conns:  make(map[string]*Conn),
		byUser: make(map[int64]map[string]*Conn),
		subs:   make(map[int]map[string]*Conn),
	}
}

// SetRoutes wires the message handlers. Must be called before the
// first connection registers.
func (r *Registry) SetRoutes(routes Routes) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = routes
}

// Register creates and tracks a connection for a verified identity.
func (r *Registry) Register(userID int64, username string) *Conn {
	conn := newConn(userID, username)

	r.mu.Lock()
	r.conns[conn.ID] = conn
	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[string]*Conn)
	}
	r.byUser[userID][conn.ID] = conn
	total := len(r.conns)
	r.mu.Unlock()

	log.Printf("📱 %s connected (%d total)", username, total)
	return conn
}

// Deregister removes a connection from the table and every
// subscription set, closes it, and fires the disconnect callback.
// Safe to call more than once.
func (r *Registry) Deregister(conn *Conn) {
	r.mu.Lock()
	if _, ok := r.conns[conn.ID]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, conn.ID)
	if set := r.byUser[conn.UserID]; set != nil {
		delete(set, conn.ID)
		if len(set) == 0 {
			delete(r.byUser, conn.UserID)
		}
	}
	tournamentID := conn.tournament
	if tournamentID != 0 {
		if set := r.subs[tournamentID]; set != nil {
			delete(set, conn.ID)
			if len(set) == 0 {
				delete(r.subs, tournamentID)
			}
		}
	}
	remaining := len(r.conns)
	disconnect := r.routes.Disconnect
	r.mu.Unlock()

	conn.Close()
	log.Printf("📱 %s disconnected (%d remaining)", conn.Username, remaining)

	if disconnect != nil {
		disconnect(conn.UserID, tournamentID)
	}
}

// Subscribe adds the connection to a tournament's broadcast set.
// A connection watches at most one tournament; subscribing again moves
// it. Duplicate subscribes are idempotent.
func (r *Registry) Subscribe(conn *Conn, tournamentID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn.tournament == tournamentID {
		return
	}
	if conn.tournament != 0 {
		if set := r.subs[conn.tournament]; set != nil {
			delete(set, conn.ID)
			if len(set) == 0 {
				delete(r.subs, conn.tournament)
			}
		}
	}
	conn.tournament = tournamentID
	if r.subs[tournamentID] == nil {
		r.subs[tournamentID] = make(map[string]*Conn)
	}
	r.subs[tournamentID][conn.ID] = conn
}

// Unsubscribe removes the connection from its tournament set, if any.
func (r *Registry) Unsubscribe(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn.tournament == 0 {
		return
	}
	if set := r.subs[conn.tournament]; set != nil {
		delete(set, conn.ID)
		if len(set) == 0 {
			delete(r.subs, conn.tournament)
		}
	}
	conn.tournament = 0
}

// TournamentOf returns the tournament the connection watches (0 none).
func (r *Registry) TournamentOf(conn *Conn) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return conn.tournament
}

// BroadcastAll sends a payload to every live connection, best-effort.
func (r *Registry) BroadcastAll(payload any) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, conn := range r.conns {
		conn.Send(payload)
	}
}

// BroadcastTournament sends a payload to every subscriber of the given
// tournament. Connections with a full outbox are skipped, never
// retried.
func (r *Registry) BroadcastTournament(tournamentID int, payload any) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, conn := range r.subs[tournamentID] {
		conn.Send(payload)
	}
}

// SendToUser delivers a payload to every connection of one user.
// Reports whether at least one delivery was queued.
func (r *Registry) SendToUser(userID int64, payload any) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sent := false
	for _, conn := range r.byUser[userID] {
		if conn.Send(payload) {
			sent = true
		}
	}
	return sent
}

// ConnCount returns the number of live connections.
func (r *Registry) ConnCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// SubscriberCount returns the number of subscribers of a tournament.
func (r *Registry) SubscriberCount(tournamentID int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[tournamentID])
}

// RouteInput parses one inbound payload and forwards it to its owner.
// A malformed payload earns the sender a single error reply and is
// otherwise discarded; routing never crashes the connection.
func (r *Registry) RouteInput(conn *Conn, raw []byte) {
	msg, err := protocol.ParseClient(raw)
	if err != nil {
		conn.Send(protocol.Error("[Server]: Invalid message format."))
		return
	}

	r.mu.RLock()
	routes := r.routes
	r.mu.RUnlock()

	switch msg.Type {
	case protocol.TypeListTournaments, protocol.TypeCreate,
		protocol.TypeSubscribe, protocol.TypeStart:
		if routes.Tournament != nil {
			routes.Tournament(conn, msg)
		}

	case protocol.TypeGame:
		cmd, ok := msg.GameCommand()
		if !ok {
			conn.Send(protocol.Error("[Server]: Invalid message format."))
			return
		}
		if routes.Game != nil {
			routes.Game(conn, cmd)
		}

	case protocol.TypeChat:
		if routes.Chat != nil {
			routes.Chat(conn, msg.DestID, msg.Message)
		}

	default:
		conn.Send(protocol.Error("[Server]: Invalid message format."))
	}
}
