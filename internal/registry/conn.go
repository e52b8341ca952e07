package registry

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"sync"
)

// sendBufferSize is the per-connection outbox depth. A subscriber that
// cannot drain 64 frames is hopelessly behind; further sends are
// dropped rather than retried.
const sendBufferSize = 64

// Conn is one live authenticated connection. It pairs the identity the
// handshake established with a buffered outbox the transport writer
// drains. The registry holds only non-owning references; the transport
// layer owns the socket and the Conn's lifetime.
type Conn struct {
	ID       string
	UserID   int64
	Username string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// tournament the connection is subscribed to, 0 for none.
	// Guarded by the owning Registry's mutex.
	tournament int
}

// newConn creates a connection handle for an authenticated identity.
func newConn(userID int64, username string) *Conn {
	return &Conn{
		ID:       randomConnID(),
		UserID:   userID,
		Username: username,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
}

// Send serializes payload and queues it on the outbox. Delivery is
// best-effort: a closed connection or a full outbox drops the message
// and reports false. Send never blocks.
func (c *Conn) Send(payload any) bool {
	raw, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- raw:
		return true
	default:
		return false // slow consumer, skip
	}
}

// Outbox returns the channel the transport writer drains.
func (c *Conn) Outbox() <-chan []byte {
	return c.send
}

// Done is closed when the connection closes; the transport writer
// selects on it alongside the outbox.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close marks the connection dead. Idempotent. The outbox channel is
// left open so concurrent Send calls can never panic; the writer exits
// via Done instead.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// randomConnID returns a random 16-hex-char connection id.
func randomConnID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
