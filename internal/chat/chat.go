// Package chat carries room and direct messages over the same
// WebSocket as the game traffic. It has no storage; a message to an
// offline user is simply refused.
package chat

import (
	"log"

	"pong-arena/internal/protocol"
	"pong-arena/internal/registry"
)

// Service routes chat messages through the connection registry.
type Service struct {
	reg     *registry.Registry
	limiter *RateLimiter
}

// NewService creates a chat service delivering through reg.
func NewService(reg *registry.Registry) *Service {
	return &Service{
		reg:     reg,
		limiter: NewRateLimiter(DefaultRateLimitConfig),
	}
}

// Handle processes one inbound chat message. destID zero is the public
// room; anything else is a direct message delivered to every connection
// of that user and echoed back to the sender.
func (s *Service) Handle(conn *registry.Conn, destID int64, message string) {
	if !s.limiter.Allow(conn.UserID) {
		conn.Send(protocol.Error("[Server]: You are sending messages too fast."))
		return
	}

	if destID == 0 {
		s.reg.BroadcastAll(protocol.PublicChat(conn.UserID, conn.Username, message))
		return
	}

	if !s.reg.SendToUser(destID, protocol.PrivateChat(conn.UserID, conn.Username, message)) {
		conn.Send(protocol.Error("[Server]: User is offline."))
		return
	}

	// Echo to the sender so their own view shows the message; sendId
	// points at the conversation partner.
	conn.Send(protocol.PrivateChat(destID, conn.Username, message))
}

// Announce pushes a server-originated message to the public room.
func (s *Service) Announce(message string) {
	log.Printf("📢 %s", message)
	s.reg.BroadcastAll(protocol.SystemChat(message))
}
