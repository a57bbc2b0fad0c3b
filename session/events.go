package session

import (
	"fmt"

	"github.com/will-marella/p2pong/wire"
)

// Event is the closed set of session events handed to the game loop.
// Consumers switch exhaustively over the concrete types.
type Event interface {
	sessionEvent()

	// Debug returns a short lower-case description for logging.
	Debug() string
}

// Connected means a direct duplex path to the peer is usable; the match may
// start.
type Connected struct {
	Peer string
}

func (e Connected) sessionEvent() {}

func (e Connected) Debug() string {
	return fmt.Sprintf("connected peer=%s", e.Peer)
}

// Disconnected means the peer went away after establishment. The game ends;
// the session does not reconnect.
type Disconnected struct{}

func (e Disconnected) sessionEvent() {}

func (e Disconnected) Debug() string {
	return "disconnected"
}

// Message carries one decoded game message from the peer.
type Message struct {
	Msg wire.Message
}

func (e Message) sessionEvent() {}

func (e Message) Debug() string {
	return fmt.Sprintf("message %s", e.Msg.Debug())
}

// Fatal is terminal: connection establishment failed. Consumed once; the
// session is unusable afterwards.
type Fatal struct {
	Err error
}

func (e Fatal) sessionEvent() {}

func (e Fatal) Debug() string {
	return fmt.Sprintf("fatal err=%v", e.Err)
}
