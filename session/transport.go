package session

import (
	"context"
	"fmt"
	"net/netip"
)

// Transport is the secure-transport/session-multiplexing layer the session
// drives. It is a black box: it accepts dial, publish, and external-address
// commands, and yields connectivity and payload events on Events().
//
// Contract notes:
//   - PeerConnected fires once per established path to the game peer, with
//     Relayed saying whether that path runs over a relay circuit.
//   - PeerDisconnected fires only when no path to the game peer remains, so
//     tearing down the relay path after a direct upgrade is silent.
//   - AddressObserved reports an externally-observed address of the local
//     peer, as seen by relay or reflection infrastructure.
type Transport interface {
	// Listen starts accepting peer traffic, attaches the message channel,
	// and (when configured with a relay) obtains a relay reservation.
	Listen(ctx context.Context) error

	// Dial connects to a peer locator: either a full transport address or a
	// bare peer identifier reached through the configured relay.
	Dial(ctx context.Context, locator string) error

	// Publish sends one message payload to the peer channel, best-effort.
	Publish(ctx context.Context, pkt []byte) error

	// AddExternalCandidate registers an address under which this peer claims
	// to be publicly reachable. Later registrations supersede earlier ones
	// for the same address family.
	AddExternalCandidate(ap netip.AddrPort)

	// CloseRelayPath tears down any relayed path to the game peer, leaving
	// direct paths intact.
	CloseRelayPath()

	// Locator returns the shareable address of this peer.
	Locator() string

	Events() <-chan TransportEvent

	Close() error
}

// TransportEvent is the closed set of things a transport reports.
type TransportEvent interface {
	transportEvent()

	// Debug returns a short lower-case description for logging.
	Debug() string
}

type PeerConnected struct {
	Peer    string
	Relayed bool
}

func (e PeerConnected) transportEvent() {}

func (e PeerConnected) Debug() string {
	return fmt.Sprintf("peer-connected peer=%s relayed=%v", e.Peer, e.Relayed)
}

type PeerDisconnected struct {
	Peer string
}

func (e PeerDisconnected) transportEvent() {}

func (e PeerDisconnected) Debug() string {
	return fmt.Sprintf("peer-disconnected peer=%s", e.Peer)
}

type AddressObserved struct {
	Addr netip.AddrPort
}

func (e AddressObserved) transportEvent() {}

func (e AddressObserved) Debug() string {
	return fmt.Sprintf("address-observed addr=%s", e.Addr)
}

type Payload struct {
	From string
	Pkt  []byte
}

func (e Payload) transportEvent() {}

func (e Payload) Debug() string {
	return fmt.Sprintf("payload from=%s len=%d", e.From, len(e.Pkt))
}

type TransportError struct {
	Err error
}

func (e TransportError) transportEvent() {}

func (e TransportError) Debug() string {
	return fmt.Sprintf("transport-error err=%v", e.Err)
}
