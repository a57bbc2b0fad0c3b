// Package session owns the connection lifecycle of one peer-to-peer match:
// establishment over a relay, the mandatory direct upgrade, external-address
// correction, and the duplex message stream the game loop consumes.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/will-marella/p2pong/wire"
)

// ErrDirectUpgradeFailed is fatal: the relayed connection existed but no
// direct path formed within the deadline. There is deliberately no fallback
// to relay-only play; silent fallback would mask unreachable configurations
// and degrade indefinitely.
var ErrDirectUpgradeFailed = errors.New("direct upgrade did not complete within deadline")

// ErrSendQueueFull is returned for non-coalescable messages when the outbound
// queue is saturated.
var ErrSendQueueFull = errors.New("session send queue full")

const DefaultDirectUpgradeTimeout = 5 * time.Second

const (
	eventBacklog = 256
	sendBacklog  = 64
)

type Options struct {
	// ListenPort is the local listener's port; used by the address
	// correction rule. Zero disables correction (ephemeral listener).
	ListenPort uint16

	// ManualExternalAddr, when set, is registered before any rendezvous
	// interaction and takes precedence over every observed candidate.
	ManualExternalAddr netip.AddrPort

	// DirectUpgradeTimeout bounds the RelayConnected state. Defaults to
	// DefaultDirectUpgradeTimeout.
	DirectUpgradeTimeout time.Duration
}

// Session is one peer-to-peer link. Its run loop is the only writer of
// session state; the game loop reads through Ready and NextEvent and writes
// through Send, and never blocks on the network.
type Session struct {
	ctx context.Context
	ccc context.CancelCauseFunc

	tr   Transport
	opts Options

	book *addressBook

	state atomic.Int32
	ready atomic.Bool

	events chan Event
	sendCh chan wire.Message

	// Latest-wins mailbox for BallSync; a newer authoritative sample
	// supersedes a stale one, so backpressure replaces instead of stalling.
	ballCh chan *wire.BallSync

	readyCh   chan struct{}
	readyOnce sync.Once

	peer string

	closeOnce sync.Once
	done      chan struct{}
}

// Listen creates a session that waits for a peer to arrive.
func Listen(ctx context.Context, tr Transport, opts Options) *Session {
	s := newSession(ctx, tr, opts)
	go s.run("")
	return s
}

// Dial creates a session that connects out to peerLocator. Dial failures are
// fatal and never retried.
func Dial(ctx context.Context, tr Transport, peerLocator string, opts Options) *Session {
	s := newSession(ctx, tr, opts)
	go s.run(peerLocator)
	return s
}

func newSession(ctx context.Context, tr Transport, opts Options) *Session {
	sCtx, ccc := context.WithCancelCause(ctx)

	if opts.DirectUpgradeTimeout == 0 {
		opts.DirectUpgradeTimeout = DefaultDirectUpgradeTimeout
	}

	s := &Session{
		ctx:     sCtx,
		ccc:     ccc,
		tr:      tr,
		opts:    opts,
		book:    newAddressBook(opts.ListenPort),
		events:  make(chan Event, eventBacklog),
		sendCh:  make(chan wire.Message, sendBacklog),
		ballCh:  make(chan *wire.BallSync, 1),
		readyCh: make(chan struct{}),
		done:    make(chan struct{}),
	}

	s.state.Store(int32(StateDisconnected))

	// The manual override goes in before the transport ever talks to a
	// rendezvous service.
	if opts.ManualExternalAddr.IsValid() {
		c := s.book.SetManualOverride(opts.ManualExternalAddr)
		s.tr.AddExternalCandidate(c.Addr)
		slog.Info("session: registered manual external address", "addr", c.Addr)
	}

	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Ready reports whether the direct path is up. Non-blocking; the simulation
// loop polls this before entering its real-time phase.
func (s *Session) Ready() bool {
	return s.ready.Load()
}

// NextEvent pops one session event, non-blocking.
func (s *Session) NextEvent() (Event, bool) {
	select {
	case ev := <-s.events:
		return ev, true
	default:
		return nil, false
	}
}

// WaitReady blocks until the session is ready or terminally failed. This is
// the one permitted blocking wait, and it happens strictly before the
// real-time loop starts.
func (s *Session) WaitReady(ctx context.Context) error {
	select {
	case <-s.readyCh:
		return nil
	case <-s.ctx.Done():
		return context.Cause(s.ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send queues one message for the peer. BallSync coalesces: under
// backpressure the pending sample is replaced by the newer one. Other
// messages fail with ErrSendQueueFull rather than blocking the caller.
func (s *Session) Send(m wire.Message) error {
	if bs, ok := m.(*wire.BallSync); ok {
		s.putBall(bs)
		return nil
	}

	select {
	case s.sendCh <- m:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (s *Session) putBall(bs *wire.BallSync) {
	select {
	case s.ballCh <- bs:
		return
	default:
	}

	// Mailbox occupied: evict the stale sample, then retry once. If the run
	// loop slipped a fresher claim in between, dropping ours is fine too.
	select {
	case <-s.ballCh:
	default:
	}
	select {
	case s.ballCh <- bs:
	default:
	}
}

// Locator returns the shareable peer locator.
func (s *Session) Locator() string {
	return s.tr.Locator()
}

// Close tears the session down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.ccc(nil)
	})
	<-s.done
}

func (s *Session) run(dialLocator string) {
	defer s.shutdown()

	if err := s.tr.Listen(s.ctx); err != nil {
		s.fail(fmt.Errorf("listen: %w", err))
		return
	}

	if dialLocator != "" {
		if err := s.tr.Dial(s.ctx, dialLocator); err != nil {
			s.fail(fmt.Errorf("dial %q: %w", dialLocator, err))
			return
		}
	}

	s.transition(StateConnecting)

	// Armed only while in RelayConnected.
	var upgradeDeadline <-chan time.Time

	for {
		select {
		case <-s.ctx.Done():
			s.transition(StateClosed)
			return

		case <-upgradeDeadline:
			s.tr.CloseRelayPath()
			s.fail(ErrDirectUpgradeFailed)
			return

		case tev, ok := <-s.tr.Events():
			if !ok {
				s.fail(errors.New("transport event stream closed"))
				return
			}
			if stop := s.handleTransport(tev, &upgradeDeadline); stop {
				return
			}

		case m := <-s.sendCh:
			s.publish(m)

		case bs := <-s.ballCh:
			s.publish(bs)
		}
	}
}

// handleTransport applies one transport event to the state machine. Returns
// true when the run loop should stop.
func (s *Session) handleTransport(tev TransportEvent, upgradeDeadline *<-chan time.Time) bool {
	switch ev := tev.(type) {
	case PeerConnected:
		return s.onPeerConnected(ev, upgradeDeadline)

	case PeerDisconnected:
		if s.State() != StateDirectConnected {
			// A pre-establishment path went away; the deadline decides.
			slog.Debug("session: path lost before establishment", "peer", ev.Peer)
			return false
		}

		slog.Info("session: peer disconnected, match over", "peer", ev.Peer)
		s.ready.Store(false)
		s.transition(StateClosed)
		s.emit(Disconnected{})
		return true

	case AddressObserved:
		s.onAddressObserved(ev.Addr)
		return false

	case Payload:
		m, err := wire.ParseMessage(ev.Pkt)
		if err != nil {
			// Best-effort channel; malformed or foreign traffic is dropped.
			slog.Warn("session: dropping undecodable payload", "from", ev.From, "err", err)
			return false
		}
		s.emit(Message{Msg: m})
		return false

	case TransportError:
		s.fail(ev.Err)
		return true

	default:
		slog.Warn("session: unknown transport event", "event", tev.Debug())
		return false
	}
}

func (s *Session) onPeerConnected(ev PeerConnected, upgradeDeadline *<-chan time.Time) bool {
	s.peer = ev.Peer

	if ev.Relayed {
		if s.State() != StateConnecting {
			slog.Debug("session: extra relayed path", "peer", ev.Peer, "state", s.State())
			return false
		}

		s.transition(StateRelayConnected)
		*upgradeDeadline = time.After(s.opts.DirectUpgradeTimeout)
		slog.Info("session: relay path up, awaiting direct upgrade",
			"peer", ev.Peer, "deadline", s.opts.DirectUpgradeTimeout)
		return false
	}

	// Direct path, either first try or an upgrade off the relay.
	*upgradeDeadline = nil
	s.transition(StateDirectConnected)
	s.tr.CloseRelayPath()
	s.ready.Store(true)
	s.readyOnce.Do(func() { close(s.readyCh) })
	s.emit(Connected{Peer: ev.Peer})
	slog.Info("session: direct path established", "peer", ev.Peer)
	return false
}

// onAddressObserved applies the correction rule: the NAT-observed IP is
// real, but the observed port belongs to the outbound rendezvous connection,
// not our listener. Advertise (observed ip, listen port) instead. A manual
// override, when present, stays in charge.
func (s *Session) onAddressObserved(ap netip.AddrPort) {
	cand := s.book.Observe(ap)

	if cand.Provenance == ProvenanceManualOverride {
		slog.Debug("session: observed address ignored, manual override wins",
			"observed", ap, "override", cand.Addr)
		return
	}

	s.tr.AddExternalCandidate(cand.Addr)
	slog.Info("session: external address candidate",
		"observed", ap, "advertised", cand.Addr, "provenance", cand.Provenance)
}

func (s *Session) publish(m wire.Message) {
	if err := s.tr.Publish(s.ctx, m.MarshalWire()); err != nil {
		// Loss is tolerated by design; sync self-heals.
		slog.Debug("session: publish failed", "msg", m.Debug(), "err", err)
	}
}

func (s *Session) fail(err error) {
	s.ready.Store(false)
	s.transition(StateFailed)
	s.emit(Fatal{Err: err})
	s.ccc(err)
	slog.Error("session: fatal", "err", err)
}

func (s *Session) transition(to State) {
	from := s.State()
	if from == to {
		return
	}
	s.state.Store(int32(to))
	slog.Debug("session: state transition", "from", from, "to", to)
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
		return
	default:
	}

	// The consumer is not draining. Sync traffic self-heals, so it can be
	// dropped; terminal events must land, so they evict the oldest queued
	// event instead. The run goroutine is the only writer, so the freed
	// slot cannot be stolen.
	switch ev.(type) {
	case Disconnected, Fatal:
		select {
		case dropped := <-s.events:
			slog.Warn("session: evicting queued event for terminal delivery", "event", dropped.Debug())
		default:
		}
		select {
		case s.events <- ev:
		default:
		}
	default:
		slog.Warn("session: event backlog full, dropping", "event", ev.Debug())
	}
}

func (s *Session) shutdown() {
	s.ready.Store(false)

	if err := s.tr.Close(); err != nil {
		slog.Debug("session: transport close", "err", err)
	}

	close(s.done)
}
