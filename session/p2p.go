package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strings"
	"sync"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/event"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/protocol/circuitv2/client"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

// GameTopic is the pubsub topic both peers of a match subscribe to.
const GameTopic = "p2pong/1.0.0"

const transportBacklog = 256

type P2PConfig struct {
	// ListenPort is the TCP port to accept direct connections on.
	// Zero picks an ephemeral port (typical for the dialing side).
	ListenPort uint16

	// Relay is the multiaddr (with /p2p/ suffix) of the rendezvous relay.
	Relay string

	// Topic overrides GameTopic; tests use it to isolate matches.
	Topic string
}

// P2P adapts a libp2p host to the Transport contract: gossipsub carries game
// messages, the relay provides the initial rendezvous path, and the built-in
// hole punching service performs the direct upgrade.
type P2P struct {
	cfg P2PConfig

	h  host.Host
	ps *pubsub.PubSub

	topic *pubsub.Topic
	sub   *pubsub.Subscription

	relayID peer.ID

	events chan TransportEvent

	mu        sync.Mutex
	gamePeer  peer.ID
	extra     map[string]ma.Multiaddr // advertised external candidates
	observed  map[netip.AddrPort]bool // already-reported observations
	listening bool
}

var _ Transport = (*P2P)(nil)

// NewP2P builds the libp2p host. The host starts listening immediately;
// pubsub and relay wiring happen in Listen.
func NewP2P(cfg P2PConfig) (*P2P, error) {
	if cfg.Topic == "" {
		cfg.Topic = GameTopic
	}

	p := &P2P{
		cfg:      cfg,
		events:   make(chan TransportEvent, transportBacklog),
		extra:    make(map[string]ma.Multiaddr),
		observed: make(map[netip.AddrPort]bool),
	}

	if cfg.Relay != "" {
		relayInfo, err := relayAddrInfo(cfg.Relay)
		if err != nil {
			return nil, fmt.Errorf("bad relay locator: %w", err)
		}
		p.relayID = relayInfo.ID
	}

	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating identity: %w", err)
	}

	h, err := libp2p.New(
		libp2p.Identity(priv),
		libp2p.ListenAddrStrings(fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", cfg.ListenPort)),
		libp2p.EnableRelay(),
		libp2p.EnableHolePunching(),
		libp2p.NATPortMap(),
		libp2p.AddrsFactory(p.addrsFactory),
		libp2p.UserAgent("p2pong"),
	)
	if err != nil {
		return nil, fmt.Errorf("building host: %w", err)
	}

	p.h = h

	slog.Info("p2p: host up", "id", h.ID(), "addrs", h.Addrs())

	return p, nil
}

func (p *P2P) Listen(ctx context.Context) error {
	p.mu.Lock()
	if p.listening {
		p.mu.Unlock()
		return errors.New("already listening")
	}
	p.listening = true
	p.mu.Unlock()

	ps, err := pubsub.NewGossipSub(ctx, p.h)
	if err != nil {
		return fmt.Errorf("starting gossipsub: %w", err)
	}
	p.ps = ps

	topic, err := ps.Join(p.cfg.Topic)
	if err != nil {
		return fmt.Errorf("joining topic: %w", err)
	}
	p.topic = topic

	sub, err := topic.Subscribe()
	if err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}
	p.sub = sub

	p.h.Network().Notify(&network.NotifyBundle{
		ConnectedF:    p.onConnected,
		DisconnectedF: p.onDisconnected,
	})

	if err := p.watchAddresses(ctx); err != nil {
		return err
	}

	go p.readLoop(ctx)

	if p.cfg.Relay != "" {
		if err := p.attachRelay(ctx); err != nil {
			return err
		}
	}

	return nil
}

// attachRelay connects to the rendezvous relay and reserves a slot, so the
// remote side can reach us at <relay>/p2p-circuit/p2p/<us>.
func (p *P2P) attachRelay(ctx context.Context) error {
	info, err := relayAddrInfo(p.cfg.Relay)
	if err != nil {
		return err
	}

	if err := p.h.Connect(ctx, *info); err != nil {
		return fmt.Errorf("connecting to relay: %w", err)
	}

	slog.Info("p2p: connected to relay", "relay", info.ID)

	rsv, err := client.Reserve(ctx, p.h, *info)
	if err != nil {
		return fmt.Errorf("relay reservation: %w", err)
	}

	slog.Info("p2p: relay reservation", "expires", rsv.Expiration)

	return nil
}

func (p *P2P) Dial(ctx context.Context, locator string) error {
	info, err := p.resolveLocator(locator)
	if err != nil {
		return err
	}

	if err := p.h.Connect(ctx, *info); err != nil {
		return fmt.Errorf("connecting to %s: %w", info.ID, err)
	}

	return nil
}

// resolveLocator accepts either a full multiaddr or a bare peer ID that is
// reached through the configured relay's circuit.
func (p *P2P) resolveLocator(locator string) (*peer.AddrInfo, error) {
	locator = strings.TrimSpace(locator)

	if strings.HasPrefix(locator, "/") {
		m, err := ma.NewMultiaddr(locator)
		if err != nil {
			return nil, fmt.Errorf("bad peer locator: %w", err)
		}
		return peer.AddrInfoFromP2pAddr(m)
	}

	// Bare peer ID: rendezvous through the relay circuit.
	if p.cfg.Relay == "" {
		return nil, errors.New("bare peer id requires a configured relay")
	}

	pid, err := peer.Decode(locator)
	if err != nil {
		return nil, fmt.Errorf("bad peer id: %w", err)
	}

	circuit, err := ma.NewMultiaddr(fmt.Sprintf("%s/p2p-circuit", p.cfg.Relay))
	if err != nil {
		return nil, fmt.Errorf("bad relay circuit addr: %w", err)
	}

	return &peer.AddrInfo{ID: pid, Addrs: []ma.Multiaddr{circuit}}, nil
}

func (p *P2P) Publish(ctx context.Context, pkt []byte) error {
	return p.topic.Publish(ctx, pkt)
}

func (p *P2P) AddExternalCandidate(ap netip.AddrPort) {
	m, err := ma.NewMultiaddr(fmt.Sprintf("/ip4/%s/tcp/%d", ap.Addr(), ap.Port()))
	if err != nil {
		slog.Warn("p2p: unusable external candidate", "addr", ap, "err", err)
		return
	}

	p.mu.Lock()
	p.extra[m.String()] = m
	p.mu.Unlock()

	// Identify pushes the new address set to connected peers; the hole
	// punch service picks it up from there.
	slog.Info("p2p: advertising external candidate", "addr", ap)
}

// addrsFactory appends registered external candidates to the host's
// advertised address set.
func (p *P2P) addrsFactory(addrs []ma.Multiaddr) []ma.Multiaddr {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]ma.Multiaddr, 0, len(addrs)+len(p.extra))
	seen := make(map[string]bool, len(addrs))

	for _, a := range addrs {
		out = append(out, a)
		seen[a.String()] = true
	}
	for s, a := range p.extra {
		if !seen[s] {
			out = append(out, a)
		}
	}

	return out
}

func (p *P2P) CloseRelayPath() {
	gp := p.currentGamePeer()
	if gp == "" {
		return
	}

	for _, c := range p.h.Network().ConnsToPeer(gp) {
		if isCircuit(c.RemoteMultiaddr()) {
			slog.Debug("p2p: closing relayed path", "peer", gp)
			if err := c.Close(); err != nil {
				slog.Debug("p2p: closing relayed path", "err", err)
			}
		}
	}
}

func (p *P2P) Locator() string {
	if p.cfg.Relay != "" {
		return fmt.Sprintf("%s/p2p-circuit/p2p/%s", p.cfg.Relay, p.h.ID())
	}

	addrs := p.h.Addrs()
	if len(addrs) == 0 {
		return p.h.ID().String()
	}

	return fmt.Sprintf("%s/p2p/%s", addrs[0], p.h.ID())
}

// ID returns the bare peer identifier, shareable when both sides use the
// same relay.
func (p *P2P) ID() string {
	return p.h.ID().String()
}

func (p *P2P) Events() <-chan TransportEvent {
	return p.events
}

func (p *P2P) Close() error {
	if p.sub != nil {
		p.sub.Cancel()
	}
	if p.topic != nil {
		if err := p.topic.Close(); err != nil {
			slog.Debug("p2p: topic close", "err", err)
		}
	}

	return p.h.Close()
}

// onConnected classifies every new connection: the relay itself is
// infrastructure, anything else is the game peer, over a circuit or direct.
func (p *P2P) onConnected(_ network.Network, c network.Conn) {
	remote := c.RemotePeer()

	if remote == p.relayID {
		return
	}

	relayed := isCircuit(c.RemoteMultiaddr())

	p.mu.Lock()
	p.gamePeer = remote
	p.mu.Unlock()

	p.emit(PeerConnected{Peer: remote.String(), Relayed: relayed})
}

func (p *P2P) onDisconnected(n network.Network, c network.Conn) {
	remote := c.RemotePeer()

	if remote == p.relayID || remote != p.currentGamePeer() {
		return
	}

	// Only the loss of the last path counts; tearing down the relay
	// circuit after a direct upgrade must stay silent.
	if n.Connectedness(remote) == network.Connected {
		return
	}

	p.emit(PeerDisconnected{Peer: remote.String()})
}

// watchAddresses surfaces externally-observed addresses from the host's
// event bus as AddressObserved transport events.
func (p *P2P) watchAddresses(ctx context.Context) error {
	sub, err := p.h.EventBus().Subscribe(new(event.EvtLocalAddressesUpdated))
	if err != nil {
		return fmt.Errorf("subscribing to address events: %w", err)
	}

	go func() {
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-sub.Out():
				if !ok {
					return
				}

				evt := e.(event.EvtLocalAddressesUpdated)
				for _, ua := range evt.Current {
					p.maybeReportObserved(ua.Address)
				}
			}
		}
	}()

	return nil
}

func (p *P2P) maybeReportObserved(a ma.Multiaddr) {
	if isCircuit(a) || !manet.IsPublicAddr(a) {
		return
	}

	ap, ok := multiaddrToAddrPort(a)
	if !ok {
		return
	}

	p.mu.Lock()
	dup := p.observed[ap]
	p.observed[ap] = true
	p.mu.Unlock()

	if dup {
		return
	}

	p.emit(AddressObserved{Addr: ap})
}

func (p *P2P) readLoop(ctx context.Context) {
	for {
		msg, err := p.sub.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.emit(TransportError{Err: fmt.Errorf("message stream: %w", err)})
			}
			return
		}

		if msg.ReceivedFrom == p.h.ID() {
			continue
		}

		p.emit(Payload{From: msg.ReceivedFrom.String(), Pkt: msg.Data})
	}
}

func (p *P2P) currentGamePeer() peer.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gamePeer
}

func (p *P2P) emit(ev TransportEvent) {
	select {
	case p.events <- ev:
	default:
		slog.Warn("p2p: event backlog full, dropping", "event", ev.Debug())
	}
}

func relayAddrInfo(locator string) (*peer.AddrInfo, error) {
	m, err := ma.NewMultiaddr(locator)
	if err != nil {
		return nil, err
	}

	return peer.AddrInfoFromP2pAddr(m)
}

func isCircuit(a ma.Multiaddr) bool {
	if a == nil {
		return false
	}

	_, err := a.ValueForProtocol(ma.P_CIRCUIT)
	return err == nil
}

func multiaddrToAddrPort(a ma.Multiaddr) (netip.AddrPort, bool) {
	na, err := manet.ToNetAddr(a)
	if err != nil {
		return netip.AddrPort{}, false
	}

	switch ta := na.(type) {
	case *net.TCPAddr:
		return ta.AddrPort(), true
	case *net.UDPAddr:
		return ta.AddrPort(), true
	default:
		return netip.AddrPort{}, false
	}
}
