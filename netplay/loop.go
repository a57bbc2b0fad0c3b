package netplay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/will-marella/p2pong/game"
	"github.com/will-marella/p2pong/session"
	"github.com/will-marella/p2pong/wire"
)

// Loop drives one match at the fixed timestep. It is the sole owner of the
// game state; session traffic and player input only reach the state through
// its tick.
type Loop struct {
	role game.Role
	link Link
	in   InputSource
	out  FrameSink
	cfg  Config

	state *game.State

	host   *hostController
	client *clientController

	// opp plays the right paddle in solo matches.
	opp Opponent

	// offline matches skip the rematch handshake; there is no peer to agree
	// with.
	offline bool

	rtt time.Duration

	localRematch  bool
	remoteRematch bool

	finished bool
	runErr   error
}

// New builds a loop for a networked match. The link's session must already
// be ready.
func New(role game.Role, link Link, in InputSource, out FrameSink, cfg Config) *Loop {
	cfg = cfg.withDefaults()

	l := &Loop{
		role:  role,
		link:  link,
		in:    in,
		out:   out,
		cfg:   cfg,
		state: game.NewState(),
	}

	if role == game.RoleClient {
		l.client = newClientController(cfg)
	} else {
		l.host = newHostController(cfg)
	}

	return l
}

// NewLocal builds a loop for a same-keyboard two-player match.
func NewLocal(in InputSource, out FrameSink, cfg Config) *Loop {
	l := New(game.RoleLocal, noopLink{}, in, out, cfg)
	l.offline = true
	return l
}

// NewSolo builds a loop for a single-player match against a computer
// opponent. The player owns the left paddle, the opponent the right.
func NewSolo(in InputSource, opp Opponent, out FrameSink, cfg Config) *Loop {
	l := New(game.RoleHost, noopLink{}, in, out, cfg)
	l.opp = opp
	l.offline = true
	return l
}

// Run ticks the match until it ends: a quit, a peer disconnect, a fatal
// session error, or ctx cancellation. A cleanly ended match returns nil.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	pings := time.NewTicker(l.cfg.PingInterval)
	defer pings.Stop()

	slog.Info("netplay: match starting", "role", l.role)

	for {
		select {
		case <-ctx.Done():
			// Best effort; the peer finds out either way.
			l.send(&wire.QuitNotice{})
			return ctx.Err()

		case <-pings.C:
			if l.role != game.RoleLocal {
				l.send(&wire.Ping{TimestampMS: nowMS()})
			}

		case <-ticker.C:
			l.drainSession()
			if !l.finished {
				l.pollInput()
			}
			if l.finished {
				slog.Info("netplay: match over", "err", l.runErr)
				return l.runErr
			}

			l.step()
			l.out.Frame(l.state, l.rtt)
		}
	}
}

func (l *Loop) step() {
	if l.opp != nil && !l.state.GameOver {
		if a, ok := l.opp.Act(l.state, time.Now()); ok && game.RoleClient.Forwards(a) {
			game.Apply(l.state, a)
		}
	}

	if l.client != nil {
		l.client.advance(l.state)
		return
	}
	l.host.advance(l.state, l.link)
}

func (l *Loop) drainSession() {
	for {
		ev, ok := l.link.NextEvent()
		if !ok {
			return
		}

		switch e := ev.(type) {
		case session.Message:
			l.handleMessage(e.Msg)

		case session.Disconnected:
			slog.Info("netplay: peer left")
			l.finish(nil)

		case session.Fatal:
			l.finish(fmt.Errorf("session failed: %w", e.Err))

		case session.Connected:
			slog.Debug("netplay: session connected mid-match", "peer", e.Peer)

		default:
			slog.Warn("netplay: unknown session event", "event", ev.Debug())
		}

		if l.finished {
			return
		}
	}
}

func (l *Loop) handleMessage(m wire.Message) {
	switch msg := m.(type) {
	case *wire.Input:
		if l.client != nil {
			l.client.onRemoteInput(l.state, msg)
		} else {
			l.host.onRemoteInput(l.state, msg)
		}

	case *wire.BallSync:
		if l.client == nil {
			slog.Warn("netplay: ignoring ball sample, we are authoritative")
			return
		}
		l.client.onBallSync(l.state, msg)

	case *wire.ScoreSync:
		if l.client == nil {
			slog.Warn("netplay: ignoring score sync, we are authoritative")
			return
		}
		l.client.onScoreSync(l.state, msg)

	case *wire.Ping:
		l.send(&wire.Pong{TimestampMS: msg.TimestampMS})

	case *wire.Pong:
		if now := nowMS(); now >= msg.TimestampMS {
			l.rtt = time.Duration(now-msg.TimestampMS) * time.Millisecond
		}

	case *wire.RematchRequest:
		l.remoteRematch = true
		if l.localRematch {
			l.send(&wire.RematchConfirm{})
			l.restart()
		}

	case *wire.RematchConfirm:
		l.restart()

	case *wire.QuitNotice:
		slog.Info("netplay: peer quit")
		l.finish(nil)

	default:
		slog.Warn("netplay: unhandled message", "msg", m.Debug())
	}
}

func (l *Loop) pollInput() {
	for _, a := range l.in.Poll() {
		if !l.role.Allows(a) {
			slog.Debug("netplay: dropping action for unowned paddle", "action", a)
			continue
		}

		switch a {
		case game.ActionQuit:
			l.send(&wire.QuitNotice{})
			l.finish(nil)
			return

		case game.ActionRematch:
			l.requestRematch()

		default:
			game.Apply(l.state, a)
			if l.role.Forwards(a) {
				l.send(&wire.Input{Action: uint8(a)})
			}
		}
	}
}

func (l *Loop) requestRematch() {
	if !l.state.GameOver || l.localRematch {
		return
	}

	if l.offline {
		l.restart()
		return
	}

	l.localRematch = true

	if l.remoteRematch {
		l.send(&wire.RematchConfirm{})
		l.restart()
		return
	}

	l.send(&wire.RematchRequest{})
	slog.Info("netplay: rematch requested, waiting for peer")
}

func (l *Loop) restart() {
	slog.Info("netplay: rematch")

	l.state.ResetGame()
	l.localRematch = false
	l.remoteRematch = false

	if l.opp != nil {
		l.opp.Reset()
	}

	if l.client != nil {
		l.client.reset()
		return
	}

	l.host.reset()
	if !l.offline {
		// Announce the fresh score right away; a client that missed the
		// confirm would otherwise sit on its game-over screen until the
		// next goal.
		l.send(&wire.ScoreSync{})
	}
}

func (l *Loop) finish(err error) {
	if l.finished {
		return
	}
	l.finished = true
	l.runErr = err
}

func (l *Loop) send(m wire.Message) {
	if err := l.link.Send(m); err != nil {
		slog.Debug("netplay: send failed", "msg", m.Debug(), "err", err)
	}
}

func nowMS() uint64 {
	return uint64(time.Now().UnixMilli())
}
