// Package netplay runs the real-time loop of a match: fixed-timestep
// simulation, host-authoritative ball sync, client prediction with
// reconciliation, and the small end-of-match handshakes.
package netplay

import (
	"fmt"
	"strings"
	"time"

	"github.com/will-marella/p2pong/game"
	"github.com/will-marella/p2pong/session"
	"github.com/will-marella/p2pong/wire"
)

// Policy selects how a client folds an authoritative ball sample into its
// predicted state.
type Policy uint8

const (
	// PolicySnap adopts the authoritative position verbatim.
	PolicySnap = Policy(iota)

	// PolicyBlend moves a fraction toward the authoritative position per
	// sample, unless the error exceeds the snap threshold.
	PolicyBlend
)

func (p Policy) String() string {
	switch p {
	case PolicySnap:
		return "snap"
	case PolicyBlend:
		return "blend"
	default:
		return "unknown"
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "snap":
		return PolicySnap, nil
	case "blend":
		return PolicyBlend, nil
	default:
		return PolicySnap, fmt.Errorf("unknown reconcile policy %q", s)
	}
}

type Config struct {
	// BackupSyncInterval is how many quiet ticks the host lets pass before
	// sending a BallSync anyway. Event ticks always send.
	BackupSyncInterval uint64

	// SnapThreshold is the prediction error, in virtual units, beyond which
	// PolicyBlend gives up and snaps.
	SnapThreshold float64

	// CorrectionAlpha is PolicyBlend's per-sample correction fraction.
	CorrectionAlpha float64

	Reconcile Policy

	// PingInterval paces RTT probes.
	PingInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.BackupSyncInterval == 0 {
		c.BackupSyncInterval = 5
	}
	if c.SnapThreshold == 0 {
		c.SnapThreshold = 10
	}
	if c.CorrectionAlpha == 0 {
		c.CorrectionAlpha = 0.3
	}
	if c.PingInterval == 0 {
		c.PingInterval = time.Second
	}
	return c
}

// Link is the slice of a session the loop needs. *session.Session satisfies
// it; tests substitute a scripted one.
type Link interface {
	NextEvent() (session.Event, bool)
	Send(m wire.Message) error
}

var _ Link = (*session.Session)(nil)

// InputSource yields the actions a player produced since the last poll.
// Non-blocking.
type InputSource interface {
	Poll() []game.Action
}

// FrameSink receives one rendered-ready state per tick.
type FrameSink interface {
	Frame(s *game.State, rtt time.Duration)
}

// Opponent drives the right paddle in solo matches, one decision per tick.
// bot.Bot satisfies it.
type Opponent interface {
	Act(s *game.State, now time.Time) (game.Action, bool)
	Reset()
}

// noopLink backs local two-player matches; nothing travels.
type noopLink struct{}

func (noopLink) NextEvent() (session.Event, bool) { return nil, false }
func (noopLink) Send(wire.Message) error          { return nil }
