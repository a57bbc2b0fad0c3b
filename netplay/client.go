package netplay

import (
	"log/slog"
	"math"

	"github.com/will-marella/p2pong/game"
	"github.com/will-marella/p2pong/wire"
)

// clientController predicts the host's simulation between authoritative
// samples and reconciles when they arrive. It never scores: score and
// game-over travel only by ScoreSync.
type clientController struct {
	cfg Config

	lastSeq uint64
}

func newClientController(cfg Config) *clientController {
	return &clientController{cfg: cfg}
}

// advance runs one predicted tick. The same physics as the host, but any
// locally-simulated scoring is discarded; ScoreSync is the only authority.
func (c *clientController) advance(s *game.State) {
	left, right := s.LeftScore, s.RightScore
	over, winner := s.GameOver, s.Winner
	serves := s.ServeCount

	game.Step(s, game.FixedTimestep)

	s.LeftScore, s.RightScore = left, right
	s.GameOver, s.Winner = over, winner
	s.ServeCount = serves
}

// onBallSync reconciles the predicted ball against an authoritative sample.
// Stale samples are dropped by sequence; velocity is always adopted so
// prediction continues on the host's trajectory.
func (c *clientController) onBallSync(s *game.State, bs *wire.BallSync) {
	if bs.Seq <= c.lastSeq {
		slog.Debug("netplay: dropping stale ball sample", "seq", bs.Seq, "have", c.lastSeq)
		return
	}
	c.lastSeq = bs.Seq

	ax, ay := float64(bs.X), float64(bs.Y)

	dx := ax - s.Ball.X
	dy := ay - s.Ball.Y
	errDist := math.Hypot(dx, dy)

	switch {
	case c.cfg.Reconcile == PolicySnap, errDist > c.cfg.SnapThreshold:
		s.Ball.X = ax
		s.Ball.Y = ay
	default:
		s.Ball.X += dx * c.cfg.CorrectionAlpha
		s.Ball.Y += dy * c.cfg.CorrectionAlpha
	}

	s.Ball.VX = float64(bs.VX)
	s.Ball.VY = float64(bs.VY)
}

// onScoreSync applies the authoritative score unconditionally. The winner is
// whoever holds the higher score when the host declares the match over.
func (c *clientController) onScoreSync(s *game.State, sc *wire.ScoreSync) {
	s.LeftScore = sc.Left
	s.RightScore = sc.Right
	s.GameOver = sc.GameOver

	if !sc.GameOver {
		s.Winner = game.NoPlayer
		return
	}

	if sc.Left > sc.Right {
		s.Winner = game.PlayerLeft
	} else {
		s.Winner = game.PlayerRight
	}
}

// onRemoteInput applies the host's paddle action.
func (c *clientController) onRemoteInput(s *game.State, in *wire.Input) {
	a := game.Action(in.Action)

	if !game.RoleHost.Forwards(a) {
		slog.Warn("netplay: dropping remote action outside peer's paddle", "action", a)
		return
	}

	game.Apply(s, a)
}

func (c *clientController) reset() {
	// lastSeq survives: the host's sequence keeps counting across
	// rematches, and resetting here would let pre-rematch stragglers in.
}
