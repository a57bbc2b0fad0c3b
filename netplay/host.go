package netplay

import (
	"log/slog"

	"github.com/will-marella/p2pong/game"
	"github.com/will-marella/p2pong/wire"
)

// hostController owns the authoritative ball. It steps real physics and
// decides when the client deserves a fresh sample.
type hostController struct {
	cfg Config

	tick uint64
	seq  uint64

	lastLeft  uint32
	lastRight uint32
	lastOver  bool
}

func newHostController(cfg Config) *hostController {
	return &hostController{cfg: cfg}
}

// advance runs one authoritative tick and publishes whatever the client
// needs to stay converged: BallSync on events and on the backup cadence,
// ScoreSync whenever the score moved.
func (h *hostController) advance(s *game.State, link Link) {
	ev := game.Step(s, game.FixedTimestep)
	h.tick++

	if s.LeftScore != h.lastLeft || s.RightScore != h.lastRight || s.GameOver != h.lastOver {
		h.lastLeft = s.LeftScore
		h.lastRight = s.RightScore
		h.lastOver = s.GameOver

		h.send(link, &wire.ScoreSync{
			Left:     s.LeftScore,
			Right:    s.RightScore,
			GameOver: s.GameOver,
		})
	}

	if ev.Any() || h.tick%h.cfg.BackupSyncInterval == 0 {
		h.sendBallSync(s, link)
	}
}

func (h *hostController) sendBallSync(s *game.State, link Link) {
	h.seq++

	h.send(link, &wire.BallSync{
		Seq: h.seq,
		X:   float32(s.Ball.X),
		Y:   float32(s.Ball.Y),
		VX:  float32(s.Ball.VX),
		VY:  float32(s.Ball.VY),
	})
}

// onRemoteInput applies the client's paddle action. Anything the client
// would not have forwarded is dropped.
func (h *hostController) onRemoteInput(s *game.State, in *wire.Input) {
	a := game.Action(in.Action)

	if !game.RoleClient.Forwards(a) {
		slog.Warn("netplay: dropping remote action outside peer's paddle", "action", a)
		return
	}

	game.Apply(s, a)
}

// reset prepares for a rematch. The sample sequence keeps counting so
// post-rematch samples can never look stale.
func (h *hostController) reset() {
	h.tick = 0
	h.lastLeft = 0
	h.lastRight = 0
	h.lastOver = false
}

func (h *hostController) send(link Link, m wire.Message) {
	if err := link.Send(m); err != nil {
		slog.Debug("netplay: send failed", "msg", m.Debug(), "err", err)
	}
}
