package bot

import (
	"math"
	"time"

	"github.com/will-marella/p2pong/game"
)

// Backboard tracks the incoming ball instantly and recenters when it moves
// away. No errors, no delays; a training wall, not an opponent.
type Backboard struct {
	threshold float64
}

func NewBackboard() *Backboard {
	return &Backboard{threshold: 5}
}

func (b *Backboard) Act(s *game.State, _ time.Time) (game.Action, bool) {
	center := s.RightPaddle.Y + game.PaddleHeight/2

	target := game.FieldHeight / 2.0
	if s.Ball.VX > 0 {
		target = s.Ball.Y
	}

	diff := target - center
	if math.Abs(diff) < b.threshold {
		return 0, false
	}

	if diff > 0 {
		return game.ActionRightDown, true
	}
	return game.ActionRightUp, true
}

func (b *Backboard) Reset() {}

func (b *Backboard) Name() string { return "backboard" }
