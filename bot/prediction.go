package bot

import (
	"math"

	"github.com/will-marella/p2pong/game"
)

// InterceptY predicts where the ball will cross paddleX, folding top and
// bottom wall bounces by reflection. Reports false when the ball is moving
// away from the paddle or is horizontally stalled.
func InterceptY(b game.Ball, paddleX float64) (float64, bool) {
	movingRight := b.VX > 0
	movingLeft := b.VX < 0

	if (paddleX > b.X && movingLeft) || (paddleX < b.X && movingRight) {
		return 0, false
	}

	if math.Abs(b.VX) < 0.01 {
		return 0, false
	}

	t := (paddleX - b.X) / b.VX
	if t < 0 {
		return 0, false
	}

	y := b.Y + b.VY*t

	// Fold out-of-bounds travel back into the field. Steep angles can need
	// several reflections; bounded so a degenerate input cannot spin.
	for i := 0; i < 10; i++ {
		if y >= 0 && y <= game.FieldHeight {
			break
		}
		if y < 0 {
			y = -y
		} else {
			y = 2*game.FieldHeight - y
		}
	}

	return math.Min(math.Max(y, 0), game.FieldHeight), true
}

// rightPaddleX is the plane the bots predict against: the face of the right
// paddle.
func rightPaddleX() float64 {
	return game.FieldWidth - game.PaddleMargin - game.PaddleWidth/2
}
