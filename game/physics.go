package game

import "math"

// Events reports what one tick of physics did. Ephemeral; produced and
// consumed within a single tick.
type Events struct {
	PaddleHit bool
	WallHit   bool
	Goal      bool
}

func (e Events) Any() bool {
	return e.PaddleHit || e.WallHit || e.Goal
}

// Maximum bounce deflection off a paddle, ±60° from horizontal.
const maxBounceAngle = math.Pi / 3

// Step advances the simulation by dt seconds.
//
// Deterministic: identical (state, dt) pairs produce identical output, on
// this process or any other. No wall clock, no randomness.
func Step(s *State, dt float64) Events {
	var ev Events

	if s.GameOver {
		return ev
	}

	s.Ball.X += s.Ball.VX * dt
	s.Ball.Y += s.Ball.VY * dt

	// Wall bounce: clamp and flip vertical velocity.
	if s.Ball.Y <= 0 {
		s.Ball.Y = 0
		s.Ball.VY = math.Abs(s.Ball.VY)
		ev.WallHit = true
	} else if s.Ball.Y >= FieldHeight {
		s.Ball.Y = FieldHeight
		s.Ball.VY = -math.Abs(s.Ball.VY)
		ev.WallHit = true
	}

	if collidePaddles(s) {
		ev.PaddleHit = true
	}

	// Goals. Ball recenters, serve rotation decides direction,
	// five goals ends the match.
	if s.Ball.X <= 0 {
		ev.Goal = true
		s.RightScore++
		if s.RightScore >= WinningScore {
			s.GameOver = true
			s.Winner = PlayerRight
		} else {
			s.ResetBall()
		}
	} else if s.Ball.X >= FieldWidth {
		ev.Goal = true
		s.LeftScore++
		if s.LeftScore >= WinningScore {
			s.GameOver = true
			s.Winner = PlayerLeft
		} else {
			s.ResetBall()
		}
	}

	return ev
}

func collidePaddles(s *State) bool {
	leftEdge := PaddleMargin + PaddleWidth
	if s.Ball.X <= leftEdge && s.Ball.X >= PaddleMargin &&
		s.Ball.Y >= s.LeftPaddle.Y && s.Ball.Y <= s.LeftPaddle.Y+PaddleHeight {
		bounceOffPaddle(&s.Ball, s.LeftPaddle.Y, true)
		s.Ball.X = leftEdge
		return true
	}

	rightEdge := FieldWidth - PaddleMargin - PaddleWidth
	if s.Ball.X >= rightEdge && s.Ball.X <= FieldWidth-PaddleMargin &&
		s.Ball.Y >= s.RightPaddle.Y && s.Ball.Y <= s.RightPaddle.Y+PaddleHeight {
		bounceOffPaddle(&s.Ball, s.RightPaddle.Y, false)
		s.Ball.X = rightEdge
		return true
	}

	return false
}

// bounceOffPaddle deflects by contact offset rather than fixed reflection:
// center hits go straight, edge hits leave at up to ±60°.
func bounceOffPaddle(b *Ball, paddleY float64, fromLeft bool) {
	hitPos := (b.Y - paddleY) / PaddleHeight

	angle := (hitPos - 0.5) * 2 * maxBounceAngle

	speed := math.Sqrt(b.VX*b.VX+b.VY*b.VY) * SpeedMultiplier
	if speed > MaxBallSpeed {
		speed = MaxBallSpeed
	}

	if fromLeft {
		b.VX = math.Cos(angle) * speed
	} else {
		b.VX = -math.Cos(angle) * speed
	}
	b.VY = math.Sin(angle) * speed
}
