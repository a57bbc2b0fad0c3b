package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepIsDeterministic(t *testing.T) {
	a := NewState()
	b := a.Clone()

	for i := 0; i < 600; i++ {
		evA := Step(a, FixedTimestep)
		evB := Step(b, FixedTimestep)
		assert.Equal(t, evA, evB, "event flags diverged at tick %d", i)
	}

	// Bit-for-bit, not tolerance-bounded: same code, same inputs.
	assert.Equal(t, a, b)
}

func TestWallBounceFlipsVerticalVelocity(t *testing.T) {
	s := NewState()
	s.Ball = Ball{X: FieldWidth / 2, Y: 0.5, VX: 10, VY: -80}

	ev := Step(s, FixedTimestep)

	assert.True(t, ev.WallHit)
	assert.False(t, ev.Goal)
	assert.Greater(t, s.Ball.VY, 0.0, "vy must flip upward off the top wall")
	assert.GreaterOrEqual(t, s.Ball.Y, 0.0)
}

func TestPaddleBounceAngleDependsOnContactOffset(t *testing.T) {
	// Hit the upper half of the left paddle: ball should leave upward.
	s := NewState()
	s.LeftPaddle.Y = 40
	s.Ball = Ball{X: PaddleMargin + PaddleWidth + 0.5, Y: 42, VX: -60, VY: 0}

	ev := Step(s, FixedTimestep)

	require.True(t, ev.PaddleHit)
	assert.Greater(t, s.Ball.VX, 0.0, "ball must reverse horizontally")
	assert.Less(t, s.Ball.VY, 0.0, "upper-half contact deflects upward")

	// Hit the lower half: ball should leave downward.
	s = NewState()
	s.LeftPaddle.Y = 40
	s.Ball = Ball{X: PaddleMargin + PaddleWidth + 0.5, Y: 53, VX: -60, VY: 0}

	ev = Step(s, FixedTimestep)

	require.True(t, ev.PaddleHit)
	assert.Greater(t, s.Ball.VY, 0.0, "lower-half contact deflects downward")
}

func TestPaddleBounceSpeedsBallUpToCap(t *testing.T) {
	s := NewState()
	s.LeftPaddle.Y = 40
	s.Ball = Ball{X: PaddleMargin + PaddleWidth + 0.5, Y: 47.5, VX: -MaxBallSpeed, VY: 0}

	ev := Step(s, FixedTimestep)

	require.True(t, ev.PaddleHit)
	speed := s.Ball.VX*s.Ball.VX + s.Ball.VY*s.Ball.VY
	assert.LessOrEqual(t, speed, MaxBallSpeed*MaxBallSpeed+1e-6)
}

func TestGoalScoresAndRecenters(t *testing.T) {
	s := NewState()
	// Past the right paddle, about to cross the right boundary.
	s.Ball = Ball{X: FieldWidth - 0.5, Y: 90, VX: 120, VY: 0}
	s.RightPaddle.Y = 0

	ev := Step(s, FixedTimestep)

	require.True(t, ev.Goal)
	assert.Equal(t, uint32(1), s.LeftScore)
	assert.Equal(t, uint32(0), s.RightScore)
	assert.Equal(t, FieldWidth/2, s.Ball.X)
	assert.Equal(t, FieldHeight/2, s.Ball.Y)
}

func TestServeRotationAlternatesInPairs(t *testing.T) {
	s := NewState()

	// Serve directions for serve counts 0..6: left, right, right, left, left, right, right.
	want := []bool{true, false, false, true, true, false, false}

	for i, left := range want {
		s.ServeCount = uint8(i)
		s.ResetBall()
		if left {
			assert.Negative(t, s.Ball.VX, "serve %d should go left", i)
		} else {
			assert.Positive(t, s.Ball.VX, "serve %d should go right", i)
		}
	}
}

func TestFifthGoalEndsTheGame(t *testing.T) {
	s := NewState()
	s.LeftScore = WinningScore - 1

	s.Ball = Ball{X: FieldWidth - 0.5, Y: 90, VX: 120, VY: 0}
	s.RightPaddle.Y = 0

	ev := Step(s, FixedTimestep)

	require.True(t, ev.Goal)
	assert.True(t, s.GameOver)
	assert.Equal(t, PlayerLeft, s.Winner)

	// A finished game does not move.
	before := *s
	ev = Step(s, FixedTimestep)
	assert.False(t, ev.Any())
	assert.Equal(t, &before, s)
}

func TestStepWithoutContactLeavesPaddlesAlone(t *testing.T) {
	s := NewState()
	l, r := s.LeftPaddle, s.RightPaddle

	for i := 0; i < 60; i++ {
		Step(s, FixedTimestep)
	}

	assert.Equal(t, l, s.LeftPaddle)
	assert.Equal(t, r, s.RightPaddle)
}
