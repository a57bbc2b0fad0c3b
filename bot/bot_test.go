package bot

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/will-marella/p2pong/game"
)

func TestInterceptStraight(t *testing.T) {
	b := game.Ball{X: 100, Y: 50, VX: 60, VY: 0}

	y, ok := InterceptY(b, rightPaddleX())

	require.True(t, ok)
	assert.InDelta(t, 50, y, 1e-9)
}

func TestInterceptAngled(t *testing.T) {
	b := game.Ball{X: 100, Y: 50, VX: 60, VY: 20}

	y, ok := InterceptY(b, rightPaddleX())

	// t = (196-100)/60 = 1.6s, y = 50 + 20*1.6 = 82, no wall in the way.
	require.True(t, ok)
	assert.InDelta(t, 82, y, 1e-9)
}

func TestInterceptFoldsTopBounce(t *testing.T) {
	b := game.Ball{X: 100, Y: 90, VX: 60, VY: 20}

	y, ok := InterceptY(b, rightPaddleX())

	// Unfolded y = 122; reflecting off the top wall gives 2*100-122 = 78.
	require.True(t, ok)
	assert.InDelta(t, 78, y, 1e-9)
}

func TestInterceptFoldsBottomBounce(t *testing.T) {
	b := game.Ball{X: 100, Y: 10, VX: 60, VY: -20}

	y, ok := InterceptY(b, rightPaddleX())

	// Unfolded y = -22; reflecting off the bottom wall gives 22.
	require.True(t, ok)
	assert.InDelta(t, 22, y, 1e-9)
}

func TestInterceptSteepAngleStaysInBounds(t *testing.T) {
	b := game.Ball{X: 20, Y: 50, VX: 20, VY: 250}

	y, ok := InterceptY(b, rightPaddleX())

	require.True(t, ok)
	assert.GreaterOrEqual(t, y, 0.0)
	assert.LessOrEqual(t, y, game.FieldHeight)
}

func TestInterceptBallMovingAway(t *testing.T) {
	_, ok := InterceptY(game.Ball{X: 100, Y: 50, VX: -60}, rightPaddleX())
	assert.False(t, ok)

	_, ok = InterceptY(game.Ball{X: 100, Y: 50, VX: 60}, game.PaddleMargin+game.PaddleWidth/2)
	assert.False(t, ok)
}

func TestInterceptStalledBall(t *testing.T) {
	_, ok := InterceptY(game.Ball{X: 100, Y: 50, VX: 0, VY: 30}, rightPaddleX())
	assert.False(t, ok)
}

func TestBackboardTracksIncomingBall(t *testing.T) {
	b := NewBackboard()
	s := game.NewState()
	s.Ball = game.Ball{X: 100, Y: 90, VX: 60, VY: 0}

	a, ok := b.Act(s, time.Now())

	require.True(t, ok)
	assert.Equal(t, game.ActionRightDown, a)

	s.Ball.Y = 5
	a, ok = b.Act(s, time.Now())
	require.True(t, ok)
	assert.Equal(t, game.ActionRightUp, a)
}

func TestBackboardRecentersOnOutgoingBall(t *testing.T) {
	b := NewBackboard()
	s := game.NewState()
	s.Ball = game.Ball{X: 100, Y: 90, VX: -60, VY: 0}
	s.RightPaddle.Y = 0

	a, ok := b.Act(s, time.Now())

	require.True(t, ok)
	assert.Equal(t, game.ActionRightDown, a)
}

func TestBackboardDeadZone(t *testing.T) {
	b := NewBackboard()
	s := game.NewState()

	// Ball incoming straight at the paddle center: nothing to do.
	s.Ball = game.Ball{X: 100, Y: s.RightPaddle.Y + game.PaddleHeight/2, VX: 60}

	_, ok := b.Act(s, time.Now())
	assert.False(t, ok)
}

func perfectProfile() Profile {
	return Profile{
		Name:               "perfect",
		ErrorStddev:        0,
		MissRate:           0,
		ReactionDelay:      50 * time.Millisecond,
		PredictionInterval: 50 * time.Millisecond,
		MovementThreshold:  1,
	}
}

func TestPredictiveChasesIntercept(t *testing.T) {
	p := NewPredictive(perfectProfile(), rand.New(rand.NewSource(1)))

	s := game.NewState()
	s.Ball = game.Ball{X: 100, Y: 90, VX: 60, VY: 0}
	s.RightPaddle.Y = 0

	a, ok := p.Act(s, time.Now())

	require.True(t, ok)
	assert.Equal(t, game.ActionRightDown, a)
}

func TestPredictiveReactionDelayPacesActions(t *testing.T) {
	p := NewPredictive(perfectProfile(), rand.New(rand.NewSource(1)))

	s := game.NewState()
	s.Ball = game.Ball{X: 100, Y: 90, VX: 60, VY: 0}
	s.RightPaddle.Y = 0

	now := time.Now()
	_, ok := p.Act(s, now)
	require.True(t, ok)

	// Within the delay window nothing more happens.
	_, ok = p.Act(s, now.Add(10*time.Millisecond))
	assert.False(t, ok)

	_, ok = p.Act(s, now.Add(60*time.Millisecond))
	assert.True(t, ok)
}

func TestPredictiveWhiffRecenters(t *testing.T) {
	prof := perfectProfile()
	prof.MissRate = 1 // every shot is abandoned
	p := NewPredictive(prof, rand.New(rand.NewSource(1)))

	s := game.NewState()
	s.Ball = game.Ball{X: 100, Y: 90, VX: 60, VY: 0}
	s.RightPaddle.Y = 0

	// The paddle heads for the center, not the incoming ball.
	a, ok := p.Act(s, time.Now())
	require.True(t, ok)
	assert.Equal(t, game.ActionRightDown, a)

	s.RightPaddle.Y = game.FieldHeight/2 - game.PaddleHeight/2
	p.Reset()
	_, ok = p.Act(s, time.Now())
	assert.False(t, ok)
}

func TestPredictiveIgnoresOutgoingBall(t *testing.T) {
	p := NewPredictive(perfectProfile(), rand.New(rand.NewSource(1)))

	s := game.NewState()
	s.Ball = game.Ball{X: 100, Y: 90, VX: -60, VY: 0}
	s.RightPaddle.Y = game.FieldHeight/2 - game.PaddleHeight/2

	// Outgoing ball, paddle already centered: nothing to do.
	_, ok := p.Act(s, time.Now())
	assert.False(t, ok)
}

func TestNewByName(t *testing.T) {
	for _, kind := range []string{"easy", "medium", "hard", "backboard"} {
		b, err := New(kind)
		require.NoError(t, err, kind)
		assert.Equal(t, kind, b.Name())
	}

	_, err := New("impossible")
	assert.Error(t, err)
}
