// Package game holds the deterministic pong simulation.
//
// Everything runs in a fixed virtual coordinate space; rendering maps it to
// whatever surface it has. Both peers of a networked match step the exact same
// functions with the exact same timestep, so the client's prediction matches
// the host's authoritative run within float tolerance.
package game

import "math"

// Virtual coordinate space. Fixed; terminal size never touches physics.
const (
	FieldWidth  = 200.0
	FieldHeight = 100.0
)

const (
	PaddleHeight = 15.0
	PaddleMargin = 3.0 // distance from field edge
	PaddleWidth  = 2.0

	// Distance one paddle action moves the paddle.
	PaddleTapDistance = 7.0

	ServeSpeed = 100.0 // virtual units per second

	// Ball speeds up on every paddle hit, up to a cap.
	SpeedMultiplier = 1.1
	MaxBallSpeed    = 260.0

	WinningScore = 5
)

// FixedTimestep is 1/60 s, and deliberately not derived from any frame rate.
// Both peers must step with the same dt or their simulations diverge.
const FixedTimestep = 1.0 / 60.0

type Ball struct {
	X, Y   float64
	VX, VY float64
}

type Paddle struct {
	Y float64
}

type Player uint8

const (
	NoPlayer = Player(iota)
	PlayerLeft
	PlayerRight
)

func (p Player) String() string {
	switch p {
	case PlayerLeft:
		return "left"
	case PlayerRight:
		return "right"
	default:
		return "none"
	}
}

type State struct {
	Ball Ball

	LeftPaddle  Paddle
	RightPaddle Paddle

	LeftScore  uint32
	RightScore uint32

	GameOver bool
	Winner   Player

	// Serve counter for the tiebreak-style serve rotation.
	ServeCount uint8
}

// NewState returns a fresh match: paddles centered, first serve to the left.
func NewState() *State {
	s := &State{}
	s.ResetGame()
	return s
}

// ResetGame restores the initial match state, including scores.
func (s *State) ResetGame() {
	centerY := FieldHeight/2 - PaddleHeight/2

	s.LeftPaddle = Paddle{Y: centerY}
	s.RightPaddle = Paddle{Y: centerY}
	s.LeftScore = 0
	s.RightScore = 0
	s.GameOver = false
	s.Winner = NoPlayer
	s.ServeCount = 0

	s.serve(math.Pi)
}

// ResetBall recenters the ball after a goal and serves in the rotation's
// direction. Tiebreak pattern: serve 0 goes left, then pairs alternate
// (1-2 right, 3-4 left, 5-6 right, ...).
func (s *State) ResetBall() {
	serveLeft := false
	if s.ServeCount == 0 {
		serveLeft = true
	} else {
		serveLeft = ((s.ServeCount-1)/2)%2 == 1
	}

	angle := 0.0
	if serveLeft {
		angle = math.Pi
	}

	s.ServeCount++

	s.serve(angle)
}

func (s *State) serve(angle float64) {
	s.Ball = Ball{
		X:  FieldWidth / 2,
		Y:  FieldHeight / 2,
		VX: math.Cos(angle) * ServeSpeed,
		VY: math.Sin(angle) * ServeSpeed,
	}
}

// Clone returns an independent copy, for prediction and tests.
func (s *State) Clone() *State {
	c := *s
	return &c
}
