package bot

import (
	"math"
	"math/rand"
	"time"

	"github.com/will-marella/p2pong/game"
)

// Profile tunes how human a Predictive bot plays. Errors are in virtual
// field units.
type Profile struct {
	Name string

	// ErrorStddev is the gaussian noise added to each prediction.
	ErrorStddev float64

	// MissRate is the chance a prediction is abandoned outright; the bot
	// recenters and whiffs the shot.
	MissRate float64

	// ReactionDelay is the minimum time between paddle actions.
	ReactionDelay time.Duration

	// PredictionInterval is how often the intercept is recalculated.
	PredictionInterval time.Duration

	// MovementThreshold is the dead zone around the target that stops
	// jittery back-and-forth.
	MovementThreshold float64
}

var (
	Easy = Profile{
		Name:               "easy",
		ErrorStddev:        6,
		MissRate:           0.12,
		ReactionDelay:      200 * time.Millisecond,
		PredictionInterval: 250 * time.Millisecond,
		MovementThreshold:  7,
	}

	Medium = Profile{
		Name:               "medium",
		ErrorStddev:        3,
		MissRate:           0.05,
		ReactionDelay:      120 * time.Millisecond,
		PredictionInterval: 150 * time.Millisecond,
		MovementThreshold:  5,
	}

	Hard = Profile{
		Name:               "hard",
		ErrorStddev:        1.5,
		MissRate:           0.02,
		ReactionDelay:      60 * time.Millisecond,
		PredictionInterval: 80 * time.Millisecond,
		MovementThreshold:  3.5,
	}
)

// Predictive computes the ball's intercept with the right paddle plane and
// chases it, with profile-tuned noise, whiffs, and pacing standing in for
// human imperfection.
type Predictive struct {
	prof Profile
	rng  *rand.Rand

	lastPrediction time.Time
	lastAction     time.Time

	targetY   float64
	hasTarget bool
}

func NewPredictive(prof Profile, rng *rand.Rand) *Predictive {
	return &Predictive{prof: prof, rng: rng}
}

func (p *Predictive) Act(s *game.State, now time.Time) (game.Action, bool) {
	if now.Sub(p.lastPrediction) >= p.prof.PredictionInterval {
		p.updatePrediction(s, now)
	}

	if now.Sub(p.lastAction) < p.prof.ReactionDelay {
		return 0, false
	}

	center := s.RightPaddle.Y + game.PaddleHeight/2

	// No target means the ball is outgoing or the shot was whiffed; drift
	// back toward the middle either way.
	target := game.FieldHeight / 2.0
	if p.hasTarget {
		target = p.targetY
	}

	diff := target - center
	if math.Abs(diff) < p.prof.MovementThreshold {
		return 0, false
	}

	p.lastAction = now

	if diff > 0 {
		return game.ActionRightDown, true
	}
	return game.ActionRightUp, true
}

func (p *Predictive) updatePrediction(s *game.State, now time.Time) {
	p.lastPrediction = now

	y, ok := InterceptY(s.Ball, rightPaddleX())
	if !ok {
		p.hasTarget = false
		return
	}

	if p.rng.Float64() < p.prof.MissRate {
		p.hasTarget = false
		return
	}

	p.targetY = y + p.rng.NormFloat64()*p.prof.ErrorStddev
	p.hasTarget = true
}

func (p *Predictive) Reset() {
	p.lastPrediction = time.Time{}
	p.lastAction = time.Time{}
	p.hasTarget = false
}

func (p *Predictive) Name() string { return p.prof.Name }
