// Package bot provides computer opponents for solo play. A bot drives the
// right paddle from the same visible state a player sees, one decision per
// tick.
package bot

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/will-marella/p2pong/game"
)

type Bot interface {
	// Act decides the paddle action for this tick, if any. now paces
	// reaction delays and prediction refreshes.
	Act(s *game.State, now time.Time) (game.Action, bool)

	// Reset clears pacing state when a new game starts.
	Reset()

	Name() string
}

// New builds a bot by difficulty name: easy, medium, hard, or backboard.
func New(kind string) (Bot, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	switch strings.ToLower(kind) {
	case "easy":
		return NewPredictive(Easy, rng), nil
	case "medium":
		return NewPredictive(Medium, rng), nil
	case "hard":
		return NewPredictive(Hard, rng), nil
	case "backboard":
		return NewBackboard(), nil
	default:
		return nil, fmt.Errorf("unknown bot %q", kind)
	}
}
