package main

import (
	"bufio"
	"log/slog"
	"os"
	"sync"

	"github.com/will-marella/p2pong/game"
)

// stdinInput reads line-buffered keys from stdin on its own goroutine and
// hands them to the loop as actions on Poll.
//
// Keys: w/s move your paddle, q quits, r asks for a rematch. In local mode
// w/s drive the left paddle and i/k the right one.
type stdinInput struct {
	role game.Role

	mu      sync.Mutex
	pending []game.Action
}

func newStdinInput(role game.Role) *stdinInput {
	in := &stdinInput{role: role}
	go in.read()
	return in
}

func (in *stdinInput) read() {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		for _, r := range sc.Text() {
			if a, ok := in.action(r); ok {
				in.push(a)
			}
		}
	}

	if err := sc.Err(); err != nil {
		slog.Warn("stdin closed", "err", err)
	}
	in.push(game.ActionQuit)
}

func (in *stdinInput) action(r rune) (game.Action, bool) {
	switch r {
	case 'q':
		return game.ActionQuit, true
	case 'r':
		return game.ActionRematch, true
	case 'w':
		if in.role == game.RoleClient {
			return game.ActionRightUp, true
		}
		return game.ActionLeftUp, true
	case 's':
		if in.role == game.RoleClient {
			return game.ActionRightDown, true
		}
		return game.ActionLeftDown, true
	case 'i':
		return game.ActionRightUp, true
	case 'k':
		return game.ActionRightDown, true
	default:
		return 0, false
	}
}

func (in *stdinInput) push(a game.Action) {
	in.mu.Lock()
	in.pending = append(in.pending, a)
	in.mu.Unlock()
}

func (in *stdinInput) Poll() []game.Action {
	in.mu.Lock()
	defer in.mu.Unlock()

	out := in.pending
	in.pending = nil
	return out
}
