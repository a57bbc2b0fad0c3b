package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/will-marella/p2pong/game"
)

const (
	cols = 80
	rows = 24
)

// ansiRenderer draws the field to stdout with cursor-home redraws, throttled
// to roughly half the simulation rate.
type ansiRenderer struct {
	role game.Role

	lastDraw time.Time
	buf      strings.Builder
}

func newANSIRenderer(role game.Role) *ansiRenderer {
	fmt.Print("\033[2J")
	return &ansiRenderer{role: role}
}

func (r *ansiRenderer) Frame(s *game.State, rtt time.Duration) {
	now := time.Now()
	if now.Sub(r.lastDraw) < 33*time.Millisecond {
		return
	}
	r.lastDraw = now

	r.buf.Reset()
	r.buf.WriteString("\033[H")

	r.header(s, rtt)
	r.field(s)
	r.footer(s)

	fmt.Print(r.buf.String())
}

func (r *ansiRenderer) header(s *game.State, rtt time.Duration) {
	left := fmt.Sprintf("you are %s", r.role)
	mid := fmt.Sprintf("%d : %d", s.LeftScore, s.RightScore)
	right := ""
	if r.role != game.RoleLocal {
		right = fmt.Sprintf("rtt %dms", rtt.Milliseconds())
	}

	pad := cols - len(left) - len(mid) - len(right)
	if pad < 2 {
		pad = 2
	}
	fmt.Fprintf(&r.buf, "%s%*s%*s\033[K\n", left, len(mid)+pad/2, mid, len(right)+pad-pad/2, right)
}

func (r *ansiRenderer) field(s *game.State) {
	bx := scale(s.Ball.X, game.FieldWidth, cols)
	by := scale(s.Ball.Y, game.FieldHeight, rows)

	lx := scale(game.PaddleMargin, game.FieldWidth, cols)
	rx := scale(game.FieldWidth-game.PaddleMargin-game.PaddleWidth, game.FieldWidth, cols)

	lTop := scale(s.LeftPaddle.Y, game.FieldHeight, rows)
	lBot := scale(s.LeftPaddle.Y+game.PaddleHeight, game.FieldHeight, rows)
	rTop := scale(s.RightPaddle.Y, game.FieldHeight, rows)
	rBot := scale(s.RightPaddle.Y+game.PaddleHeight, game.FieldHeight, rows)

	for y := 0; y < rows; y++ {
		line := make([]byte, cols)
		for x := range line {
			line[x] = ' '
		}

		if y >= lTop && y <= lBot {
			line[lx] = '|'
		}
		if y >= rTop && y <= rBot {
			line[rx] = '|'
		}
		if y == by && !s.GameOver {
			line[clamp(bx, 0, cols-1)] = 'o'
		}

		r.buf.Write(line)
		r.buf.WriteString("\033[K\n")
	}
}

func (r *ansiRenderer) footer(s *game.State) {
	if s.GameOver {
		fmt.Fprintf(&r.buf, "game over, %s wins. r for rematch, q to quit\033[K\n", s.Winner)
		return
	}
	r.buf.WriteString("w/s move, q quit (press enter to send)\033[K\n")
}

func scale(v, max float64, steps int) int {
	return clamp(int(v/max*float64(steps)), 0, steps-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
