package game

// Action is one discrete player input.
type Action uint8

const (
	ActionQuit = Action(iota)
	ActionRematch
	ActionLeftUp
	ActionLeftDown
	ActionRightUp
	ActionRightDown
)

func (a Action) String() string {
	switch a {
	case ActionQuit:
		return "quit"
	case ActionRematch:
		return "rematch"
	case ActionLeftUp:
		return "left-up"
	case ActionLeftDown:
		return "left-down"
	case ActionRightUp:
		return "right-up"
	case ActionRightDown:
		return "right-down"
	default:
		return "unknown"
	}
}

// Role decides which paddle a peer owns, and with it who runs the
// authoritative ball. Immutable for the lifetime of a session.
type Role uint8

const (
	// RoleHost owns the left paddle and runs the authoritative simulation.
	RoleHost = Role(iota)

	// RoleClient owns the right paddle and runs a predictive simulation.
	RoleClient

	// RoleLocal owns both paddles; nothing is networked.
	RoleLocal
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleClient:
		return "client"
	case RoleLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Opponent returns the networked counterpart role. Local has none.
func (r Role) Opponent() Role {
	switch r {
	case RoleHost:
		return RoleClient
	case RoleClient:
		return RoleHost
	default:
		return RoleLocal
	}
}

// Allows reports whether raw input a may be applied under this role.
// Disallowed actions are dropped silently.
func (r Role) Allows(a Action) bool {
	switch a {
	case ActionQuit, ActionRematch:
		return true
	case ActionLeftUp, ActionLeftDown:
		return r == RoleHost || r == RoleLocal
	case ActionRightUp, ActionRightDown:
		return r == RoleClient || r == RoleLocal
	default:
		return false
	}
}

// Forwards reports whether an accepted action is also sent to the peer as an
// Input message. Only owned paddle movement travels; Quit and Rematch have
// dedicated wire messages.
func (r Role) Forwards(a Action) bool {
	switch r {
	case RoleHost:
		return a == ActionLeftUp || a == ActionLeftDown
	case RoleClient:
		return a == ActionRightUp || a == ActionRightDown
	default:
		return false
	}
}

// Apply mutates state for one paddle action, clamped to the playable area.
// Quit and Rematch are session-level and ignored here.
func Apply(s *State, a Action) {
	switch a {
	case ActionLeftUp:
		movePaddle(&s.LeftPaddle, -PaddleTapDistance)
	case ActionLeftDown:
		movePaddle(&s.LeftPaddle, PaddleTapDistance)
	case ActionRightUp:
		movePaddle(&s.RightPaddle, -PaddleTapDistance)
	case ActionRightDown:
		movePaddle(&s.RightPaddle, PaddleTapDistance)
	}
}

func movePaddle(p *Paddle, dy float64) {
	p.Y += dy

	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y > FieldHeight-PaddleHeight {
		p.Y = FieldHeight - PaddleHeight
	}
}
