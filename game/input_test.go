package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleFilterTable(t *testing.T) {
	cases := []struct {
		role    Role
		action  Action
		allowed bool
	}{
		{RoleHost, ActionLeftUp, true},
		{RoleHost, ActionLeftDown, true},
		{RoleHost, ActionRightUp, false},
		{RoleHost, ActionRightDown, false},
		{RoleHost, ActionQuit, true},

		{RoleClient, ActionRightUp, true},
		{RoleClient, ActionRightDown, true},
		{RoleClient, ActionLeftUp, false},
		{RoleClient, ActionLeftDown, false},
		{RoleClient, ActionQuit, true},

		{RoleLocal, ActionLeftUp, true},
		{RoleLocal, ActionRightDown, true},
		{RoleLocal, ActionQuit, true},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, c.role.Allows(c.action), "%s / %s", c.role, c.action)
	}
}

func TestHostInputForTheWrongPaddleMovesNothingAndIsNotForwarded(t *testing.T) {
	s := NewState()
	before := s.RightPaddle

	a := ActionRightUp
	if RoleHost.Allows(a) {
		Apply(s, a)
	}

	assert.Equal(t, before, s.RightPaddle, "right paddle must not move on host input")
	assert.False(t, RoleHost.Forwards(a), "rejected input must not be transmitted")
}

func TestForwardsOnlyOwnedPaddleActions(t *testing.T) {
	assert.True(t, RoleHost.Forwards(ActionLeftUp))
	assert.True(t, RoleClient.Forwards(ActionRightDown))

	assert.False(t, RoleHost.Forwards(ActionQuit))
	assert.False(t, RoleHost.Forwards(ActionRematch))
	assert.False(t, RoleClient.Forwards(ActionLeftUp))
	assert.False(t, RoleLocal.Forwards(ActionLeftUp), "local mode sends nothing")
}

func TestPaddleStaysInsidePlayableArea(t *testing.T) {
	s := NewState()

	for i := 0; i < 1000; i++ {
		Apply(s, ActionLeftUp)
	}
	assert.Equal(t, 0.0, s.LeftPaddle.Y)

	for i := 0; i < 1000; i++ {
		Apply(s, ActionLeftDown)
	}
	assert.Equal(t, FieldHeight-PaddleHeight, s.LeftPaddle.Y)
}

func TestOpponent(t *testing.T) {
	assert.Equal(t, RoleClient, RoleHost.Opponent())
	assert.Equal(t, RoleHost, RoleClient.Opponent())
	assert.Equal(t, RoleLocal, RoleLocal.Opponent())
}
