package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePort(t *testing.T) {
	p, err := parsePort(4001)
	require.NoError(t, err)
	assert.Equal(t, uint16(4001), p)

	p, err = parsePort(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), p)

	p, err = parsePort(65535)
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), p)

	// Out-of-range values must error, not wrap around.
	_, err = parsePort(65536)
	assert.Error(t, err)

	_, err = parsePort(70001)
	assert.Error(t, err)
}
