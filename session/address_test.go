package session

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ap(s string) netip.AddrPort {
	return netip.MustParseAddrPort(s)
}

func TestCorrectObserved(t *testing.T) {
	observed := ap("203.0.113.7:51000")

	corrected := CorrectObserved(observed, 4001)

	assert.Equal(t, ap("203.0.113.7:4001"), corrected)

	// Correcting an already-corrected address is a no-op.
	assert.Equal(t, corrected, CorrectObserved(corrected, 4001))
}

func TestAddressBookObserve(t *testing.T) {
	b := newAddressBook(4001)

	cand := b.Observe(ap("203.0.113.7:51000"))

	assert.Equal(t, ProvenanceAutoConfigured, cand.Provenance)
	assert.Equal(t, ap("203.0.113.7:4001"), cand.Addr)

	// Both the raw observation and the correction are retained.
	cs := b.Candidates()
	require.Len(t, cs, 2)
	assert.Equal(t, ap("203.0.113.7:4001"), cs[0].Addr)
	assert.Equal(t, ap("203.0.113.7:51000"), cs[1].Addr)
}

func TestAddressBookNoListenPort(t *testing.T) {
	b := newAddressBook(0)

	cand := b.Observe(ap("203.0.113.7:51000"))

	// Without a fixed listener there is nothing to correct with.
	assert.Equal(t, ProvenanceObserved, cand.Provenance)
	assert.Equal(t, ap("203.0.113.7:51000"), cand.Addr)
	assert.Len(t, b.Candidates(), 1)
}

func TestAddressBookManualOverrideWins(t *testing.T) {
	b := newAddressBook(4001)

	b.SetManualOverride(ap("198.51.100.9:4001"))
	cand := b.Observe(ap("203.0.113.7:51000"))

	assert.Equal(t, ProvenanceManualOverride, cand.Provenance)
	assert.Equal(t, ap("198.51.100.9:4001"), cand.Addr)

	pref, ok := b.Preferred()
	require.True(t, ok)
	assert.Equal(t, ap("198.51.100.9:4001"), pref.Addr)
}

func TestAddressBookReplacesPerProvenance(t *testing.T) {
	b := newAddressBook(4001)

	b.Observe(ap("203.0.113.7:51000"))
	b.Observe(ap("203.0.113.7:51212"))

	// A fresh observation replaces the old one, it does not accumulate.
	cs := b.Candidates()
	require.Len(t, cs, 2)
	assert.Equal(t, ap("203.0.113.7:4001"), cs[0].Addr)
	assert.Equal(t, ap("203.0.113.7:51212"), cs[1].Addr)
}

func TestAddressBookPreferredEmpty(t *testing.T) {
	b := newAddressBook(4001)

	_, ok := b.Preferred()
	assert.False(t, ok)
}
