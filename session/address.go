package session

import (
	"fmt"
	"net/netip"
	"slices"

	"golang.org/x/exp/maps"
)

// Provenance says where an external-address candidate came from. Higher
// values are preferred when picking the candidate to advertise.
type Provenance uint8

const (
	// ProvenanceObserved is a raw NAT-observed address reported by relay or
	// reflection infrastructure. Its port is usually an ephemeral NAT
	// mapping for the outbound rendezvous connection, not our listener.
	ProvenanceObserved = Provenance(iota)

	// ProvenanceAutoConfigured is an observed address corrected to carry the
	// local listener's real port.
	ProvenanceAutoConfigured

	// ProvenanceManualOverride is operator-supplied and always wins.
	ProvenanceManualOverride
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceObserved:
		return "observed"
	case ProvenanceAutoConfigured:
		return "auto-configured"
	case ProvenanceManualOverride:
		return "manual-override"
	default:
		return "unknown"
	}
}

// Candidate is one guess at this peer's publicly reachable address.
type Candidate struct {
	Addr       netip.AddrPort
	Provenance Provenance
}

func (c Candidate) Debug() string {
	return fmt.Sprintf("candidate addr=%s provenance=%s", c.Addr, c.Provenance)
}

// CorrectObserved applies the address-correction rule: keep the observed IP,
// replace the NAT-assigned ephemeral port with the local listener's port.
// Idempotent by construction.
func CorrectObserved(observed netip.AddrPort, listenPort uint16) netip.AddrPort {
	return netip.AddrPortFrom(observed.Addr(), listenPort)
}

// addressBook tracks external-address candidates for the local listener.
// At most one candidate per provenance; a new entry of the same provenance
// replaces, never appends.
type addressBook struct {
	listenPort uint16

	byProv map[Provenance]Candidate
}

func newAddressBook(listenPort uint16) *addressBook {
	return &addressBook{
		listenPort: listenPort,
		byProv:     make(map[Provenance]Candidate),
	}
}

// SetManualOverride records the operator-supplied address.
func (b *addressBook) SetManualOverride(ap netip.AddrPort) Candidate {
	c := Candidate{Addr: ap, Provenance: ProvenanceManualOverride}
	b.byProv[ProvenanceManualOverride] = c
	return c
}

// Observe records a NAT-observed address and derives the corrected candidate
// from it. Returns the candidate the session should now advertise.
func (b *addressBook) Observe(ap netip.AddrPort) Candidate {
	b.byProv[ProvenanceObserved] = Candidate{Addr: ap, Provenance: ProvenanceObserved}

	if b.listenPort != 0 {
		corrected := CorrectObserved(ap, b.listenPort)
		b.byProv[ProvenanceAutoConfigured] = Candidate{
			Addr:       corrected,
			Provenance: ProvenanceAutoConfigured,
		}
	}

	c, _ := b.Preferred()
	return c
}

// Preferred returns the best current candidate:
// manual override > corrected > raw observation.
func (b *addressBook) Preferred() (Candidate, bool) {
	for _, p := range []Provenance{ProvenanceManualOverride, ProvenanceAutoConfigured, ProvenanceObserved} {
		if c, ok := b.byProv[p]; ok {
			return c, true
		}
	}

	return Candidate{}, false
}

// Candidates returns a stable snapshot, best first.
func (b *addressBook) Candidates() []Candidate {
	cs := maps.Values(b.byProv)

	slices.SortFunc(cs, func(a, b Candidate) int {
		return int(b.Provenance) - int(a.Provenance)
	})

	return cs
}
