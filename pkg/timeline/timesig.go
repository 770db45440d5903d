package timeline

import (
	"sort"

	"github.com/yonetani/drumchart/pkg/rational"
)

// TimeSig is a meter: Count beats of Unit length per measure. 4/4 with a
// quarter-note unit is {4, 1}; 6/8 is {6, 1/2}.
type TimeSig struct {
	Count int
	Unit  rational.Beats
}

// DefaultTimeSig is assumed at beat 0 when a chart carries no explicit
// time-signature event there.
var DefaultTimeSig = TimeSig{Count: 4, Unit: rational.BeatsFromInt(1)}

// SigChange is a raw time-signature event from the MIDI boundary.
type SigChange struct {
	Beat rational.Beats
	Sig  TimeSig
}

type sigEntry struct {
	pos Position // always dual-stamped
	sig TimeSig
}

// TimeSigMap is an ordered map from dual-stamped positions to meters.
// The first entry is always at beat 0.
type TimeSigMap struct {
	entries []sigEntry
}

// BuildTimeSigMap constructs a time-signature map, dual-stamping every entry
// against the tempo map. A DefaultTimeSig entry at beat 0 is seeded when the
// input does not start there. Changes must be in beat order; non-advancing
// ones replace their predecessor, malformed ones (nonpositive count or unit)
// are dropped.
func BuildTimeSigMap(changes []SigChange, tempo *TempoMap) (*TimeSigMap, error) {
	m := &TimeSigMap{}

	zero := rational.BeatsFromInt(0)
	seed := DefaultTimeSig
	rest := changes
	for len(rest) > 0 && rest[0].Beat.Cmp(zero) == 0 {
		if validSig(rest[0].Sig) {
			seed = rest[0].Sig
		}
		rest = rest[1:]
	}
	m.entries = append(m.entries, sigEntry{
		pos: Both(rational.SecondsFromInt(0), zero),
		sig: seed,
	})

	for _, ch := range rest {
		if !validSig(ch.Sig) {
			continue
		}
		last := m.entries[len(m.entries)-1]
		lastBeats, _ := last.pos.Beats()
		switch ch.Beat.Cmp(lastBeats) {
		case -1:
			continue
		case 0:
			m.entries[len(m.entries)-1].sig = ch.Sig
			continue
		}
		pos, err := tempo.Normalize(AtBeats(ch.Beat))
		if err != nil {
			return nil, err
		}
		m.entries = append(m.entries, sigEntry{pos: pos, sig: ch.Sig})
	}

	return m, nil
}

func validSig(s TimeSig) bool {
	return s.Count > 0 && s.Unit.Sign() > 0
}

// Len returns the number of signature entries.
func (m *TimeSigMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entry returns the i-th entry's start beat and meter.
func (m *TimeSigMap) Entry(i int) (rational.Beats, TimeSig) {
	b, _ := m.entries[i].pos.Beats()
	return b, m.entries[i].sig
}

// SigAt returns the meter governing the given beat.
func (m *TimeSigMap) SigAt(b rational.Beats) TimeSig {
	if m.Len() == 0 {
		return DefaultTimeSig
	}
	i := sort.Search(len(m.entries), func(i int) bool {
		eb, _ := m.entries[i].pos.Beats()
		return eb.Cmp(b) > 0
	})
	if i == 0 {
		i = 1
	}
	return m.entries[i-1].sig
}

// Restamp re-derives every entry's seconds coordinate from its beats
// coordinate against a replacement tempo map.
func (m *TimeSigMap) Restamp(tempo *TempoMap) error {
	for i := range m.entries {
		pos, err := tempo.Restamp(m.entries[i].pos)
		if err != nil {
			return err
		}
		m.entries[i].pos = pos
	}
	return nil
}
