package timeline

import (
	"sort"

	"github.com/yonetani/drumchart/pkg/rational"
)

// DefaultRate is the tempo assumed before the first explicit change:
// 2 beats per second, i.e. 120 BPM.
var DefaultRate = rational.BPSFrac(2, 1)

// TempoChange is a raw tempo event as delivered by the MIDI boundary:
// from Beat onward, the timeline runs at Rate.
type TempoChange struct {
	Beat rational.Beats
	Rate rational.BPS
}

type tempoEntry struct {
	pos  Position // always dual-stamped
	rate rational.BPS
}

// TempoMap is an ordered, piecewise-constant map from dual-stamped positions
// to tempo rates. Entries are strictly increasing in both beats and seconds,
// and the first entry is always at beat 0.
type TempoMap struct {
	entries []tempoEntry
}

// BuildTempoMap constructs a tempo map from raw changes by a forward scan
// that accumulates elapsed seconds: entry i sits at the seconds of entry i-1
// plus the beat gap divided by the previous rate. An implicit (beat 0,
// DefaultRate) entry is seeded when the input does not start at beat 0.
// Changes must be in beat order; zero-rate and non-advancing entries are
// dropped (a later change at the same beat replaces the earlier one).
func BuildTempoMap(changes []TempoChange) *TempoMap {
	m := &TempoMap{}

	zero := rational.BeatsFromInt(0)
	seedRate := DefaultRate
	rest := changes
	for len(rest) > 0 && rest[0].Beat.Cmp(zero) == 0 {
		if !rest[0].Rate.IsZero() {
			seedRate = rest[0].Rate
		}
		rest = rest[1:]
	}
	m.entries = append(m.entries, tempoEntry{
		pos:  Both(rational.SecondsFromInt(0), zero),
		rate: seedRate,
	})

	for _, ch := range rest {
		if ch.Rate.IsZero() {
			continue
		}
		last := m.entries[len(m.entries)-1]
		lastBeats, _ := last.pos.Beats()
		lastSeconds, _ := last.pos.Seconds()
		gap := ch.Beat.Sub(lastBeats)
		if gap.Sign() < 0 {
			continue
		}
		if gap.Sign() == 0 {
			// Same beat: replace the rate, keep the stamp.
			m.entries[len(m.entries)-1].rate = ch.Rate
			continue
		}
		seconds := lastSeconds.Add(gap.DivBPS(last.rate))
		m.entries = append(m.entries, tempoEntry{
			pos:  Both(seconds, ch.Beat),
			rate: ch.Rate,
		})
	}

	return m
}

// Len returns the number of tempo entries.
func (m *TempoMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// floorByBeats returns the greatest entry whose beats coordinate is <= b,
// falling back to the first entry for positions before beat 0.
func (m *TempoMap) floorByBeats(b rational.Beats) (tempoEntry, error) {
	if m.Len() == 0 {
		return tempoEntry{}, ErrMissingTempo
	}
	i := sort.Search(len(m.entries), func(i int) bool {
		eb, ok := m.entries[i].pos.Beats()
		if !ok {
			return true
		}
		return eb.Cmp(b) > 0
	})
	if i == 0 {
		i = 1
	}
	e := m.entries[i-1]
	if !e.pos.IsBoth() {
		return tempoEntry{}, ErrInvalidTempoEntry
	}
	return e, nil
}

// floorBySeconds is the wall-clock counterpart of floorByBeats.
func (m *TempoMap) floorBySeconds(s rational.Seconds) (tempoEntry, error) {
	if m.Len() == 0 {
		return tempoEntry{}, ErrMissingTempo
	}
	i := sort.Search(len(m.entries), func(i int) bool {
		es, ok := m.entries[i].pos.Seconds()
		if !ok {
			return true
		}
		return es.Cmp(s) > 0
	})
	if i == 0 {
		i = 1
	}
	e := m.entries[i-1]
	if !e.pos.IsBoth() {
		return tempoEntry{}, ErrInvalidTempoEntry
	}
	return e, nil
}

// BeatsToSeconds converts a musical offset to wall-clock time by linear
// interpolation within the governing tempo segment.
func (m *TempoMap) BeatsToSeconds(b rational.Beats) (rational.Seconds, error) {
	e, err := m.floorByBeats(b)
	if err != nil {
		return rational.Seconds{}, err
	}
	eb, _ := e.pos.Beats()
	es, _ := e.pos.Seconds()
	return es.Add(b.Sub(eb).DivBPS(e.rate)), nil
}

// SecondsToBeats converts a wall-clock offset to musical time, symmetric to
// BeatsToSeconds.
func (m *TempoMap) SecondsToBeats(s rational.Seconds) (rational.Beats, error) {
	e, err := m.floorBySeconds(s)
	if err != nil {
		return rational.Beats{}, err
	}
	eb, _ := e.pos.Beats()
	es, _ := e.pos.Seconds()
	return eb.Add(s.Sub(es).MulBPS(e.rate)), nil
}

// Normalize dual-stamps a position. Dual-stamped input is returned
// unchanged, so Normalize is idempotent.
func (m *TempoMap) Normalize(p Position) (Position, error) {
	if p.IsBoth() {
		return p, nil
	}
	if b, ok := p.Beats(); ok {
		s, err := m.BeatsToSeconds(b)
		if err != nil {
			return Position{}, err
		}
		return Both(s, b), nil
	}
	if s, ok := p.Seconds(); ok {
		b, err := m.SecondsToBeats(s)
		if err != nil {
			return Position{}, err
		}
		return Both(s, b), nil
	}
	return Position{}, ErrIncomparablePosition
}

// RateAt returns the tempo rate governing the given beat, for display.
func (m *TempoMap) RateAt(b rational.Beats) (rational.BPS, error) {
	e, err := m.floorByBeats(b)
	if err != nil {
		return rational.BPS{}, err
	}
	return e.rate, nil
}

// Restamp re-derives the seconds coordinate of a position from its beats
// coordinate against this map. Beats are the ground truth when a tempo map
// is replaced; the previous seconds stamp is discarded.
func (m *TempoMap) Restamp(p Position) (Position, error) {
	b, ok := p.Beats()
	if !ok {
		return m.Normalize(p)
	}
	s, err := m.BeatsToSeconds(b)
	if err != nil {
		return Position{}, err
	}
	return Both(s, b), nil
}
