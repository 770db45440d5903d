package chart

import (
	"sort"

	"github.com/yonetani/drumchart/pkg/rational"
	"github.com/yonetani/drumchart/pkg/timeline"
)

type entry struct {
	pos   timeline.Position // always dual-stamped
	notes []Note            // nonempty, sorted, no duplicates
}

// Chart is the ordered store of drum hits. Keys are dual-stamped positions;
// each key holds the set of notes struck simultaneously there. An entry with
// no notes does not exist.
type Chart struct {
	entries []entry
}

// NewChart returns an empty chart.
func NewChart() *Chart {
	return &Chart{}
}

// Len returns the number of occupied positions.
func (c *Chart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// EntryAt returns the i-th occupied position and its note set, in timeline
// order. The returned slice must not be modified.
func (c *Chart) EntryAt(i int) (timeline.Position, []Note) {
	return c.entries[i].pos, c.entries[i].notes
}

// NoteCount returns the total number of notes across all positions.
func (c *Chart) NoteCount() int {
	n := 0
	for i := range c.entries {
		n += len(c.entries[i].notes)
	}
	return n
}

// search returns the index of the entry at s, or the insertion index if no
// entry is there, plus whether an exact match exists.
func (c *Chart) search(s rational.Seconds) (int, bool) {
	i := sort.Search(len(c.entries), func(i int) bool {
		es, _ := c.entries[i].pos.Seconds()
		return es.Cmp(s) >= 0
	})
	if i < len(c.entries) {
		es, _ := c.entries[i].pos.Seconds()
		if es.Cmp(s) == 0 {
			return i, true
		}
	}
	return i, false
}

// At returns the note set at exactly pos, if any. The returned slice must
// not be modified.
func (c *Chart) At(pos timeline.Position) ([]Note, bool) {
	s, ok := pos.Seconds()
	if !ok {
		return nil, false
	}
	i, found := c.search(s)
	if !found {
		return nil, false
	}
	return c.entries[i].notes, true
}

// IndexAtOrAfter returns the first entry index at or after pos, for outward
// viewport traversal.
func (c *Chart) IndexAtOrAfter(pos timeline.Position) int {
	s, ok := pos.Seconds()
	if !ok {
		return c.Len()
	}
	i, _ := c.search(s)
	return i
}

// Toggle flips the presence of n at pos. If the identical note is present it
// is removed (and the position entry with it, when it was the last note).
// Otherwise n is inserted, evicting any existing note that shares its staff
// lane: one note per lane per position.
func (c *Chart) Toggle(pos timeline.Position, n Note) {
	s, ok := pos.Seconds()
	if !ok {
		return
	}
	i, found := c.search(s)
	if found {
		notes := c.entries[i].notes
		for j, existing := range notes {
			if existing == n {
				if len(notes) == 1 {
					c.entries = append(c.entries[:i], c.entries[i+1:]...)
				} else {
					c.entries[i].notes = append(notes[:j:j], notes[j+1:]...)
				}
				return
			}
		}
		kept := make([]Note, 0, len(notes)+1)
		for _, existing := range notes {
			if existing.Voice.Lane() != n.Voice.Lane() {
				kept = append(kept, existing)
			}
		}
		kept = append(kept, n)
		sort.Slice(kept, func(a, b int) bool { return kept[a].less(kept[b]) })
		c.entries[i].notes = kept
		return
	}
	c.entries = append(c.entries, entry{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = entry{pos: pos, notes: []Note{n}}
}

// Add unions n into the set at pos without lane eviction. Import uses this:
// the generating chart is already lane-disjoint, and duplicate identical
// notes collapse to one.
func (c *Chart) Add(pos timeline.Position, n Note) {
	s, ok := pos.Seconds()
	if !ok {
		return
	}
	i, found := c.search(s)
	if found {
		notes := c.entries[i].notes
		for _, existing := range notes {
			if existing == n {
				return
			}
		}
		notes = append(notes, n)
		sort.Slice(notes, func(a, b int) bool { return notes[a].less(notes[b]) })
		c.entries[i].notes = notes
		return
	}
	c.entries = append(c.entries, entry{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = entry{pos: pos, notes: []Note{n}}
}

// Restamp re-derives every position's seconds coordinate from its beats
// coordinate against a replacement tempo map, then restores ordering, which
// under a strictly increasing map is already preserved.
func (c *Chart) Restamp(tempo *timeline.TempoMap) error {
	for i := range c.entries {
		pos, err := tempo.Restamp(c.entries[i].pos)
		if err != nil {
			return err
		}
		c.entries[i].pos = pos
	}
	sort.SliceStable(c.entries, func(a, b int) bool {
		return c.entries[a].pos.MustCompare(c.entries[b].pos) < 0
	})
	return nil
}

// End returns the position just past the last entry, or false for an empty
// chart.
func (c *Chart) End() (timeline.Position, bool) {
	if c.Len() == 0 {
		return timeline.Position{}, false
	}
	return c.entries[len(c.entries)-1].pos, true
}
