package timeline

import (
	"sort"

	"github.com/yonetani/drumchart/pkg/rational"
)

// LineKind classifies a gridline. Higher kinds win when lines coincide:
// a beat line lands on top of a subdivision line, a measure line on top of
// both.
type LineKind int

const (
	LineSubBeat LineKind = iota
	LineBeat
	LineMeasure
)

func (k LineKind) String() string {
	switch k {
	case LineMeasure:
		return "measure"
	case LineBeat:
		return "beat"
	default:
		return "subbeat"
	}
}

// Gridline is one vertical marker: a dual-stamped position and its kind.
type Gridline struct {
	Pos  Position
	Kind LineKind
}

// Gridlines is the derived, ordered set of markers across the whole
// timeline. It is regenerated wholesale whenever the time-signature map, the
// subdivision setting, or the timeline end changes; never edited in place.
type Gridlines struct {
	lines []Gridline
}

// GenerateGridlines walks the time-signature segments and emits measure,
// beat, and subdivision lines up to (but excluding) end. Within the segment
// starting at s with meter (count, unit): measure lines tile at s, s +
// count*unit, ...; beat lines at s, s+unit, ...; subdivision lines at s,
// s+dvn, .... A later explicit signature entry truncates the segment at its
// own start. Coinciding lines merge with Measure > Beat > SubBeat.
func GenerateGridlines(sigs *TimeSigMap, dvn rational.Beats, end rational.Beats, tempo *TempoMap) (*Gridlines, error) {
	type rawLine struct {
		beat rational.Beats
		kind LineKind
	}
	var raw []rawLine

	emitSeries := func(start, step, limit rational.Beats, kind LineKind) {
		if step.Sign() <= 0 {
			return
		}
		for b := start; b.Cmp(limit) < 0; b = b.Add(step) {
			raw = append(raw, rawLine{beat: b, kind: kind})
		}
	}

	for i := 0; i < sigs.Len(); i++ {
		start, sig := sigs.Entry(i)
		limit := end
		if i+1 < sigs.Len() {
			next, _ := sigs.Entry(i + 1)
			if next.Cmp(limit) < 0 {
				limit = next
			}
		}
		if start.Cmp(limit) >= 0 {
			continue
		}
		emitSeries(start, dvn, limit, LineSubBeat)
		emitSeries(start, sig.Unit, limit, LineBeat)
		emitSeries(start, sig.Unit.MulInt(int64(sig.Count)), limit, LineMeasure)
	}

	sort.SliceStable(raw, func(i, j int) bool {
		if c := raw[i].beat.Cmp(raw[j].beat); c != 0 {
			return c < 0
		}
		return raw[i].kind < raw[j].kind
	})

	g := &Gridlines{}
	for _, r := range raw {
		if n := len(g.lines); n > 0 {
			lb, _ := g.lines[n-1].Pos.Beats()
			if lb.Cmp(r.beat) == 0 {
				// Same key: the sort put the strongest kind last.
				g.lines[n-1].Kind = r.kind
				continue
			}
		}
		pos, err := tempo.Normalize(AtBeats(r.beat))
		if err != nil {
			return nil, err
		}
		g.lines = append(g.lines, Gridline{Pos: pos, Kind: r.kind})
	}
	return g, nil
}

// Len returns the number of gridlines.
func (g *Gridlines) Len() int {
	if g == nil {
		return 0
	}
	return len(g.lines)
}

// At returns the i-th gridline in timeline order.
func (g *Gridlines) At(i int) Gridline {
	return g.lines[i]
}

// searchSeconds returns the first index whose line is at or after s.
func (g *Gridlines) searchSeconds(s rational.Seconds) int {
	return sort.Search(len(g.lines), func(i int) bool {
		ls, _ := g.lines[i].Pos.Seconds()
		return ls.Cmp(s) >= 0
	})
}

// IndexAtOrAfter returns the first gridline index at or after pos, for
// outward viewport traversal.
func (g *Gridlines) IndexAtOrAfter(pos Position) int {
	s, ok := pos.Seconds()
	if !ok {
		return g.Len()
	}
	return g.searchSeconds(s)
}

// CrossedBeatOrMeasure reports whether any measure or beat line lies in
// [from, to). A line exactly at from counts as crossed; subdivision lines
// never trigger. Both positions must be dual-stamped.
func (g *Gridlines) CrossedBeatOrMeasure(from, to Position) bool {
	fs, ok := from.Seconds()
	if !ok {
		return false
	}
	ts, ok := to.Seconds()
	if !ok || ts.Cmp(fs) <= 0 {
		return false
	}
	for i := g.searchSeconds(fs); i < len(g.lines); i++ {
		ls, _ := g.lines[i].Pos.Seconds()
		if ls.Cmp(ts) >= 0 {
			return false
		}
		if g.lines[i].Kind != LineSubBeat {
			return true
		}
	}
	return false
}

// NextAfter returns the first gridline strictly after pos.
func (g *Gridlines) NextAfter(pos Position) (Gridline, bool) {
	s, ok := pos.Seconds()
	if !ok {
		return Gridline{}, false
	}
	i := g.searchSeconds(s)
	for ; i < len(g.lines); i++ {
		ls, _ := g.lines[i].Pos.Seconds()
		if ls.Cmp(s) > 0 {
			return g.lines[i], true
		}
	}
	return Gridline{}, false
}

// PrevBefore returns the last gridline strictly before pos.
func (g *Gridlines) PrevBefore(pos Position) (Gridline, bool) {
	s, ok := pos.Seconds()
	if !ok {
		return Gridline{}, false
	}
	i := g.searchSeconds(s)
	if i == 0 {
		return Gridline{}, false
	}
	return g.lines[i-1], true
}

// Restamp re-derives every line's seconds coordinate from its beats
// coordinate against a replacement tempo map.
func (g *Gridlines) Restamp(tempo *TempoMap) error {
	for i := range g.lines {
		pos, err := tempo.Restamp(g.lines[i].Pos)
		if err != nil {
			return err
		}
		g.lines[i].Pos = pos
	}
	return nil
}
