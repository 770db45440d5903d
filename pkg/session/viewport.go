package session

import (
	"math"

	"github.com/yonetani/drumchart/pkg/chart"
	"github.com/yonetani/drumchart/pkg/timeline"
)

const (
	// OriginX is the fixed screen column of the now line.
	OriginX = 160
	// VisibleMargin lets partially off-screen sprites still draw.
	VisibleMargin = 64
)

// ScreenX maps a timeline position to a horizontal pixel offset relative to
// the now line at OriginX.
func (s *Session) ScreenX(pos timeline.Position) (int, bool) {
	sec, ok := pos.Seconds()
	if !ok {
		return 0, false
	}
	dx := (sec.Float64() - s.posSeconds()) * s.zoom
	return OriginX + int(math.Floor(dx)), true
}

func visibleRight(x, width int) bool { return x <= width+VisibleMargin }
func visibleLeft(x int) bool         { return x >= -VisibleMargin }

// VisibleGridlines calls fn for every gridline whose screen column falls
// inside the viewport (plus margin). The ordered set is traversed outward
// from the current position in both directions; once a line falls outside
// the margin every further line in that direction does too, so traversal
// stops there.
func (s *Session) VisibleGridlines(width int, fn func(x int, kind timeline.LineKind)) {
	start := s.grid.IndexAtOrAfter(s.pos)
	for i := start; i < s.grid.Len(); i++ {
		line := s.grid.At(i)
		x, ok := s.ScreenX(line.Pos)
		if !ok || !visibleRight(x, width) {
			break
		}
		fn(x, line.Kind)
	}
	for i := start - 1; i >= 0; i-- {
		line := s.grid.At(i)
		x, ok := s.ScreenX(line.Pos)
		if !ok || !visibleLeft(x) {
			break
		}
		fn(x, line.Kind)
	}
}

// VisibleNotes calls fn for every occupied chart position whose screen
// column falls inside the viewport (plus margin), with the same outward
// traversal as VisibleGridlines.
func (s *Session) VisibleNotes(width int, fn func(x int, notes []chart.Note)) {
	start := s.notes.IndexAtOrAfter(s.pos)
	for i := start; i < s.notes.Len(); i++ {
		pos, notes := s.notes.EntryAt(i)
		x, ok := s.ScreenX(pos)
		if !ok || !visibleRight(x, width) {
			break
		}
		fn(x, notes)
	}
	for i := start - 1; i >= 0; i-- {
		pos, notes := s.notes.EntryAt(i)
		x, ok := s.ScreenX(pos)
		if !ok || !visibleLeft(x) {
			break
		}
		fn(x, notes)
	}
}
