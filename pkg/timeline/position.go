// Package timeline implements the dual-clock timeline engine: positions that
// carry musical time (beats) and wall-clock time (seconds), the
// piecewise-constant tempo and time-signature maps that relate the two, and
// the gridlines derived from them.
//
// Everything stored in an ordered, position-keyed structure (tempo entries,
// time signatures, gridlines, chart entries) is kept in dual-stamped form.
// Bare seconds-only or beats-only positions exist only transiently, as
// function arguments on their way through TempoMap.Normalize.
package timeline

import (
	"errors"
	"fmt"

	"github.com/yonetani/drumchart/pkg/rational"
)

var (
	// ErrIncomparablePosition is returned when a seconds-only position is
	// compared with a beats-only position. Call sites must normalize through
	// the tempo map first; hitting this is a programming error.
	ErrIncomparablePosition = errors.New("incomparable positions: normalize through the tempo map first")

	// ErrMissingTempo is returned when a beats/seconds conversion is
	// attempted against an empty tempo map.
	ErrMissingTempo = errors.New("tempo map is empty")

	// ErrInvalidTempoEntry is returned when a tempo map lookup lands on an
	// entry that is not dual-stamped. The map constructor only produces
	// dual-stamped entries, so this indicates internal corruption.
	ErrInvalidTempoEntry = errors.New("tempo map entry is not dual-stamped")
)

// Position is a point on the timeline. It is a closed sum over three shapes:
// seconds-only, beats-only, and dual-stamped (both coordinates known and
// mutually consistent under the current tempo map).
type Position struct {
	hasSeconds bool
	hasBeats   bool
	seconds    rational.Seconds
	beats      rational.Beats
}

// AtSeconds returns a seconds-only position.
func AtSeconds(s rational.Seconds) Position {
	return Position{hasSeconds: true, seconds: s}
}

// AtBeats returns a beats-only position.
func AtBeats(b rational.Beats) Position {
	return Position{hasBeats: true, beats: b}
}

// Both returns a dual-stamped position. The caller asserts that s and b
// agree under the current tempo map; TempoMap.Normalize is the usual way to
// obtain one.
func Both(s rational.Seconds, b rational.Beats) Position {
	return Position{hasSeconds: true, hasBeats: true, seconds: s, beats: b}
}

// IsBoth reports whether both coordinates are known.
func (p Position) IsBoth() bool {
	return p.hasSeconds && p.hasBeats
}

// Seconds returns the wall-clock coordinate, if known.
func (p Position) Seconds() (rational.Seconds, bool) {
	return p.seconds, p.hasSeconds
}

// Beats returns the musical coordinate, if known.
func (p Position) Beats() (rational.Beats, bool) {
	return p.beats, p.hasBeats
}

// Compare orders p against o: -1, 0 or +1. Dual-stamped positions compare by
// seconds. A seconds-only position cannot be compared with a beats-only one
// and yields ErrIncomparablePosition.
func (p Position) Compare(o Position) (int, error) {
	switch {
	case p.hasSeconds && o.hasSeconds:
		return p.seconds.Cmp(o.seconds), nil
	case p.hasBeats && o.hasBeats:
		return p.beats.Cmp(o.beats), nil
	default:
		return 0, ErrIncomparablePosition
	}
}

// MustCompare is Compare for positions known to share a coordinate, such as
// the dual-stamped keys inside ordered containers. It panics on mismatch.
func (p Position) MustCompare(o Position) int {
	c, err := p.Compare(o)
	if err != nil {
		panic(err)
	}
	return c
}

// Equal reports whether p and o order as equal. Like Compare, it requires a
// shared coordinate.
func (p Position) Equal(o Position) (bool, error) {
	c, err := p.Compare(o)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

func (p Position) String() string {
	switch {
	case p.IsBoth():
		return fmt.Sprintf("(%s, %s)", p.seconds, p.beats)
	case p.hasSeconds:
		return fmt.Sprintf("(%s, ?)", p.seconds)
	case p.hasBeats:
		return fmt.Sprintf("(?, %s)", p.beats)
	default:
		return "(?, ?)"
	}
}
