package timeline

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/yonetani/drumchart/pkg/rational"
)

// twoSegmentMap runs at 120 BPM for eight beats, then doubles.
func twoSegmentMap() *TempoMap {
	return BuildTempoMap([]TempoChange{
		{Beat: rational.BeatsFromInt(0), Rate: rational.BPSFrac(2, 1)},
		{Beat: rational.BeatsFromInt(8), Rate: rational.BPSFrac(4, 1)},
	})
}

func TestBeatsToSecondsAcrossChange(t *testing.T) {
	m := twoSegmentMap()

	tests := []struct {
		name string
		beat rational.Beats
		want rational.Seconds
	}{
		{"origin", rational.BeatsFromInt(0), rational.SecondsFromInt(0)},
		{"inside first segment", rational.BeatsFromInt(4), rational.SecondsFromInt(2)},
		{"at the change", rational.BeatsFromInt(8), rational.SecondsFromInt(4)},
		{"inside second segment", rational.BeatsFromInt(10), rational.SecondsFrac(9, 2)},
		{"fractional beat", rational.BeatsFrac(17, 2), rational.SecondsFrac(33, 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.BeatsToSeconds(tt.beat)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Cmp(tt.want) != 0 {
				t.Errorf("BeatsToSeconds(%s): got %s, want %s", tt.beat, got, tt.want)
			}

			back, err := m.SecondsToBeats(got)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if back.Cmp(tt.beat) != 0 {
				t.Errorf("SecondsToBeats(%s): got %s, want %s", got, back, tt.beat)
			}
		})
	}
}

func TestDefaultTempoSeed(t *testing.T) {
	// No changes at all: the whole timeline runs at the 120 BPM default.
	m := BuildTempoMap(nil)
	got, err := m.BeatsToSeconds(rational.BeatsFromInt(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(rational.SecondsFromInt(2)) != 0 {
		t.Errorf("got %s, want 2s", got)
	}

	// First change after beat 0: the gap before it is covered by the seeded
	// default entry.
	m = BuildTempoMap([]TempoChange{
		{Beat: rational.BeatsFromInt(4), Rate: rational.BPSFrac(1, 1)},
	})
	got, err = m.BeatsToSeconds(rational.BeatsFromInt(6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 4 beats at 2 bps, then 2 beats at 1 bps.
	if got.Cmp(rational.SecondsFromInt(4)) != 0 {
		t.Errorf("got %s, want 4s", got)
	}
}

func TestBuildTempoMapDegenerateChanges(t *testing.T) {
	m := BuildTempoMap([]TempoChange{
		{Beat: rational.BeatsFromInt(0), Rate: rational.BPSFrac(2, 1)},
		{Beat: rational.BeatsFromInt(2), Rate: rational.BPS{}},            // zero rate, dropped
		{Beat: rational.BeatsFromInt(4), Rate: rational.BPSFrac(3, 1)},
		{Beat: rational.BeatsFromInt(4), Rate: rational.BPSFrac(4, 1)},    // replaces the previous one
		{Beat: rational.BeatsFromInt(3), Rate: rational.BPSFrac(99, 1)},   // goes backwards, dropped
	})

	if m.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.Len())
	}

	rate, err := m.RateAt(rational.BeatsFromInt(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate.Cmp(rational.BPSFrac(4, 1)) != 0 {
		t.Errorf("RateAt(5): got %s, want 4bps", rate)
	}

	rate, err = m.RateAt(rational.BeatsFromInt(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate.Cmp(rational.BPSFrac(2, 1)) != 0 {
		t.Errorf("RateAt(2): got %s, want 2bps", rate)
	}
}

func TestConversionBeforeOrigin(t *testing.T) {
	// Positions before beat 0 extrapolate backwards using the first segment's
	// rate instead of failing.
	m := twoSegmentMap()
	got, err := m.SecondsToBeats(rational.SecondsFromInt(-1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(rational.BeatsFromInt(-2)) != 0 {
		t.Errorf("got %s, want -2b", got)
	}

	sec, err := m.BeatsToSeconds(rational.BeatsFromInt(-2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sec.Cmp(rational.SecondsFromInt(-1)) != 0 {
		t.Errorf("got %s, want -1s", sec)
	}
}

func TestEmptyTempoMap(t *testing.T) {
	m := &TempoMap{}
	if _, err := m.BeatsToSeconds(rational.BeatsFromInt(1)); !errors.Is(err, ErrMissingTempo) {
		t.Errorf("expected ErrMissingTempo, got %v", err)
	}
	if _, err := (*TempoMap)(nil).SecondsToBeats(rational.SecondsFromInt(1)); !errors.Is(err, ErrMissingTempo) {
		t.Errorf("expected ErrMissingTempo on nil map, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	m := twoSegmentMap()

	p, err := m.Normalize(AtBeats(rational.BeatsFromInt(10)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsBoth() {
		t.Fatal("expected dual-stamped result")
	}
	sec, _ := p.Seconds()
	if sec.Cmp(rational.SecondsFrac(9, 2)) != 0 {
		t.Errorf("seconds stamp: got %s, want 9/2s", sec)
	}

	// Idempotent: a dual-stamped position passes through untouched even when
	// its stamps disagree with this map.
	odd := Both(rational.SecondsFromInt(100), rational.BeatsFromInt(1))
	p2, err := m.Normalize(odd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s2, _ := p2.Seconds()
	if s2.Cmp(rational.SecondsFromInt(100)) != 0 {
		t.Error("Normalize modified an already dual-stamped position")
	}

	if _, err := m.Normalize(Position{}); !errors.Is(err, ErrIncomparablePosition) {
		t.Errorf("expected ErrIncomparablePosition for the empty position, got %v", err)
	}
}

func TestRestampUsesBeatsAsGroundTruth(t *testing.T) {
	old := twoSegmentMap()
	pos, err := old.Normalize(AtBeats(rational.BeatsFromInt(10)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Halve the tempo everywhere: the beat coordinate must survive, the
	// seconds coordinate must be re-derived.
	slow := BuildTempoMap([]TempoChange{
		{Beat: rational.BeatsFromInt(0), Rate: rational.BPSFrac(1, 1)},
	})
	restamped, err := slow.Restamp(pos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := restamped.Beats()
	if b.Cmp(rational.BeatsFromInt(10)) != 0 {
		t.Errorf("beats changed: got %s", b)
	}
	s, _ := restamped.Seconds()
	if s.Cmp(rational.SecondsFromInt(10)) != 0 {
		t.Errorf("seconds: got %s, want 10s", s)
	}

	// A seconds-only position has no beat truth to keep and is normalized.
	p, err := slow.Restamp(AtSeconds(rational.SecondsFromInt(3)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ = p.Beats()
	if b.Cmp(rational.BeatsFromInt(3)) != 0 {
		t.Errorf("normalized beats: got %s, want 3b", b)
	}
}

// Property: beats -> seconds -> beats is exact on a map with several
// segments, for any rational beat value, positive or negative.
func TestProperty_TempoMapRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	m := BuildTempoMap([]TempoChange{
		{Beat: rational.BeatsFromInt(0), Rate: rational.BPSFrac(2, 1)},
		{Beat: rational.BeatsFrac(7, 2), Rate: rational.BPSFrac(8, 7)},
		{Beat: rational.BeatsFromInt(12), Rate: rational.BPSFrac(5, 2)},
	})

	properties.Property("BeatsToSeconds then SecondsToBeats is the identity", prop.ForAll(
		func(num, den int64) bool {
			b := rational.BeatsFrac(num, den)
			s, err := m.BeatsToSeconds(b)
			if err != nil {
				return false
			}
			back, err := m.SecondsToBeats(s)
			if err != nil {
				return false
			}
			return back.Cmp(b) == 0
		},
		gen.Int64Range(-10_000, 100_000),
		gen.Int64Range(1, 192),
	))

	properties.Property("conversion preserves order", prop.ForAll(
		func(aNum, bNum int64) bool {
			a := rational.BeatsFrac(aNum, 48)
			b := rational.BeatsFrac(bNum, 48)
			as, err := m.BeatsToSeconds(a)
			if err != nil {
				return false
			}
			bs, err := m.BeatsToSeconds(b)
			if err != nil {
				return false
			}
			return as.Cmp(bs) == a.Cmp(b)
		},
		gen.Int64Range(-10_000, 100_000),
		gen.Int64Range(-10_000, 100_000),
	))

	properties.TestingRun(t)
}
