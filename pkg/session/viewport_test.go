package session

import (
	"testing"

	"github.com/yonetani/drumchart/pkg/chart"
	"github.com/yonetani/drumchart/pkg/rational"
	"github.com/yonetani/drumchart/pkg/timeline"
)

func TestScreenX(t *testing.T) {
	s, _ := newTestSession(t)

	tests := []struct {
		name    string
		seconds rational.Seconds
		want    int
	}{
		{"at the cursor", rational.SecondsFromInt(0), OriginX},
		{"half a second ahead", rational.SecondsFrac(1, 2), OriginX + 50},
		{"behind the cursor", rational.SecondsFromInt(-1), OriginX - 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, ok := s.ScreenX(timeline.AtSeconds(tt.seconds))
			if !ok {
				t.Fatal("expected a screen position")
			}
			if x != tt.want {
				t.Errorf("got %d, want %d", x, tt.want)
			}
		})
	}

	if _, ok := s.ScreenX(timeline.AtBeats(rational.BeatsFromInt(1))); ok {
		t.Error("a beats-only position has no screen column")
	}
}

func TestScreenXFollowsZoom(t *testing.T) {
	s, _ := newTestSession(t)
	s.ZoomIn() // 120 px/s

	x, _ := s.ScreenX(timeline.AtSeconds(rational.SecondsFromInt(1)))
	if x != OriginX+120 {
		t.Errorf("got %d, want %d", x, OriginX+120)
	}
}

func TestVisibleGridlinesWindow(t *testing.T) {
	s, _ := newTestSession(t)

	// 1280 px at 100 px/s puts the right edge 11.2s past the cursor; the
	// default 16-beat grid ends at 8s, so every line is visible.
	var xs []int
	s.VisibleGridlines(1280, func(x int, kind timeline.LineKind) {
		xs = append(xs, x)
	})
	if len(xs) != s.Gridlines().Len() {
		t.Fatalf("visible lines: got %d, want %d", len(xs), s.Gridlines().Len())
	}

	// A narrow viewport cuts the set down.
	xs = xs[:0]
	s.VisibleGridlines(200, func(x int, kind timeline.LineKind) {
		xs = append(xs, x)
		if x < -VisibleMargin || x > 200+VisibleMargin {
			t.Errorf("line at %d outside the margin", x)
		}
	})
	if len(xs) == 0 || len(xs) == s.Gridlines().Len() {
		t.Errorf("narrow viewport: got %d of %d lines", len(xs), s.Gridlines().Len())
	}
}

func TestVisibleNotes(t *testing.T) {
	s, _ := newTestSession(t)

	// Notes at beats 0 and 1, plus one far past the right edge.
	s.ToggleNote(chart.Note{Voice: chart.VoiceKick})
	s.SeekForward()
	s.SeekForward()
	s.ToggleNote(chart.Note{Voice: chart.VoiceSnare})
	far, err := s.Tempo().Normalize(timeline.AtBeats(rational.BeatsFromInt(100)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Chart().Add(far, chart.Note{Voice: chart.VoiceCrash})
	s.Rewind()

	var seen []chart.Voice
	s.VisibleNotes(1280, func(x int, notes []chart.Note) {
		for _, n := range notes {
			seen = append(seen, n.Voice)
		}
	})

	if len(seen) != 2 {
		t.Fatalf("visible notes: got %v", seen)
	}
	for _, v := range seen {
		if v == chart.VoiceCrash {
			t.Error("the far note should be culled")
		}
	}
}
