package midi

import (
	"testing"

	gm "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/yonetani/drumchart/pkg/chart"
	"github.com/yonetani/drumchart/pkg/rational"
)

func proVoices(notes []TimedNote) []chart.Voice {
	out := make([]chart.Voice, len(notes))
	for i, n := range notes {
		out[i] = n.Note.Voice
	}
	return out
}

func TestImportProDrumsPads(t *testing.T) {
	var tr smf.Track
	tr.Add(0, gm.NoteOn(0, proKick, 100))
	tr.Add(0, gm.NoteOn(0, proRed, 100))
	tr.Add(0, gm.NoteOn(0, proYellow, 100))
	tr.Add(0, gm.NoteOn(0, proBlue, 100))
	tr.Add(0, gm.NoteOn(0, proGreen, 40))
	tr.Close(0)

	notes := importProDrums(tr, 480)
	want := []chart.Voice{
		chart.VoiceKick,
		chart.VoiceSnare,
		chart.VoiceHihatClosed,
		chart.VoiceRide,
		chart.VoiceCrash,
	}
	got := proVoices(notes)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pad %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if notes[4].Note.Strength != chart.Ghost {
		t.Error("quiet green pad should import as a ghost hit")
	}
}

func TestImportProDrumsTomMarkers(t *testing.T) {
	// Yellow tom marker covers ticks [0, 480]; a pad hit simultaneous with
	// the marker edges is remapped, one past the end is not.
	var tr smf.Track
	tr.Add(0, gm.NoteOn(0, 110, 100))       // marker on
	tr.Add(0, gm.NoteOn(0, proYellow, 100)) // tick 0: tom
	tr.Add(480, gm.NoteOn(0, proYellow, 90)) // tick 480: still tom (inclusive end)
	tr.Add(0, gm.NoteOff(0, 110))            // marker off at 480
	tr.Add(480, gm.NoteOn(0, proYellow, 80)) // tick 960: cymbal again
	tr.Close(0)

	got := proVoices(importProDrums(tr, 480))
	want := []chart.Voice{chart.VoiceTomYellow, chart.VoiceTomYellow, chart.VoiceHihatClosed}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hit %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestImportProDrumsMarkerPads(t *testing.T) {
	// Markers 110, 111, 112 map to the yellow, blue, green pads in order.
	var tr smf.Track
	tr.Add(0, gm.NoteOn(0, 111, 100))
	tr.Add(0, gm.NoteOn(0, 112, 100))
	tr.Add(0, gm.NoteOn(0, proYellow, 100)) // unmarked: cymbal
	tr.Add(0, gm.NoteOn(0, proBlue, 100))   // marked: tom
	tr.Add(0, gm.NoteOn(0, proGreen, 100))  // marked: tom
	tr.Add(10, gm.NoteOff(0, 111))
	tr.Add(0, gm.NoteOff(0, 112))
	tr.Close(0)

	got := proVoices(importProDrums(tr, 480))
	want := []chart.Voice{chart.VoiceHihatClosed, chart.VoiceTomBlue, chart.VoiceTomGreen}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hit %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestImportProDrumsDiscobeat(t *testing.T) {
	// Discobeat swaps the red and yellow pads between its on and off events.
	var tr smf.Track
	tr.Add(0, smf.MetaText("[mix 3 drums0d]"))
	tr.Add(0, gm.NoteOn(0, proRed, 100))     // swapped: hi-hat
	tr.Add(0, gm.NoteOn(0, proYellow, 100))  // swapped: snare
	tr.Add(480, smf.MetaText("[mix 3 drums0]"))
	tr.Add(0, gm.NoteOn(0, proRed, 100))    // back to snare
	tr.Add(0, gm.NoteOn(0, proYellow, 100)) // back to hi-hat
	tr.Close(0)

	got := proVoices(importProDrums(tr, 480))
	want := []chart.Voice{
		chart.VoiceHihatClosed,
		chart.VoiceSnare,
		chart.VoiceSnare,
		chart.VoiceHihatClosed,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hit %d: got %s, want %s", i, got[i], want[i])
		}
	}

	// Beat indexing: the second pair sits one beat in.
	notes := importProDrums(tr, 480)
	if notes[2].Beat.Cmp(rational.BeatsFromInt(1)) != 0 {
		t.Errorf("hit 2 beat: got %s, want 1b", notes[2].Beat)
	}
}

func TestParseMixEvent(t *testing.T) {
	tests := []struct {
		text       string
		active, ok bool
	}{
		{"[mix 3 drums0d]", true, true},
		{"[mix 3 drums4d]", true, true},
		{"[mix 3 drums0]", false, true},
		{"[mix 3 drums2dnoflip]", false, true},
		{"[mix 2 drums0d]", false, false}, // hard difficulty, ignored
		{"[mix 3 drums]", false, false},
		{"section verse", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			active, ok := parseMixEvent(tt.text)
			if active != tt.active || ok != tt.ok {
				t.Errorf("got (%v, %v), want (%v, %v)", active, ok, tt.active, tt.ok)
			}
		})
	}
}
