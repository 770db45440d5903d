package midi

import (
	"sort"
	"strings"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/yonetani/drumchart/pkg/chart"
)

// Pro drum tracks carry a stateful overlay on top of the expert pad range
// 96..100 (kick, red, yellow, blue, green):
//
//   - Sustained marker notes 110..112 turn the matching cymbal pad
//     (yellow/blue/green) into a tom for the duration of the marker.
//   - Discobeat text events ("[mix 3 drums0d]" .. "...drums4d]") swap the
//     red and yellow pads, so the snare pattern lands on the hi-hat line and
//     vice versa. A mix event without the "d" suffix switches it back off.
//
// Overlay state changes take effect for every event at their own tick: a pad
// hit simultaneous with its marker-on is already remapped.
const (
	proKick   = 96
	proRed    = 97
	proYellow = 98
	proBlue   = 99
	proGreen  = 100

	tomMarkerLow  = 110
	tomMarkerHigh = 112
)

// expertMixPrefix identifies mix events for the expert difficulty, the only
// difficulty this importer reads.
const expertMixPrefix = "[mix 3 drums"

type tomSpan struct {
	start, end uint32 // inclusive
	pad        uint8  // proYellow, proBlue or proGreen
}

type discoChange struct {
	tick   uint32
	active bool
}

// importProDrums translates a pro drum track. The first pass collects the
// overlay state (tom marker spans, discobeat toggles); the second translates
// pad hits under that state.
func importProDrums(track smf.Track, resolution int) []TimedNote {
	spans, disco := collectOverlay(track)

	tomActive := func(tick uint32, pad uint8) bool {
		for _, sp := range spans {
			if sp.pad == pad && tick >= sp.start && tick <= sp.end {
				return true
			}
		}
		return false
	}

	discoActive := func(tick uint32) bool {
		active := false
		for _, ch := range disco {
			if ch.tick > tick {
				break
			}
			active = ch.active
		}
		return active
	}

	var notes []TimedNote
	var tick uint32
	for _, ev := range track {
		tick += ev.Delta

		var ch, key, vel uint8
		if !ev.Message.GetNoteOn(&ch, &key, &vel) || vel == 0 {
			continue
		}

		var voice chart.Voice
		switch key {
		case proKick:
			voice = chart.VoiceKick
		case proRed:
			if discoActive(tick) {
				voice = chart.VoiceHihatClosed
			} else {
				voice = chart.VoiceSnare
			}
		case proYellow:
			switch {
			case discoActive(tick):
				voice = chart.VoiceSnare
			case tomActive(tick, proYellow):
				voice = chart.VoiceTomYellow
			default:
				voice = chart.VoiceHihatClosed
			}
		case proBlue:
			if tomActive(tick, proBlue) {
				voice = chart.VoiceTomBlue
			} else {
				voice = chart.VoiceRide
			}
		case proGreen:
			if tomActive(tick, proGreen) {
				voice = chart.VoiceTomGreen
			} else {
				voice = chart.VoiceCrash
			}
		default:
			continue
		}

		notes = append(notes, TimedNote{
			Beat: beatAt(tick, resolution),
			Note: chart.Note{Voice: voice, Strength: strengthOf(vel)},
		})
	}
	return notes
}

// collectOverlay walks the track once for marker spans and discobeat
// toggles.
func collectOverlay(track smf.Track) ([]tomSpan, []discoChange) {
	var spans []tomSpan
	var disco []discoChange

	var tick uint32
	for _, ev := range track {
		tick += ev.Delta
		msg := ev.Message

		var text string
		if msg.GetMetaText(&text) {
			if active, ok := parseMixEvent(decodeMetaText(text)); ok {
				disco = append(disco, discoChange{tick: tick, active: active})
			}
			continue
		}

		var ch, key, vel uint8
		switch {
		case msg.GetNoteOn(&ch, &key, &vel) && vel > 0:
			if key >= tomMarkerLow && key <= tomMarkerHigh {
				spans = append(spans, tomSpan{
					start: tick,
					end:   tick, // extended by the matching note-off
					pad:   proYellow + (key - tomMarkerLow),
				})
			}
		case msg.GetNoteOff(&ch, &key, &vel) || (msg.GetNoteOn(&ch, &key, &vel) && vel == 0):
			if key >= tomMarkerLow && key <= tomMarkerHigh {
				pad := proYellow + (key - tomMarkerLow)
				for i := len(spans) - 1; i >= 0; i-- {
					if spans[i].pad == pad && spans[i].end == spans[i].start {
						spans[i].end = tick
						break
					}
				}
			}
		}
	}

	sort.SliceStable(disco, func(i, j int) bool { return disco[i].tick < disco[j].tick })
	return spans, disco
}

// parseMixEvent recognizes expert-difficulty mix events and reports whether
// they switch discobeat on. Returns ok=false for any other text event.
func parseMixEvent(text string) (active, ok bool) {
	if !strings.HasPrefix(text, expertMixPrefix) || !strings.HasSuffix(text, "]") {
		return false, false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(text, expertMixPrefix), "]")
	if body == "" {
		return false, false
	}
	// body is "<n>" or "<n><flags>": a trailing "d" marks discobeat,
	// "dnoflip" keeps the audio flip without remapping the pads.
	flags := strings.TrimLeft(body, "0123456789")
	return flags == "d", true
}
