package midi

import (
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/yonetani/drumchart/pkg/chart"
)

// The plain drum track uses the General MIDI percussion pitches. Toms take
// their lane color from the event channel; everything else ignores channel.
//
//	35/36  kick            42  closed hi-hat
//	38     snare           44  hi-hat pedal
//	40     snare flam      46  open hi-hat
//	41..50 toms            51  ride
//	49/57  crash
var plainVoices = map[uint8]chart.Voice{
	35: chart.VoiceKick,
	36: chart.VoiceKick,
	38: chart.VoiceSnare,
	40: chart.VoiceSnareFlam,
	42: chart.VoiceHihatClosed,
	44: chart.VoiceHihatFoot,
	46: chart.VoiceHihatOpen,
	49: chart.VoiceCrash,
	51: chart.VoiceRide,
	57: chart.VoiceCrash,
}

var plainTomPitches = map[uint8]bool{
	41: true, 43: true, 45: true, 47: true, 48: true, 50: true,
}

// tomVoiceForChannel picks the tom lane color from the event channel.
// Channels 1, 2, 3 select yellow, blue, green; anything else defaults to
// blue.
func tomVoiceForChannel(ch uint8) chart.Voice {
	switch ch {
	case 1:
		return chart.VoiceTomYellow
	case 3:
		return chart.VoiceTomGreen
	default:
		return chart.VoiceTomBlue
	}
}

// importPlainDrums translates a plain drum track through the percussion
// pitch table. Unrecognized pitches contribute nothing.
func importPlainDrums(track smf.Track, resolution int) []TimedNote {
	var notes []TimedNote

	var tick uint32
	for _, ev := range track {
		tick += ev.Delta

		var ch, key, vel uint8
		if !ev.Message.GetNoteOn(&ch, &key, &vel) || vel == 0 {
			continue
		}

		var voice chart.Voice
		switch {
		case plainTomPitches[key]:
			voice = tomVoiceForChannel(ch)
		default:
			v, ok := plainVoices[key]
			if !ok {
				continue
			}
			voice = v
		}

		notes = append(notes, TimedNote{
			Beat: beatAt(tick, resolution),
			Note: chart.Note{Voice: voice, Strength: strengthOf(vel)},
		})
	}
	return notes
}
