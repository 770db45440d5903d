// Package chart holds the drum chart: an ordered mapping from dual-stamped
// timeline positions to sets of simultaneous notes, with the lane-exclusion
// rules for editing.
package chart

import "fmt"

// Voice identifies a drum voice. Voices are grouped into staff lanes; two
// voices sharing a lane cannot occupy the same position.
type Voice int

const (
	VoiceKick Voice = iota
	VoiceSnare
	VoiceSnareFlam
	VoiceTomYellow
	VoiceTomBlue
	VoiceTomGreen
	VoiceHihatFoot
	VoiceHihatClosed
	VoiceHihatOpen
	VoiceRide
	VoiceCrash
	voiceCount
)

// NumLanes is the number of staff lanes, bottom (feet) to top (cymbals).
const NumLanes = 5

// Lane returns the staff lane the voice renders on: 0 feet (kick, hi-hat
// pedal), 1 snare, 2 yellow (high tom, hi-hat), 3 blue (mid tom, ride),
// 4 green (low tom, crash).
func (v Voice) Lane() int {
	switch v {
	case VoiceKick, VoiceHihatFoot:
		return 0
	case VoiceSnare, VoiceSnareFlam:
		return 1
	case VoiceTomYellow, VoiceHihatClosed, VoiceHihatOpen:
		return 2
	case VoiceTomBlue, VoiceRide:
		return 3
	default:
		return 4
	}
}

func (v Voice) String() string {
	switch v {
	case VoiceKick:
		return "kick"
	case VoiceSnare:
		return "snare"
	case VoiceSnareFlam:
		return "snare-flam"
	case VoiceTomYellow:
		return "tom-yellow"
	case VoiceTomBlue:
		return "tom-blue"
	case VoiceTomGreen:
		return "tom-green"
	case VoiceHihatFoot:
		return "hihat-foot"
	case VoiceHihatClosed:
		return "hihat-closed"
	case VoiceHihatOpen:
		return "hihat-open"
	case VoiceRide:
		return "ride"
	case VoiceCrash:
		return "crash"
	default:
		return fmt.Sprintf("voice(%d)", int(v))
	}
}

// Strength is the hit strength of a note.
type Strength int

const (
	Normal Strength = iota
	Ghost
)

func (s Strength) String() string {
	if s == Ghost {
		return "ghost"
	}
	return "normal"
}

// Note is one drum hit: a voice and its strength.
type Note struct {
	Voice    Voice
	Strength Strength
}

func (n Note) String() string {
	if n.Strength == Ghost {
		return n.Voice.String() + " (ghost)"
	}
	return n.Voice.String()
}

// less orders notes within a position set, for deterministic storage.
func (n Note) less(o Note) bool {
	if n.Voice != o.Voice {
		return n.Voice < o.Voice
	}
	return n.Strength < o.Strength
}
