// Package midi ingests Standard MIDI Files into the chart model. Byte-level
// parsing is delegated to gomidi/smf; this package turns the event stream
// into beat-indexed tempo changes, time signatures, and drum notes.
//
// Parsing is deliberately permissive: unrecognized pitches and malformed
// meta events contribute nothing instead of failing the load, so charts from
// varied authoring tools still open. The only hard failure is a file whose
// time format is not tick-based.
package midi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/yonetani/drumchart/pkg/chart"
	"github.com/yonetani/drumchart/pkg/rational"
	"github.com/yonetani/drumchart/pkg/timeline"
)

// ErrUnsupportedFormat is returned when the file does not use tick-based
// (metric) timing. SMPTE-timed files cannot be mapped onto a beat grid.
var ErrUnsupportedFormat = errors.New("unsupported MIDI format: metric tick resolution required")

// Drum track names recognized by exact match. PartDrums charts carry the
// stateful pro-drums overlay (tom markers, discobeat); PlainDrums charts use
// the flat percussion pitch table.
const (
	PartDrums  = "PART DRUMS"
	PlainDrums = "onyx_drums"
)

// TimedNote is one imported drum hit, indexed by musical time.
type TimedNote struct {
	Beat rational.Beats
	Note chart.Note
}

// File is the result of ingesting a MIDI file: everything the session needs
// to rebuild its maps and chart, still beat-indexed.
type File struct {
	Resolution   int // ticks per quarter note
	TempoChanges []timeline.TempoChange
	TimeSigs     []timeline.SigChange
	Notes        []TimedNote
	DrumTrack    string // name of the track the notes came from, "" if none
	EndBeat      rational.Beats
}

// Load reads and ingests the MIDI file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse ingests a MIDI file from r. Validation happens before any result is
// built, so a failed parse leaves the caller's state untouched.
func Parse(r io.Reader) (f *File, err error) {
	// The smf reader panics on some truncated files.
	defer func() {
		if rec := recover(); rec != nil {
			f = nil
			err = fmt.Errorf("malformed MIDI file: %v", rec)
		}
	}()

	data, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI file: %w", err)
	}

	ticks, ok := data.TimeFormat.(smf.MetricTicks)
	if !ok || int(ticks) <= 0 {
		return nil, ErrUnsupportedFormat
	}

	f = &File{Resolution: int(ticks)}
	if len(data.Tracks) == 0 {
		f.EndBeat = rational.BeatsFromInt(0)
		return f, nil
	}

	// The first track supplies global tempo and meter regardless of name.
	f.TempoChanges, f.TimeSigs = extractConductor(data.Tracks[0], f.Resolution)

	for _, track := range data.Tracks {
		switch trackName(track) {
		case PartDrums:
			f.Notes = importProDrums(track, f.Resolution)
			f.DrumTrack = PartDrums
		case PlainDrums:
			f.Notes = importPlainDrums(track, f.Resolution)
			f.DrumTrack = PlainDrums
		}
		if f.DrumTrack != "" {
			break
		}
	}

	f.EndBeat = lastEventBeat(data.Tracks, f.Resolution)
	return f, nil
}

// beatAt converts an absolute tick offset into exact beats.
func beatAt(tick uint32, resolution int) rational.Beats {
	return rational.BeatsFrac(int64(tick), int64(resolution))
}

// extractConductor pulls tempo and time-signature events out of the
// conductor track.
func extractConductor(track smf.Track, resolution int) ([]timeline.TempoChange, []timeline.SigChange) {
	var tempos []timeline.TempoChange
	var sigs []timeline.SigChange

	var tick uint32
	for _, ev := range track {
		tick += ev.Delta
		msg := ev.Message

		var bpm float64
		if msg.GetMetaTempo(&bpm) {
			if bpm <= 0 {
				continue
			}
			// The file stores integer microseconds per beat; rounding the
			// reported BPM back recovers it exactly.
			micros := int64(math.Round(60_000_000 / bpm))
			if micros <= 0 {
				continue
			}
			tempos = append(tempos, timeline.TempoChange{
				Beat: beatAt(tick, resolution),
				Rate: rational.BPSFromMicrosPerBeat(micros),
			})
			continue
		}

		var num, denom uint8
		if msg.GetMetaMeter(&num, &denom) {
			if num == 0 || denom == 0 {
				continue
			}
			sigs = append(sigs, timeline.SigChange{
				Beat: beatAt(tick, resolution),
				Sig: timeline.TimeSig{
					Count: int(num),
					Unit:  rational.BeatsFrac(4, int64(denom)),
				},
			})
		}
	}
	return tempos, sigs
}

// trackName returns the track's name meta event, with the charset fixups of
// decodeMetaText applied. Empty when the track is unnamed.
func trackName(track smf.Track) string {
	for _, ev := range track {
		var name string
		if ev.Message.GetMetaTrackName(&name) {
			return decodeMetaText(name)
		}
	}
	return ""
}

// lastEventBeat returns the beat of the last event across all tracks, the
// timeline end marker.
func lastEventBeat(tracks []smf.Track, resolution int) rational.Beats {
	var last uint32
	for _, track := range tracks {
		var tick uint32
		for _, ev := range track {
			tick += ev.Delta
		}
		if tick > last {
			last = tick
		}
	}
	return beatAt(last, resolution)
}

// strengthOf maps a note-on velocity to a hit strength.
func strengthOf(velocity uint8) chart.Strength {
	if velocity >= 64 {
		return chart.Normal
	}
	return chart.Ghost
}
