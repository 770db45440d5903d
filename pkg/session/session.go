// Package session holds the mutable root of the editor: the tempo and
// time-signature maps, the gridlines, the drum chart, and the playback/
// viewport controller that ties them to the audio backend. Everything here
// runs on the single control-loop thread.
package session

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/yonetani/drumchart/pkg/chart"
	"github.com/yonetani/drumchart/pkg/logger"
	"github.com/yonetani/drumchart/pkg/midi"
	"github.com/yonetani/drumchart/pkg/rational"
	"github.com/yonetani/drumchart/pkg/timeline"
)

// State is the playback state machine: paused or playing.
type State int

const (
	Paused State = iota
	Playing
)

// Transport is the slice of the audio backend the session drives. The
// mixer implements it; tests substitute a recorder.
type Transport interface {
	PlayAll()
	PauseAll()
	SeekStems(seconds float64)
	SetRate(rate float64)
	// Position reports the master playback offset in song seconds, false
	// when no stem is loaded.
	Position() (float64, bool)
	RestartClick()
	SetDrumGain(gain float64)
	SetSongGain(gain float64)
}

// nullTransport keeps the session usable with no audio backend at all
// (headless mode); playback then runs on the wall clock.
type nullTransport struct{}

func (nullTransport) PlayAll()                 {}
func (nullTransport) PauseAll()                {}
func (nullTransport) SeekStems(float64)        {}
func (nullTransport) SetRate(float64)          {}
func (nullTransport) Position() (float64, bool) { return 0, false }
func (nullTransport) RestartClick()            {}
func (nullTransport) SetDrumGain(float64)      {}
func (nullTransport) SetSongGain(float64)      {}

const (
	// DefaultZoom is the initial horizontal resolution in pixels per
	// second of timeline.
	DefaultZoom = 100.0
	// MinZoom is the floor the UI clamps zooming out at.
	MinZoom  = 20.0
	ZoomStep = 20.0

	MinSpeed  = 0.1
	MaxSpeed  = 2.0
	SpeedStep = 0.1

	// maxSubdiv bounds how fine the grid subdivision can get.
	maxSubdiv = 256

	// minEndBeats keeps a freshly created or empty chart from collapsing
	// to a zero-length grid.
	minEndBeats = 16
)

// Session is the single mutable root. Construct with NewSession, populate
// with LoadMIDI, mutate through the methods; there is no persistence.
type Session struct {
	log       *slog.Logger
	transport Transport

	tempo *timeline.TempoMap
	sigs  *timeline.TimeSigMap
	grid  *timeline.Gridlines
	notes *chart.Chart

	pos     timeline.Position // always dual-stamped
	endBeat rational.Beats

	state      State
	zoom       float64
	speed      float64
	subdiv     int64 // grid lines every 1/subdiv beat
	metronome  bool
	drumMuted  bool
	songMuted  bool
	audioStart float64
	clock      float64 // wall-clock transport fallback, song seconds
}

// NewSession creates an empty session on the given transport (nil for
// none).
func NewSession(transport Transport) *Session {
	if transport == nil {
		transport = nullTransport{}
	}
	s := &Session{
		log:       logger.GetLogger(),
		transport: transport,
	}
	s.clearAll()
	return s
}

// clearAll resets every derived structure to the empty-chart baseline:
// default tempo and meter, a short default grid, no notes, origin position.
func (s *Session) clearAll() {
	s.tempo = timeline.BuildTempoMap(nil)
	s.sigs, _ = timeline.BuildTimeSigMap(nil, s.tempo)
	s.notes = chart.NewChart()
	s.endBeat = rational.BeatsFromInt(minEndBeats)
	s.pos = timeline.Both(rational.SecondsFromInt(0), rational.BeatsFromInt(0))
	s.state = Paused
	if s.zoom == 0 {
		s.zoom = DefaultZoom
		s.speed = 1.0
		s.subdiv = 2
	}
	s.rebuildGridlines()
}

// ClearAll resets the session to its initial empty state.
func (s *Session) ClearAll() {
	s.transport.PauseAll()
	s.clearAll()
}

// SetAudioStart sets the offset between audio zero and chart zero.
func (s *Session) SetAudioStart(seconds float64) {
	s.audioStart = seconds
}

// LoadMIDI ingests a MIDI file and rebuilds the whole session from it.
// Validation happens inside the importer before anything is touched, so a
// bad file leaves the previous state intact.
func (s *Session) LoadMIDI(path string) error {
	f, err := midi.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load MIDI: %w", err)
	}
	s.Install(f)
	s.log.Info("chart loaded",
		"path", path,
		"resolution", f.Resolution,
		"drumTrack", f.DrumTrack,
		"tempoChanges", s.tempo.Len(),
		"timeSignatures", s.sigs.Len(),
		"positions", s.notes.Len(),
		"notes", s.notes.NoteCount(),
		"gridlines", s.grid.Len(),
	)
	return nil
}

// Install replaces the session contents with an already-parsed MIDI file.
func (s *Session) Install(f *midi.File) {
	s.transport.PauseAll()
	s.state = Paused

	s.tempo = timeline.BuildTempoMap(f.TempoChanges)
	s.sigs, _ = timeline.BuildTimeSigMap(f.TimeSigs, s.tempo)

	s.endBeat = f.EndBeat
	if s.endBeat.Cmp(rational.BeatsFromInt(minEndBeats)) < 0 {
		s.endBeat = rational.BeatsFromInt(minEndBeats)
	}

	s.notes = chart.NewChart()
	for _, tn := range f.Notes {
		pos, err := s.tempo.Normalize(timeline.AtBeats(tn.Beat))
		if err != nil {
			continue
		}
		s.notes.Add(pos, tn.Note)
	}

	s.pos = timeline.Both(rational.SecondsFromInt(0), rational.BeatsFromInt(0))
	s.clock = 0
	s.rebuildGridlines()
}

// ReplaceTempoMap swaps in a new tempo map and re-stamps every
// position-keyed structure against it. Beats are the ground truth; stored
// seconds are recomputed. The whole swap is one synchronous step, so a
// reader never sees a position stamped against a stale map.
func (s *Session) ReplaceTempoMap(changes []timeline.TempoChange) error {
	s.tempo = timeline.BuildTempoMap(changes)
	if err := s.sigs.Restamp(s.tempo); err != nil {
		return err
	}
	if err := s.notes.Restamp(s.tempo); err != nil {
		return err
	}
	pos, err := s.tempo.Restamp(s.pos)
	if err != nil {
		return err
	}
	s.pos = pos
	s.rebuildGridlines()
	return nil
}

// rebuildGridlines regenerates the full gridline set. Regeneration rather
// than patching: cost is proportional to timeline length, not edit count.
func (s *Session) rebuildGridlines() {
	dvn := rational.BeatsFrac(1, s.subdiv)
	grid, err := timeline.GenerateGridlines(s.sigs, dvn, s.endBeat, s.tempo)
	if err != nil {
		s.log.Error("gridline generation failed", "error", err)
		grid = &timeline.Gridlines{}
	}
	s.grid = grid
}

// State returns the playback state.
func (s *Session) State() State {
	return s.state
}

// Pos returns the current dual-stamped position.
func (s *Session) Pos() timeline.Position {
	return s.pos
}

func (s *Session) posSeconds() float64 {
	sec, _ := s.pos.Seconds()
	return sec.Float64()
}

// TogglePlay switches between paused and playing, starting or pausing the
// audio sources.
func (s *Session) TogglePlay() {
	if s.state == Playing {
		s.transport.PauseAll()
		s.state = Paused
		return
	}
	s.transport.SetRate(s.speed)
	s.transport.SeekStems(s.audioStart + s.posSeconds())
	s.transport.PlayAll()
	s.clock = s.posSeconds()
	s.state = Playing
}

// Advance is the playing-state tick: query the audio clock (or advance the
// wall-clock fallback by dt), convert to a dual-stamped position, fire the
// metronome for grid crossings, and store the new position. A no-op while
// paused.
func (s *Session) Advance(dt float64) {
	if s.state != Playing {
		return
	}

	var sec float64
	if p, ok := s.transport.Position(); ok {
		sec = p - s.audioStart
	} else {
		s.clock += dt * s.speed
		sec = s.clock
	}
	if sec < 0 {
		sec = 0
	}

	newPos, err := s.tempo.Normalize(timeline.AtSeconds(rational.SecondsFromFloat(sec)))
	if err != nil {
		s.log.Error("position normalization failed", "error", err)
		return
	}

	// One click per tick no matter how many lines the tick crossed.
	if s.metronome && s.grid.CrossedBeatOrMeasure(s.pos, newPos) {
		s.transport.RestartClick()
	}
	s.pos = newPos
}

// seekTo moves the current position. While playing the audio sources are
// paused, repositioned, and resumed in one step, so no frame is drawn at a
// stale position.
func (s *Session) seekTo(pos timeline.Position) {
	wasPlaying := s.state == Playing
	if wasPlaying {
		s.transport.PauseAll()
	}
	s.pos = pos
	sec := s.posSeconds()
	s.clock = sec
	s.transport.SeekStems(s.audioStart + sec)
	if wasPlaying {
		s.transport.PlayAll()
	}
}

// SeekForward jumps to the next gridline after the current position.
func (s *Session) SeekForward() {
	if line, ok := s.grid.NextAfter(s.pos); ok {
		s.seekTo(line.Pos)
	}
}

// SeekBackward jumps to the previous gridline before the current position.
func (s *Session) SeekBackward() {
	if line, ok := s.grid.PrevBefore(s.pos); ok {
		s.seekTo(line.Pos)
	}
}

// Rewind jumps back to the start of the timeline.
func (s *Session) Rewind() {
	s.seekTo(timeline.Both(rational.SecondsFromInt(0), rational.BeatsFromInt(0)))
}

// ToggleNote flips the given note at the current position, under the
// one-note-per-lane rule.
func (s *Session) ToggleNote(n chart.Note) {
	s.notes.Toggle(s.pos, n)
}

// ZoomIn raises the horizontal resolution.
func (s *Session) ZoomIn() {
	s.zoom += ZoomStep
}

// ZoomOut lowers the horizontal resolution down to MinZoom.
func (s *Session) ZoomOut() {
	s.zoom = math.Max(MinZoom, s.zoom-ZoomStep)
}

// Zoom returns the horizontal resolution in pixels per second.
func (s *Session) Zoom() float64 {
	return s.zoom
}

// SpeedUp raises the playback speed up to MaxSpeed.
func (s *Session) SpeedUp() {
	s.setSpeed(s.speed + SpeedStep)
}

// SpeedDown lowers the playback speed down to MinSpeed.
func (s *Session) SpeedDown() {
	s.setSpeed(s.speed - SpeedStep)
}

func (s *Session) setSpeed(v float64) {
	// Steps are 0.1; rounding keeps repeated steps from drifting.
	v = math.Round(v*10) / 10
	s.speed = math.Max(MinSpeed, math.Min(MaxSpeed, v))
	if s.state == Playing {
		s.transport.SetRate(s.speed)
	}
}

// Speed returns the playback speed multiplier.
func (s *Session) Speed() float64 {
	return s.speed
}

// SubdivFiner halves the grid subdivision fraction.
func (s *Session) SubdivFiner() {
	if s.subdiv >= maxSubdiv {
		return
	}
	s.subdiv *= 2
	s.rebuildGridlines()
}

// SubdivCoarser doubles the subdivision fraction; a no-op below 1/2.
func (s *Session) SubdivCoarser() {
	if s.subdiv <= 2 {
		return
	}
	s.subdiv /= 2
	s.rebuildGridlines()
}

// Subdiv returns the subdivision denominator d of the 1/d grid.
func (s *Session) Subdiv() int64 {
	return s.subdiv
}

// ToggleMetronome flips the metronome click.
func (s *Session) ToggleMetronome() {
	s.metronome = !s.metronome
}

// MetronomeOn reports whether the metronome click is enabled.
func (s *Session) MetronomeOn() bool {
	return s.metronome
}

// ToggleDrumMute flips the drum stems between silent and full gain.
func (s *Session) ToggleDrumMute() {
	s.drumMuted = !s.drumMuted
	if s.drumMuted {
		s.transport.SetDrumGain(0)
	} else {
		s.transport.SetDrumGain(1)
	}
}

// ToggleSongMute flips the song stems between silent and full gain.
func (s *Session) ToggleSongMute() {
	s.songMuted = !s.songMuted
	if s.songMuted {
		s.transport.SetSongGain(0)
	} else {
		s.transport.SetSongGain(1)
	}
}

// DrumMuted reports whether the drum stems are muted.
func (s *Session) DrumMuted() bool { return s.drumMuted }

// SongMuted reports whether the song stems are muted.
func (s *Session) SongMuted() bool { return s.songMuted }

// Chart exposes the note store (read-mostly; edits go through ToggleNote).
func (s *Session) Chart() *chart.Chart {
	return s.notes
}

// Tempo exposes the tempo map.
func (s *Session) Tempo() *timeline.TempoMap {
	return s.tempo
}

// Gridlines exposes the derived gridline set.
func (s *Session) Gridlines() *timeline.Gridlines {
	return s.grid
}

// CurrentBPM returns the tempo at the current position, for display.
func (s *Session) CurrentBPM() float64 {
	b, ok := s.pos.Beats()
	if !ok {
		return 0
	}
	rate, err := s.tempo.RateAt(b)
	if err != nil {
		return 0
	}
	return rate.Float64() * 60
}

// CurrentSig returns the meter at the current position, for display.
func (s *Session) CurrentSig() timeline.TimeSig {
	b, ok := s.pos.Beats()
	if !ok {
		return timeline.DefaultTimeSig
	}
	return s.sigs.SigAt(b)
}
