// Package audio is the playback backend: up to five named sources (split
// drum and song stems plus the metronome click) mixed by ebiten's audio
// context, each behind a stream that handles playback rate, pan, gain, and
// sample-accurate position queries.
package audio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	eaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"

	"github.com/yonetani/drumchart/pkg/logger"
)

// SampleRate is the shared audio context rate.
const SampleRate = 44100

// SourceID names one of the mixer's sources.
type SourceID int

const (
	SourceDrumLeft SourceID = iota
	SourceDrumRight
	SourceSongLeft
	SourceSongRight
	SourceClick
	numSources
)

func (id SourceID) String() string {
	switch id {
	case SourceDrumLeft:
		return "drum-left"
	case SourceDrumRight:
		return "drum-right"
	case SourceSongLeft:
		return "song-left"
	case SourceSongRight:
		return "song-right"
	case SourceClick:
		return "click"
	default:
		return fmt.Sprintf("source(%d)", int(id))
	}
}

// stemFiles maps each stem source to its base filename in the audio
// directory; .ogg is tried first, then .wav.
var stemFiles = map[SourceID]string{
	SourceDrumLeft:  "drums_l",
	SourceDrumRight: "drums_r",
	SourceSongLeft:  "song_l",
	SourceSongRight: "song_r",
}

type source struct {
	stream *pcmStream
	player *eaudio.Player
}

// Mixer owns the audio context and sources. All methods are called from the
// control loop; the streams themselves are thread-safe against ebiten's
// audio thread.
type Mixer struct {
	ctx     *eaudio.Context
	sources [numSources]*source
}

// NewMixer creates a mixer on the given context, or on a fresh one when ctx
// is nil. Ebiten allows a single context per process, so tests and the UI
// share whatever exists.
func NewMixer(ctx *eaudio.Context) *Mixer {
	if ctx == nil {
		ctx = eaudio.NewContext(SampleRate)
	}
	return &Mixer{ctx: ctx}
}

// LoadStems scans dir for the stem files and creates a source per stem
// found. Missing stems are skipped with a log line; decode failures fail the
// load.
func (m *Mixer) LoadStems(dir string) error {
	log := logger.GetLogger()
	for id, base := range stemFiles {
		path, ok := findStem(dir, base)
		if !ok {
			log.Debug("stem not found, skipping", "source", id.String(), "base", base)
			continue
		}
		pcm, err := decodeStem(path)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		if err := m.install(id, pcm); err != nil {
			return err
		}
		log.Info("stem loaded", "source", id.String(), "path", path,
			"seconds", float64(len(pcm)/bytesPerFrame)/SampleRate)
	}

	// Hard-panned stem pairs: left stems left, right stems right.
	m.SetPan(SourceDrumLeft, -1)
	m.SetPan(SourceDrumRight, 1)
	m.SetPan(SourceSongLeft, -1)
	m.SetPan(SourceSongRight, 1)
	return nil
}

// SetClickPCM installs the metronome click buffer, parked past its end so it
// stays silent until the first RestartClick.
func (m *Mixer) SetClickPCM(pcm []byte) error {
	if err := m.install(SourceClick, pcm); err != nil {
		return err
	}
	m.sources[SourceClick].stream.SeekSeconds(float64(len(pcm)/bytesPerFrame) / SampleRate)
	return nil
}

func (m *Mixer) install(id SourceID, pcm []byte) error {
	st := newPCMStream(pcm)
	pl, err := m.ctx.NewPlayer(st)
	if err != nil {
		return fmt.Errorf("failed to create player for %s: %w", id, err)
	}
	m.sources[id] = &source{stream: st, player: pl}
	return nil
}

func findStem(dir, base string) (string, bool) {
	for _, ext := range []string{".ogg", ".wav"} {
		path := filepath.Join(dir, base+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// decodeStem decodes an ogg or wav file to interleaved int16 stereo PCM at
// SampleRate.
func decodeStem(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var stream io.Reader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ogg":
		s, err := vorbis.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		stream = s
	case ".wav":
		s, err := wav.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		stream = s
	default:
		return nil, fmt.Errorf("unsupported stem extension: %s", path)
	}
	return io.ReadAll(stream)
}

// HasStems reports whether any stem source loaded. Without stems the session
// falls back to a wall-clock transport.
func (m *Mixer) HasStems() bool {
	for id := range stemFiles {
		if m.sources[id] != nil {
			return true
		}
	}
	return false
}

// PlayAll starts every loaded source, click included.
func (m *Mixer) PlayAll() {
	for _, s := range m.sources {
		if s != nil && !s.player.IsPlaying() {
			s.player.Play()
		}
	}
}

// PauseAll pauses every loaded source.
func (m *Mixer) PauseAll() {
	for _, s := range m.sources {
		if s != nil {
			s.player.Pause()
		}
	}
}

// SeekStems moves every stem source to the given song-time offset. The click
// is not a stem and keeps its own cursor.
func (m *Mixer) SeekStems(seconds float64) {
	for id := range stemFiles {
		if s := m.sources[id]; s != nil {
			s.stream.SeekSeconds(seconds)
		}
	}
}

// SetRate sets the playback rate (and thus pitch) on every stem source.
func (m *Mixer) SetRate(rate float64) {
	for id := range stemFiles {
		if s := m.sources[id]; s != nil {
			s.stream.SetRate(rate)
		}
	}
}

// Position returns the song-time offset of the first loaded stem, which
// serves as the master playback clock.
func (m *Mixer) Position() (float64, bool) {
	for _, id := range []SourceID{SourceDrumLeft, SourceDrumRight, SourceSongLeft, SourceSongRight} {
		if s := m.sources[id]; s != nil {
			return s.stream.PositionSeconds(), true
		}
	}
	return 0, false
}

// SetPan sets the stereo balance of one source.
func (m *Mixer) SetPan(id SourceID, pan float64) {
	if s := m.sources[id]; s != nil {
		s.stream.SetPan(pan)
	}
}

// SetGain sets the gain of one source.
func (m *Mixer) SetGain(id SourceID, gain float64) {
	if s := m.sources[id]; s != nil {
		s.stream.SetGain(gain)
	}
}

// SetDrumGain sets both drum stems at once (mute toggling).
func (m *Mixer) SetDrumGain(gain float64) {
	m.SetGain(SourceDrumLeft, gain)
	m.SetGain(SourceDrumRight, gain)
}

// SetSongGain sets both song stems at once (mute toggling).
func (m *Mixer) SetSongGain(gain float64) {
	m.SetGain(SourceSongLeft, gain)
	m.SetGain(SourceSongRight, gain)
}

// RestartClick rewinds the click source to time zero so the next audio pull
// plays it from the top.
func (m *Mixer) RestartClick() {
	if s := m.sources[SourceClick]; s != nil {
		s.stream.SeekSeconds(0)
		if !s.player.IsPlaying() {
			s.player.Play()
		}
	}
}
