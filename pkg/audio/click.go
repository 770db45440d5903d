package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"

	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/yonetani/drumchart/pkg/logger"
)

// clickSeconds is the length of the rendered metronome click.
const clickSeconds = 0.08

// sideStickKey is the GM percussion key rendered for the click.
const sideStickKey = 37

// percussionChannel is the GM percussion channel (0-based).
const percussionChannel = 9

// LoadClick renders the metronome click: a SoundFont side-stick when a
// SoundFont is available, a synthesized sine burst otherwise.
func LoadClick(soundFontPath string) []byte {
	log := logger.GetLogger()
	if soundFontPath != "" {
		if pcm, err := renderSoundFontClick(soundFontPath); err == nil {
			log.Info("metronome click rendered from SoundFont", "path", soundFontPath)
			return pcm
		} else {
			log.Warn("SoundFont click failed, falling back to sine burst", "error", err)
		}
	}
	return sineClick()
}

// renderSoundFontClick renders one percussion note through meltysynth into a
// PCM buffer.
func renderSoundFontClick(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	soundFont, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synth, err := meltysynth.NewSynthesizer(soundFont, settings)
	if err != nil {
		return nil, err
	}

	synth.NoteOn(percussionChannel, sideStickKey, 110)

	frames := int(clickSeconds * SampleRate)
	left := make([]float32, frames)
	right := make([]float32, frames)
	synth.Render(left, right)

	pcm := make([]byte, frames*bytesPerFrame)
	for i := 0; i < frames; i++ {
		l := int16(clamp32(left[i]) * math.MaxInt16)
		r := int16(clamp32(right[i]) * math.MaxInt16)
		binary.LittleEndian.PutUint16(pcm[i*bytesPerFrame:], uint16(l))
		binary.LittleEndian.PutUint16(pcm[i*bytesPerFrame+2:], uint16(r))
	}
	return pcm, nil
}

func clamp32(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// sineClick synthesizes a decaying 1 kHz burst.
func sineClick() []byte {
	frames := int(clickSeconds * SampleRate)
	pcm := make([]byte, frames*bytesPerFrame)
	for i := 0; i < frames; i++ {
		t := float64(i) / SampleRate
		env := 1 - float64(i)/float64(frames)
		v := int16(math.Sin(2*math.Pi*1000*t) * env * 0.6 * math.MaxInt16)
		binary.LittleEndian.PutUint16(pcm[i*bytesPerFrame:], uint16(v))
		binary.LittleEndian.PutUint16(pcm[i*bytesPerFrame+2:], uint16(v))
	}
	return pcm
}

// FindSoundFont looks for the default SoundFont next to the binary and in
// the audio directory, in that order.
func FindSoundFont(audioDir string) string {
	const name = "GeneralUser-GS.sf2"
	candidates := []string{name}
	if audioDir != "" {
		candidates = append(candidates, filepath.Join(audioDir, name))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
