package audio

import (
	"encoding/binary"
	"math"
	"sync"
)

// pcmStream serves a decoded 16-bit stereo PCM buffer to an ebiten player,
// applying playback rate (linear resampling), stereo pan, and gain on the
// way out. It is pulled from ebiten's audio thread while the control loop
// mutates rate/pan/gain and seeks, so every access takes the mutex.
//
// Past the end of the buffer the stream keeps returning silence instead of
// io.EOF. The player then never tears down, which keeps pause/seek/rate
// changes valid at any time; end-of-song is the session's business.
type pcmStream struct {
	mu   sync.Mutex
	data []byte  // interleaved int16 stereo at SampleRate
	pos  float64 // source frame cursor, fractional while resampling
	rate float64 // source frames consumed per output frame
	pan  float64 // -1 full left .. +1 full right
	gain float64 // 0..1
}

const bytesPerFrame = 4 // int16 stereo

func newPCMStream(data []byte) *pcmStream {
	return &pcmStream{data: data, rate: 1.0, gain: 1.0}
}

func (s *pcmStream) frames() float64 {
	return float64(len(s.data) / bytesPerFrame)
}

// frameAt reads source frame i with zero padding past either end.
func (s *pcmStream) frameAt(i int) (l, r float64) {
	if i < 0 || (i+1)*bytesPerFrame > len(s.data) {
		return 0, 0
	}
	off := i * bytesPerFrame
	l = float64(int16(binary.LittleEndian.Uint16(s.data[off:])))
	r = float64(int16(binary.LittleEndian.Uint16(s.data[off+2:])))
	return l, r
}

// Read implements io.Reader for the ebiten player.
func (s *pcmStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Balance-style pan on a stereo source: panning right attenuates the
	// left channel and vice versa.
	lGain, rGain := s.gain, s.gain
	if s.pan > 0 {
		lGain *= 1 - s.pan
	} else if s.pan < 0 {
		rGain *= 1 + s.pan
	}

	n := len(p) / bytesPerFrame
	for i := 0; i < n; i++ {
		var l, r float64
		if s.pos < s.frames() {
			base := int(math.Floor(s.pos))
			frac := s.pos - float64(base)
			l0, r0 := s.frameAt(base)
			l1, r1 := s.frameAt(base + 1)
			l = (l0 + (l1-l0)*frac) * lGain
			r = (r0 + (r1-r0)*frac) * rGain
			s.pos += s.rate
		}
		binary.LittleEndian.PutUint16(p[i*bytesPerFrame:], uint16(clampInt16(l)))
		binary.LittleEndian.PutUint16(p[i*bytesPerFrame+2:], uint16(clampInt16(r)))
	}
	return n * bytesPerFrame, nil
}

func clampInt16(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// PositionSeconds returns the source-time cursor in seconds. Because the
// cursor advances by rate per output frame, the value is already in the
// song's own clock regardless of playback speed.
func (s *pcmStream) PositionSeconds() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos / SampleRate
}

// SeekSeconds moves the source-time cursor.
func (s *pcmStream) SeekSeconds(sec float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sec < 0 {
		sec = 0
	}
	s.pos = sec * SampleRate
}

// SetRate sets the playback rate (1.0 = normal speed; also shifts pitch).
func (s *pcmStream) SetRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
}

// SetPan sets the stereo balance in [-1, 1].
func (s *pcmStream) SetPan(pan float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pan = math.Max(-1, math.Min(1, pan))
}

// SetGain sets the output gain in [0, 1].
func (s *pcmStream) SetGain(gain float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain = math.Max(0, math.Min(1, gain))
}

// Gain returns the current output gain.
func (s *pcmStream) Gain() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gain
}
